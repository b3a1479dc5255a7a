package testutil

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPDF_XrefOffsetsPointAtObjects(t *testing.T) {
	spec := TextPDF(72, "hello (world)", "second page")
	spec.Pages[1].Width = 300
	spec.Pages[1].Height = 400
	spec.Pages = append(spec.Pages, PDFPage{Image: image.NewGray(image.Rect(0, 0, 4, 3))})
	data := BuildPDF(spec)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-1.4")))
	assert.True(t, bytes.HasSuffix(data, []byte("%%EOF\n")))
	assert.Contains(t, string(data), `(hello \(world\)) Tj`)
	assert.Contains(t, string(data), "/MediaBox [0 0 300 400]")

	// startxref must point at the xref table and every entry must land on "<n> 0 obj".
	tail := data[bytes.LastIndex(data, []byte("startxref\n")):]
	var xrefAt int
	_, err := fmt.Sscanf(string(tail), "startxref\n%d\n", &xrefAt)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data[xrefAt:], []byte("xref\n")))

	lines := strings.Split(string(data[xrefAt:]), "\n")
	var first, size int
	_, err = fmt.Sscanf(lines[1], "%d %d", &first, &size)
	require.NoError(t, err)
	assert.Equal(t, 0, first)
	// catalog, page tree, font, 2+2 text page objects, 3 image page objects
	assert.Equal(t, 11, size)
	require.Greater(t, len(lines), size+2)
	assert.Equal(t, "0000000000 65535 f ", lines[2])

	for n := 1; n < size; n++ {
		var off int
		_, err := fmt.Sscanf(lines[n+2], "%010d", &off)
		require.NoError(t, err, "entry %d", n)
		require.Less(t, off, len(data))
		assert.True(t, bytes.HasPrefix(data[off:], []byte(fmt.Sprintf("%d 0 obj", n))), "object %d", n)
	}
}

func TestNum(t *testing.T) {
	assert.Equal(t, "612", num(612))
	assert.Equal(t, "0.5", num(0.5))
	assert.Equal(t, "0", num(0))
}
