package document

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/MeKo-Tech/lexocr/internal/layout"
	"github.com/dslipak/pdf"
)

// maxInheritDepth bounds the walk up the page tree for inherited attributes.
const maxInheritDepth = 32

type pageGeometry struct {
	width  float64
	glyphs []layout.Glyph
}

// readGeometry reads the media box width and text glyph boxes of pages.
// Pages whose geometry cannot be read are missing from the result; they get
// a zero column ratio downstream.
func readGeometry(path string, pages []int, logger *slog.Logger) map[int]pageGeometry {
	out := make(map[int]pageGeometry, len(pages))

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided PDF file path is expected
	if err != nil {
		logger.Warn("cannot read page geometry", "error", err)
		return out
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		logger.Warn("cannot read page geometry", "error", err)
		return out
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		logger.Warn("cannot parse PDF for page geometry", "error", err)
		return out
	}

	for _, n := range pages {
		g, err := pageGeometryOf(reader, n)
		if err != nil {
			logger.Warn("page geometry unavailable, assuming unknown layout", "page", n, "error", err)
			continue
		}
		out[n] = g
	}
	return out
}

// pageGeometryOf extracts geometry for page n. The PDF reader panics on
// malformed content, which is reported as an error.
func pageGeometryOf(reader *pdf.Reader, n int) (g pageGeometry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	if n < 1 || n > reader.NumPage() {
		return g, fmt.Errorf("page %d does not exist", n)
	}
	page := reader.Page(n)
	if page.V.IsNull() {
		return g, fmt.Errorf("page %d is null", n)
	}

	g.width = mediaBoxWidth(page.V)
	for _, t := range page.Content().Text {
		g.glyphs = append(g.glyphs, layout.Glyph{Left: t.X, Width: t.W})
	}
	return g, nil
}

// mediaBoxWidth returns the width of the page's MediaBox, following Parent
// links for inherited boxes. It returns 0 when no box is found.
func mediaBoxWidth(v pdf.Value) float64 {
	for range maxInheritDepth {
		if v.IsNull() {
			return 0
		}
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return math.Abs(box.Index(2).Float64() - box.Index(0).Float64())
		}
		v = v.Key("Parent")
	}
	return 0
}
