package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"testing"

	"github.com/MeKo-Tech/lexocr/internal/layout"
	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireTesseract(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
}

func TestPageSegMode(t *testing.T) {
	assert.Equal(t, gosseract.PSM_SINGLE_BLOCK, PageSegMode(layout.SingleBlock))
	assert.Equal(t, gosseract.PSM_AUTO_OSD, PageSegMode(layout.AutoWithOrientationDetection))
}

func TestCloseNil(t *testing.T) {
	var r *Recognizer
	assert.NoError(t, r.Close())
}

func TestRecognize_BlankPage(t *testing.T) {
	requireTesseract(t)

	r, err := New(DefaultConfig())
	if err != nil {
		t.Skipf("Tesseract not usable: %v", err)
	}
	defer func() { _ = r.Close() }()

	img := image.NewGray(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	// A blank page produces no meaningful text; only check that the engine runs.
	_, err = r.Recognize(context.Background(), img, layout.AutoWithOrientationDetection)
	require.NoError(t, err)
}

func TestRecognize_CanceledContext(t *testing.T) {
	requireTesseract(t)

	r, err := New(DefaultConfig())
	if err != nil {
		t.Skipf("Tesseract not usable: %v", err)
	}
	defer func() { _ = r.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Recognize(ctx, image.NewGray(image.Rect(0, 0, 10, 10)), layout.SingleBlock)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFactoryProducesIndependentHandles(t *testing.T) {
	requireTesseract(t)

	f := NewFactory(DefaultConfig())
	a, err := f()
	if err != nil {
		t.Skipf("Tesseract not usable: %v", err)
	}
	defer func() { _ = a.Close() }()
	b, err := f()
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	assert.NotSame(t, a, b)
}
