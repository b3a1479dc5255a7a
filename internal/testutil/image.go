package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
)

// PageImageConfig holds configuration for generating synthetic page scans.
type PageImageConfig struct {
	Lines      []string
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	Margin     int
}

// DefaultPageImageConfig returns a default configuration for page images.
func DefaultPageImageConfig() PageImageConfig {
	return PageImageConfig{
		Lines:      []string{"The quick brown fox"},
		Size:       MediumSize,
		Background: color.White,
		Foreground: color.Black,
		Margin:     20,
	}
}

// GeneratePageImage draws the configured lines top-down from the margin
// using the 7x13 bitmap face.
func GeneratePageImage(config PageImageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, config.Size.Width, config.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: face,
	}

	lineHeight := face.Metrics().Height.Ceil()
	for i, line := range config.Lines {
		drawer.Dot = fixed.P(config.Margin, config.Margin+(i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

// TextWidth returns the pixel width of s in the bitmap face.
func TextWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

// CreateTestImage creates a simple test image with the specified dimensions and color.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// CreateTestImageWithText creates a page image with one line per entry of text
// separated by newlines.
func CreateTestImageWithText(text string, width, height int) image.Image {
	config := DefaultPageImageConfig()
	config.Lines = strings.Split(text, "\n")
	config.Size = ImageSize{Width: width, Height: height}
	return GeneratePageImage(config)
}

// SaveImage saves an image to the specified path as PNG.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, EnsureDir(dir), "Failed to create directory %s", dir)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}
