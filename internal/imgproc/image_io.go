package imgproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// SupportedImageExtensions lists supported file extensions for page images.
var SupportedImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	return slices.Contains(SupportedImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// LoadImage opens and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		return nil, &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}

	f, err := os.Open(path) //nolint:gosec // G304: reading user-provided page images is expected
	if err != nil {
		return nil, &ImageProcessingError{Operation: "load", Err: err}
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &ImageProcessingError{Operation: "decode", Err: err}
	}
	return img, nil
}

// EncodePNG encodes img as PNG, the format handed to recognition engines.
func EncodePNG(img image.Image) ([]byte, error) {
	if err := checkImage("encode", img); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &ImageProcessingError{Operation: "encode", Err: err}
	}
	return buf.Bytes(), nil
}
