// Package imgproc prepares page rasters for recognition: grayscale conversion,
// fixed-threshold binarization and the contrast/sharpen enhancement fallback.
package imgproc

import (
	"errors"
	"fmt"
	"image"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

var (
	errNilImage   = errors.New("input image is nil")
	errEmptyImage = errors.New("input image is empty")
)

// checkImage rejects nil and zero-area images.
func checkImage(op string, img image.Image) error {
	if img == nil {
		return &ImageProcessingError{Operation: op, Err: errNilImage}
	}
	if img.Bounds().Empty() {
		return &ImageProcessingError{Operation: op, Err: errEmptyImage}
	}
	return nil
}
