package imgproc

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Ladder is an ordered sequence of brightness thresholds, tried first to last.
// Earlier entries binarize more conservatively.
type Ladder []uint8

// DefaultLadder is the threshold sequence used when none is configured.
var DefaultLadder = Ladder{180, 150, 128, 100, 70}

// NewLadder builds a ladder from configuration values, keeping their order.
func NewLadder(values []int) (Ladder, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("threshold ladder is empty")
	}
	l := make(Ladder, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("threshold %d at position %d out of range [0,255]", v, i)
		}
		l[i] = uint8(v)
	}
	return l, nil
}

// Validate reports an empty ladder.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("threshold ladder is empty")
	}
	return nil
}

// Ints returns the ladder as plain integers, e.g. for configuration output.
func (l Ladder) Ints() []int {
	out := make([]int, len(l))
	for i, v := range l {
		out[i] = int(v)
	}
	return out
}

// ToGray converts img to an 8-bit grayscale image with its origin at (0, 0).
// Gray inputs are copied so callers never share pixel buffers.
func ToGray(img image.Image) (*image.Gray, error) {
	if err := checkImage("grayscale", img); err != nil {
		return nil, err
	}

	if g, ok := img.(*image.Gray); ok {
		b := g.Bounds()
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := range b.Dy() {
			src := g.Pix[(y)*g.Stride : y*g.Stride+b.Dx()]
			copy(out.Pix[y*out.Stride:], src)
		}
		return out, nil
	}

	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		row := nrgba.Pix[y*nrgba.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := range b.Dx() {
			// imaging.Grayscale writes the luminance into all three color channels.
			dst[x] = row[x*4]
		}
	}
	return out, nil
}

// Binarize maps every pixel strictly above threshold to white (255) and every
// other pixel to black (0). The source image is left untouched.
func Binarize(gray *image.Gray, threshold uint8) (*image.Gray, error) {
	if gray == nil {
		return nil, &ImageProcessingError{Operation: "binarize", Err: errNilImage}
	}
	if err := checkImage("binarize", gray); err != nil {
		return nil, err
	}

	b := gray.Bounds()
	out := image.NewGray(b)
	w, h := b.Dx(), b.Dy()
	for y := range h {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			if v > threshold {
				dst[x] = 255
			} else {
				dst[x] = 0
			}
		}
	}
	return out, nil
}
