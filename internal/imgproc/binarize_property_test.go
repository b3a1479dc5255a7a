package imgproc

import (
	"image"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func grayFromPixels(pix []uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 8, len(pix)/8))
	copy(img.Pix, pix)
	return img
}

// TestBinarize_Properties verifies idempotence and bilevel output for arbitrary images.
func TestBinarize_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("binarizing a bilevel image again is a no-op", prop.ForAll(
		func(pix []uint8, threshold uint8) bool {
			once, err := Binarize(grayFromPixels(pix), threshold)
			if err != nil {
				return false
			}
			twice, err := Binarize(once, threshold)
			if err != nil {
				return false
			}
			for i := range once.Pix {
				if once.Pix[i] != twice.Pix[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(64, gen.UInt8()),
		gen.UInt8(),
	))

	properties.Property("output is bilevel and follows the strict comparison", prop.ForAll(
		func(pix []uint8, threshold uint8) bool {
			src := grayFromPixels(pix)
			out, err := Binarize(src, threshold)
			if err != nil {
				return false
			}
			for i, v := range out.Pix {
				want := uint8(0)
				if src.Pix[i] > threshold {
					want = 255
				}
				if v != want {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(64, gen.UInt8()),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
