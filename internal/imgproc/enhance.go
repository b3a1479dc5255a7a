package imgproc

import (
	"image"

	"github.com/disintegration/imaging"
)

// Enhancer boosts contrast and sharpens a page that failed plain thresholding.
type Enhancer struct {
	// Contrast is the imaging.AdjustContrast percentage in (-100, 100].
	Contrast float64
	// Sigma is the Gaussian blur radius used for the unsharp step.
	Sigma float64
}

// DefaultEnhancer returns the enhancement strength used by the cascade.
func DefaultEnhancer() Enhancer {
	return Enhancer{Contrast: 30, Sigma: 1.0}
}

// Enhance returns a contrast-boosted, sharpened copy of img. Sharpening is
// computed per color channel as original + (original - blurred), saturated to
// [0, 255]. Alpha is preserved.
func (e Enhancer) Enhance(img image.Image) (image.Image, error) {
	if err := checkImage("enhance", img); err != nil {
		return nil, err
	}

	contrasted := imaging.AdjustContrast(img, e.Contrast)
	blurred := imaging.Blur(contrasted, e.Sigma)

	out := image.NewNRGBA(contrasted.Bounds())
	for i, o := range contrasted.Pix {
		if i%4 == 3 {
			out.Pix[i] = o
			continue
		}
		out.Pix[i] = saturate(2*int(o) - int(blurred.Pix[i]))
	}
	return out, nil
}

func saturate(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
