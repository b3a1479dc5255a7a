// Package layout derives a page's text spread from glyph geometry and maps it
// to a recognizer segmentation mode.
package layout

import "math"

// SingleBlockRatio is the column ratio above which a page is treated as one
// uniform block of text. The comparison is exclusive.
const SingleBlockRatio = 0.8

// Glyph is the horizontal extent of a text element in page-space units.
type Glyph struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

// Right returns the glyph's right edge.
func (g Glyph) Right() float64 { return g.Left + g.Width }

// SegmentationMode tells the recognizer how text is assumed to be laid out.
type SegmentationMode int

const (
	// AutoWithOrientationDetection lets the engine find blocks and detect orientation.
	// It is the default for pages with unknown layout.
	AutoWithOrientationDetection SegmentationMode = iota
	// SingleBlock treats the page as a single uniform block of text.
	SingleBlock
)

// String returns the string representation of the segmentation mode.
func (m SegmentationMode) String() string {
	switch m {
	case SingleBlock:
		return "single_block"
	case AutoWithOrientationDetection:
		return "auto_osd"
	default:
		return "unknown"
	}
}

// ColumnRatio returns the fraction of the page width spanned by the glyphs:
// (max right edge - min left edge) / width. Pages without glyphs, or with a
// non-positive width, yield 0. The result is clamped to [0, 1].
func ColumnRatio(width float64, glyphs []Glyph) float64 {
	if width <= 0 || len(glyphs) == 0 {
		return 0
	}

	minLeft := math.Inf(1)
	maxRight := math.Inf(-1)
	for _, g := range glyphs {
		minLeft = math.Min(minLeft, g.Left)
		maxRight = math.Max(maxRight, g.Right())
	}

	ratio := (maxRight - minLeft) / width
	switch {
	case math.IsNaN(ratio) || ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}

// SelectMode maps a column ratio to a segmentation mode. It depends on the
// ratio alone.
func SelectMode(ratio float64) SegmentationMode {
	if ratio > SingleBlockRatio {
		return SingleBlock
	}
	return AutoWithOrientationDetection
}

// Analyze computes the column ratio for a page and the mode it selects.
func Analyze(width float64, glyphs []Glyph) (float64, SegmentationMode) {
	ratio := ColumnRatio(width, glyphs)
	return ratio, SelectMode(ratio)
}
