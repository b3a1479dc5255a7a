package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnRatio_NoGlyphs(t *testing.T) {
	ratio, mode := Analyze(612, nil)
	assert.InDelta(t, 0.0, ratio, 1e-12)
	assert.Equal(t, AutoWithOrientationDetection, mode)
}

func TestColumnRatio_FullWidth(t *testing.T) {
	glyphs := []Glyph{{Left: 0, Width: 300}, {Left: 300, Width: 312}}
	ratio, mode := Analyze(612, glyphs)
	assert.InDelta(t, 1.0, ratio, 1e-12)
	assert.Equal(t, SingleBlock, mode)
}

func TestColumnRatio_BoundaryIsExclusive(t *testing.T) {
	glyphs := []Glyph{{Left: 10, Width: 30}, {Left: 60, Width: 30}}
	ratio, mode := Analyze(100, glyphs)
	assert.InDelta(t, 0.80, ratio, 1e-9)
	assert.Equal(t, AutoWithOrientationDetection, mode)
}

func TestColumnRatio_TracksExtremes(t *testing.T) {
	// Order of glyphs must not matter.
	glyphs := []Glyph{
		{Left: 50, Width: 5},
		{Left: 5, Width: 10},
		{Left: 70, Width: 25},
		{Left: 20, Width: 1},
	}
	assert.InDelta(t, 0.90, ColumnRatio(100, glyphs), 1e-9)
}

func TestColumnRatio_Clamped(t *testing.T) {
	glyphs := []Glyph{{Left: -20, Width: 150}}
	assert.InDelta(t, 1.0, ColumnRatio(100, glyphs), 1e-12)
}

func TestColumnRatio_InvalidWidth(t *testing.T) {
	glyphs := []Glyph{{Left: 0, Width: 10}}
	assert.Zero(t, ColumnRatio(0, glyphs))
	assert.Zero(t, ColumnRatio(-5, glyphs))
}

func TestSelectMode(t *testing.T) {
	tests := []struct {
		ratio float64
		want  SegmentationMode
	}{
		{0, AutoWithOrientationDetection},
		{0.5, AutoWithOrientationDetection},
		{0.8, AutoWithOrientationDetection},
		{0.8000001, SingleBlock},
		{1, SingleBlock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectMode(tt.ratio), "ratio %v", tt.ratio)
	}
}

func TestSegmentationModeString(t *testing.T) {
	assert.Equal(t, "single_block", SingleBlock.String())
	assert.Equal(t, "auto_osd", AutoWithOrientationDetection.String())
	assert.Equal(t, "unknown", SegmentationMode(42).String())
}
