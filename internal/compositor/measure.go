package compositor

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// EstimateMeasurer sizes text from its terminal display width, so wide CJK
// glyphs count double. It stands in for a real font when none is loaded.
type EstimateMeasurer struct {
	// Advance is the width of one narrow cell relative to the font size.
	Advance float64
	// LineHeight is the line height relative to the font size.
	LineHeight float64
	// StrokeWidth is added on both sides of the text.
	StrokeWidth float64
}

// NewEstimateMeasurer returns a measurer tuned for typical sans-serif faces.
func NewEstimateMeasurer(strokeWidth float64) EstimateMeasurer {
	return EstimateMeasurer{Advance: 0.6, LineHeight: 1.2, StrokeWidth: strokeWidth}
}

// Measure implements Measurer.
func (m EstimateMeasurer) Measure(text string, fontSize float64) (float64, float64) {
	advance := m.Advance
	if advance <= 0 {
		advance = 0.6
	}
	lineHeight := m.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1.2
	}
	cells := runewidth.StringWidth(strings.TrimSpace(text))
	width := float64(cells) * fontSize * advance
	height := fontSize * lineHeight
	if cells > 0 {
		width += 2 * m.StrokeWidth
	}
	return width, height + 2*m.StrokeWidth
}
