package svg

import "html/template"

// Renderer exposes the chart builders as methods.
type Renderer struct{}

// Line renders a single series line chart.
func (Renderer) Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	return Line(width, height, series, labels, opts)
}

// LineMulti renders overlaid line series.
func (Renderer) LineMulti(width, height int, series []Series, labels []string, opts LineOpts) (template.HTML, error) {
	return LineMulti(width, height, series, labels, opts)
}

// Bars renders grouped bars.
func (Renderer) Bars(width, height int, series []Series, labels []string, opts BarOpts) (template.HTML, error) {
	return Bars(width, height, series, labels, opts)
}

// Donut renders a ratio ring.
func (Renderer) Donut(width, height int, slices []Slice, opts DonutOpts) (template.HTML, error) {
	return Donut(width, height, slices, opts)
}
