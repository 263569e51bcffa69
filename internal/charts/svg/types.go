package svg

import (
	"fmt"
	"math"
	"strings"
)

// TickFormatter renders an axis value.
type TickFormatter func(float64) string

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
	FormatTick  TickFormatter
}

// Series is one named value set of a grouped bar or multi-line chart.
type Series struct {
	Label  string
	Color  string
	Values []float64
	// Dashed only applies to line charts.
	Dashed bool
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	FormatTick  TickFormatter
}

// Slice is one arc of a donut chart.
type Slice struct {
	Label string
	Color string
	Value float64
}

// DonutOpts customises the donut renderer.
type DonutOpts struct {
	Title       string
	Description string
	// Thickness is the ring width in viewport units.
	Thickness  float64
	LabelColor string
	// FormatValue renders the value shown in the legend.
	FormatValue TickFormatter
}

// Chart defaults.
const (
	DefaultWidth   = 720
	DefaultHeight  = 280
	DefaultPadding = 40.0
	DefaultTicks   = 5
)

// Palette used when a series carries no colour.
var seriesColors = []string{"#0ea5e9", "#f97316", "#10b981", "#8b5cf6", "#ef4444", "#eab308"}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	minVal := series[0]
	maxVal := series[0]
	for _, v := range series[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// axisRange widens [min,max] so that it always includes zero and never collapses.
func axisRange(minVal, maxVal float64) (float64, float64) {
	if minVal > 0 {
		minVal = 0
	}
	if maxVal < 0 {
		maxVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

// CompactTick is the default axis formatter.
func CompactTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
}

func formatter(f TickFormatter) TickFormatter {
	if f == nil {
		return CompactTick
	}
	return f
}
