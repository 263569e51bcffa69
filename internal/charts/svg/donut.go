package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Donut renders a ring chart of the positive slices with a legend on the right.
func Donut(width, height int, slices []Slice, opts DonutOpts) (template.HTML, error) {
	visible := make([]Slice, 0, len(slices))
	total := 0.0
	for _, s := range slices {
		if s.Value > 0 {
			visible = append(visible, s)
			total += s.Value
		}
	}
	if len(visible) == 0 {
		return "", fmt.Errorf("svg: at least one positive slice required")
	}
	if width <= 0 {
		width = DefaultWidth / 2
	}
	if height <= 0 {
		height = DefaultHeight
	}
	labelColor := fallback(opts.LabelColor, "#334155")
	format := opts.FormatValue
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.1f%%", v) }
	}

	radius := math.Min(float64(width)*0.6, float64(height)) / 2 * 0.9
	thickness := opts.Thickness
	if thickness <= 0 || thickness >= radius {
		thickness = radius * 0.4
	}
	cx := radius + 8
	cy := float64(height) / 2
	mid := radius - thickness/2

	titleID := makeID(opts.Title, "donut-title")
	descID := makeID(opts.Title, "donut-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Donut chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share of total")))

	angle := -math.Pi / 2
	for i, s := range visible {
		color := fallback(s.Color, seriesColors[i%len(seriesColors)])
		label := template.HTMLEscapeString(s.Label)
		if len(visible) == 1 {
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\"><title>%s</title></circle>", cx, cy, mid, color, thickness, label)
			break
		}
		sweep := s.Value / total * 2 * math.Pi
		end := angle + sweep
		large := 0
		if sweep > math.Pi {
			large = 1
		}
		fmt.Fprintf(&b, "<path d=\"M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\"><title>%s</title></path>",
			cx+mid*math.Cos(angle), cy+mid*math.Sin(angle), mid, mid, large, cx+mid*math.Cos(end), cy+mid*math.Sin(end), color, thickness, label)
		angle = end
	}

	legendX := cx + radius + 24
	legendY := cy - float64(len(visible)-1)*10
	for i, s := range visible {
		y := legendY + float64(i)*20
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, y-8, fallback(s.Color, seriesColors[i%len(seriesColors)]))
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s %s</text>", legendX+16, y+1, labelColor,
			template.HTMLEscapeString(s.Label), template.HTMLEscapeString(format(s.Value)))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
