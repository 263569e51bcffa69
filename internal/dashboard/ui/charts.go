package ui

import (
	"fmt"
	"strconv"

	"github.com/ghg-insights/ghg-dashboard/internal/charts/svg"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/forecast"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/historical"
)

// Chart sizes.
const (
	TrendWidth  = 720
	TrendHeight = 300
	DonutWidth  = 420
	DonutHeight = 240
)

// TopTrendColor draws the top subsector overlay.
const TopTrendColor = "#3b82f6"

// ChartSet renders the page charts with the configured renderers.
type ChartSet struct {
	Line  LineRenderer
	Bar   BarRenderer
	Donut DonutRenderer
}

// SVGCharts renders every chart with the built-in SVG builders.
func SVGCharts() ChartSet {
	r := svg.Renderer{}
	return ChartSet{Line: r, Bar: r, Donut: r}
}

func (c ChartSet) ready() error {
	if c.Line == nil || c.Bar == nil || c.Donut == nil {
		return fmt.Errorf("svg renderer missing")
	}
	return nil
}

// Historical renders the yearly trend (with the top subsector overlay) and the gas ratio
// ring of vm.
func (c ChartSet) Historical(vm historical.DashboardViewModel) (HistoricalCharts, error) {
	if err := c.ready(); err != nil {
		return HistoricalCharts{}, err
	}
	var out HistoricalCharts
	labels := vm.Labels()
	if len(labels) > 0 {
		opts := svg.LineOpts{
			Title:       vm.SectorLabel + " Emissions Trend",
			Description: vm.DatasetLabel + " " + vm.YearRange,
			ShowDots:    true,
			FormatTick:  emissions.FormatValue,
		}
		var err error
		if vm.TopTrend != nil {
			out.Trend, err = c.Line.LineMulti(TrendWidth, TrendHeight, []svg.Series{
				{Label: vm.DatasetLabel, Color: "#10b981", Values: vm.Values()},
				{Label: "Top Subsector: " + vm.TopTrend.Label, Color: TopTrendColor, Values: AlignYears(labels, vm.TopTrend.Points), Dashed: true},
			}, labels, opts)
		} else {
			out.Trend, err = c.Line.Line(TrendWidth, TrendHeight, vm.Values(), labels, opts)
		}
		if err != nil {
			return HistoricalCharts{}, fmt.Errorf("trend chart: %w", err)
		}
	}
	if len(vm.Ratios) > 0 {
		slices := make([]svg.Slice, 0, len(vm.Ratios))
		for _, r := range vm.Ratios {
			slices = append(slices, svg.Slice{Label: r.Label, Color: r.Color, Value: r.Ratio})
		}
		ring, err := c.Donut.Donut(DonutWidth, DonutHeight, slices, svg.DonutOpts{
			Title:       "Gas Emission Ratios",
			Description: "Share of each greenhouse gas in " + vm.SectorLabel,
			FormatValue: emissions.FormatPercent,
		})
		if err != nil {
			return HistoricalCharts{}, fmt.Errorf("ratio chart: %w", err)
		}
		out.Ratios = ring
	}
	return out, nil
}

// Forecast renders the monthly trend, the gas composition ring and the gas comparison bars
// of vm.
func (c ChartSet) Forecast(vm forecast.ViewModel) (ForecastCharts, error) {
	if err := c.ready(); err != nil {
		return ForecastCharts{}, err
	}
	var out ForecastCharts
	var err error
	out.Monthly, err = c.Line.Line(TrendWidth, TrendHeight, vm.Monthly, vm.MonthLabels, svg.LineOpts{
		Title:       vm.Title,
		Description: vm.DatasetLabel,
		StrokeColor: vm.Palette.Primary,
		FillColor:   vm.Palette.Light,
		ShowDots:    true,
		FormatTick:  emissions.FormatValue,
	})
	if err != nil {
		return ForecastCharts{}, fmt.Errorf("monthly chart: %w", err)
	}

	slices := make([]svg.Slice, 0, len(vm.Composition))
	for _, g := range vm.Composition {
		slices = append(slices, svg.Slice{Label: g.Label, Color: g.Palette.Primary, Value: g.Ratio})
	}
	if hasPositive(slices) {
		out.Composition, err = c.Donut.Donut(DonutWidth, DonutHeight, slices, svg.DonutOpts{
			Title:       "Gas Composition",
			Description: "Forecast share of each greenhouse gas",
			FormatValue: emissions.FormatPercent,
		})
		if err != nil {
			return ForecastCharts{}, fmt.Errorf("composition chart: %w", err)
		}
	}

	if len(vm.Comparison.Labels) > 0 && len(vm.Comparison.Series) > 0 {
		series := make([]svg.Series, 0, len(vm.Comparison.Series))
		for _, s := range vm.Comparison.Series {
			series = append(series, svg.Series{Label: s.Label, Color: s.Color, Values: s.Values})
		}
		out.Comparison, err = c.Bar.Bars(TrendWidth, TrendHeight, series, vm.Comparison.Labels, svg.BarOpts{
			Title:       vm.Comparison.Title,
			Description: "Estimated emissions per gas for the largest subsectors",
			FormatTick:  emissions.FormatValue,
		})
		if err != nil {
			return ForecastCharts{}, fmt.Errorf("comparison chart: %w", err)
		}
	}
	return out, nil
}

// AlignYears maps points onto labels, filling years the series lacks with zero.
func AlignYears(labels []string, points []historical.YearPoint) []float64 {
	byYear := make(map[int]float64, len(points))
	for _, p := range points {
		if y, err := strconv.Atoi(p.Year); err == nil {
			byYear[y] = p.Value
		}
	}
	out := make([]float64, len(labels))
	for i, label := range labels {
		if y, err := strconv.Atoi(label); err == nil {
			out[i] = byYear[y]
		}
	}
	return out
}

func hasPositive(slices []svg.Slice) bool {
	for _, s := range slices {
		if s.Value > 0 {
			return true
		}
	}
	return false
}
