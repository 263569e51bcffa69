package ui

import (
	"html/template"
	"time"

	"github.com/ghg-insights/ghg-dashboard/internal/charts/svg"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/forecast"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/historical"
	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
	"github.com/ghg-insights/ghg-dashboard/internal/viewstate"
)

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
	LineMulti(width, height int, series []svg.Series, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG grouped bar chart rendering.
type BarRenderer interface {
	Bars(width, height int, series []svg.Series, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// DonutRenderer abstracts SVG ring chart rendering.
type DonutRenderer interface {
	Donut(width, height int, slices []svg.Slice, opts svg.DonutOpts) (template.HTML, error)
}

// Status is the render-ready phase of a fetch-backed screen.
type Status struct {
	Phase     string `json:"phase"`
	Seq       uint64 `json:"seq"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Loading reports whether the screen waits on the emissions API.
func (s Status) Loading() bool { return s.Phase == viewstate.PhaseLoading.String() }

// Failed reports whether the last fetch failed.
func (s Status) Failed() bool { return s.Phase == viewstate.PhaseError.String() }

// Empty reports whether the API answered without data.
func (s Status) Empty() bool { return s.Phase == viewstate.PhaseEmpty.String() }

// Ready reports whether a result is on screen.
func (s Status) Ready() bool { return s.Phase == viewstate.PhaseLoaded.String() }

// StatusOf summarises a screen for templates and the status endpoint.
func StatusOf[Q any, R viewstate.Result](s viewstate.Screen[Q, R]) Status {
	st := Status{Phase: s.Phase.String(), Seq: s.Seq}
	if !s.UpdatedAt.IsZero() {
		st.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if s.Err != nil {
		st.ErrorKind = gateway.Kind(s.Err)
		st.Error = gateway.Message(s.Err)
	}
	return st
}

// FilterForm is the historical filter panel.
type FilterForm struct {
	Query   emissions.HistoricalQuery
	Regions []emissions.Option
	Sectors []emissions.Option
	Gases   []emissions.Option
	Years   []int
	Errors  map[string]string
}

// HistoricalCharts are the rendered dashboard charts.
type HistoricalCharts struct {
	Trend  template.HTML
	Ratios template.HTML
}

// HistoricalPage is the data of pages/dashboard.html.
type HistoricalPage struct {
	Form   FilterForm
	Status Status
	VM     *historical.DashboardViewModel
	Charts HistoricalCharts
}

// ConfigForm is the forecast configuration panel.
type ConfigForm struct {
	Query   emissions.ForecastQuery
	Regions []emissions.Option
	Sectors []emissions.Option
	Gases   []emissions.Option
	Years   []int
	Months  []emissions.Option
	Errors  map[string]string
}

// ForecastCharts are the rendered prediction charts.
type ForecastCharts struct {
	Monthly     template.HTML
	Composition template.HTML
	Comparison  template.HTML
}

// ForecastPage is the data of pages/prediction.html.
type ForecastPage struct {
	Form   ConfigForm
	Status Status
	View   forecast.View
	VM     *forecast.ViewModel
	Charts ForecastCharts
}
