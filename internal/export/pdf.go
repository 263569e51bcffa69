package export

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions/historical"
	"github.com/ghg-insights/ghg-dashboard/report"
)

// HistoricalTemplate is the template name of the dashboard PDF document.
const HistoricalTemplate = "reports/historical"

// Renderer converts a complete HTML document into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string, opts report.PageOptions) ([]byte, error)
}

// Fragments renders named templates to strings.
type Fragments interface {
	Fragment(name string, data any) (string, error)
}

// HistoricalReport is the data of the dashboard PDF template.
type HistoricalReport struct {
	historical.DashboardViewModel
	Trend       template.HTML
	GeneratedAt string
}

// PDFExporter renders dashboard summaries through Gotenberg.
type PDFExporter struct {
	renderer  Renderer
	fragments Fragments
	now       func() time.Time
}

// NewPDFExporter constructs a PDFExporter.
func NewPDFExporter(renderer Renderer, fragments Fragments) *PDFExporter {
	return &PDFExporter{renderer: renderer, fragments: fragments, now: time.Now}
}

// WithNow overrides the clock stamped into documents.
func (p *PDFExporter) WithNow(now func() time.Time) *PDFExporter {
	if now != nil {
		p.now = now
	}
	return p
}

// Historical renders vm with its trend chart as an A4 landscape PDF.
func (p *PDFExporter) Historical(ctx context.Context, vm historical.DashboardViewModel, trend template.HTML) ([]byte, error) {
	if p == nil || p.renderer == nil || p.fragments == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	html, err := p.fragments.Fragment(HistoricalTemplate, HistoricalReport{
		DashboardViewModel: vm,
		Trend:              trend,
		GeneratedAt:        p.now().UTC().Format("02 Jan 2006 15:04 MST"),
	})
	if err != nil {
		return nil, fmt.Errorf("export: render report html: %w", err)
	}
	pdf, err := p.renderer.RenderHTML(ctx, html, report.PageOptions{Landscape: true, PrintBackground: true, Margin: 0.4})
	if err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return pdf, nil
}
