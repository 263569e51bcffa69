package dashboardhttp

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ghg-insights/ghg-dashboard/internal/dashboard/ui"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/forecast"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/historical"
	"github.com/ghg-insights/ghg-dashboard/internal/export"
	"github.com/ghg-insights/ghg-dashboard/internal/platform/httpx"
	"github.com/ghg-insights/ghg-dashboard/internal/shared"
	"github.com/ghg-insights/ghg-dashboard/internal/view"
	"github.com/ghg-insights/ghg-dashboard/internal/viewstate"
)

var errNoSession = fmt.Errorf("dashboard: session missing: %w", httpx.ErrUnauthorized)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Screens starts and observes the background fetches of a workspace.
type Screens interface {
	Store() *viewstate.Store
	MountDashboard(id string) viewstate.Workspace
	MountPrediction(id string) viewstate.Workspace
	LoadHistorical(id string, q emissions.HistoricalQuery) uint64
	LoadForecast(id string, q emissions.ForecastQuery) uint64
	RetryHistorical(id string) bool
	RetryForecast(id string) bool
}

// PDFService renders the dashboard summary to PDF bytes.
type PDFService interface {
	Historical(ctx context.Context, vm historical.DashboardViewModel, trend template.HTML) ([]byte, error)
}

// Handler serves the dashboard and prediction screens.
type Handler struct {
	logger    *slog.Logger
	screens   Screens
	validator *emissions.Validator
	templates *view.Engine
	charts    ui.ChartSet
	pdf       PDFService
	csrf      *shared.CSRFManager
	bufPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the dashboard HTTP handler. pdf may be nil when no renderer is
// configured; the PDF export then answers 503.
func NewHandler(logger *slog.Logger, screens Screens, validator *emissions.Validator, templates *view.Engine, charts ui.ChartSet, pdf PDFService, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		screens:   screens,
		validator: validator,
		templates: templates,
		charts:    charts,
		pdf:       pdf,
		csrf:      csrf,
		now:       time.Now,
	}
	h.bufPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		h.handleServerError(w, "load workspace", err)
		return
	}
	ws := h.screens.MountDashboard(sess.ID)
	h.renderDashboard(w, r, http.StatusOK, ws, ws.Dashboard.Query, nil)
}

func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		h.handleServerError(w, "load workspace", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	q := emissions.HistoricalQuery{
		Country:   strings.ToUpper(strings.TrimSpace(r.PostFormValue("country"))),
		Sector:    strings.TrimSpace(r.PostFormValue("sector")),
		Gas:       emissions.NormalizeGas(r.PostFormValue("gas")),
		StartYear: formInt(r, "start_year"),
		EndYear:   formInt(r, "end_year"),
	}
	if err := h.validator.Historical(q); err != nil {
		h.logger.Info("historical filters rejected", slog.String("error", err.Error()))
		ws := h.screens.Store().Snapshot(sess.ID)
		h.renderDashboard(w, r, http.StatusBadRequest, ws, q, err)
		return
	}
	seq := h.screens.LoadHistorical(sess.ID, q)
	h.logger.Debug("historical fetch issued", slog.String("session", sess.ID), slog.Uint64("seq", seq))
	http.Redirect(w, r, viewstate.Dashboard.Path(), http.StatusSeeOther)
}

func (h *Handler) handleDashboardRetry(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		h.handleServerError(w, "load workspace", err)
		return
	}
	if !h.screens.RetryHistorical(sess.ID) {
		h.screens.MountDashboard(sess.ID)
	}
	http.Redirect(w, r, viewstate.Dashboard.Path(), http.StatusSeeOther)
}

func (h *Handler) handleDashboardStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ui.StatusOf(h.screens.Store().Snapshot(sess.ID).Dashboard))
}

func (h *Handler) handlePrediction(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		h.handleServerError(w, "load workspace", err)
		return
	}
	ws := h.screens.MountPrediction(sess.ID)
	h.renderPrediction(w, r, http.StatusOK, ws, ws.Prediction.Query, nil)
}

func (h *Handler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		h.handleServerError(w, "load workspace", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	q := emissions.ForecastQuery{
		Country: strings.ToUpper(strings.TrimSpace(r.PostFormValue("country"))),
		Sector:  strings.TrimSpace(r.PostFormValue("sector")),
		Gas:     emissions.NormalizeGas(r.PostFormValue("gas")),
		Year:    formInt(r, "year"),
		Month:   1,
	}
	if err := h.validator.Forecast(q); err != nil {
		h.logger.Info("forecast configuration rejected", slog.String("error", err.Error()))
		ws := h.screens.Store().Snapshot(sess.ID)
		h.renderPrediction(w, r, http.StatusBadRequest, ws, q, err)
		return
	}
	seq := h.screens.LoadForecast(sess.ID, q)
	h.logger.Debug("forecast fetch issued", slog.String("session", sess.ID), slog.Uint64("seq", seq))
	http.Redirect(w, r, viewstate.Prediction.Path(), http.StatusSeeOther)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		h.handleServerError(w, "load workspace", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	mode := forecast.ParseMode(r.PostFormValue("mode"))
	month := formInt(r, "month")
	h.screens.Store().ChangeView(sess.ID, func(v viewstate.ForecastView) viewstate.ForecastView {
		return v.SetMode(mode).SelectMonth(month)
	})
	http.Redirect(w, r, viewstate.Prediction.Path(), http.StatusSeeOther)
}

func (h *Handler) handlePredictionRetry(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		h.handleServerError(w, "load workspace", err)
		return
	}
	if !h.screens.RetryForecast(sess.ID) {
		h.screens.MountPrediction(sess.ID)
	}
	http.Redirect(w, r, viewstate.Prediction.Path(), http.StatusSeeOther)
}

func (h *Handler) handlePredictionStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ui.StatusOf(h.screens.Store().Snapshot(sess.ID).Prediction))
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	vm, q, err := h.loadedHistorical(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	buf := h.buffer()
	defer h.bufPool.Put(buf)
	if err := export.WriteHistoricalCSV(buf, vm); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	h.attach(w, "text/csv; charset=utf-8", historicalFilename(q, "csv"), buf.Bytes())
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.RespondError(w, fmt.Errorf("pdf export: %w", httpx.ErrUnavailable))
		return
	}
	vm, q, err := h.loadedHistorical(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	charts, err := h.charts.Historical(vm)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}
	pdf, err := h.pdf.Historical(r.Context(), vm, charts.Trend)
	if err != nil {
		h.logger.Error("render pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Rendering Failed", "the pdf renderer did not return a document")
		return
	}
	h.attach(w, "application/pdf", historicalFilename(q, "pdf"), pdf)
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ws := h.screens.Store().Snapshot(sess.ID)
	if !ws.Prediction.Loaded() {
		httpx.RespondError(w, fmt.Errorf("prediction export: %w", httpx.ErrNotReady))
		return
	}
	vm := forecast.Transform(ws.Prediction.Result, ws.View.View)
	buf := h.buffer()
	defer h.bufPool.Put(buf)
	if err := export.WriteForecastXLSX(buf, vm); err != nil {
		h.handleServerError(w, "write xlsx", err)
		return
	}
	q := ws.Prediction.Query
	filename := fmt.Sprintf("ghg-forecast-%s-%s-%s-%d.xlsx", strings.ToLower(q.Country), q.Sector, q.Gas, q.Year)
	h.attach(w, xlsxContentType, filename, buf.Bytes())
}

func (h *Handler) loadedHistorical(r *http.Request) (historical.DashboardViewModel, emissions.HistoricalQuery, error) {
	sess, err := session(r)
	if err != nil {
		return historical.DashboardViewModel{}, emissions.HistoricalQuery{}, err
	}
	screen := h.screens.Store().Snapshot(sess.ID).Dashboard
	if !screen.Loaded() {
		return historical.DashboardViewModel{}, emissions.HistoricalQuery{}, fmt.Errorf("dashboard export: %w", httpx.ErrNotReady)
	}
	return historical.Transform(screen.Result), screen.Query, nil
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, ws viewstate.Workspace, q emissions.HistoricalQuery, formErr error) {
	page := ui.HistoricalPage{
		Form:   ui.NewFilterForm(q, h.now(), formErr),
		Status: ui.StatusOf(ws.Dashboard),
	}
	if ws.Dashboard.Loaded() {
		vm := historical.Transform(ws.Dashboard.Result)
		charts, err := h.charts.Historical(vm)
		if err != nil {
			h.handleServerError(w, "render charts", err)
			return
		}
		page.VM = &vm
		page.Charts = charts
	}
	h.render(w, r, status, "pages/dashboard.html", "Historical Emissions", page)
}

func (h *Handler) renderPrediction(w http.ResponseWriter, r *http.Request, status int, ws viewstate.Workspace, q emissions.ForecastQuery, formErr error) {
	page := ui.ForecastPage{
		Form:   ui.NewConfigForm(q, h.now(), formErr),
		Status: ui.StatusOf(ws.Prediction),
		View:   ws.View.View,
	}
	if ws.Prediction.Loaded() {
		vm := forecast.Transform(ws.Prediction.Result, ws.View.View)
		charts, err := h.charts.Forecast(vm)
		if err != nil {
			h.handleServerError(w, "render charts", err)
			return
		}
		page.VM = &vm
		page.Charts = charts
	}
	h.render(w, r, status, "pages/prediction.html", "Emission Forecast", page)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("ensure csrf token", slog.Any("error", err))
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		User:        sess.User(),
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, name, viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write export", slog.Any("error", err))
	}
}

func (h *Handler) buffer() *bytes.Buffer {
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (h *Handler) handleServerError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func session(r *http.Request) (*shared.Session, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.ID == "" {
		return nil, errNoSession
	}
	return sess, nil
}

func formInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue(key)))
	if err != nil {
		return 0
	}
	return v
}

func historicalFilename(q emissions.HistoricalQuery, ext string) string {
	return fmt.Sprintf("ghg-%s-%s-%s-%d-%d.%s", strings.ToLower(q.Country), q.Sector, q.Gas, q.StartYear, q.EndYear, ext)
}

// HandleDashboardForTest exposes the dashboard page handler.
func (h *Handler) HandleDashboardForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboard(w, r)
}

// HandleFiltersForTest exposes the filter submission handler.
func (h *Handler) HandleFiltersForTest(w http.ResponseWriter, r *http.Request) {
	h.handleFilters(w, r)
}

// HandleDashboardStatusForTest exposes the dashboard status endpoint.
func (h *Handler) HandleDashboardStatusForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboardStatus(w, r)
}

// HandleDashboardRetryForTest exposes the dashboard retry handler.
func (h *Handler) HandleDashboardRetryForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboardRetry(w, r)
}

// HandlePredictionForTest exposes the prediction page handler.
func (h *Handler) HandlePredictionForTest(w http.ResponseWriter, r *http.Request) {
	h.handlePrediction(w, r)
}

// HandleConfigureForTest exposes the forecast configuration handler.
func (h *Handler) HandleConfigureForTest(w http.ResponseWriter, r *http.Request) {
	h.handleConfigure(w, r)
}

// HandleViewForTest exposes the comparison view switch.
func (h *Handler) HandleViewForTest(w http.ResponseWriter, r *http.Request) {
	h.handleView(w, r)
}

// HandleCSVForTest exposes the CSV export.
func (h *Handler) HandleCSVForTest(w http.ResponseWriter, r *http.Request) {
	h.handleCSV(w, r)
}

// HandlePDFForTest exposes the PDF export.
func (h *Handler) HandlePDFForTest(w http.ResponseWriter, r *http.Request) {
	h.handlePDF(w, r)
}

// HandleXLSXForTest exposes the XLSX export.
func (h *Handler) HandleXLSXForTest(w http.ResponseWriter, r *http.Request) {
	h.handleXLSX(w, r)
}
