package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ghg-insights/ghg-dashboard/internal/auth"
	dashboardhttp "github.com/ghg-insights/ghg-dashboard/internal/dashboard/http"
	"github.com/ghg-insights/ghg-dashboard/internal/observability"
	"github.com/ghg-insights/ghg-dashboard/internal/platform/httpx"
	"github.com/ghg-insights/ghg-dashboard/internal/shared"
	"github.com/ghg-insights/ghg-dashboard/internal/viewstate"
	"github.com/ghg-insights/ghg-dashboard/report"
	"github.com/ghg-insights/ghg-dashboard/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	DashboardHandler *dashboardhttp.Handler
	// ReportHandler is nil when no Gotenberg URL is configured.
	ReportHandler *report.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if shared.SessionFromContext(r.Context()).User() == "" {
			http.Redirect(w, r, "/auth", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, viewstate.Dashboard.Path(), http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Group(func(gr chi.Router) {
		gr.Use(shared.RequireUser("/auth"))
		params.DashboardHandler.MountRoutes(gr)
	})
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}

	staticFS, err := web.Static()
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
