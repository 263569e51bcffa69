package dashboardhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/ghg-insights/ghg-dashboard/internal/platform/httpx"
	"github.com/ghg-insights/ghg-dashboard/internal/shared"
)

const exportsPerMinute = 10

// MountRoutes registers the dashboard and prediction screens onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(exportsPerMinute, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(httpx.RateLimited),
	)

	r.Get("/dashboard", h.handleDashboard)
	r.Post("/dashboard/filters", h.handleFilters)
	r.Post("/dashboard/retry", h.handleDashboardRetry)
	r.Get("/dashboard/status", h.handleDashboardStatus)

	r.Get("/prediction", h.handlePrediction)
	r.Post("/prediction/configure", h.handleConfigure)
	r.Post("/prediction/view", h.handleView)
	r.Post("/prediction/retry", h.handlePredictionRetry)
	r.Get("/prediction/status", h.handlePredictionStatus)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/dashboard/export.csv", h.handleCSV)
		gr.Get("/dashboard/export.pdf", h.handlePDF)
		gr.Get("/prediction/export.xlsx", h.handleXLSX)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if user := strings.TrimSpace(sess.User()); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
