package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghg-insights/ghg-dashboard/internal/app"
	"github.com/ghg-insights/ghg-dashboard/internal/auth"
	dashboardhttp "github.com/ghg-insights/ghg-dashboard/internal/dashboard/http"
	"github.com/ghg-insights/ghg-dashboard/internal/dashboard/ui"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/export"
	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
	"github.com/ghg-insights/ghg-dashboard/internal/observability"
	"github.com/ghg-insights/ghg-dashboard/internal/platform/cache"
	"github.com/ghg-insights/ghg-dashboard/internal/shared"
	"github.com/ghg-insights/ghg-dashboard/internal/view"
	"github.com/ghg-insights/ghg-dashboard/internal/viewstate"
	"github.com/ghg-insights/ghg-dashboard/report"
)

// gotenbergTimeout bounds a single PDF render.
const gotenbergTimeout = 30 * time.Second

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	apiClient := gateway.New(cfg.APIBaseURL,
		gateway.WithTimeout(cfg.APITimeout),
		gateway.WithLogger(logger),
		gateway.WithMetrics(gateway.NewMetrics(metrics.Registerer())),
	)

	store := viewstate.NewStore(nil)
	coordinator := viewstate.NewCoordinator(viewstate.CoordinatorOptions{
		Context:    ctx,
		Store:      store,
		Historical: apiClient,
		Forecast:   apiClient,
		Timeout:    cfg.APITimeout,
		Logger:     logger,
		Metrics:    viewstate.NewMetrics(metrics.Registerer()),
	})
	metrics.GaugeFunc("ghg_workspaces_active", "Session workspaces held in memory.", func() float64 {
		return float64(store.Len())
	})
	go pruneWorkspaces(ctx, logger, store, cfg.WorkspaceIdleTTL)

	var (
		pdfExporter   dashboardhttp.PDFService
		reportHandler *report.Handler
	)
	if cfg.GotenbergURL != "" {
		reportClient := report.NewClient(cfg.GotenbergURL, gotenbergTimeout)
		reportHandler = report.NewHandler(reportClient, logger)
		pdfExporter = export.NewPDFExporter(reportClient, templates)
	} else {
		logger.Warn("GOTENBERG_URL empty, PDF export disabled")
	}

	authHandler := auth.NewHandler(logger, auth.NewService(apiClient), store, templates, sessionManager, csrfManager)
	dashboardHandler := dashboardhttp.NewHandler(
		logger,
		coordinator,
		emissions.NewValidator(nil),
		templates,
		ui.SVGCharts(),
		pdfExporter,
		csrfManager,
	)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		ReportHandler:    reportHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("api", apiClient.BaseURL()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	coordinator.Wait()
}

func pruneWorkspaces(ctx context.Context, logger *slog.Logger, store *viewstate.Store, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval(idle))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Prune(idle); n > 0 {
				logger.Debug("pruned idle workspaces", slog.Int("count", n))
			}
		}
	}
}

// pruneInterval sweeps four times per idle period, never more than once a second.
func pruneInterval(idle time.Duration) time.Duration {
	return max(idle/4, time.Second)
}
