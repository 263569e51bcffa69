package viewstate

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
)

// HistoricalFetcher loads historical results.
type HistoricalFetcher interface {
	FetchHistorical(ctx context.Context, q emissions.HistoricalQuery) (emissions.HistoricalResult, error)
}

// ForecastFetcher loads forecast results.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, q emissions.ForecastQuery) (emissions.ForecastResult, error)
}

// Coordinator runs screen fetches in the background and feeds their outcome back into the
// store with the sequence number they were issued under.
type Coordinator struct {
	base       context.Context
	store      *Store
	historical HistoricalFetcher
	forecast   ForecastFetcher
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *Metrics
	wg         sync.WaitGroup
}

// CoordinatorOptions wires a Coordinator.
type CoordinatorOptions struct {
	// Context bounds every fetch; cancelling it abandons fetches in flight.
	Context    context.Context
	Store      *Store
	Historical HistoricalFetcher
	Forecast   ForecastFetcher
	// Timeout caps a single fetch. Zero leaves it to the fetcher.
	Timeout time.Duration
	Logger  *slog.Logger
	// Metrics is optional.
	Metrics *Metrics
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	c := &Coordinator{
		base:       opts.Context,
		store:      opts.Store,
		historical: opts.Historical,
		forecast:   opts.Forecast,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	if c.base == nil {
		c.base = context.Background()
	}
	if c.store == nil {
		c.store = NewStore(nil)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Store exposes the workspace store.
func (c *Coordinator) Store() *Store {
	return c.store
}

// Wait blocks until every fetch started so far has been applied or discarded.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func dashboardScreen(ws *Workspace) *HistoricalScreen { return &ws.Dashboard }

func predictionScreen(ws *Workspace) *ForecastScreen { return &ws.Prediction }

// LoadHistorical starts a dashboard fetch for q and returns its sequence number.
func (c *Coordinator) LoadHistorical(id string, q emissions.HistoricalQuery) uint64 {
	seq := start(c.store, id, q, dashboardScreen)
	c.runHistorical(id, seq, q)
	return seq
}

// LoadForecast starts a prediction fetch for q and returns its sequence number.
func (c *Coordinator) LoadForecast(id string, q emissions.ForecastQuery) uint64 {
	seq := start(c.store, id, q, predictionScreen)
	c.runForecast(id, seq, q)
	return seq
}

// MountDashboard selects the dashboard and, the first time it is shown, starts the default
// fetch.
func (c *Coordinator) MountDashboard(id string) Workspace {
	var seq uint64
	ws := c.store.Update(id, func(ws *Workspace) {
		ws.Nav = Dashboard
		if ws.Dashboard.Phase == PhaseIdle {
			ws.Dashboard, seq = ws.Dashboard.Start(emissions.DefaultHistoricalQuery(), c.store.Now())
		}
	})
	if seq != 0 {
		c.runHistorical(id, seq, ws.Dashboard.Query)
	}
	return ws
}

// MountPrediction selects the prediction page and, the first time it is shown, starts the
// default fetch.
func (c *Coordinator) MountPrediction(id string) Workspace {
	var seq uint64
	ws := c.store.Update(id, func(ws *Workspace) {
		ws.Nav = Prediction
		if ws.Prediction.Phase == PhaseIdle {
			now := c.store.Now()
			ws.Prediction, seq = ws.Prediction.Start(emissions.DefaultForecastQuery(now), now)
		}
	})
	if seq != 0 {
		c.runForecast(id, seq, ws.Prediction.Query)
	}
	return ws
}

// RetryHistorical re-issues the last dashboard query. It reports false before any fetch.
func (c *Coordinator) RetryHistorical(id string) bool {
	var (
		seq uint64
		ok  bool
	)
	ws := c.store.Update(id, func(ws *Workspace) {
		ws.Dashboard, seq, ok = ws.Dashboard.Retry(c.store.Now())
	})
	if ok {
		c.runHistorical(id, seq, ws.Dashboard.Query)
	}
	return ok
}

// RetryForecast re-issues the last forecast query. It reports false before any fetch.
func (c *Coordinator) RetryForecast(id string) bool {
	var (
		seq uint64
		ok  bool
	)
	ws := c.store.Update(id, func(ws *Workspace) {
		ws.Prediction, seq, ok = ws.Prediction.Retry(c.store.Now())
	})
	if ok {
		c.runForecast(id, seq, ws.Prediction.Query)
	}
	return ok
}

func (c *Coordinator) runHistorical(id string, seq uint64, q emissions.HistoricalQuery) {
	c.spawn("historical", seq, func(ctx context.Context, tracker *Tracker) {
		res, err := c.historical.FetchHistorical(ctx, q)
		finish(c, tracker, "historical", id, seq, res, err, dashboardScreen)
	})
}

func (c *Coordinator) runForecast(id string, seq uint64, q emissions.ForecastQuery) {
	c.spawn("forecast", seq, func(ctx context.Context, tracker *Tracker) {
		res, err := c.forecast.FetchForecast(ctx, q)
		finish(c, tracker, "forecast", id, seq, res, err, predictionScreen)
	})
}

func (c *Coordinator) spawn(screen string, seq uint64, fetch func(ctx context.Context, tracker *Tracker)) {
	tracker := c.metrics.Track(screen)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx := c.base
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		c.logger.Debug("screen fetch started", slog.String("screen", screen), slog.Uint64("seq", seq))
		fetch(ctx, tracker)
	}()
}

func start[Q any, R Result](store *Store, id string, q Q, screen func(*Workspace) *Screen[Q, R]) uint64 {
	var seq uint64
	store.Update(id, func(ws *Workspace) {
		*screen(ws), seq = screen(ws).Start(q, store.Now())
	})
	return seq
}

func finish[Q any, R Result](c *Coordinator, tracker *Tracker, name, id string, seq uint64, res R, err error, screen func(*Workspace) *Screen[Q, R]) {
	var applied bool
	// a dropped workspace belongs to a finished session and is not recreated
	c.store.UpdateExisting(id, func(ws *Workspace) {
		now := c.store.Now()
		if err != nil {
			*screen(ws), applied = screen(ws).Fail(seq, err, now)
			return
		}
		*screen(ws), applied = screen(ws).Succeed(seq, res, now)
	})
	switch {
	case !applied:
		tracker.End(OutcomeStale)
		c.logger.Debug("stale screen result discarded", slog.String("screen", name), slog.Uint64("seq", seq))
	case err != nil:
		tracker.End(OutcomeFailed)
		c.logger.Warn("screen fetch failed", slog.String("screen", name), slog.Uint64("seq", seq), slog.Any("error", err))
	default:
		tracker.End(OutcomeApplied)
	}
}
