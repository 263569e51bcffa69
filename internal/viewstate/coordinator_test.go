package viewstate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
)

// gatedHistorical blocks each fetch until its gate for the requested gas is released.
type gatedHistorical struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	errs  map[string]error
	seen  []emissions.HistoricalQuery
}

func newGatedHistorical() *gatedHistorical {
	return &gatedHistorical{gates: map[string]chan struct{}{}, errs: map[string]error{}}
}

func (g *gatedHistorical) gate(gas string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[gas]
	if !ok {
		ch = make(chan struct{})
		g.gates[gas] = ch
	}
	return ch
}

func (g *gatedHistorical) FetchHistorical(ctx context.Context, q emissions.HistoricalQuery) (emissions.HistoricalResult, error) {
	g.mu.Lock()
	g.seen = append(g.seen, q)
	err := g.errs[q.Gas]
	g.mu.Unlock()
	select {
	case <-g.gate(q.Gas):
	case <-ctx.Done():
		return emissions.HistoricalResult{}, ctx.Err()
	}
	if err != nil {
		return emissions.HistoricalResult{}, err
	}
	return emissions.HistoricalResult{
		Data: &emissions.HistoricalData{GasName: q.Gas, YearlyTotals: map[string]float64{"2020": 1}},
	}, nil
}

type instantForecast struct{ calls int }

func (f *instantForecast) FetchForecast(ctx context.Context, q emissions.ForecastQuery) (emissions.ForecastResult, error) {
	f.calls++
	return emissions.ForecastResult{
		Meta: emissions.ForecastMeta{Country: q.Country, Year: q.Year},
		Data: &emissions.ForecastData{MonthlyTrends: []float64{1}},
	}, nil
}

func TestOutOfOrderCompletionKeepsNewest(t *testing.T) {
	fetcher := newGatedHistorical()
	coord := NewCoordinator(CoordinatorOptions{Historical: fetcher, Forecast: &instantForecast{}})

	first := emissions.DefaultHistoricalQuery()
	second := first
	second.Gas = emissions.GasN2O

	coord.LoadHistorical("s1", first)
	seq := coord.LoadHistorical("s1", second)
	assert.Equal(t, uint64(2), seq)

	close(fetcher.gate(emissions.GasN2O))
	close(fetcher.gate(emissions.GasCO2))
	coord.Wait()

	ws := coord.Store().Snapshot("s1")
	require.Equal(t, PhaseLoaded, ws.Dashboard.Phase)
	assert.Equal(t, emissions.GasN2O, ws.Dashboard.Result.Data.GasName)
}

func TestFailureEntersErrorAndRetryRecovers(t *testing.T) {
	fetcher := newGatedHistorical()
	fetcher.errs[emissions.GasCO2] = errors.New("upstream down")
	coord := NewCoordinator(CoordinatorOptions{Historical: fetcher, Forecast: &instantForecast{}})

	close(fetcher.gate(emissions.GasCO2))
	coord.MountDashboard("s1")
	coord.Wait()

	ws := coord.Store().Snapshot("s1")
	require.Equal(t, PhaseError, ws.Dashboard.Phase)
	assert.EqualError(t, ws.Dashboard.Err, "upstream down")

	fetcher.mu.Lock()
	delete(fetcher.errs, emissions.GasCO2)
	fetcher.mu.Unlock()

	require.True(t, coord.RetryHistorical("s1"))
	coord.Wait()
	ws = coord.Store().Snapshot("s1")
	assert.Equal(t, PhaseLoaded, ws.Dashboard.Phase)
	assert.Equal(t, emissions.DefaultHistoricalQuery(), ws.Dashboard.Query)
	assert.Len(t, fetcher.seen, 2)
}

func TestTimeoutEndsInError(t *testing.T) {
	fetcher := newGatedHistorical()
	coord := NewCoordinator(CoordinatorOptions{Historical: fetcher, Timeout: 20 * time.Millisecond})

	coord.LoadHistorical("s1", emissions.DefaultHistoricalQuery())
	coord.Wait()

	ws := coord.Store().Snapshot("s1")
	assert.Equal(t, PhaseError, ws.Dashboard.Phase)
	assert.ErrorIs(t, ws.Dashboard.Err, context.DeadlineExceeded)
}

func TestCompletionAfterDropLeavesNoWorkspace(t *testing.T) {
	registry := prometheus.NewRegistry()
	fetcher := newGatedHistorical()
	coord := NewCoordinator(CoordinatorOptions{Historical: fetcher, Metrics: NewMetrics(registry)})

	coord.LoadHistorical("gone", emissions.DefaultHistoricalQuery())
	require.Equal(t, 1, coord.Store().Len())
	coord.Store().Drop("gone")

	close(fetcher.gate(emissions.GasCO2))
	coord.Wait()
	assert.Zero(t, coord.Store().Len())

	_, ok := coord.Store().UpdateExisting("gone", func(*Workspace) { t.Fatal("must not run") })
	assert.False(t, ok)

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `ghg_screen_fetches_total{outcome="stale",screen="historical"} 1`)
}

func TestMountStartsDefaultOnce(t *testing.T) {
	now := func() time.Time { return t0 }
	fc := &instantForecast{}
	coord := NewCoordinator(CoordinatorOptions{Store: NewStore(now), Forecast: fc})

	ws := coord.MountPrediction("s1")
	assert.Equal(t, Prediction, ws.Nav)
	assert.Equal(t, PhaseLoading, ws.Prediction.Phase)
	assert.Equal(t, 2025, ws.Prediction.Query.Year)
	coord.Wait()

	ws = coord.MountPrediction("s1")
	coord.Wait()
	assert.Equal(t, PhaseLoaded, ws.Prediction.Phase)
	assert.Equal(t, 1, fc.calls)

	assert.False(t, coord.RetryHistorical("s1"), "dashboard never started")
}

func TestStoreIsolationAndPrune(t *testing.T) {
	current := t0
	store := NewStore(func() time.Time { return current })

	store.DispatchAuth("a", SwitchToSignup)
	assert.Equal(t, SignupForm, store.Snapshot("a").Auth.Mode)
	assert.Equal(t, LoginForm, store.Snapshot("b").Auth.Mode)

	auth := store.DispatchAuth("b", LoginSucceeded)
	assert.True(t, auth.Authenticated)
	assert.Equal(t, Dashboard, store.Snapshot("b").Nav)

	view := store.ChangeView("a", func(v ForecastView) ForecastView { return v.SelectMonth(5) })
	assert.Equal(t, 5, view.Month)

	current = t0.Add(2 * time.Hour)
	store.Snapshot("b")
	assert.Equal(t, 1, store.Prune(time.Hour))
	assert.Equal(t, 1, store.Len())

	store.Drop("b")
	assert.Zero(t, store.Len())
}

func TestFetchOutcomesAreCounted(t *testing.T) {
	registry := prometheus.NewRegistry()
	fetcher := newGatedHistorical()
	coord := NewCoordinator(CoordinatorOptions{Historical: fetcher, Metrics: NewMetrics(registry)})

	first := emissions.DefaultHistoricalQuery()
	second := first
	second.Gas = emissions.GasCH4
	coord.LoadHistorical("s1", first)
	coord.LoadHistorical("s1", second)
	close(fetcher.gate(emissions.GasCO2))
	close(fetcher.gate(emissions.GasCH4))
	coord.Wait()

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	assert.Contains(t, body, `ghg_screen_fetches_total{outcome="applied",screen="historical"} 1`)
	assert.Contains(t, body, `ghg_screen_fetches_total{outcome="stale",screen="historical"} 1`)
	assert.Contains(t, body, `ghg_screen_fetches_inflight{screen="historical"} 0`)
}
