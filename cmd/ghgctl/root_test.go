package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/forecast"
	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
)

const historicalBody = `{
	"data": {
		"yearly_totals": {"2020": 100, "2021": 110, "2022": 120, "2023": 95, "2024": 120},
		"gas_name": "co2",
		"sector_name": "transportation",
		"total_emission_overall": 545,
		"subsector_breakdown": {
			"road-transportation": {"total_emission": 400, "percentage": 73.4},
			"domestic-aviation": {"total_emission": 145, "percentage": 26.6}
		},
		"top_emitting_subsector": "road-transportation",
		"ratios": {"co2": 100}
	},
	"llm_insights": "**Steady** growth"
}`

const forecastBody = `{
	"status": "success",
	"meta": {"country": "PAK", "sector": "transportation", "year": 2030, "requested_gas": "co2"},
	"data": {
		"total_emissions": 1200,
		"monthly_trends": [100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100],
		"subsector_breakdown": [{"name": "road-transportation", "total": 1000, "monthly": [80, 80]}],
		"gas_composition": {"ratios": {"co2": 70, "ch4": 20, "n2o": 10}, "absolute_totals": {"co2": 840, "ch4": 240, "n2o": 120}, "total_combined": 1200}
	},
	"llm_insights": "ok"
}`

type fakeAPI struct {
	mu     sync.Mutex
	hits   map[string]int
	bodies map[string][]byte
}

func newFakeAPI(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	api := &fakeAPI{hits: map[string]int{}, bodies: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.hits[r.URL.Path]++
		api.bodies[r.URL.Path] = body
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case gateway.EndpointHistorical:
			_, _ = io.WriteString(w, historicalBody)
		case gateway.EndpointPredict:
			_, _ = io.WriteString(w, forecastBody)
		case gateway.EndpointLogin:
			_, _ = io.WriteString(w, `{"status":"success","message":"Login successful"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"not found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return api, srv.URL
}

func (a *fakeAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[path]
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func thisYear() string {
	return strconv.Itoa(time.Now().Year())
}

func TestHistoricalText(t *testing.T) {
	api, url := newFakeAPI(t)

	out, err := run(t, "--api", url, "historical", "--country", "pak", "--gas", "CO2", "--start", "2020", "--end", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Transportation CO₂ emissions, 2020-2024")
	assert.Contains(t, out, "Road Transportation *")
	assert.Contains(t, out, "Steady growth")
	assert.NotContains(t, out, "**")

	var sent emissions.HistoricalQuery
	require.NoError(t, json.Unmarshal(api.bodies[gateway.EndpointHistorical], &sent))
	assert.Equal(t, emissions.HistoricalQuery{Country: "PAK", Sector: "transportation", Gas: "co2", StartYear: 2020, EndYear: 2024}, sent)
}

func TestHistoricalRejectsInvertedRange(t *testing.T) {
	api, url := newFakeAPI(t)

	_, err := run(t, "--api", url, "historical", "--start", "2023", "--end", "2020")
	var fe emissions.FieldErrors
	require.True(t, errors.As(err, &fe), "expected field errors, got %v", err)
	assert.Contains(t, fe, "EndYear")
	assert.Zero(t, api.count(gateway.EndpointHistorical))
}

func TestForecastJSON(t *testing.T) {
	api, url := newFakeAPI(t)

	out, err := run(t, "--api", url, "-o", "json", "forecast", "--year", thisYear(), "--mode", "annual")
	require.NoError(t, err)

	var vm forecast.ViewModel
	require.NoError(t, json.Unmarshal([]byte(out), &vm))
	assert.Equal(t, forecast.ModeAnnual, vm.View.Mode)
	assert.Equal(t, 1200.0, vm.TotalEmissions)
	assert.Len(t, vm.Composition, 3)
	assert.Equal(t, 1, api.count(gateway.EndpointPredict))
}

func TestForecastTextSummary(t *testing.T) {
	_, url := newFakeAPI(t)

	out, err := run(t, "--api", url, "forecast", "--year", thisYear())
	require.NoError(t, err)

	assert.Contains(t, out, "PAK - Transportation - 2030")
	assert.Contains(t, out, "Jan (100.00 tons)")
	assert.Contains(t, out, "Average monthly")
	assert.Contains(t, out, "Total combined")
	assert.Contains(t, out, "1.20K tons")
}

func TestOverviewYAMLFetchesBoth(t *testing.T) {
	api, url := newFakeAPI(t)

	out, err := run(t, "--api", url, "-o", "yaml", "overview", "--start", "2020", "--end", "2024", "--year", thisYear())
	require.NoError(t, err)

	var o Overview
	require.NoError(t, yaml.Unmarshal([]byte(out), &o))
	assert.Equal(t, "2020-2024", o.Historical.YearRange)
	assert.Equal(t, 1200.0, o.Forecast.TotalEmissions)
	assert.Equal(t, 1, api.count(gateway.EndpointHistorical))
	assert.Equal(t, 1, api.count(gateway.EndpointPredict))
}

func TestOverviewStopsOnInvalidForecastYear(t *testing.T) {
	_, url := newFakeAPI(t)

	_, err := run(t, "--api", url, "overview", "--start", "2020", "--end", "2024", "--year", "1999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast:")
}

func TestSignupMismatchSkipsRequest(t *testing.T) {
	api, url := newFakeAPI(t)

	_, err := run(t, "--api", url, "signup", "--name", "Ada", "--email", "ada@test.local", "--password", "one", "--confirm-password", "two")
	require.Error(t, err)
	assert.Equal(t, gateway.KindValidation, gateway.Kind(err))
	assert.Equal(t, "Passwords do not match", gateway.Message(err))
	assert.Zero(t, api.count(gateway.EndpointSignup))
}

func TestLoginText(t *testing.T) {
	_, url := newFakeAPI(t)

	out, err := run(t, "--api", url, "login", "--email", " user@test.local ", "--password", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Login successful\n", out)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, url := newFakeAPI(t)

	_, err := run(t, "--api", url, "-o", "xml", "login", "--email", "user@test.local", "--password", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestReportErrorNamesKind(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, &gateway.AuthError{Status: http.StatusUnauthorized, Message: "Invalid credentials"})
	assert.Equal(t, "ghgctl: auth error: Invalid credentials\n", buf.String())
}
