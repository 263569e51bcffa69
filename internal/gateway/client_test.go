package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
)

const historicalBody = `{
	"data": {
		"yearly_totals": {"2020": 100, "2021": 110, "2022": 120, "2023": 95, "2024": 120},
		"gas_name": "co2",
		"sector_name": "transportation",
		"total_emission_overall": 545,
		"subsector_breakdown": {
			"road-transportation": {"total_emission": 400, "percentage": 73.4, "yearly_emission": {"2020": 80}},
			"domestic-aviation": {"total_emission": 145, "percentage": 26.6}
		},
		"top_emitting_subsector": "road-transportation",
		"ratios": {"co2": 100, "ch4": 0}
	},
	"llm_insights": "**Steady** growth"
}`

const forecastBody = `{
	"status": "success",
	"meta": {"country": "PAK", "sector": "transportation", "year": 2026, "requested_gas": "co2"},
	"data": {
		"total_emissions": 1200,
		"monthly_trends": [100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100],
		"subsector_breakdown": [{"name": "road-transportation", "total": 1000, "monthly": [80, 80]}],
		"gas_composition": {"ratios": {"co2": 70, "ch4": 20, "n2o": 10}, "absolute_totals": {"co2": 840, "ch4": 240, "n2o": 120}, "total_combined": 1200}
	},
	"llm_insights": "ok"
}`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestFetchHistoricalSendsWirePayload(t *testing.T) {
	var received map[string]any
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, gateway.EndpointHistorical, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		jsonReply(http.StatusOK, historicalBody)(w, r)
	})

	client := gateway.New(srv.URL + "/")
	res, err := client.FetchHistorical(context.Background(), emissions.DefaultHistoricalQuery())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"country":     "PAK",
		"sector_name": "transportation",
		"gas_name":    "co2",
		"start_year":  float64(2020),
		"end_year":    float64(2024),
	}, received)
	require.NotNil(t, res.Data)
	assert.Equal(t, 120.0, res.Data.YearlyTotals["2024"])
	assert.Equal(t, []string{"road-transportation", "domestic-aviation"}, res.Data.SubsectorBreakdown.Keys())
	assert.Equal(t, "**Steady** growth", res.LLMInsights)
}

func TestFetchForecast(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "transportation", body["sector"])
		assert.Equal(t, float64(3), body["month"])
		jsonReply(http.StatusOK, forecastBody)(w, r)
	})
	q := emissions.ForecastQuery{Country: "PAK", Sector: "transportation", Gas: "co2", Year: 2026, Month: 3}
	res, err := gateway.New(srv.URL).FetchForecast(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 70.0, res.Data.GasComposition.Ratios["co2"])
	assert.Equal(t, "co2", res.RequestedGas())
}

func TestFetchErrorsAreClassified(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		kind    string
		reason  string
	}{
		{"server error", jsonReply(http.StatusInternalServerError, `{"status":"error","message":"model crashed"}`), gateway.KindHTTP, ""},
		{"html body", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>oops</html>"))
		}, gateway.KindProtocol, gateway.ReasonNotJSON},
		{"truncated json", jsonReply(http.StatusOK, `{"data": {`), gateway.KindProtocol, gateway.ReasonMalformed},
		{"missing data", jsonReply(http.StatusOK, `{"llm_insights": "x"}`), gateway.KindProtocol, gateway.ReasonSchema},
		{"missing yearly totals", jsonReply(http.StatusOK, `{"data": {"gas_name": "co2"}}`), gateway.KindProtocol, gateway.ReasonSchema},
		{"non numeric year", jsonReply(http.StatusOK, `{"data": {"yearly_totals": {"abc": 1}}}`), gateway.KindProtocol, gateway.ReasonSchema},
		{"wrong type", jsonReply(http.StatusOK, `{"data": {"yearly_totals": [1, 2]}}`), gateway.KindProtocol, gateway.ReasonSchema},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.handler)
			_, err := gateway.New(srv.URL).FetchHistorical(context.Background(), emissions.DefaultHistoricalQuery())
			require.Error(t, err)
			assert.Equal(t, tc.kind, gateway.Kind(err))
			if tc.reason != "" {
				assert.Equal(t, tc.reason, gateway.Message(err))
			}
		})
	}
}

func TestHTTPErrorCarriesUpstreamDetail(t *testing.T) {
	srv := newServer(t, jsonReply(http.StatusBadRequest, `{"error":"Missing required parameter"}`))
	_, err := gateway.New(srv.URL).FetchForecast(context.Background(), emissions.DefaultForecastQuery(time.Now()))
	var httpErr *gateway.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "Missing required parameter", httpErr.Detail)
	assert.Equal(t, "HTTP error! Status: 400", gateway.Message(err))
}

func TestForecastSchemaRequiresComposition(t *testing.T) {
	srv := newServer(t, jsonReply(http.StatusOK, `{"data": {"monthly_trends": [1, 2]}}`))
	_, err := gateway.New(srv.URL).FetchForecast(context.Background(), emissions.DefaultForecastQuery(time.Now()))
	var protoErr *gateway.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, gateway.EndpointPredict, protoErr.Endpoint)
}

func TestTimeoutEndsAsTimeoutKind(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := gateway.New(srv.URL, gateway.WithTimeout(50*time.Millisecond))
	_, err := client.FetchHistorical(context.Background(), emissions.DefaultHistoricalQuery())
	require.Error(t, err)
	assert.Equal(t, gateway.KindTimeout, gateway.Kind(err))
}

func TestUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := gateway.New(url).FetchHistorical(context.Background(), emissions.DefaultHistoricalQuery())
	var netErr *gateway.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, gateway.KindNetwork, gateway.Kind(err))
}

func TestLogin(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body gateway.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password == "secret" {
			jsonReply(http.StatusOK, `{"status":"success","message":"Login successful"}`)(w, r)
			return
		}
		jsonReply(http.StatusUnauthorized, `{"status":"error","message":"Invalid credentials"}`)(w, r)
	})
	client := gateway.New(srv.URL)

	resp, err := client.Login(context.Background(), gateway.LoginRequest{Email: "a@b.co", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Login successful", resp.Message)

	_, err = client.Login(context.Background(), gateway.LoginRequest{Email: "a@b.co", Password: "nope"})
	var authErr *gateway.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestLoginFallbackMessages(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := gateway.New(srv.URL).Login(context.Background(), gateway.LoginRequest{Email: "a@b.co", Password: "x"})
	assert.EqualError(t, err, "HTTP error! status: 502")

	srv2 := newServer(t, jsonReply(http.StatusOK, `{"status":"pending"}`))
	_, err = gateway.New(srv2.URL).Login(context.Background(), gateway.LoginRequest{Email: "a@b.co", Password: "x"})
	assert.EqualError(t, err, "Login failed. Please try again.")
}

func TestSignupPasswordMismatchSendsNothing(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	_, err := gateway.New(srv.URL).Signup(context.Background(), gateway.SignupRequest{
		Name: "Ayesha", Email: "a@b.co", Password: "one", ConfirmPassword: "two",
	})
	var validationErr *gateway.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Passwords do not match", gateway.Message(err))
	assert.Zero(t, calls.Load())
}

func TestSignup(t *testing.T) {
	var body map[string]any
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		jsonReply(http.StatusCreated, `{"status":"success","message":"User created"}`)(w, r)
	})
	_, err := gateway.New(srv.URL).Signup(context.Background(), gateway.SignupRequest{
		Name: "Ayesha", Email: "a@b.co", Password: "pw", ConfirmPassword: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"full_name": "Ayesha", "email": "a@b.co", "password": "pw"}, body)
}

func TestSignupRejectsNonJSON(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	_, err := gateway.New(srv.URL).Signup(context.Background(), gateway.SignupRequest{
		Name: "A", Email: "a@b.co", Password: "pw", ConfirmPassword: "pw",
	})
	assert.Equal(t, gateway.KindProtocol, gateway.Kind(err))
	assert.Equal(t, "Server returned non-JSON response", gateway.Message(err))

	srv2 := newServer(t, jsonReply(http.StatusConflict, `{}`))
	_, err = gateway.New(srv2.URL).Signup(context.Background(), gateway.SignupRequest{
		Name: "A", Email: "a@b.co", Password: "pw", ConfirmPassword: "pw",
	})
	assert.EqualError(t, err, "Signup failed with status: 409")
}

func TestMetricsRecordOutcome(t *testing.T) {
	srv := newServer(t, jsonReply(http.StatusOK, historicalBody))
	reg := prometheus.NewRegistry()
	metrics := gateway.NewMetrics(reg)
	client := gateway.New(srv.URL, gateway.WithMetrics(metrics))

	_, err := client.FetchHistorical(context.Background(), emissions.DefaultHistoricalQuery())
	require.NoError(t, err)
	_, err = client.Signup(context.Background(), gateway.SignupRequest{Password: "a", ConfirmPassword: "b"})
	require.Error(t, err)

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `ghg_upstream_requests_total{endpoint="/api/historical",outcome="ok"} 1`), body)
	assert.True(t, strings.Contains(body, `ghg_upstream_requests_total{endpoint="/api/signup",outcome="validation"} 1`), body)
	assert.Contains(t, body, `ghg_upstream_request_duration_seconds_count{endpoint="/api/historical"} 1`)
}
