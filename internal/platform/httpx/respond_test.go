package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, map[string]any{"phase": "loading", "seq": 2})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"phase":"loading","seq":2}`, rr.Body.String())
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		title  string
	}{
		{fmt.Errorf("dashboard: %w", ErrNotReady), http.StatusConflict, "Not Ready"},
		{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{fmt.Errorf("pdf export: %w", ErrUnavailable), http.StatusServiceUnavailable, "Unavailable"},
		{ErrRateLimited, http.StatusTooManyRequests, "Too Many Requests"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
		assert.Equal(t, tc.title, problem.Title)
		assert.Equal(t, tc.status, problem.Status)
		assert.Equal(t, tc.status, StatusOf(tc.err))
	}
}

func TestRateLimitedSetsRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	RateLimited(rr, httptest.NewRequest(http.MethodGet, "/dashboard/export.csv", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("dial tcp 10.0.0.1:6379: refused"))
	assert.NotContains(t, rr.Body.String(), "10.0.0.1")
}
