package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors mapped to problem responses. Wrap them with fmt.Errorf to add context.
var (
	ErrNotReady     = errors.New("no loaded result to export")
	ErrUnauthorized = errors.New("sign in required")
	ErrUnavailable  = errors.New("dependency not configured")
	ErrRateLimited  = errors.New("too many requests, try again in a minute")
)

type problemKind struct {
	err    error
	status int
	title  string
}

var problemKinds = []problemKind{
	{ErrNotReady, http.StatusConflict, "Not Ready"},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{ErrUnavailable, http.StatusServiceUnavailable, "Unavailable"},
	{ErrRateLimited, http.StatusTooManyRequests, "Too Many Requests"},
}

// StatusOf returns the HTTP status RespondError would use for err.
func StatusOf(err error) int {
	for _, k := range problemKinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// RespondError writes err as an RFC7807 problem. Unmapped errors become a 500 without
// detail so internal addresses and messages stay in the logs.
func RespondError(w http.ResponseWriter, err error) {
	for _, k := range problemKinds {
		if errors.Is(err, k.err) {
			Problem(w, k.status, k.title, err.Error())
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

// RateLimited is an httprate limit handler answering with a 429 problem.
func RateLimited(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", "60")
	RespondError(w, ErrRateLimited)
}
