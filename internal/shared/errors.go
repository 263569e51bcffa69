package shared

import "errors"

// Sentinel errors of the session layer.
var (
	// ErrNotAuthenticated means the request context carries no session at all.
	ErrNotAuthenticated = errors.New("shared: no session on request")
	ErrCSRFTokenMissing = errors.New("shared: csrf token missing")
	// ErrCSRFTokenMismatch covers both a wrong token and one issued to another session id.
	ErrCSRFTokenMismatch = errors.New("shared: csrf token mismatch")
)
