package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds reported by Kind.
const (
	KindValidation = "validation"
	KindAuth       = "auth"
	KindHTTP       = "http"
	KindProtocol   = "protocol"
	KindNetwork    = "network"
	KindTimeout    = "timeout"
	KindUnknown    = "unknown"
)

// ValidationError rejects a request before it is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthError reports a login or signup refused by the API.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// HTTPError reports a non-2xx answer from a data endpoint.
type HTTPError struct {
	Endpoint string
	Status   int
	Detail   string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP error! Status: %d (%s)", e.Status, e.Detail)
	}
	return fmt.Sprintf("HTTP error! Status: %d", e.Status)
}

// Reasons carried by ProtocolError. They are shown to users verbatim.
const (
	ReasonNotJSON     = "Server returned non-JSON response"
	ReasonMalformed   = "Server returned malformed JSON"
	ReasonSchema      = "Server response does not match the expected format"
	ReasonRequestBody = "Request could not be encoded"
)

// ProtocolError reports a response that is not JSON or does not match the endpoint schema.
type ProtocolError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NetworkError reports a request that never produced a response.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request was abandoned because a deadline passed.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// Kind classifies err for display and metrics.
func Kind(err error) string {
	var (
		validationErr *ValidationError
		authErr       *AuthError
		httpErr       *HTTPError
		protocolErr   *ProtocolError
		networkErr    *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &protocolErr):
		return KindProtocol
	case errors.As(err, &networkErr):
		if networkErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	default:
		return KindUnknown
	}
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	var (
		validationErr *ValidationError
		authErr       *AuthError
		httpErr       *HTTPError
		protocolErr   *ProtocolError
	)
	switch Kind(err) {
	case "":
		return ""
	case KindValidation:
		errors.As(err, &validationErr)
		return validationErr.Message
	case KindAuth:
		errors.As(err, &authErr)
		return authErr.Message
	case KindHTTP:
		errors.As(err, &httpErr)
		return fmt.Sprintf("HTTP error! Status: %d", httpErr.Status)
	case KindProtocol:
		errors.As(err, &protocolErr)
		return protocolErr.Reason
	case KindTimeout:
		return "The emissions service did not answer in time."
	case KindNetwork:
		return "The emissions service could not be reached."
	default:
		return "Something went wrong. Please try again."
	}
}
