package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
)

// Emissions API endpoints.
const (
	EndpointLogin      = "/api/login"
	EndpointSignup     = "/api/signup"
	EndpointHistorical = "/api/historical"
	EndpointPredict    = "/api/predict"
)

// DefaultTimeout bounds a single upstream call. Forecasts can take tens of seconds.
const DefaultTimeout = 60 * time.Second

const maxResponseBytes = 8 << 20

// LoginRequest carries credentials for /api/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest carries a new account. ConfirmPassword never leaves the process.
type SignupRequest struct {
	Name            string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"-"`
}

// AuthResponse is the body returned by the auth endpoints.
type AuthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client talks to the remote emissions API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *Metrics
	validate   *validator.Validate
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for upstream diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records call counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New constructs a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL reports the API root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login checks credentials. A non-2xx status or a non-success body yields *AuthError.
func (c *Client) Login(ctx context.Context, req LoginRequest) (resp AuthResponse, err error) {
	defer c.track(EndpointLogin, time.Now(), &err)
	if err = c.checkRequest(req); err != nil {
		return AuthResponse{}, err
	}
	r, err := c.post(ctx, EndpointLogin, req)
	if err != nil {
		return AuthResponse{}, err
	}
	decodeErr := json.Unmarshal(r.body, &resp)
	if !r.ok() {
		return AuthResponse{}, &AuthError{Status: r.status, Message: fallback(resp.Message, fmt.Sprintf("HTTP error! status: %d", r.status))}
	}
	if decodeErr != nil {
		return AuthResponse{}, &ProtocolError{Endpoint: EndpointLogin, Reason: ReasonMalformed, Err: decodeErr}
	}
	if resp.Status != "success" {
		return AuthResponse{}, &AuthError{Status: r.status, Message: fallback(resp.Message, "Login failed. Please try again.")}
	}
	return resp, nil
}

// Signup creates an account. Mismatched passwords fail before any request is made.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (resp AuthResponse, err error) {
	defer c.track(EndpointSignup, time.Now(), &err)
	if req.Password != req.ConfirmPassword {
		return AuthResponse{}, &ValidationError{Field: "confirmPassword", Message: "Passwords do not match"}
	}
	if err = c.checkRequest(req); err != nil {
		return AuthResponse{}, err
	}
	r, err := c.post(ctx, EndpointSignup, req)
	if err != nil {
		return AuthResponse{}, err
	}
	if !r.isJSON() {
		return AuthResponse{}, &ProtocolError{Endpoint: EndpointSignup, Reason: ReasonNotJSON}
	}
	decodeErr := json.Unmarshal(r.body, &resp)
	if !r.ok() {
		return AuthResponse{}, &AuthError{Status: r.status, Message: fallback(resp.Message, fmt.Sprintf("Signup failed with status: %d", r.status))}
	}
	if decodeErr != nil {
		return AuthResponse{}, &ProtocolError{Endpoint: EndpointSignup, Reason: ReasonMalformed, Err: decodeErr}
	}
	if resp.Status != "success" {
		return AuthResponse{}, &AuthError{Status: r.status, Message: fallback(resp.Message, "Signup failed. Please try again.")}
	}
	return resp, nil
}

// FetchHistorical posts q to the historical endpoint.
func (c *Client) FetchHistorical(ctx context.Context, q emissions.HistoricalQuery) (res emissions.HistoricalResult, err error) {
	defer c.track(EndpointHistorical, time.Now(), &err)
	err = c.fetch(ctx, EndpointHistorical, q, &res)
	return res, err
}

// FetchForecast posts q to the predict endpoint.
func (c *Client) FetchForecast(ctx context.Context, q emissions.ForecastQuery) (res emissions.ForecastResult, err error) {
	defer c.track(EndpointPredict, time.Now(), &err)
	err = c.fetch(ctx, EndpointPredict, q, &res)
	return res, err
}

func (c *Client) fetch(ctx context.Context, endpoint string, payload, out any) error {
	r, err := c.post(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	if !r.ok() {
		return &HTTPError{Endpoint: endpoint, Status: r.status, Detail: upstreamDetail(r.body)}
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) && !r.isJSON() {
			return &ProtocolError{Endpoint: endpoint, Reason: ReasonNotJSON, Err: err}
		}
		if errors.As(err, &syntaxErr) {
			return &ProtocolError{Endpoint: endpoint, Reason: ReasonMalformed, Err: err}
		}
		return &ProtocolError{Endpoint: endpoint, Reason: ReasonSchema, Err: err}
	}
	if err := c.validate.Struct(out); err != nil {
		return &ProtocolError{Endpoint: endpoint, Reason: ReasonSchema, Err: err}
	}
	return nil
}

type reply struct {
	status      int
	contentType string
	body        []byte
}

func (r reply) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r reply) isJSON() bool {
	return strings.Contains(strings.ToLower(r.contentType), "application/json")
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return reply{}, &ProtocolError{Endpoint: endpoint, Reason: ReasonRequestBody, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return reply{}, &NetworkError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reply{}, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reply{}, &NetworkError{Endpoint: endpoint, Err: err}
	}
	return reply{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: data}, nil
}

func (c *Client) checkRequest(req any) error {
	err := c.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := "is required"
		if fe.Tag() == "email" {
			msg = "must be a valid email address"
		}
		return &ValidationError{Field: strings.ToLower(fe.Field()), Message: fe.Field() + " " + msg}
	}
	return &ValidationError{Message: err.Error()}
}

func (c *Client) track(endpoint string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	c.metrics.observe(endpoint, *errp, elapsed)
	if err := *errp; err != nil {
		c.logger.Warn("emissions api call failed",
			slog.String("endpoint", endpoint),
			slog.String("kind", Kind(err)),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return
	}
	c.logger.Debug("emissions api call", slog.String("endpoint", endpoint), slog.Duration("elapsed", elapsed))
}

func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// upstreamDetail extracts the "message" or "error" member of an error body.
func upstreamDetail(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return fallback(payload.Message, payload.Error)
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
