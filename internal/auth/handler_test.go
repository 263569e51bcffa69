package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ghg-insights/ghg-dashboard/internal/auth"
	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
	"github.com/ghg-insights/ghg-dashboard/internal/shared"
	"github.com/ghg-insights/ghg-dashboard/internal/view"
	"github.com/ghg-insights/ghg-dashboard/internal/viewstate"
	_ "github.com/ghg-insights/ghg-dashboard/testing"
)

type stubGateway struct {
	loginMsg  string
	loginErr  error
	signupErr error
	logins    []gateway.LoginRequest
	signups   []gateway.SignupRequest
}

func (s *stubGateway) Login(ctx context.Context, req gateway.LoginRequest) (gateway.AuthResponse, error) {
	s.logins = append(s.logins, req)
	if s.loginErr != nil {
		return gateway.AuthResponse{}, s.loginErr
	}
	return gateway.AuthResponse{Status: "success", Message: s.loginMsg}, nil
}

func (s *stubGateway) Signup(ctx context.Context, req gateway.SignupRequest) (gateway.AuthResponse, error) {
	s.signups = append(s.signups, req)
	if s.signupErr != nil {
		return gateway.AuthResponse{}, s.signupErr
	}
	return gateway.AuthResponse{Status: "success", Message: "User registered successfully"}, nil
}

type fixture struct {
	handler  *auth.Handler
	sessions *shared.SessionManager
	store    *viewstate.Store
}

func newFixture(t *testing.T, gw auth.Gateway) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	store := viewstate.NewStore(nil)
	handler := auth.NewHandler(nil, auth.NewService(gw), store, templates, sessionManager, csrfManager)
	return fixture{handler: handler, sessions: sessionManager, store: store}
}

// serve runs h inside a loaded and committed session, carrying cookie when non-empty.
func (f fixture) serve(t *testing.T, h http.HandlerFunc, req *http.Request, cookie string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: f.sessions.CookieName(), Value: cookie})
	}
	sess, err := f.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)
	res := httptest.NewRecorder()
	h(res, req)
	if err := f.sessions.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAuthPage(t *testing.T) {
	f := newFixture(t, &stubGateway{})

	res, sess := f.serve(t, f.handler.ShowAuthForTest, httptest.NewRequest(http.MethodGet, "/auth", nil), "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `action="/auth/login"`) {
		t.Fatalf("expected login form in body")
	}
	if sess.Get(shared.CSRFSessionKey) == "" {
		t.Fatalf("csrf token not set")
	}

	res, _ = f.serve(t, f.handler.ShowAuthForTest, httptest.NewRequest(http.MethodGet, "/auth?mode=signup", nil), sess.ID)
	if !strings.Contains(res.Body.String(), `action="/auth/signup"`) {
		t.Fatalf("expected signup form in body")
	}
	if got := f.store.Snapshot(sess.ID).Auth.Mode; got != viewstate.SignupForm {
		t.Fatalf("expected signup mode, got %v", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	gw := &stubGateway{loginErr: &gateway.AuthError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}}
	f := newFixture(t, gw)

	res, _ := f.serve(t, f.handler.HandleLoginForTest, postForm("/auth/login", url.Values{
		"email":    {"user@test.local"},
		"password": {"wrongpass"},
	}), "")

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Invalid email or password") {
		t.Fatalf("expected server message in response")
	}
	if len(gw.logins) != 1 {
		t.Fatalf("expected one login call, got %d", len(gw.logins))
	}
}

func TestLoginValidationSkipsGateway(t *testing.T) {
	gw := &stubGateway{}
	f := newFixture(t, gw)

	res, _ := f.serve(t, f.handler.HandleLoginForTest, postForm("/auth/login", url.Values{
		"email": {"not-an-email"},
	}), "")

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, "Enter a valid email address") || !strings.Contains(body, "This field is required") {
		t.Fatalf("expected field errors in body")
	}
	if len(gw.logins) != 0 {
		t.Fatalf("gateway must not be called")
	}
}

func TestLoginSuccessRenewsSession(t *testing.T) {
	gw := &stubGateway{loginMsg: "Welcome back"}
	f := newFixture(t, gw)

	_, anon := f.serve(t, f.handler.ShowAuthForTest, httptest.NewRequest(http.MethodGet, "/auth", nil), "")
	oldID := anon.ID
	oldToken := anon.Get(shared.CSRFSessionKey)

	res, sess := f.serve(t, f.handler.HandleLoginForTest, postForm("/auth/login", url.Values{
		"email":    {" user@test.local "},
		"password": {"secret"},
	}), oldID)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %q", loc)
	}
	if sess.ID == oldID {
		t.Fatalf("expected a fresh session id")
	}
	if sess.User() != "user@test.local" {
		t.Fatalf("unexpected user %q", sess.User())
	}
	if tok := sess.Get(shared.CSRFSessionKey); tok == "" || tok == oldToken {
		t.Fatalf("expected rotated csrf token")
	}
	ws := f.store.Snapshot(sess.ID)
	if !ws.Auth.Authenticated || ws.Nav != viewstate.Dashboard {
		t.Fatalf("expected authenticated workspace on the dashboard, got %+v", ws.Auth)
	}
	if flash := sess.PopFlash(); flash == nil || flash.Message != "Welcome back" {
		t.Fatalf("expected server message as flash, got %+v", flash)
	}

	// the old record is gone, so the old cookie starts a new anonymous session
	_, again := f.serve(t, f.handler.ShowAuthForTest, httptest.NewRequest(http.MethodGet, "/auth", nil), oldID)
	if again.User() != "" || again.ID == oldID {
		t.Fatalf("old session must not survive login")
	}
}

func TestLoginFlashFallsBackWithoutServerMessage(t *testing.T) {
	f := newFixture(t, &stubGateway{})

	_, sess := f.serve(t, f.handler.HandleLoginForTest, postForm("/auth/login", url.Values{
		"email":    {"user@test.local"},
		"password": {"secret"},
	}), "")

	flash := sess.PopFlash()
	if flash == nil || flash.Message != "Login successful!" {
		t.Fatalf("expected fallback flash, got %+v", flash)
	}
}

func TestSignupSuccessReturnsToLogin(t *testing.T) {
	gw := &stubGateway{}
	f := newFixture(t, gw)

	res, sess := f.serve(t, f.handler.HandleSignupForTest, postForm("/auth/signup", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@test.local"},
		"password":         {"pw123456"},
		"confirm_password": {"pw123456"},
	}), "")

	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/auth" {
		t.Fatalf("expected redirect to /auth, got %d %q", res.Code, res.Header().Get("Location"))
	}
	if sess.User() != "" {
		t.Fatalf("signup must not authenticate")
	}
	if got := f.store.Snapshot(sess.ID).Auth; got.Mode != viewstate.LoginForm || got.Authenticated {
		t.Fatalf("unexpected auth screen %+v", got)
	}
	if len(gw.signups) != 1 || gw.signups[0].Name != "Ada" {
		t.Fatalf("unexpected signup calls %+v", gw.signups)
	}

	res, _ = f.serve(t, f.handler.ShowAuthForTest, httptest.NewRequest(http.MethodGet, "/auth", nil), sess.ID)
	if !strings.Contains(res.Body.String(), "User registered successfully") {
		t.Fatalf("expected flash message after signup")
	}
}

func TestSignupMismatchedPasswords(t *testing.T) {
	gw := &stubGateway{}
	f := newFixture(t, gw)

	res, _ := f.serve(t, f.handler.HandleSignupForTest, postForm("/auth/signup", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@test.local"},
		"password":         {"one"},
		"confirm_password": {"two"},
	}), "")

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Passwords do not match") {
		t.Fatalf("expected mismatch message")
	}
	if len(gw.signups) != 0 {
		t.Fatalf("gateway must not be called")
	}
}

func TestSignupUpstreamFailure(t *testing.T) {
	gw := &stubGateway{signupErr: &gateway.ProtocolError{Endpoint: gateway.EndpointSignup, Reason: gateway.ReasonNotJSON}}
	f := newFixture(t, gw)

	res, _ := f.serve(t, f.handler.HandleSignupForTest, postForm("/auth/signup", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@test.local"},
		"password":         {"pw"},
		"confirm_password": {"pw"},
	}), "")

	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), gateway.ReasonNotJSON) {
		t.Fatalf("expected protocol reason in body")
	}
}

func TestLogoutDropsWorkspace(t *testing.T) {
	f := newFixture(t, &stubGateway{})
	_, sess := f.serve(t, f.handler.HandleLoginForTest, postForm("/auth/login", url.Values{
		"email":    {"user@test.local"},
		"password": {"secret"},
	}), "")
	if f.store.Len() != 1 {
		t.Fatalf("expected one workspace, got %d", f.store.Len())
	}

	res, _ := f.serve(t, f.handler.HandleLogoutForTest, postForm("/auth/logout", url.Values{}), sess.ID)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected workspace to be dropped")
	}
	cookies := res.Result().Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie")
	}
}
