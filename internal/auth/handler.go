package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
	"github.com/ghg-insights/ghg-dashboard/internal/platform/httpx"
	"github.com/ghg-insights/ghg-dashboard/internal/shared"
	"github.com/ghg-insights/ghg-dashboard/internal/view"
	"github.com/ghg-insights/ghg-dashboard/internal/viewstate"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	store          *viewstate.Store
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
}

// attemptsPerMinute bounds login and signup posts per client address.
const attemptsPerMinute = 10

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, store *viewstate.Store, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		store:          store,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(
		attemptsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(httpx.RateLimited),
	)

	r.Get("/", h.showAuth)
	r.Post("/", h.switchMode)
	r.Post("/logout", h.handleLogout)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/login", h.handleLogin)
		gr.Post("/signup", h.handleSignup)
	})
}

func (h *Handler) showAuth(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess.User() != "" {
		http.Redirect(w, r, viewstate.Dashboard.Path(), http.StatusSeeOther)
		return
	}
	screen := h.dispatchMode(sess, r.URL.Query().Get("mode"))
	h.render(w, r, http.StatusOK, PageData{Mode: screen.Mode.String()}, nil)
}

func (h *Handler) switchMode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	screen := h.dispatchMode(shared.SessionFromContext(r.Context()), r.PostFormValue("mode"))
	target := "/auth"
	if screen.Mode == viewstate.SignupForm {
		target = "/auth?mode=signup"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) dispatchMode(sess *shared.Session, mode string) viewstate.AuthScreen {
	if sess == nil {
		return viewstate.AuthScreen{}
	}
	action := viewstate.SwitchToLogin
	if mode == viewstate.SignupForm.String() {
		action = viewstate.SwitchToSignup
	}
	return h.store.DispatchAuth(sess.ID, action)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	form := LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := PageData{Mode: viewstate.LoginForm.String(), Email: form.Email}
	if errs := h.service.CheckLogin(form); len(errs) > 0 {
		data.Errors = errs
		h.render(w, r, http.StatusBadRequest, data, nil)
		return
	}

	email, msg, err := h.service.Authenticate(r.Context(), form)
	if err != nil {
		h.logFailure("login", err)
		h.render(w, r, failureStatus(err), data, &shared.FlashMessage{Kind: shared.FlashError, Message: gateway.Message(err)})
		return
	}

	previous := sess.ID
	h.sessionManager.Renew(sess)
	sess.SetUser(email)
	if _, err := h.csrfManager.Rotate(sess); err != nil {
		h.logger.Error("rotate csrf token", slog.Any("error", err))
	}
	h.store.Drop(previous)
	h.store.DispatchAuth(sess.ID, viewstate.LoginSucceeded)
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: msg})
	h.logger.Info("user logged in", slog.String("session", sess.ID))
	http.Redirect(w, r, viewstate.Dashboard.Path(), http.StatusSeeOther)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during signup")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	form := SignupForm{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := PageData{Mode: viewstate.SignupForm.String(), Name: form.Name, Email: form.Email}
	if errs := h.service.CheckSignup(form); len(errs) > 0 {
		data.Errors = errs
		h.render(w, r, http.StatusBadRequest, data, nil)
		return
	}

	msg, err := h.service.Register(r.Context(), form)
	if err != nil {
		h.logFailure("signup", err)
		h.render(w, r, failureStatus(err), data, &shared.FlashMessage{Kind: shared.FlashError, Message: gateway.Message(err)})
		return
	}

	h.store.DispatchAuth(sess.ID, viewstate.SignupSucceeded)
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: msg})
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.store.Drop(sess.ID)
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data PageData, flash *shared.FlashMessage) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	if flash == nil && sess != nil {
		flash = sess.PopFlash()
	}
	title := "Log in"
	if data.Mode == viewstate.SignupForm.String() {
		title = "Sign up"
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, "pages/auth.html", viewData); err != nil {
		h.logger.Error("render auth", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) logFailure(action string, err error) {
	var authErr *gateway.AuthError
	var validationErr *gateway.ValidationError
	if errors.As(err, &authErr) || errors.As(err, &validationErr) {
		h.logger.Info(action+" rejected", slog.String("kind", gateway.Kind(err)))
		return
	}
	h.logger.Error(action+" failed", slog.Any("error", err))
}

func failureStatus(err error) int {
	switch gateway.Kind(err) {
	case gateway.KindAuth:
		return http.StatusUnauthorized
	case gateway.KindValidation:
		return http.StatusBadRequest
	case gateway.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// ShowAuthForTest exposes the GET handler for tests.
func (h *Handler) ShowAuthForTest(w http.ResponseWriter, r *http.Request) {
	h.showAuth(w, r)
}

// HandleLoginForTest exposes the login handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleSignupForTest exposes the signup handler for tests.
func (h *Handler) HandleSignupForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSignup(w, r)
}

// HandleLogoutForTest exposes the logout handler for tests.
func (h *Handler) HandleLogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogout(w, r)
}
