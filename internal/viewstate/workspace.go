package viewstate

import (
	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/forecast"
)

// AuthMode is the form shown on the auth screen.
type AuthMode int

// Auth forms.
const (
	LoginForm AuthMode = iota
	SignupForm
)

func (m AuthMode) String() string {
	if m == SignupForm {
		return "signup"
	}
	return "login"
}

// AuthAction is an event on the auth screen.
type AuthAction int

// Auth actions.
const (
	SwitchToSignup AuthAction = iota
	SwitchToLogin
	LoginSucceeded
	SignupSucceeded
)

// AuthScreen is the state of the auth screen.
type AuthScreen struct {
	Mode          AuthMode
	Authenticated bool
}

// Reduce applies action. A successful signup returns to the login form; only a successful
// login authenticates.
func (a AuthScreen) Reduce(action AuthAction) AuthScreen {
	switch action {
	case SwitchToSignup:
		a.Mode = SignupForm
	case SwitchToLogin, SignupSucceeded:
		a.Mode = LoginForm
	case LoginSucceeded:
		a.Mode = LoginForm
		a.Authenticated = true
	}
	return a
}

// Destination is a top-level page.
type Destination int

// Top-level pages.
const (
	Dashboard Destination = iota
	Prediction
)

// Path is the route of the destination.
func (d Destination) Path() string {
	if d == Prediction {
		return "/prediction"
	}
	return "/dashboard"
}

// HistoricalScreen is the dashboard state.
type HistoricalScreen = Screen[emissions.HistoricalQuery, emissions.HistoricalResult]

// ForecastScreen is the prediction state.
type ForecastScreen = Screen[emissions.ForecastQuery, emissions.ForecastResult]

// ForecastView is the comparison sub-view of the prediction page.
type ForecastView struct {
	forecast.View
}

// SetMode switches between monthly and annual values.
func (v ForecastView) SetMode(mode forecast.Mode) ForecastView {
	if mode == forecast.ModeAnnual || mode == forecast.ModeMonthly {
		v.Mode = mode
	}
	return v
}

// SelectMonth picks the month shown in monthly mode. Out of range months are ignored.
func (v ForecastView) SelectMonth(month int) ForecastView {
	if month >= 1 && month <= forecast.Months {
		v.Month = month
	}
	return v
}

// Workspace is everything one session sees.
type Workspace struct {
	Auth       AuthScreen
	Nav        Destination
	Dashboard  HistoricalScreen
	Prediction ForecastScreen
	View       ForecastView
}

// NewWorkspace returns the state of a fresh session.
func NewWorkspace() Workspace {
	return Workspace{View: ForecastView{View: forecast.DefaultView()}}
}
