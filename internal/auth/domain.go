package auth

import (
	"context"

	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
)

// Gateway is the part of the emissions API client that handles accounts.
type Gateway interface {
	Login(ctx context.Context, req gateway.LoginRequest) (gateway.AuthResponse, error)
	Signup(ctx context.Context, req gateway.SignupRequest) (gateway.AuthResponse, error)
}

// LoginForm is the login form submission.
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// SignupForm is the signup form submission.
type SignupForm struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// PageData is the data of pages/auth.html.
type PageData struct {
	Mode   string
	Name   string
	Email  string
	Errors map[string]string
}
