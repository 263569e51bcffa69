package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
)

// Service wraps the account rules around the remote API.
type Service struct {
	gateway  Gateway
	validate *validator.Validate
}

// NewService constructs a new Service.
func NewService(gw Gateway) *Service {
	return &Service{gateway: gw, validate: validator.New()}
}

// CheckLogin validates form and returns messages keyed by form field.
func (s *Service) CheckLogin(form LoginForm) map[string]string {
	return s.fieldErrors(form)
}

// CheckSignup validates form and returns messages keyed by form field.
func (s *Service) CheckSignup(form SignupForm) map[string]string {
	return s.fieldErrors(form)
}

// Authenticate checks the credentials against the API. It returns the trimmed email and
// the server message, falling back to a generic greeting when the server sends none.
func (s *Service) Authenticate(ctx context.Context, form LoginForm) (email, message string, err error) {
	email = strings.TrimSpace(form.Email)
	resp, err := s.gateway.Login(ctx, gateway.LoginRequest{
		Email:    email,
		Password: form.Password,
	})
	if err != nil {
		return "", "", err
	}
	if resp.Message == "" {
		return email, "Login successful!", nil
	}
	return email, resp.Message, nil
}

// Register creates the account and returns the server message.
func (s *Service) Register(ctx context.Context, form SignupForm) (string, error) {
	resp, err := s.gateway.Signup(ctx, gateway.SignupRequest{
		Name:            strings.TrimSpace(form.Name),
		Email:           strings.TrimSpace(form.Email),
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "Account created. Please log in.", nil
	}
	return resp.Message, nil
}

var fieldNames = map[string]string{
	"Name":            "name",
	"Email":           "email",
	"Password":        "password",
	"ConfirmPassword": "confirm_password",
}

func (s *Service) fieldErrors(form any) map[string]string {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fieldNames[fe.Field()]
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "eqfield":
		return "Passwords do not match"
	default:
		return fe.Error()
	}
}
