package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghg-insights/ghg-dashboard/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

type authPage struct {
	Mode   string
	Name   string
	Email  string
	Errors map[string]string
}

func TestRenderStatusBuffersOutput(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.RenderStatus(rr, http.StatusUnprocessableEntity, "pages/auth.html", TemplateData{
		Title:     "Sign in",
		CSRFToken: "tok",
		Flash:     &shared.FlashMessage{Kind: shared.FlashInfo, Message: "Account created"},
		Data:      authPage{Mode: "login", Email: "a@b.c", Errors: map[string]string{"password": "Password is required"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Welcome back")
	assert.Contains(t, body, "Password is required")
	assert.Contains(t, body, "Account created")
	assert.Contains(t, body, `value="a@b.c"`)

	rr = httptest.NewRecorder()
	err = engine.Render(rr, "pages/missing.html", TemplateData{})
	assert.Error(t, err)
	assert.Zero(t, rr.Body.Len())
}

func TestDictHelper(t *testing.T) {
	dict := Funcs()["dict"].(func(...any) (map[string]any, error))
	m, err := dict("a", 1, "b", "two")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)
	_, err = dict("a")
	assert.Error(t, err)
}
