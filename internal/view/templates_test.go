package view

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/auth/login.html", TemplateData{
		Title:     "Вход",
		CSRFToken: "token",
		Data: map[string]any{
			"Form":   map[string]string{"Login": ""},
			"Next":   "",
			"Errors": map[string]string{},
		},
	})
	require.NoError(t, err)

	body := res.Body.String()
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, `name="csrf_token"`)
	assert.Equal(t, "text/html; charset=utf-8", res.Header().Get("Content-Type"))
}

func TestRenderUnknownPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/missing.html", TemplateData{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not found"))
}

func TestStarsHelper(t *testing.T) {
	assert.Equal(t, "★★★☆☆", stars(3))
	assert.Equal(t, "★★★★☆", stars(3.6))
	assert.Equal(t, "☆☆☆☆☆", stars(0))
	assert.Equal(t, "★★★★★", stars(int64(7)))
}
