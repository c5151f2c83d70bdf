package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, h *HealthHandler) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := gin.New()
	r.GET("/healthz", h.Check)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func ok(context.Context) error { return nil }

func TestHealth_AllDependenciesUp(t *testing.T) {
	h := NewHealthHandler("slidedeck", "test", time.Now(),
		DependencyCheck{Name: "mysql", Check: ok},
		DependencyCheck{Name: "redis", Check: ok},
	)
	rec, body := serveHealth(t, h)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "slidedeck", body["app"])
}

func TestHealth_OptionalDependencyDoesNotFail(t *testing.T) {
	h := NewHealthHandler("slidedeck", "test", time.Now(),
		DependencyCheck{Name: "mysql", Check: ok},
		DependencyCheck{Name: "rabbitmq", Check: func(context.Context) error { return errors.New("not connected") }, Optional: true},
	)
	rec, body := serveHealth(t, h)
	assert.Equal(t, http.StatusOK, rec.Code)

	deps := body["dependencies"].(map[string]any)
	rmq := deps["rabbitmq"].(map[string]any)
	assert.Equal(t, false, rmq["ok"])
	assert.Equal(t, "not connected", rmq["message"])
}

func TestHealth_RequiredDependencyDown(t *testing.T) {
	h := NewHealthHandler("slidedeck", "test", time.Now(),
		DependencyCheck{Name: "mysql", Check: func(context.Context) error { return errors.New("refused") }},
	)
	rec, _ := serveHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth_Live(t *testing.T) {
	r := gin.New()
	r.GET("/health/", NewHealthHandler("slidedeck", "test", time.Now()).Live)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
