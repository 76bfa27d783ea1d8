package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/blobkit/component"
	apperrors "github.com/kbukum/blobkit/errors"
	"github.com/kbukum/blobkit/logger"
)

func testServer(t *testing.T, checker func(context.Context) []component.Health) *Server {
	t.Helper()
	cfg := Config{Name: "test-http", Host: "127.0.0.1", Port: 0, MaxBodySize: "1KB", IdleTimeout: 5}
	s := New(cfg, logger.NewNop())
	s.ApplyDefaults("blobkit-test", checker)
	return s
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "32MB", cfg.MaxBodySize)
	assert.Equal(t, ":8080", cfg.Addr())
	require.NoError(t, cfg.Validate())

	cfg.Port = 70000
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		components []component.Health
		wantCode   int
		wantStatus string
	}{
		{"no components", nil, http.StatusOK, "healthy"},
		{"degraded", []component.Health{{Name: "storage", Status: component.StatusDegraded}}, http.StatusOK, "degraded"},
		{"unhealthy", []component.Health{
			{Name: "storage", Status: component.StatusUnhealthy},
			{Name: "http", Status: component.StatusHealthy},
		}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t, func(context.Context) []component.Health { return tt.components })

			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			require.Equal(t, tt.wantCode, rr.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, "blobkit-test", body["service"])
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := testServer(t, nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"version"`)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestRespondWithError(t *testing.T) {
	s := testServer(t, nil)
	s.GinEngine().GET("/missing", func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound("object", "a.txt"))
	})
	s.GinEngine().GET("/boom", func(c *gin.Context) {
		RespondWithError(c, errors.New("boom"))
	})
	s.GinEngine().GET("/panic", func(*gin.Context) {
		panic("handler panic")
	})

	tests := []struct {
		path string
		code int
		want string
	}{
		{"/missing", http.StatusNotFound, "NOT_FOUND"},
		{"/boom", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/panic", http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
		assert.Equal(t, tt.code, rr.Code, tt.path)
		assert.Contains(t, rr.Body.String(), tt.want, tt.path)
	}
}

func TestStartStopAndComponent(t *testing.T) {
	s := testServer(t, nil)
	c := NewComponent(s)
	ctx := context.Background()

	assert.Equal(t, component.StatusUnhealthy, c.Health(ctx).Status)
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { _ = c.Stop(ctx) })

	assert.Equal(t, component.StatusHealthy, c.Health(ctx).Status)
	assert.Equal(t, "test-http", c.Name())
	assert.Equal(t, s.Addr(), c.Describe().Details)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", s.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
