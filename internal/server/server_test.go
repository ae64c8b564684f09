// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-passkey/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	cfg := config.Default()
	srv, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.backend.Close() })
	return srv
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	srv := newTestServer(t)
	assert.NotNil(t, srv.Service())
	assert.Equal(t, "localhost:8080", srv.Addr())
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "dynamodb"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage backend")
}

func TestNew_PogrebBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "pogreb"
	cfg.Storage.Path = t.TempDir()

	srv, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.backend.Close() })
	assert.NotNil(t, srv.Service())
}

func TestNew_WithJWT(t *testing.T) {
	cfg := config.Default()
	cfg.JWT.Secret = "test-signing-secret"

	srv, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.backend.Close() })
	assert.NotNil(t, srv.Service())
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)
	router := srv.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t)
	router := srv.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_AuthRoutesMounted(t *testing.T) {
	srv := newTestServer(t)
	router := srv.setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/auth/register-options",
		strings.NewReader(`{"username":"route@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	router := srv.setupRouter()

	req := httptest.NewRequest(http.MethodOptions, "/auth/login-challenge", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_HealthDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Health.Enabled = false
	cfg.Metrics.Enabled = false

	srv, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.backend.Close() })
	router := srv.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RequestID(t *testing.T) {
	srv := newTestServer(t)
	router := srv.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// client-supplied IDs are echoed back
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "ceremony-42")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "ceremony-42", rec.Header().Get("X-Request-ID"))
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMinute = 60
	cfg.RateLimit.Burst = 1

	srv, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.limiter.Stop()
		_ = srv.backend.Close()
	})
	router := srv.setupRouter()

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path,
			strings.NewReader(`{"username":"limit@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.5:4242"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("/auth/register-options").Code)

	rec := do("/auth/register-options")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	// health endpoint is outside the limited subtree
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "192.0.2.5:4242"
	healthRec := httptest.NewRecorder()
	router.ServeHTTP(healthRec, req)
	assert.Equal(t, http.StatusOK, healthRec.Code)
}

func TestRouter_HealthVerbose(t *testing.T) {
	srv := newTestServer(t)
	router := srv.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz?verbose=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"storage"`)
}
