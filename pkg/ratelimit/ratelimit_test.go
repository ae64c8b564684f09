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

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	limiter := New(&Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             10,
	})
	defer limiter.Stop()

	if !limiter.IsEnabled() {
		t.Error("Expected limiter to be enabled")
	}
	if limiter.ActiveClients() != 0 {
		t.Errorf("Expected no tracked clients, got %d", limiter.ActiveClients())
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)

	if limiter.IsEnabled() {
		t.Error("Nil config should produce a disabled limiter")
	}
	if !limiter.Allow("anyone") {
		t.Error("Disabled limiter should allow all requests")
	}
}

func TestAllow(t *testing.T) {
	limiter := New(&Config{
		Enabled:           true,
		RequestsPerMinute: 60, // 1 per second
		Burst:             5,
	})
	defer limiter.Stop()

	clientID := "test-client"

	// First 5 requests should succeed (burst)
	for i := 0; i < 5; i++ {
		if !limiter.Allow(clientID) {
			t.Errorf("Request %d should be allowed (burst)", i+1)
		}
	}

	// Next request should be denied (burst exhausted)
	if limiter.Allow(clientID) {
		t.Error("Request should be denied after burst exhausted")
	}

	// Wait for 1 second, 1 token should be available
	time.Sleep(1 * time.Second)
	if !limiter.Allow(clientID) {
		t.Error("Request should be allowed after waiting")
	}
}

func TestDisabledLimiter(t *testing.T) {
	limiter := New(&Config{
		Enabled:           false,
		RequestsPerMinute: 1,
	})

	for i := 0; i < 100; i++ {
		if !limiter.Allow("test-client") {
			t.Error("Disabled limiter should allow all requests")
		}
	}
}

func TestPerClientLimiting(t *testing.T) {
	limiter := New(&Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             1,
	})
	defer limiter.Stop()

	if !limiter.Allow("client-1") {
		t.Error("First request for client-1 should be allowed")
	}
	if limiter.Allow("client-1") {
		t.Error("Second request for client-1 should be denied")
	}

	// client-2 has its own bucket
	if !limiter.Allow("client-2") {
		t.Error("First request for client-2 should be allowed")
	}

	if limiter.ActiveClients() != 2 {
		t.Errorf("Expected 2 tracked clients, got %d", limiter.ActiveClients())
	}
}

func TestCleanup(t *testing.T) {
	limiter := New(&Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             1,
		CleanupInterval:   time.Hour, // cleanup driven manually below
		MaxIdle:           10 * time.Millisecond,
	})
	defer limiter.Stop()

	limiter.Allow("idle-client")
	time.Sleep(20 * time.Millisecond)
	limiter.cleanup()

	if limiter.ActiveClients() != 0 {
		t.Errorf("Expected idle client to be evicted, got %d tracked", limiter.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	limiter := New(&Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             2,
	})
	defer limiter.Stop()

	handler := Middleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login-challenge", nil)
		req.RemoteAddr = "192.0.2.1:55555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(); rec.Code != http.StatusOK {
		t.Errorf("First request status = %d, want 200", rec.Code)
	}
	if rec := do(); rec.Code != http.StatusOK {
		t.Errorf("Second request status = %d, want 200", rec.Code)
	}

	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Third request status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("Rejection body = %s, want standard envelope", rec.Body.String())
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on rejection")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.1:55555",
			want:       "192.0.2.1:55555",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for chain takes first",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %v, want %v", got, tt.want)
			}
		})
	}
}
