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

package correlation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-id")

	if got := GetRequestID(ctx); got != "test-id" {
		t.Errorf("GetRequestID() = %v, want test-id", got)
	}
}

func TestWithRequestID_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context tolerance is part of the contract
	ctx := WithRequestID(nil, "test-id")

	if got := GetRequestID(ctx); got != "test-id" {
		t.Errorf("GetRequestID() = %v, want test-id", got)
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() = %v, want empty string", got)
	}
	//nolint:staticcheck // nil context tolerance is part of the contract
	if got := GetRequestID(nil); got != "" {
		t.Errorf("GetRequestID(nil) = %v, want empty string", got)
	}
}

func TestNewID(t *testing.T) {
	id := NewID()

	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("NewID() = %v, not a valid UUID: %v", id, err)
	}
	if NewID() == id {
		t.Error("NewID() should generate unique IDs")
	}
}

func TestGetOrGenerate(t *testing.T) {
	ctx := WithRequestID(context.Background(), "existing-id")
	if got := GetOrGenerate(ctx); got != "existing-id" {
		t.Errorf("GetOrGenerate() = %v, want existing-id", got)
	}

	generated := GetOrGenerate(context.Background())
	if _, err := uuid.Parse(generated); err != nil {
		t.Errorf("GetOrGenerate() = %v, not a valid UUID: %v", generated, err)
	}
}

func TestMiddleware_GeneratesID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login-challenge", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("Context request ID %v is not a valid UUID: %v", seen, err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("Response header ID = %v, want %v", got, seen)
	}
}

func TestMiddleware_HonorsClientID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login-verify", nil)
	req.Header.Set(RequestIDHeader, "ceremony-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "ceremony-123" {
		t.Errorf("Context request ID = %v, want ceremony-123", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "ceremony-123" {
		t.Errorf("Response header ID = %v, want ceremony-123", got)
	}
}
