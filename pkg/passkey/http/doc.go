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

// Package http provides composable HTTP handlers for passkey ceremonies.
//
// The handlers can be mounted on any router without coupling to the
// server binary in this repository.
//
// # Usage
//
// Create a handler from a passkey service and mount it:
//
//	svc, _ := passkey.NewService(...)
//	handler := passkeyhttp.NewHandler(svc)
//
//	// For chi router:
//	r.Route("/auth", func(r chi.Router) {
//	    passkeyhttp.MountChi(r, handler)
//	})
//
//	// For stdlib http.ServeMux:
//	passkeyhttp.MountStdlib(mux, "/auth", handler)
//
// # Endpoints
//
//	POST /register-options  - Start a registration ceremony
//	POST /register-verify   - Complete a registration ceremony
//	POST /login-challenge   - Start a username-less authentication ceremony
//	POST /login-verify      - Complete an authentication ceremony
//	POST /username          - Resolve a credential id to its username
//
// # Response Format
//
// All responses are JSON wrapped in a common envelope:
//
//	{
//	    "success": true,
//	    "data": { ... }
//	}
//
// Failures carry a message instead of data:
//
//	{
//	    "success": false,
//	    "error": "verification failed"
//	}
//
// Ceremony failures are reported with a single generic message so the
// response does not reveal which verification step rejected the request.
package http
