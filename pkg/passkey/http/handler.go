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

package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// Handler provides HTTP handlers for passkey ceremonies. The handlers
// can be mounted on any HTTP router.
type Handler struct {
	service *passkey.Service
	logger  *logging.Logger
}

// NewHandler creates a new passkey HTTP handler.
func NewHandler(service *passkey.Service) *Handler {
	return &Handler{
		service: service,
		logger:  logging.DefaultLogger(),
	}
}

// WithLogger sets a custom logger for the handler.
func (h *Handler) WithLogger(logger *logging.Logger) *Handler {
	h.logger = logger
	return h
}

// RegisterOptions handles POST /register-options
//
// Request body:
//
//	{"username": "user@example.com"}
//
// Response data: WebAuthn PublicKeyCredentialCreationOptions
func (h *Handler) RegisterOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, msgInvalidRequest)
		return
	}

	var req RegisterOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if req.Username == "" {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	options, err := h.service.BeginRegistration(r.Context(), req.Username)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeData(w, options.Response)
}

// RegisterVerify handles POST /register-verify
//
// Request body:
//
//	{"username": "user@example.com", "credential": { ...attestation... }}
//
// Response data: {"verified": true, "username": "...", "token": "..."}
func (h *Handler) RegisterVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, msgInvalidRequest)
		return
	}

	var req RegisterVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if req.Username == "" || len(req.Credential) == 0 {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	response, err := parseAttestation(req.Credential)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	result, err := h.service.FinishRegistration(r.Context(), req.Username, response)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeData(w, result)
}

// LoginChallenge handles POST /login-challenge
//
// No request body. Starts a username-less ceremony: any discoverable
// credential for this relying party may answer.
//
// Response data: {"challenge": "...", "challengeId": "..."}
func (h *Handler) LoginChallenge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, msgInvalidRequest)
		return
	}

	challenge, err := h.service.BeginAuthentication(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeData(w, challenge)
}

// LoginVerify handles POST /login-verify
//
// Request body:
//
//	{"challengeId": "...", "credential": { ...assertion... }}
//
// Response data: {"verified": true, "username": "...", "token": "..."}
func (h *Handler) LoginVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, msgInvalidRequest)
		return
	}

	var req LoginVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if req.ChallengeID == "" || len(req.Credential) == 0 {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	response, err := parseAssertion(req.Credential)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	result, err := h.service.FinishAuthentication(r.Context(), req.ChallengeID, response)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeData(w, result)
}

// Username handles POST /username
//
// Request body:
//
//	{"credentialId": "..."}
//
// Response data: {"username": "..."}
func (h *Handler) Username(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, msgInvalidRequest)
		return
	}

	var req UsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if req.CredentialID == "" {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	username, err := h.service.ResolveUsername(r.Context(), req.CredentialID)
	if err != nil {
		if passkey.IsCredentialNotRegistered(err) {
			h.writeError(w, http.StatusNotFound, msgUnknownCredential)
			return
		}
		h.handleServiceError(w, err)
		return
	}

	h.writeData(w, UsernameResponse{Username: username})
}

// handleServiceError maps service errors to HTTP responses. Failed
// ceremonies all collapse to one 400 message; anything else is an
// infrastructure fault and reports 500 with no detail.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	if passkey.IsCeremonyFailure(err) {
		h.logger.Debug("ceremony rejected", "error", err.Error())
		h.writeError(w, http.StatusBadRequest, msgVerificationFailed)
		return
	}

	h.logger.Error(err)
	h.writeError(w, http.StatusInternalServerError, msgInternalError)
}

// writeData writes a success envelope.
func (h *Handler) writeData(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data})
}

// writeError writes a failure envelope.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ApiResponse{Success: false, Error: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers already written, can only log the error.
		h.logger.Errorf("encoding response: %v", err)
	}
}

func parseAttestation(raw json.RawMessage) (*protocol.ParsedCredentialCreationData, error) {
	var ccr protocol.CredentialCreationResponse
	if err := json.Unmarshal(raw, &ccr); err != nil {
		return nil, err
	}
	return ccr.Parse()
}

func parseAssertion(raw json.RawMessage) (*protocol.ParsedCredentialAssertionData, error) {
	var car protocol.CredentialAssertionResponse
	if err := json.Unmarshal(raw, &car); err != nil {
		return nil, err
	}
	return car.Parse()
}
