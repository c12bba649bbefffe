package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kozaktomas/facegate/internal/auth"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// AuthHandler handles face authentication
type AuthHandler struct {
	authenticator *auth.Authenticator
	logger        *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authenticator *auth.Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, logger: logger}
}

// AuthenticateRequest carries the output of an external face detector
type AuthenticateRequest struct {
	FaceDetected bool                 `json:"face_detected"`
	Descriptor   facematch.Descriptor `json:"descriptor"`
	Confidence   float64              `json:"confidence"`
}

// Authenticate decides one attempt. Failed attempts are still 200: the
// outcome is in the body.
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req AuthenticateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome := facematch.NewDetectionOutcome(req.FaceDetected, req.Descriptor, req.Confidence)
	result, err := h.authenticator.Authenticate(r.Context(), outcome)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "authenticate", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
