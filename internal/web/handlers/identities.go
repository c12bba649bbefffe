package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/registry"
)

// IdentitiesHandler handles enrollment and lookup endpoints
type IdentitiesHandler struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewIdentitiesHandler creates a new identities handler
func NewIdentitiesHandler(reg *registry.Registry, logger *slog.Logger) *IdentitiesHandler {
	return &IdentitiesHandler{registry: reg, logger: logger}
}

// EnrollRequest is the body of POST /identities
type EnrollRequest struct {
	DisplayName string               `json:"display_name"`
	Email       string               `json:"email"`
	Descriptor  facematch.Descriptor `json:"descriptor"`
}

// IdentityListResponse wraps the identity listing
type IdentityListResponse struct {
	Identities []facematch.Identity `json:"identities"`
	Count      int                  `json:"count"`
}

// List returns every identity in enrollment order
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.registry.ListAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list identities", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list identities")
		return
	}
	if identities == nil {
		identities = []facematch.Identity{}
	}
	respondJSON(w, http.StatusOK, IdentityListResponse{Identities: identities, Count: len(identities)})
}

// Create enrolls a new identity
func (h *IdentitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.registry.Enroll(r.Context(), req.DisplayName, req.Email, req.Descriptor)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, identity)
	case errors.Is(err, facematch.ErrInvalidDescriptor), errors.Is(err, registry.ErrInvalidIdentity):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrDuplicateID):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "enroll identity",
			"display_name", sanitizeForLog(req.DisplayName), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to enroll identity")
	}
}

// Get returns a single identity by ID
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	identity, err := h.registry.FindByID(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get identity", "identity_id", sanitizeForLog(id), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get identity")
		return
	}
	if identity == nil {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	respondJSON(w, http.StatusOK, identity)
}

// Search returns identities by display name (?name=)
func (h *IdentitiesHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	identities, err := h.registry.FindByName(r.Context(), name)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "search identities", "name", sanitizeForLog(name), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to search identities")
		return
	}
	if identities == nil {
		identities = []facematch.Identity{}
	}
	respondJSON(w, http.StatusOK, IdentityListResponse{Identities: identities, Count: len(identities)})
}
