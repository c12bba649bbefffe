package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/registry"
)

// MatchHandler handles matching and comparison endpoints
type MatchHandler struct {
	matcher          *facematch.Matcher
	registry         *registry.Registry
	defaultThreshold float64
	logger           *slog.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matcher *facematch.Matcher, reg *registry.Registry, defaultThreshold float64, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		matcher:          matcher,
		registry:         reg,
		defaultThreshold: defaultThreshold,
		logger:           logger,
	}
}

// MatchRequest is the body of POST /match. Threshold defaults to the configured value.
// It must be non-negative; values above 1 are accepted and never match.
type MatchRequest struct {
	Descriptor facematch.Descriptor `json:"descriptor"`
	Threshold  *float64             `json:"threshold,omitempty"`
}

// MatchResponse mirrors facematch.MatchResult
type MatchResponse struct {
	Matched   bool                `json:"matched"`
	Identity  *facematch.Identity `json:"identity,omitempty"`
	Score     float64             `json:"score,omitempty"`
	Reason    string              `json:"reason"`
	Threshold float64             `json:"threshold"`
	Policy    string              `json:"policy"`
}

// Match finds the accepted identity for a probe descriptor
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	threshold := h.defaultThreshold
	if req.Threshold != nil {
		if !(*req.Threshold >= 0) {
			respondError(w, http.StatusBadRequest, "threshold must be a non-negative number")
			return
		}
		threshold = *req.Threshold
	}

	result, err := h.matcher.FindBestMatch(r.Context(), req.Descriptor, threshold)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "match descriptor", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to match descriptor")
		return
	}

	respondJSON(w, http.StatusOK, MatchResponse{
		Matched:   result.Matched,
		Identity:  result.Identity,
		Score:     result.Score,
		Reason:    result.Reason,
		Threshold: threshold,
		Policy:    string(h.matcher.Policy()),
	})
}

// SimilarityRequest is the body of POST /similarity
type SimilarityRequest struct {
	A facematch.Descriptor `json:"a"`
	B facematch.Descriptor `json:"b"`
}

// SimilarityResponse holds the pairwise score and the underlying distance
type SimilarityResponse struct {
	Similarity float64 `json:"similarity"`
	Distance   float64 `json:"distance"`
}

// Similarity compares two descriptors
func (h *MatchHandler) Similarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	similarity, err := h.matcher.Similarity(req.A, req.B)
	if errors.Is(err, facematch.ErrDimensionMismatch) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	distance, _ := facematch.EuclideanDistance(req.A, req.B)

	respondJSON(w, http.StatusOK, SimilarityResponse{Similarity: similarity, Distance: distance})
}

// NearestRequest is the body of POST /nearest
type NearestRequest struct {
	Descriptor facematch.Descriptor `json:"descriptor"`
	K          int                  `json:"k"`
}

// NearestResponse is a ranked candidate list
type NearestResponse struct {
	Candidates []facematch.Candidate `json:"candidates"`
}

// Nearest ranks enrolled identities by similarity to the probe
func (h *MatchHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	var req NearestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	candidates, err := h.registry.Nearest(r.Context(), req.Descriptor, req.K)
	if errors.Is(err, facematch.ErrInvalidDescriptor) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "nearest identities", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to rank identities")
		return
	}
	if candidates == nil {
		candidates = []facematch.Candidate{}
	}
	respondJSON(w, http.StatusOK, NearestResponse{Candidates: candidates})
}
