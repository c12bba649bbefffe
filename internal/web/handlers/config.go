package handlers

import (
	"net/http"

	"github.com/kozaktomas/facegate/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the effective matching configuration
type ConfigResponse struct {
	MatchThreshold         float64 `json:"match_threshold"`
	Normalization          float64 `json:"normalization"`
	Policy                 string  `json:"policy"`
	DescriptorDim          int     `json:"descriptor_dim"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	AuthMatchThreshold     float64 `json:"auth_match_threshold"`
	Backend                string  `json:"backend"`
	HNSWEnabled            bool    `json:"hnsw_enabled"`
}

// Get returns the effective configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		MatchThreshold:         h.config.Matching.Threshold,
		Normalization:          h.config.Matching.Normalization,
		Policy:                 h.config.Matching.Policy,
		DescriptorDim:          h.config.Matching.Dim,
		MinDetectionConfidence: h.config.Auth.MinDetectionConfidence,
		AuthMatchThreshold:     h.config.Auth.MatchThreshold,
		Backend:                h.config.Database.Backend(),
		HNSWEnabled:            h.config.HNSW.Enabled,
	})
}
