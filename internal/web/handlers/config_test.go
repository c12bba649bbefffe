package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewConfigHandler(t *testing.T) {
	cfg := testConfig()

	handler := NewConfigHandler(cfg)

	if handler == nil {
		t.Fatal("expected non-nil handler")
		return
	}

	if handler.config != cfg {
		t.Error("expected handler to hold reference to config")
	}
}

func TestConfigHandler_Get_ReturnsJSON(t *testing.T) {
	handler := NewConfigHandler(testConfig())

	req := httptest.NewRequest("GET", "/api/v1/config", nil)
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	contentType := recorder.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got '%s'", contentType)
	}
}

func TestConfigHandler_Get_Defaults(t *testing.T) {
	handler := NewConfigHandler(testConfig())

	req := httptest.NewRequest("GET", "/api/v1/config", nil)
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	var result ConfigResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if result.MatchThreshold != 0.6 {
		t.Errorf("expected match threshold 0.6, got %g", result.MatchThreshold)
	}
	if result.AuthMatchThreshold != 0.4 {
		t.Errorf("expected auth threshold 0.4, got %g", result.AuthMatchThreshold)
	}
	if result.MinDetectionConfidence != 0.7 {
		t.Errorf("expected min confidence 0.7, got %g", result.MinDetectionConfidence)
	}
	if result.Policy != "first" {
		t.Errorf("expected policy 'first', got '%s'", result.Policy)
	}
	if result.Backend != "memory" {
		t.Errorf("expected backend 'memory', got '%s'", result.Backend)
	}
	if result.DescriptorDim != 128 {
		t.Errorf("expected dim 128, got %d", result.DescriptorDim)
	}
}

func TestConfigHandler_Get_PostgresBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Database.URL = "postgres://localhost/facegate"
	cfg.HNSW.Enabled = true
	handler := NewConfigHandler(cfg)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	var result ConfigResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result.Backend != "postgres" {
		t.Errorf("expected backend 'postgres', got '%s'", result.Backend)
	}
	if !result.HNSWEnabled {
		t.Error("expected hnsw_enabled true")
	}
}
