package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kozaktomas/facegate/internal/auth"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/database/memory"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/metrics"
	"github.com/kozaktomas/facegate/internal/registry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	promReg := prometheus.NewRegistry()
	mt := metrics.New(promReg)
	reg := registry.New(memory.NewStore(), registry.WithMetrics(mt))
	matcher := facematch.NewMatcher(reg, facematch.WithMetrics(mt))

	srv := NewServer(config.Defaults(), Services{
		Registry:      reg,
		Matcher:       matcher,
		Authenticator: auth.New(matcher, auth.WithMetrics(mt)),
		Gatherer:      promReg,
	}, logging.Discard())

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestServer_EnrollThenAuthenticate(t *testing.T) {
	ts := newTestServer(t)

	descriptor := make([]float32, 128)
	for i := range descriptor {
		descriptor[i] = float32(i%7) / 10
	}

	resp := post(t, ts.URL+"/api/v1/identities", map[string]any{
		"display_name": "Jane Smith",
		"descriptor":   descriptor,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enroll: expected 201, got %d", resp.StatusCode)
	}
	var enrolled facematch.Identity
	if err := json.NewDecoder(resp.Body).Decode(&enrolled); err != nil {
		t.Fatalf("decode enroll response: %v", err)
	}
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/v1/identities/" + enrolled.ID)
	if err != nil {
		t.Fatalf("GET identity: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get identity: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = post(t, ts.URL+"/api/v1/authenticate", map[string]any{
		"face_detected": true,
		"descriptor":    descriptor,
		"confidence":    0.93,
	})
	var result auth.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	resp.Body.Close()
	if !result.Success || result.Message != "Welcome, Jane Smith!" {
		t.Errorf("unexpected auth result: %+v", result)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `facegate_auth_outcomes_total{outcome="success"} 1`) {
		t.Errorf("expected auth success counter in metrics output")
	}
}

func TestServer_Routes(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/config", http.StatusOK},
		{http.MethodGet, "/api/v1/identities", http.StatusOK},
		{http.MethodGet, "/api/v1/identities/missing", http.StatusNotFound},
		{http.MethodGet, "/api/v1/identities/search?name=x", http.StatusOK},
		{http.MethodDelete, "/api/v1/identities/x", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestServer_Addr(t *testing.T) {
	cfg := config.Defaults()
	cfg.Web.Host = "127.0.0.1"
	cfg.Web.Port = 9999
	srv := NewServer(cfg, Services{}, logging.Discard())
	if srv.Addr() != "127.0.0.1:9999" {
		t.Errorf("expected 127.0.0.1:9999, got %s", srv.Addr())
	}
}
