package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facegate/internal/auth"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/database/memory"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/registry"
)

// testConfig returns the embedded defaults
func testConfig() *config.Config {
	return config.Defaults()
}

// testEngine bundles a registry with its matcher and authenticator
type testEngine struct {
	registry      *registry.Registry
	matcher       *facematch.Matcher
	authenticator *auth.Authenticator
}

func newTestEngine(store database.IdentityWriter) *testEngine {
	if store == nil {
		store = memory.NewStore()
	}
	reg := registry.New(store)
	matcher := facematch.NewMatcher(reg)
	return &testEngine{
		registry:      reg,
		matcher:       matcher,
		authenticator: auth.New(matcher),
	}
}

// testDescriptor returns a deterministic 128-value descriptor
func testDescriptor(seed uint64) facematch.Descriptor {
	r := rand.New(rand.NewPCG(seed, 11))
	d := make(facematch.Descriptor, 128)
	for i := range d {
		d[i] = r.Float32() - 0.5
	}
	return d
}

func (e *testEngine) enroll(t *testing.T, name string, d facematch.Descriptor) facematch.Identity {
	t.Helper()
	identity, err := e.registry.Enroll(context.Background(), name, "", d)
	if err != nil {
		t.Fatalf("failed to enroll %s: %v", name, err)
	}
	return identity
}

// jsonRequest builds a request with a JSON-encoded body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody unmarshals the recorder body into v
func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", recorder.Body.String(), err)
	}
}

var testLogger = logging.Discard()
