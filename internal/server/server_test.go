package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lazypower/lethe/internal/capability"
	"github.com/lazypower/lethe/internal/system"
)

func echo(v capability.Value) capability.Func {
	return func(args ...capability.Value) (capability.Value, error) { return v, nil }
}

func testServer(t *testing.T) *Server {
	t.Helper()
	sys := system.New(system.Options{Seed: 42})
	defs := []capability.Definition{
		{Name: "pulse", Importance: capability.Essential, Resistance: 1.0, Returns: capability.KindText, Impl: echo(capability.Text("pulse"))},
		{Name: "compare", Importance: capability.High, Resistance: 0.5, Returns: capability.KindBool, Impl: echo(capability.Bool(true))},
		{Name: "joke_telling", Importance: capability.Low, Resistance: 0.2, Returns: capability.KindText, Impl: echo(capability.Text("ha"))},
	}
	for _, def := range defs {
		if err := sys.Register(def); err != nil {
			t.Fatalf("Register(%s): %v", def.Name, err)
		}
	}
	sys.Initialize()
	return New(sys, "test-version")
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: decode body: %v", path, err)
	}
	return w, body
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	w, body := get(t, srv, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["health"] != 100.0 {
		t.Errorf("health = %v, want 100", body["health"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(t)

	w, body := get(t, srv, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["state"] != "running" {
		t.Errorf("state = %v, want running", body["state"])
	}
}

func TestCapabilitiesEndpoint(t *testing.T) {
	srv := testServer(t)

	w, body := get(t, srv, "/api/capabilities")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["total"] != 3.0 {
		t.Errorf("total = %v, want 3", body["total"])
	}
	caps, ok := body["capabilities"].([]any)
	if !ok || len(caps) != 3 {
		t.Fatalf("capabilities = %v", body["capabilities"])
	}
}

func TestCapabilityDetail(t *testing.T) {
	srv := testServer(t)

	w, body := get(t, srv, "/api/capabilities/pulse")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["importance"] != "essential" {
		t.Errorf("importance = %v, want essential", body["importance"])
	}

	req := httptest.NewRequest("GET", "/api/capabilities/nonexistent", nil)
	w2 := httptest.NewRecorder()
	srv.ServeHTTP(w2, req)
	if w2.Code != http.StatusNotFound {
		t.Errorf("unknown capability: status = %d, want %d", w2.Code, http.StatusNotFound)
	}
}

func TestForceDecayEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("POST", "/api/decay", strings.NewReader(`{"name":"joke_telling"}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "decayed" {
		t.Errorf("status = %v, want decayed", body["status"])
	}
}

func TestForceDecayBlocked(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("POST", "/api/decay", strings.NewReader(`{"name":"pulse"}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestForceDecayEmptyBody(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("POST", "/api/decay", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	// Weighted selection over joke_telling/compare; never blocked here.
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestPauseResumeEndpoints(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("POST", "/api/pause", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("pause status = %d", w.Code)
	}
	if srv.sys.Engine().Enabled() {
		t.Error("engine still enabled after pause")
	}

	req = httptest.NewRequest("POST", "/api/resume", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("resume status = %d", w.Code)
	}
	if !srv.sys.Engine().Enabled() {
		t.Error("engine disabled after resume")
	}
}

func TestHistoryAndChecksEndpoints(t *testing.T) {
	srv := testServer(t)
	srv.sys.ForceDecay("joke_telling")
	srv.sys.Safety().Check()

	w, body := get(t, srv, "/api/history?limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	events, ok := body["events"].([]any)
	if !ok || len(events) != 1 {
		t.Errorf("events = %v, want one", body["events"])
	}

	w, body = get(t, srv, "/api/checks")
	if w.Code != http.StatusOK {
		t.Fatalf("checks status = %d", w.Code)
	}
	if checks, ok := body["checks"].([]any); !ok || len(checks) == 0 {
		t.Errorf("checks = %v, want at least one", body["checks"])
	}
}

func TestNarrativeEndpoint(t *testing.T) {
	srv := testServer(t)
	srv.sys.Narrator().Speak()

	w, body := get(t, srv, "/api/narrative")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["mood"] != "confident" {
		t.Errorf("mood = %v, want confident", body["mood"])
	}
	if entries, ok := body["entries"].([]any); !ok || len(entries) != 1 {
		t.Errorf("entries = %v, want one", body["entries"])
	}
}
