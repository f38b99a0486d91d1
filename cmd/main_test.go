package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRun_StartsServerWithValidConfig(t *testing.T) {
	t.Setenv("PORT", "4321")
	t.Setenv("DATA_DIR", t.TempDir())

	var servedAddr string
	var servedHandler http.Handler

	serve := func(addr string, handler http.Handler) error {
		servedAddr = addr
		servedHandler = handler
		return nil
	}

	if err := run(serve); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	if servedAddr != ":4321" {
		t.Fatalf("serve addr = %q, want :4321", servedAddr)
	}
	if servedHandler == nil {
		t.Fatal("serve handler is nil")
	}

	// Smoke test a couple of routes to ensure router wiring is intact.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	servedHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/comments/sub/traj/sim", nil)
	servedHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/comments status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"comments"`) {
		t.Fatalf("comments body = %q, want comments payload", body)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	servedHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/ status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "trajectory-comments") {
		t.Fatalf("root body = %q, want service payload", body)
	}
}

func TestRun_RootPayloadIsValidJSON(t *testing.T) {
	// Data dirs with JSON metacharacters must not break the info payload.
	t.Setenv("DATA_DIR", `dir"with\quotes`)

	var servedHandler http.Handler
	if err := run(func(addr string, handler http.Handler) error {
		servedHandler = handler
		return nil
	}); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	servedHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("root body is not valid JSON: %v (%q)", err, rec.Body.String())
	}
	if payload["dataDir"] != `dir"with\quotes` {
		t.Errorf("dataDir = %q, want the configured value", payload["dataDir"])
	}
}

func TestRun_ReturnsErrorWhenServeFails(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())

	expected := errors.New("listen failed")
	err := run(func(string, http.Handler) error {
		return expected
	})

	if err == nil {
		t.Fatalf("run() error = nil, want %v", expected)
	}
	if !errors.Is(err, expected) {
		t.Fatalf("run() error = %v, want to wrap %v", err, expected)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("PORT", "70000")

	called := false
	err := run(func(string, http.Handler) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("run() error = nil, want configuration error")
	}
	if called {
		t.Fatal("serve should not be called with invalid config")
	}
}
