package util

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWithRequestLogEmitsClientIP(t *testing.T) {
	buf := captureLogs(t)

	h := WithRequestLog("api", nil, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = "198.51.100.10:4242"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse access log: %v", err)
	}
	// Untrusted peer: the forwarded header must not be believed.
	if got := entry["client_ip"]; got != "198.51.100.10" {
		t.Fatalf("client_ip = %v, want direct peer", got)
	}
	if got := entry["status"]; got != float64(http.StatusCreated) {
		t.Fatalf("status = %v", got)
	}
	if got := entry["path"]; got != "/generate" {
		t.Fatalf("path = %v", got)
	}
}

func TestWithRequestLogTrustsConfiguredProxies(t *testing.T) {
	buf := captureLogs(t)

	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}
	h := WithRequestLog("api", trusted, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.20:4242"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse access log: %v", err)
	}
	if got := entry["client_ip"]; got != "203.0.113.5" {
		t.Fatalf("client_ip = %v, want forwarded address", got)
	}
}
