package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumabot/wabridge/pkg/logging"
)

func TestRequestLoggerLogsStatusAndPath(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("info", &buf)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	mw := RequestLogger(logger)
	req := httptest.NewRequest(http.MethodGet, "/whatsapp?hub.mode=subscribe", nil)
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log entry: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Fatalf("unexpected log message %v", entry["msg"])
	}
	if entry["path"] != "/whatsapp" {
		t.Fatalf("unexpected path %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusForbidden) {
		t.Fatalf("unexpected status %v", entry["status"])
	}
	if entry["request_id"] == "" {
		t.Fatal("expected generated request id")
	}
}

func TestRequestLoggerKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("info", &buf)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	mw := RequestLogger(logger)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log entry: %v", err)
	}
	if entry["request_id"] != "req-42" {
		t.Fatalf("expected incoming request id preserved, got %v", entry["request_id"])
	}
}

func TestRequestLoggerNilLoggerUsesDefault(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw := RequestLogger(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
