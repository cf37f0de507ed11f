package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

// TestLoggingMiddleware verifies request logging and the probe endpoint skip
func TestLoggingMiddleware(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	mw := LoggingMiddleware(logger)

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handler := mw(nextHandler)

	t.Run("/health is not logged", func(t *testing.T) {
		logOutput.Reset()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-123"))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("expected status 200, got %d", status)
		}

		if logs := logOutput.String(); logs != "" {
			t.Errorf("expected no logs for /health, got: %s", logs)
		}
	})

	t.Run("/metrics is not logged", func(t *testing.T) {
		logOutput.Reset()
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-456"))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if logs := logOutput.String(); logs != "" {
			t.Errorf("expected no logs for /metrics, got: %s", logs)
		}
	})

	t.Run("analyze requests are logged", func(t *testing.T) {
		logOutput.Reset()
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-789"))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		logs := logOutput.String()
		if logs == "" {
			t.Fatal("expected logs for /analyze, got empty output")
		}
		if !strings.Contains(logs, "HTTP request") {
			t.Errorf("log should contain 'HTTP request', got: %s", logs)
		}
		if !strings.Contains(logs, "/analyze") {
			t.Errorf("log should contain path, got: %s", logs)
		}
		if !strings.Contains(logs, "method=POST") {
			t.Errorf("log should contain method, got: %s", logs)
		}
	})

	t.Run("non-string request ID falls back to unknown", func(t *testing.T) {
		logOutput.Reset()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		ctx := context.WithValue(req.Context(), middleware.RequestIDKey, 12345)
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		logs := logOutput.String()
		if !strings.Contains(logs, "request_id=unknown") {
			t.Errorf("log should contain request_id=unknown for non-string ID, got: %s", logs)
		}
	})

	t.Run("query only logged when present", func(t *testing.T) {
		logOutput.Reset()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-1"))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if logs := logOutput.String(); strings.Contains(logs, "query=") {
			t.Errorf("log should not contain 'query=' field when empty, got: %s", logs)
		}

		logOutput.Reset()
		req = httptest.NewRequest(http.MethodGet, "/test?debug=true", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-2"))
		rr = httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		logs := logOutput.String()
		if !strings.Contains(logs, "query=") {
			t.Errorf("log should contain 'query=' field when present, got: %s", logs)
		}
		if !strings.Contains(logs, "debug=true") {
			t.Errorf("log should contain query value, got: %s", logs)
		}
	})
}
