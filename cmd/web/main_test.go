package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/server"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("SALES_SAMPLE_SIZE", "100")
	t.Setenv("SALES_END_DATE", "2024-12-31")
	t.Setenv("SECURITY_RATE_LIMIT_ENABLED", "false")
	t.Setenv("DASHBOARD_CHARTS_DIR", t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	analytics, err := server.Bootstrap(context.Background(), cfg, logger, "")
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	t.Cleanup(func() { _ = analytics.Close(context.Background()) })

	return server.New(cfg, analytics, logger).Handler()
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/api/summary", http.StatusOK, "application/json"},
		{"/api/revenue-by-region", http.StatusOK, "application/json"},
		{"/api/revenue-by-channel", http.StatusOK, "application/json"},
		{"/api/monthly-revenue", http.StatusOK, "application/json"},
		{"/api/top-products?by=quantity", http.StatusOK, "application/json"},
		{"/api/heatmap", http.StatusOK, "application/json"},
		{"/api/options", http.StatusOK, "application/json"},
		{"/api/transactions?limit=5", http.StatusOK, "application/json"},
		{"/api/summary?from=not-a-date", http.StatusBadRequest, "application/json"},
		{"/sse/refresh", http.StatusOK, "text/event-stream"},
		{"/nonexistent", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.contentType != "" && !strings.Contains(w.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("expected content type %q, got %q", tt.contentType, w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServer_Middleware(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("expected a session cookie")
	}
	if !session.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
}

func TestServer_SessionIsolation(t *testing.T) {
	handler := newTestHandler(t)

	// First visit assigns a session.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()

	regen := httptest.NewRequest(http.MethodGet, "/sse/regenerate?datastar="+url.QueryEscape(`{"seed":7}`), nil)
	for _, c := range cookies {
		regen.AddCookie(c)
	}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, regen)
	if w.Code != http.StatusOK {
		t.Fatalf("regenerate status = %d", w.Code)
	}

	stats := func(withCookies bool) map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		if withCookies {
			for _, c := range cookies {
				req.AddCookie(c)
			}
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		var env struct {
			Data map[string]any `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
		return env.Data
	}

	mine, other := stats(true), stats(false)
	if mine["total_revenue"] == other["total_revenue"] {
		t.Error("regenerated session should see a different table than a fresh session")
	}
	if mine["record_count"] != float64(100) {
		t.Errorf("regenerated record_count = %v, want 100", mine["record_count"])
	}
}
