package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"sales-dashboard/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "json"})

	logger.Debug("hidden")
	logger.Info("visible", "key", "value")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["service"] != "sales-dashboard" || rec["key"] != "value" || rec["msg"] != "visible" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "text"}).Warn("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetSessionID(ctx) != "" {
		t.Error("empty context should carry no ids")
	}

	ctx = WithSessionID(WithRequestID(ctx, "req"), "sess")
	if GetRequestID(ctx) != "req" || GetSessionID(ctx) != "sess" {
		t.Errorf("ids = %q / %q", GetRequestID(ctx), GetSessionID(ctx))
	}
}

func TestSpans(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "GET /sse/refresh")
	_, child := StartSpan(ctx, "kpi.compute")

	if child.TraceID != parent.TraceID || child.ParentID != parent.SpanID {
		t.Errorf("child = %+v, parent = %+v", child, parent)
	}
	if GetSpan(ctx) != parent {
		t.Error("span not stored on the context")
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	child.SetTag("rows", "100")
	child.End(ctx, logger)
	if buf.Len() != 0 {
		t.Error("successful span should log at debug only")
	}
	if child.Duration == nil || child.EndTime == nil {
		t.Error("End should finish the span")
	}

	parent.SetError(errors.New("HTTP 500"))
	parent.End(ctx, logger)
	if !strings.Contains(buf.String(), `"error":"HTTP 500"`) || !strings.Contains(buf.String(), `"status":"ERROR"`) {
		t.Errorf("error span log = %s", buf.String())
	}
}
