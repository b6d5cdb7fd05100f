package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf, Component: ComponentAggregator})
	l.Info("hello", FieldRecords, 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentAggregator || entry[FieldRecords] != float64(3) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf, Component: ComponentApp})
	l.Info("quiet")
	l.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Component: ComponentHTTP}).With(FieldRequestID, "req-1")

	got := FromContext(NewContext(context.Background(), base))
	if got != base || got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated")
	}
	got.Info("inside")
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id missing from %q", buf.String())
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestStructuredLoggerRunFailed(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Component: ComponentApp}))
	sl.LogRunFailed(context.Background(), "run-1", "csv:example.test/export", 12, errors.New("boom"), "transport")
	out := buf.String()
	for _, want := range []string{"level=ERROR", "Dashboard refresh failed", "error=boom", "error_kind=transport",
		"operation=refresh", "component=aggregator", "run_id=run-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestStructuredLoggerHTTPEndLevels(t *testing.T) {
	cases := map[int]string{200: "level=INFO", 404: "level=WARN", 502: "level=ERROR"}
	for status, want := range cases {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Output: &buf, Component: ComponentHTTP}))
		r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		sl.LogHTTPEnd(context.Background(), r, status, 5, "10.0.0.1")
		out := buf.String()
		if !strings.Contains(out, want) || !strings.Contains(out, "client_ip=10.0.0.1") {
			t.Errorf("status %d: unexpected line %q", status, out)
		}
	}
}

func TestStructuredLoggerPublishFailed(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Component: ComponentApp}))
	sl.LogPublishFailed(context.Background(), "kafka", 7, errors.New("broker down"))
	out := buf.String()
	for _, want := range []string{"level=WARN", "sink=kafka", "version=7", `error="broker down"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}
