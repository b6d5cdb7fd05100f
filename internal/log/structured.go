package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger writes the few log lines whose shape dashboards and
// alerts depend on: access logs, pipeline runs and event publishing.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs a finished request. 4xx is a warning, 5xx an error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogRunCompleted logs a successful pipeline run.
func (sl *StructuredLogger) LogRunCompleted(ctx context.Context, runID, source string, durationMs int64, records int, total float64, version uint64) {
	fields := NewFields().
		WithRun(runID, source, durationMs).
		WithOperation(OpRefresh).
		WithComponent(ComponentAggregator).
		With(FieldRecords, records).
		With(FieldTotal, total).
		With(FieldVersion, version)

	sl.logger.Logger.InfoContext(ctx, "Dashboard data refreshed", fields.ToSlice()...)
}

// LogRunFailed logs a pipeline run that left the records untouched.
func (sl *StructuredLogger) LogRunFailed(ctx context.Context, runID, source string, durationMs int64, err error, kind string) {
	fields := NewFields().
		WithRun(runID, source, durationMs).
		WithError(err).
		With(FieldErrorKind, kind).
		WithOperation(OpRefresh).
		WithComponent(ComponentAggregator)

	sl.logger.Logger.ErrorContext(ctx, "Dashboard refresh failed", fields.ToSlice()...)
}

// LogPublishFailed logs a refresh event the sink rejected.
func (sl *StructuredLogger) LogPublishFailed(ctx context.Context, sink string, version uint64, err error) {
	fields := NewFields().
		WithError(err).
		WithOperation(OpPublish).
		WithComponent(ComponentEvents).
		With(FieldSink, sink).
		With(FieldVersion, version)

	sl.logger.Logger.WarnContext(ctx, "Failed to publish refresh event", fields.ToSlice()...)
}
