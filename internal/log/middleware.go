package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ContextKey string

// LoggerContextKey holds the request-scoped *Logger.
const LoggerContextKey ContextKey = "logger"

// FromContext returns the request-scoped logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger writes the fixed-shape records for HTTP traffic and report
// delivery. Records go through the request-scoped logger when ctx carries one,
// so they pick up its request id. The component comes from the fields, not
// from the logger.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) emit(ctx context.Context, level slog.Level, msg string, fields LogFields) {
	base := sl.logger.Logger
	if scoped, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		base = scoped.Logger
	}
	base.Log(ctx, level, msg, fields.ToSlice()...)
}

// statusLevel picks warn for 4xx and error for 5xx responses.
func statusLevel(code int) slog.Level {
	switch {
	case code >= 500:
		return slog.LevelError
	case code >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.emit(ctx, slog.LevelInfo, "HTTP request started", fields)
}

func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.emit(ctx, statusLevel(statusCode), "HTTP request completed", fields)
}

func (sl *StructuredLogger) LogReportDispatched(ctx context.Context, kind string, start, end time.Time, channel string, recipients int, messageID string) {
	fields := NewFields().
		WithPeriod(kind, start, end).
		WithDelivery(channel, recipients, messageID).
		WithOperation(OpDispatch).
		WithComponent(ComponentReport)
	sl.emit(ctx, slog.LevelInfo, "Report dispatched", fields)
}

// LogError adds err, operation and component to fields.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.emit(ctx, slog.LevelError, msg, fields.WithError(err).WithOperation(operation).WithComponent(component))
}
