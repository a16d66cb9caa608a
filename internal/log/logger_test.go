package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_ComponentAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentApp, Handler: NewHandler(&buf, slog.LevelDebug, "json")})

	logger.WithComponent(ComponentReport).Info("hello", FieldChannel, "log")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, ComponentReport, rec[FieldComponent])
	assert.Equal(t, "log", rec[FieldChannel])
}

func TestStructuredLogger_LogReportDispatched(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentApp, Handler: NewHandler(&buf, slog.LevelInfo, "json")})

	start := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	NewStructuredLogger(logger).LogReportDispatched(context.Background(), "daily", start, start.Add(time.Hour), "resend", 2, "msg-1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "daily", rec[FieldPeriodKind])
	assert.Equal(t, "resend", rec[FieldChannel])
	assert.Equal(t, float64(2), rec[FieldRecipients])
	assert.Equal(t, "msg-1", rec[FieldMessageID])
	assert.Equal(t, OpDispatch, rec[FieldOperation])
}

func TestStructuredLogger_UsesRequestScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Handler: NewHandler(&buf, slog.LevelInfo, "json")})
	ctx := context.WithValue(context.Background(), LoggerContextKey, logger.With(FieldRequestID, "req-1"))

	NewStructuredLogger(logger).LogError(ctx, "Report delivery failed", assert.AnError, ComponentDelivery, OpDispatch, nil)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-1", rec[FieldRequestID])
	assert.Equal(t, ComponentDelivery, rec[FieldComponent])
	assert.Equal(t, assert.AnError.Error(), rec[FieldError])
	assert.Equal(t, "ERROR", rec["level"])
}

func TestLogFields_ToSliceSorted(t *testing.T) {
	got := NewFields().WithOperation(OpDispatch).WithComponent(ComponentReport).ToSlice()
	assert.Equal(t, []any{FieldComponent, ComponentReport, FieldOperation, OpDispatch}, got)
}
