package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleReport runs the pipeline for the requested period. Preflight
// requests are answered by the CORS middleware before reaching here.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Error: "method not allowed"})
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		logger.WarnContext(ctx, "Invalid report request body", applog.FieldError, err)
		writeJSON(w, http.StatusBadRequest, envelope{Error: s.locale.InvalidPeriodError})
		return
	}
	req, err := parser.PeriodRequest(r.URL.Query())
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	outcome, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.metrics.failed.Add(1)
		s.writeError(ctx, w, err)
		return
	}

	switch outcome.Status {
	case core.OutcomeNoData:
		s.metrics.noData.Add(1)
	default:
		s.metrics.sent.Add(1)
	}
	writeJSON(w, http.StatusOK, envelope{Data: successBody{
		Success: true,
		Message: outcome.Message,
		Status:  string(outcome.Status),
	}})
}

// writeError maps pipeline errors to status codes. Delivery and storage
// failures share one generic body; the detail only goes to the log.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := applog.FromContext(ctx)

	switch {
	case errors.Is(err, core.ErrInvalidPeriod):
		logger.WarnContext(ctx, "Rejected report request", applog.FieldError, err,
			"error_type", applog.ErrorTypeValidation)
		writeJSON(w, http.StatusBadRequest, envelope{Error: s.locale.InvalidPeriodError})
	case errors.Is(err, core.ErrNoRecipients):
		logger.WarnContext(ctx, "Report has no recipients", applog.FieldError, err,
			"error_type", applog.ErrorTypeNotFound)
		writeJSON(w, http.StatusNotFound, envelope{Error: s.locale.NoRecipientsError})
	default:
		args := []any{applog.FieldError, err, "error_type", applog.ErrorTypeInternal}
		var de *core.DeliveryError
		if errors.As(err, &de) {
			args = append(args, applog.FieldChannel, de.Channel, applog.FieldDiagnostic, de.Diagnostic)
		}
		logger.ErrorContext(ctx, "Report generation failed", args...)
		writeJSON(w, http.StatusInternalServerError, envelope{Error: s.locale.InternalError})
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, envelope{Error: "rate limit exceeded"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady pings the records backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.readyTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{}

	switch {
	case s.backend == nil:
		checks["backend"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.backend.Ping(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			checks["backend"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	counter("http_requests_total", "Total number of HTTP requests", s.tracer.TotalRequests())
	counter("reports_sent_total", "Reports rendered and dispatched", s.metrics.sent.Load())
	counter("reports_no_data_total", "Report requests with no completed appointments", s.metrics.noData.Load())
	counter("reports_failed_total", "Report requests that ended in an error", s.metrics.failed.Load())
	counter("rate_limit_rejected_total", "Requests refused by the rate limiter", s.limiter.Rejected())

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.limiter.ActiveClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.metrics.started).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
