package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/Kavalar/by-kalancha/internal/middleware/ratelimit"
	"github.com/Kavalar/by-kalancha/internal/report"
)

type fakeGenerator struct {
	got     []core.PeriodRequest
	outcome core.Outcome
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, req core.PeriodRequest) (core.Outcome, error) {
	f.got = append(f.got, req)
	return f.outcome, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(t *testing.T, gen ReportGenerator, backend Pinger, opts Options) (*Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := applog.New(applog.Config{
		Component: applog.ComponentApp,
		Handler:   slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	locale, err := report.LookupLocale("uk")
	require.NoError(t, err)
	if opts.RateLimit.RequestsPerMinute == 0 {
		opts.RateLimit = ratelimit.Config{RequestsPerMinute: 600, Burst: 100}
	}
	srv := NewServer(":0", gen, backend, locale, logger, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, &logs
}

func do(srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, r)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestReports_Sent(t *testing.T) {
	gen := &fakeGenerator{outcome: core.Outcome{Status: core.OutcomeSent, Message: "Звіт успішно сформовано та відправлено!"}}
	srv, _ := newTestServer(t, gen, fakePinger{}, Options{})

	rr := do(srv, http.MethodPost, "/reports", `{"data":{"startDate":"2024-03-01","endDate":"2024-03-10"}}`,
		map[string]string{"Content-Type": "application/json"})

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "Звіт успішно сформовано та відправлено!", data["message"])
	assert.Equal(t, "sent", data["status"])

	require.Len(t, gen.got, 1)
	assert.Equal(t, "2024-03-01", gen.got[0].StartDate)
	assert.Equal(t, "2024-03-10", gen.got[0].EndDate)

	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestReports_NoDataIsSuccess(t *testing.T) {
	gen := &fakeGenerator{outcome: core.Outcome{Status: core.OutcomeNoData, Message: "За обраний період немає оплачених записів."}}
	srv, _ := newTestServer(t, gen, fakePinger{}, Options{})

	rr := do(srv, http.MethodPost, "/reports", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decode(t, rr)["data"].(map[string]any)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "За обраний період немає оплачених записів.", data["message"])
	assert.Equal(t, core.PeriodDaily, gen.got[0].Kind)
}

func TestReports_ErrorMapping(t *testing.T) {
	deliveryErr := &core.DeliveryError{Channel: "resend", Diagnostic: "403 domain not verified", Err: errors.New("forbidden")}

	tests := []struct {
		name     string
		err      error
		status   int
		message  string
		logNeeds string
	}{
		{"invalid period", fmt.Errorf("resolve: %w", core.ErrInvalidPeriod), http.StatusBadRequest, "Некоректний період звіту.", "Rejected report request"},
		{"no recipients", fmt.Errorf("dispatch: %w", core.ErrNoRecipients), http.StatusNotFound, "Не вказано жодного отримувача звіту в налаштуваннях.", "Report has no recipients"},
		{"delivery failed", deliveryErr, http.StatusInternalServerError, "Внутрішня помилка сервера.", "403 domain not verified"},
		{"storage failure", errors.New("disk I/O error"), http.StatusInternalServerError, "Внутрішня помилка сервера.", "disk I/O error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, logs := newTestServer(t, &fakeGenerator{err: tt.err}, fakePinger{}, Options{})

			rr := do(srv, http.MethodPost, "/reports", `{"data":{}}`, nil)

			assert.Equal(t, tt.status, rr.Code)
			body := decode(t, rr)
			assert.Equal(t, tt.message, body["error"])
			assert.NotContains(t, rr.Body.String(), "403 domain", "diagnostics stay out of the response")
			assert.Contains(t, logs.String(), tt.logNeeds)
		})
	}
}

func TestReports_BadKindNeverReachesPipeline(t *testing.T) {
	gen := &fakeGenerator{}
	srv, _ := newTestServer(t, gen, fakePinger{}, Options{})

	rr := do(srv, http.MethodPost, "/reports", `{"period":"hourly"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, gen.got)
}

func TestReports_MalformedJSON(t *testing.T) {
	gen := &fakeGenerator{}
	srv, _ := newTestServer(t, gen, fakePinger{}, Options{})

	rr := do(srv, http.MethodPost, "/reports", `{"data":`, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, gen.got)
}

func TestReports_MethodAndPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{}, fakePinger{}, Options{})

	rr := do(srv, http.MethodGet, "/reports", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Allow"))

	rr = do(srv, http.MethodOptions, "/reports", "", map[string]string{
		"Origin":                        "https://studio.example.com",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://studio.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestReports_RateLimited(t *testing.T) {
	gen := &fakeGenerator{outcome: core.Outcome{Status: core.OutcomeSent, Message: "ok"}}
	srv, _ := newTestServer(t, gen, fakePinger{}, Options{RateLimit: ratelimit.Config{RequestsPerMinute: 1, Burst: 1}})

	assert.Equal(t, http.StatusOK, do(srv, http.MethodPost, "/reports", "", nil).Code)
	rr := do(srv, http.MethodPost, "/reports", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Len(t, gen.got, 1)
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{}, fakePinger{}, Options{})

	rr := do(srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])

	rr = do(srv, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", decode(t, rr)["status"])

	down, _ := newTestServer(t, &fakeGenerator{}, fakePinger{err: errors.New("database is locked")}, Options{})
	rr = do(down, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "not_ready", body["status"])
	assert.Contains(t, body["checks"].(map[string]any)["backend"], "database is locked")
}

func TestMetrics(t *testing.T) {
	gen := &fakeGenerator{outcome: core.Outcome{Status: core.OutcomeSent, Message: "ok"}}
	srv, _ := newTestServer(t, gen, fakePinger{}, Options{})

	do(srv, http.MethodPost, "/reports", "", nil)
	gen.outcome = core.Outcome{Status: core.OutcomeNoData, Message: "none"}
	do(srv, http.MethodPost, "/reports", "", nil)

	rr := do(srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	out := rr.Body.String()
	assert.Contains(t, out, "reports_sent_total 1\n")
	assert.Contains(t, out, "reports_no_data_total 1\n")
	assert.Contains(t, out, "reports_failed_total 0\n")
	assert.Contains(t, out, "http_requests_total 3\n")
}
