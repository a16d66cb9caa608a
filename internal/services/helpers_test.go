package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
	"github.com/Kavalar/by-kalancha/internal/records/memory"
	"github.com/Kavalar/by-kalancha/internal/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) Name() string { return "mock" }

func (m *mockChannel) Send(ctx context.Context, msg core.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func testLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Component: applog.ComponentApp, Handler: applog.NewHandler(buf, slog.LevelDebug, "text")})
}

// fixture wires a ReportService over an in-memory store with the clock at
// 2024-03-15 10:00 UTC, so the daily period is 2024-03-14.
type fixture struct {
	store   *memory.Store
	channel *mockChannel
	service *ReportService
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	renderer, err := report.NewRenderer("uk", "zł")
	require.NoError(t, err)

	resolver := core.NewResolver(time.UTC, renderer)
	resolver.Now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

	f := &fixture{store: memory.New(), channel: &mockChannel{}, logs: &bytes.Buffer{}}
	logger := testLogger(f.logs)
	dispatcher := NewDispatcher(f.store, f.channel, "reports@example.com", logger)
	f.service = NewReportService(resolver, f.store, f.store, renderer, dispatcher, logger)
	return f
}

func (f *fixture) addAppointment(id string, hour int, pt core.PaymentType, price, service string) {
	f.store.AddAppointment(core.Appointment{
		ID:          id,
		Status:      core.StatusCompleted,
		CompletedAt: time.Date(2024, 3, 14, hour, 0, 0, 0, time.UTC),
		PaymentType: pt,
		FinalPrice:  decimal.RequireFromString(price),
		ServiceID:   service,
	})
}
