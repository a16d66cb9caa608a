package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req core.PeriodRequest) (core.Outcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(core.Outcome), args.Error(1)
}

func newTestScheduler(gen reportGenerator, now time.Time, logs *bytes.Buffer) *Scheduler {
	s := NewScheduler(gen, []Trigger{
		WeeklyTrigger{Weekday: time.Monday, Hour: 9},
		MonthlyTrigger{Day: 1, Hour: 9, Minute: 30},
	}, time.UTC, time.Minute, time.Second, testLogger(logs))
	s.now = func() time.Time { return now }
	return s
}

func TestScheduler_RunDue(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, core.PeriodRequest{Kind: core.PeriodWeekly}).
		Return(core.Outcome{Status: core.OutcomeSent}, nil).Once()

	var logs bytes.Buffer
	now := time.Date(2024, 3, 18, 9, 0, 30, 0, time.UTC)
	s := newTestScheduler(gen, now, &logs)
	s.lastRun["weekly"] = now.Add(-time.Hour)
	s.lastRun["monthly"] = now.Add(-time.Hour)

	assert.Equal(t, 1, s.RunDue(context.Background()))
	// same slot does not fire twice
	assert.Equal(t, 0, s.RunDue(context.Background()))
	gen.AssertExpectations(t)
	assert.Contains(t, logs.String(), "Scheduled report finished")
}

func TestScheduler_RunDue_LogsFailuresWithoutRetry(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, core.PeriodRequest{Kind: core.PeriodMonthly}).
		Return(core.Outcome{}, &core.DeliveryError{Channel: "resend", Diagnostic: "rate limited"}).Once()
	gen.On("Generate", mock.Anything, core.PeriodRequest{Kind: core.PeriodWeekly}).
		Return(core.Outcome{}, core.ErrNoRecipients).Once()

	var logs bytes.Buffer
	now := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC) // a Monday
	s := newTestScheduler(gen, now, &logs)
	s.lastRun["weekly"] = now.AddDate(0, 0, -1)
	s.lastRun["monthly"] = now.AddDate(0, 0, -1)

	assert.Equal(t, 2, s.RunDue(context.Background()))
	assert.Equal(t, 0, s.RunDue(context.Background()))
	gen.AssertExpectations(t)
	assert.Contains(t, logs.String(), "Scheduled report delivery failed")
	assert.Contains(t, logs.String(), "rate limited")
	assert.Contains(t, logs.String(), "no recipients")
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	gen := &mockGenerator{}
	var logs bytes.Buffer
	s := newTestScheduler(gen, time.Date(2024, 3, 18, 9, 0, 30, 0, time.UTC), &logs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, s.Run(ctx))
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
