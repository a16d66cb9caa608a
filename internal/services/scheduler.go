package services

import (
	"context"
	"errors"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
	applog "github.com/Kavalar/by-kalancha/internal/log"
)

type reportGenerator interface {
	Generate(ctx context.Context, req core.PeriodRequest) (core.Outcome, error)
}

// Scheduler polls its triggers and runs each due report once. Last run times
// live in memory only: after a restart nothing is replayed. A Scheduler is
// not safe for concurrent use.
type Scheduler struct {
	generator  reportGenerator
	triggers   []Trigger
	location   *time.Location
	tick       time.Duration
	runTimeout time.Duration
	now        func() time.Time
	lastRun    map[string]time.Time
	logger     *applog.Logger
}

func NewScheduler(generator reportGenerator, triggers []Trigger, loc *time.Location, tick, runTimeout time.Duration, logger *applog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		generator:  generator,
		triggers:   triggers,
		location:   loc,
		tick:       tick,
		runTimeout: runTimeout,
		now:        time.Now,
		lastRun:    make(map[string]time.Time),
		logger:     logger.WithComponent(applog.ComponentScheduler),
	}
}

// Run blocks until ctx is cancelled. Slots that passed before Run was called
// are not fired.
func (s *Scheduler) Run(ctx context.Context) error {
	started := s.now().In(s.location)
	for _, t := range s.triggers {
		if _, ok := s.lastRun[t.Name()]; !ok {
			s.lastRun[t.Name()] = started
		}
	}

	s.logger.InfoContext(ctx, "Scheduler started",
		"triggers", len(s.triggers),
		"tick", s.tick,
		"timezone", s.location.String())

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Scheduler stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue runs every trigger that is due at the current time and returns how
// many ran. A trigger is marked as run before it executes, so a failed run
// waits for the next slot.
func (s *Scheduler) RunDue(ctx context.Context) int {
	now := s.now().In(s.location)
	ran := 0
	for _, t := range s.triggers {
		if !t.IsDue(s.lastRun[t.Name()], now) {
			continue
		}
		s.lastRun[t.Name()] = now
		s.runOne(ctx, t)
		ran++
	}
	return ran
}

func (s *Scheduler) runOne(ctx context.Context, t Trigger) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	outcome, err := s.generator.Generate(ctx, core.PeriodRequest{Kind: t.Kind()})
	var de *core.DeliveryError
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "Scheduled report finished",
			applog.FieldTrigger, t.Name(),
			"status", outcome.Status,
			"message", outcome.Message)
	case errors.Is(err, core.ErrNoRecipients):
		s.logger.WarnContext(ctx, "Scheduled report skipped: no recipients",
			applog.FieldTrigger, t.Name(),
			applog.FieldError, err)
	case errors.As(err, &de):
		s.logger.ErrorContext(ctx, "Scheduled report delivery failed",
			applog.FieldTrigger, t.Name(),
			applog.FieldChannel, de.Channel,
			applog.FieldDiagnostic, de.Diagnostic)
	default:
		s.logger.ErrorContext(ctx, "Scheduled report failed",
			applog.FieldTrigger, t.Name(),
			applog.FieldError, err)
	}
}
