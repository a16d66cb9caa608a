package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
)

// Trigger decides when a scheduled report is due. Each implementation owns
// one period kind.
type Trigger interface {
	Name() string
	Kind() core.PeriodKind
	// IsDue reports whether a slot has passed since lastRun. Times are
	// compared in now's location.
	IsDue(lastRun, now time.Time) bool
}

// WeeklyTrigger fires once a week on Weekday at Hour:Minute.
type WeeklyTrigger struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

func (WeeklyTrigger) Name() string          { return "weekly" }
func (WeeklyTrigger) Kind() core.PeriodKind { return core.PeriodWeekly }

// IsDue returns true if the latest weekly slot is after lastRun.
func (w WeeklyTrigger) IsDue(lastRun, now time.Time) bool {
	back := (int(now.Weekday()) - int(w.Weekday) + 7) % 7
	day := now.AddDate(0, 0, -back)
	slot := time.Date(day.Year(), day.Month(), day.Day(), w.Hour, w.Minute, 0, 0, now.Location())
	if slot.After(now) {
		slot = slot.AddDate(0, 0, -7)
	}
	return lastRun.Before(slot)
}

// MonthlyTrigger fires once a month on Day at Hour:Minute. Days past the end
// of a short month fire on its last day.
type MonthlyTrigger struct {
	Day    int
	Hour   int
	Minute int
}

func (MonthlyTrigger) Name() string          { return "monthly" }
func (MonthlyTrigger) Kind() core.PeriodKind { return core.PeriodMonthly }

// IsDue returns true if the latest monthly slot is after lastRun.
func (m MonthlyTrigger) IsDue(lastRun, now time.Time) bool {
	slot := m.slotIn(now.Year(), now.Month(), now.Location())
	if slot.After(now) {
		prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		slot = m.slotIn(prev.Year(), prev.Month(), now.Location())
	}
	return lastRun.Before(slot)
}

func (m MonthlyTrigger) slotIn(year int, month time.Month, loc *time.Location) time.Time {
	day := m.Day
	if lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day(); day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, m.Hour, m.Minute, 0, 0, loc)
}

var weekdays = map[string]time.Weekday{
	"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
	"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
}

// ParseWeeklyTrigger parses "MON 09:00".
func ParseWeeklyTrigger(s string) (WeeklyTrigger, error) {
	fields := strings.Fields(strings.ToUpper(s))
	if len(fields) != 2 {
		return WeeklyTrigger{}, fmt.Errorf("invalid weekly slot %q: want \"MON 09:00\"", s)
	}
	wd, ok := weekdays[fields[0]]
	if !ok {
		return WeeklyTrigger{}, fmt.Errorf("invalid weekly slot %q: unknown weekday", s)
	}
	h, m, err := parseClock(fields[1])
	if err != nil {
		return WeeklyTrigger{}, fmt.Errorf("invalid weekly slot %q: %w", s, err)
	}
	return WeeklyTrigger{Weekday: wd, Hour: h, Minute: m}, nil
}

// ParseMonthlyTrigger parses "1 09:30" (day of month, then time).
func ParseMonthlyTrigger(s string) (MonthlyTrigger, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return MonthlyTrigger{}, fmt.Errorf("invalid monthly slot %q: want \"1 09:30\"", s)
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return MonthlyTrigger{}, fmt.Errorf("invalid monthly slot %q: day must be 1-31", s)
	}
	h, m, err := parseClock(fields[1])
	if err != nil {
		return MonthlyTrigger{}, fmt.Errorf("invalid monthly slot %q: %w", s, err)
	}
	return MonthlyTrigger{Day: day, Hour: h, Minute: m}, nil
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("time must be HH:MM")
	}
	return t.Hour(), t.Minute(), nil
}
