package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
	PeriodRange   PeriodKind = "range"
)

type (
	PeriodKind string

	// PeriodRequest is what a trigger asks for. StartDate and EndDate are only
	// honoured when both are present; otherwise Kind decides (daily if empty).
	PeriodRequest struct {
		Kind      PeriodKind
		StartDate string
		EndDate   string
	}

	ReportPeriod struct {
		Kind  PeriodKind
		Start time.Time
		End   time.Time
		Title string
	}

	// PeriodTitler produces the human readable period title.
	PeriodTitler interface {
		PeriodTitle(p ReportPeriod) string
	}

	Resolver struct {
		Location *time.Location
		Titler   PeriodTitler
		Now      func() time.Time
	}
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

func ParsePeriodKind(s string) (PeriodKind, error) {
	k := PeriodKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case "":
		return PeriodDaily, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodRange:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown period kind %q", ErrInvalidPeriod, s)
}

// Contains reports whether t falls inside the inclusive interval.
func (p ReportPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func NewResolver(loc *time.Location, titler PeriodTitler) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{Location: loc, Titler: titler, Now: time.Now}
}

// Resolve turns a request into a concrete interval relative to the current
// time in the resolver's location.
func (r *Resolver) Resolve(req PeriodRequest) (ReportPeriod, error) {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	p, err := ResolveAt(req, now().In(loc), loc)
	if err != nil {
		return ReportPeriod{}, err
	}
	if r.Titler != nil {
		p.Title = r.Titler.PeriodTitle(p)
	}
	return p, nil
}

// ResolveAt is Resolve with an explicit clock and no title.
func ResolveAt(req PeriodRequest, now time.Time, loc *time.Location) (ReportPeriod, error) {
	start, end := strings.TrimSpace(req.StartDate), strings.TrimSpace(req.EndDate)
	if start != "" && end != "" {
		return resolveRange(start, end, loc)
	}
	if req.Kind == PeriodRange {
		return ReportPeriod{}, fmt.Errorf("%w: range needs both start and end dates", ErrInvalidPeriod)
	}

	today := startOfDay(now.In(loc))
	yesterday := today.AddDate(0, 0, -1)

	switch req.Kind {
	case "", PeriodDaily:
		return ReportPeriod{Kind: PeriodDaily, Start: yesterday, End: endOfDay(yesterday)}, nil
	case PeriodWeekly:
		return ReportPeriod{Kind: PeriodWeekly, Start: yesterday.AddDate(0, 0, -6), End: endOfDay(yesterday)}, nil
	case PeriodMonthly:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		prevFirst := first.AddDate(0, -1, 0)
		lastDay := first.AddDate(0, 0, -1)
		return ReportPeriod{Kind: PeriodMonthly, Start: prevFirst, End: endOfDay(lastDay)}, nil
	}
	return ReportPeriod{}, fmt.Errorf("%w: unknown period kind %q", ErrInvalidPeriod, req.Kind)
}

func resolveRange(rawStart, rawEnd string, loc *time.Location) (ReportPeriod, error) {
	start, err := parseBound(rawStart, loc)
	if err != nil {
		return ReportPeriod{}, fmt.Errorf("%w: start date: %v", ErrInvalidPeriod, err)
	}
	end, err := parseBound(rawEnd, loc)
	if err != nil {
		return ReportPeriod{}, fmt.Errorf("%w: end date: %v", ErrInvalidPeriod, err)
	}
	end = endOfDay(end)
	if end.Before(start) {
		return ReportPeriod{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidPeriod, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return ReportPeriod{Kind: PeriodRange, Start: start, End: end}, nil
}

func parseBound(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay is the last millisecond of t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
