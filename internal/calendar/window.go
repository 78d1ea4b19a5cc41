package calendar

import (
	"fmt"
	"strings"
)

// Period selects a billing window relative to the resolved day.
type Period string

const (
	// PeriodCurrent is the first of the month through the resolved day.
	PeriodCurrent Period = "current"
	// PeriodPrevious is the whole calendar month before the resolved day.
	PeriodPrevious Period = "previous"
)

// ParsePeriod maps user input to a Period. Anything other than "previous"
// is the current month.
func ParsePeriod(s string) Period {
	if strings.EqualFold(strings.TrimSpace(s), string(PeriodPrevious)) {
		return PeriodPrevious
	}
	return PeriodCurrent
}

// Describe is the human label used in run summaries.
func (p Period) Describe() string {
	if p == PeriodPrevious {
		return "previous month"
	}
	return "current month (up to today)"
}

// Window is an inclusive range of days.
type Window struct {
	From Day `json:"from"`
	To   Day `json:"to"`
}

// WindowFor derives the billing window for p from the resolved day.
func WindowFor(p Period, today Day) Window {
	first := today.FirstOfMonth()
	if p == PeriodPrevious {
		prev := first.AddMonths(-1)
		return Window{From: prev, To: prev.LastOfMonth()}
	}
	return Window{From: first, To: today}
}

// MonthWindow covers the whole month containing d.
func MonthWindow(d Day) Window {
	return Window{From: d.FirstOfMonth(), To: d.LastOfMonth()}
}

// Anchor is the first day of the window's month, the key bills are stored
// under.
func (w Window) Anchor() Day { return w.From.FirstOfMonth() }

// Contains reports whether d lies within the window.
func (w Window) Contains(d Day) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// End is the exclusive upper bound, for half-open storage queries.
func (w Window) End() Day { return w.To.AddDays(1) }

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.From, w.To)
}
