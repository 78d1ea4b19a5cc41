// Package calendar resolves the business day an operation runs against and
// the billing windows derived from it.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date without a time component. It is stored as
// midnight UTC so that values compare and persist consistently.
type Day struct {
	t time.Time
}

// DayOf truncates t to its calendar date in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Date builds a Day; out-of-range values normalise like time.Date.
func Date(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// layouts accepted for dates coming from browsers and query strings.
var layouts = []string{
	dayLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// ParseDay parses s using any of the accepted layouts. Timestamps keep the
// calendar date they carry, not the date in UTC.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, fmt.Errorf("empty date")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), nil
		}
	}
	return Day{}, fmt.Errorf("unrecognised date %q", s)
}

// MustParseDay is ParseDay for literals; it panics on malformed input.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of d.
func (d Day) Time() time.Time { return d.t }

func (d Day) Year() int { return d.t.Year() }
func (d Day) Month() time.Month { return d.t.Month() }
func (d Day) String() string { return d.t.Format(dayLayout) }
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool { return d.t.After(o.t) }
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) FirstOfMonth() Day { return Date(d.Year(), d.Month(), 1) }
func (d Day) AddMonths(n int) Day { return Day{t: d.t.AddDate(0, n, 0)} }

// LastOfMonth returns the final day of d's month.
func (d Day) LastOfMonth() Day {
	return d.FirstOfMonth().AddMonths(1).AddDays(-1)
}

// SameMonth reports whether d and o fall in the same month of the same year.
func (d Day) SameMonth(o Day) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
