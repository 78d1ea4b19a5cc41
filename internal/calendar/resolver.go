package calendar

import (
	"log/slog"
	"time"
)

// Source records which input a resolved day came from.
type Source string

const (
	SourceClient Source = "client"
	SourceCookie Source = "cookie"
	SourceServer Source = "server"
)

// Hints are the client-side date inputs of a request. Both are optional
// and may be malformed; the resolver ignores what it cannot parse.
type Hints struct {
	ClientDate string
	Cookie     string
}

// Resolution is the operative day of a request and where it came from.
type Resolution struct {
	Day    Day
	Source Source
}

// Resolver picks the operative day for a request. It is the only place the
// engine reads the clock; the result is passed down explicitly.
type Resolver struct {
	Now      func() time.Time
	Location *time.Location
}

// NewResolver returns a Resolver reading the wall clock in loc. A nil loc
// means the server's local zone.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{Now: time.Now, Location: loc}
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Today resolves the request day: explicit client date, then the cookie,
// then the server's local date. It never fails.
func (r *Resolver) Today(h Hints) Resolution {
	if h.ClientDate != "" {
		if d, err := ParseDay(h.ClientDate); err == nil {
			return Resolution{Day: d, Source: SourceClient}
		}
		slog.Debug("Ignoring unparseable client date", "value", h.ClientDate)
	}
	if h.Cookie != "" {
		if d, err := ParseDay(h.Cookie); err == nil {
			return Resolution{Day: d, Source: SourceCookie}
		}
		slog.Debug("Ignoring unparseable client date cookie", "value", h.Cookie)
	}
	return Resolution{Day: r.ServerToday(), Source: SourceServer}
}

// ServerToday is the server's local calendar date.
func (r *Resolver) ServerToday() Day {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	return DayOf(r.now().In(loc))
}

// UTCToday is the calendar date in UTC, the secondary fallback for drink
// auto-marking when the primary day has no drink menu.
func (r *Resolver) UTCToday() Day {
	return DayOf(r.now().UTC())
}
