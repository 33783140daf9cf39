// Package quiethours decides whether triggers are suppressed at a given time.
package quiethours

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTimezone is returned by New for an unknown IANA zone name.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidHour is returned by New for an hour outside 0-23.
	ErrInvalidHour = errors.New("invalid hour of day")
)

// Gate evaluates the silent window in a fixed location.
//
// An hour h is silent when h >= end or h < start. With start < end this
// allows triggers during [start, end). A window with start >= end is not
// treated as wrapping midnight: every hour is silent.
type Gate struct {
	loc   *time.Location
	start int
	end   int
}

// New builds a Gate.
//
// Parameters:
//   - timezone: IANA zone name, e.g. "Asia/Tokyo"
//   - start: first hour at which triggers are allowed (0-23)
//   - end: first hour at which triggers are suppressed again (0-23)
//
// Returns:
//   - *Gate: Ready gate
//   - error: Wrapped ErrInvalidTimezone or ErrInvalidHour
func New(timezone string, start, end int) (*Gate, error) {
	if timezone == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidTimezone, timezone, err)
	}
	if start < 0 || start > 23 {
		return nil, fmt.Errorf("%w: start %d", ErrInvalidHour, start)
	}
	if end < 0 || end > 23 {
		return nil, fmt.Errorf("%w: end %d", ErrInvalidHour, end)
	}
	return &Gate{loc: loc, start: start, end: end}, nil
}

// IsSilent reports whether now falls inside the silent window.
func (g *Gate) IsSilent(now time.Time) bool {
	hour := now.In(g.loc).Hour()
	return hour >= g.end || hour < g.start
}

// AlwaysSilent reports whether no hour of the day allows triggers.
func (g *Gate) AlwaysSilent() bool {
	return g.start >= g.end
}
