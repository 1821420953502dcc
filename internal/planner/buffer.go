// Package planner holds the pure scheduling algorithms: buffer parsing,
// arrival window clustering and vehicle capacity matching.
// Nothing here touches the database, the clock or a logger.
package planner

import (
	"strconv"
	"strings"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// Default buffers applied when an event has no buffer configured.
const (
	DefaultArrivalBufferMinutes   = 60
	DefaultDepartureBufferMinutes = 180
)

// DefaultBufferMinutes returns the documented default for direction d.
func DefaultBufferMinutes(d domain.Direction) int {
	if d == domain.DirectionDeparture {
		return DefaultDepartureBufferMinutes
	}
	return DefaultArrivalBufferMinutes
}

// BufferMinutes converts an "HH:MM" buffer into minutes.
//
// An empty value yields the default for d. A malformed value returns the
// default together with a *domain.ConfigError so the caller can warn and
// carry on.
func BufferMinutes(hhmm string, d domain.Direction) (int, error) {
	def := DefaultBufferMinutes(d)
	v := strings.TrimSpace(hhmm)
	if v == "" {
		return def, nil
	}

	field := "arrivalBufferTime"
	if d == domain.DirectionDeparture {
		field = "departureBufferTime"
	}
	fail := func(msg string) (int, error) {
		return def, &domain.ConfigError{Field: field, Value: hhmm, Msg: msg}
	}

	hs, ms, ok := strings.Cut(v, ":")
	if !ok || hs == "" || ms == "" {
		return fail("expected HH:MM")
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 {
		return fail("hours must be a non-negative integer")
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 {
		return fail("minutes must be a non-negative integer")
	}
	if m >= 60 {
		return fail("minutes must be below 60")
	}
	return h*60 + m, nil
}
