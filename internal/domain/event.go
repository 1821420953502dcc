// Package domain contains the core data types for the wedding transport
// coordination service. This package has zero external dependencies beyond
// uuid and is imported by every other internal package.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction tells whether a transport group brings guests in or takes them out.
type Direction string

const (
	DirectionArrival   Direction = "arrival"
	DirectionDeparture Direction = "departure"
)

// ParseDirection returns DirectionArrival for an empty string.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case "", DirectionArrival:
		return DirectionArrival, true
	case DirectionDeparture:
		return DirectionDeparture, true
	}
	return "", false
}

// Event is the wedding the guests travel to. It is owned by the event
// subsystem; this service reads it and only writes the flight-list export flag.
type Event struct {
	ID    uuid.UUID
	Name  string
	Venue string
	// TimeZone is an IANA zone name used to interpret manifest dates and times.
	// Empty means UTC.
	TimeZone string
	// ArrivalBufferTime and DepartureBufferTime are "HH:MM" durations.
	// Empty means the documented default applies.
	ArrivalBufferTime    string
	DepartureBufferTime  string
	FlightListExported   bool
	FlightListExportedAt *time.Time
}

// Location returns the event's time zone, falling back to UTC when the zone
// is empty or unknown.
func (e Event) Location() *time.Location {
	if e.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BufferTime returns the configured buffer text for the given direction.
func (e Event) BufferTime(d Direction) string {
	if d == DirectionDeparture {
		return e.DepartureBufferTime
	}
	return e.ArrivalBufferTime
}
