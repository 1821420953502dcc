package domain

import (
	"time"

	"github.com/google/uuid"
)

// TravelMode is how the guest reaches or leaves the event.
type TravelMode string

const (
	TravelModeAir  TravelMode = "air"
	TravelModeRail TravelMode = "rail"
	TravelModeRoad TravelMode = "road"
)

// Valid reports whether m is a known mode. The empty mode is accepted and
// stored as air by the service.
func (m TravelMode) Valid() bool {
	switch m {
	case TravelModeAir, TravelModeRail, TravelModeRoad:
		return true
	}
	return false
}

// TravelStatus tracks how trustworthy a travel record is.
type TravelStatus string

const (
	TravelStatusScheduled TravelStatus = "scheduled"
	TravelStatusConfirmed TravelStatus = "confirmed"
	TravelStatusDelayed   TravelStatus = "delayed"
	TravelStatusCancelled TravelStatus = "cancelled"
)

// TravelRecord holds one guest's arrival and departure facts for an event.
// Records are never deleted; corrections and delay reports overwrite fields.
type TravelRecord struct {
	ID                  uuid.UUID
	EventID             uuid.UUID
	GuestID             uuid.UUID
	ArrivalMode         TravelMode
	DepartureMode       TravelMode
	ScheduledArrival    *time.Time
	ScheduledDeparture  *time.Time
	ActualArrival       *time.Time
	DelayMinutes        int
	Origin              string
	Destination         string
	FlightNumber        string
	Airline             string
	Status              TravelStatus
	NeedsTransportation bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ScheduledAt returns the timestamp that drives grouping in direction d.
func (r TravelRecord) ScheduledAt(d Direction) *time.Time {
	if d == DirectionDeparture {
		return r.ScheduledDeparture
	}
	return r.ScheduledArrival
}

// Groupable reports whether the record takes part in automatic grouping.
// A record without a timestamp is still groupable here; the planner reports it
// as ungroupable so the caller can surface the count.
func (r TravelRecord) Groupable() bool {
	return r.NeedsTransportation && r.Status != TravelStatusCancelled
}

// SameTravelData reports whether the agent-editable fields of two records are
// equal. Used to detect no-op re-imports.
func (r TravelRecord) SameTravelData(o TravelRecord) bool {
	return r.ArrivalMode == o.ArrivalMode &&
		r.DepartureMode == o.DepartureMode &&
		equalTime(r.ScheduledArrival, o.ScheduledArrival) &&
		equalTime(r.ScheduledDeparture, o.ScheduledDeparture) &&
		equalTime(r.ActualArrival, o.ActualArrival) &&
		r.Origin == o.Origin &&
		r.Destination == o.Destination &&
		r.FlightNumber == o.FlightNumber &&
		r.Airline == o.Airline
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
