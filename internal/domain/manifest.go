package domain

import (
	"strings"
	"time"
)

// ManifestRow is the flat row exchanged with a travel agent.
// One row per guest needing assistance. Dates are "2006-01-02", times "15:04",
// both in the event's time zone. Empty strings mean "unknown".
type ManifestRow struct {
	GuestName               string
	Email                   string
	Phone                   string
	TravelMode              string
	PreferredArrivalDate    string
	PreferredDepartureDate  string
	ActualArrivalDate       string
	AccommodationPreference string
	DietaryRestrictions     string
	SpecialRequests         string
	FlightNumber            string
	ArrivalTime             string
	DepartureTime           string
	OriginAirport           string
	DestinationAirport      string
	Airline                 string
}

// HasTravelData reports whether the row carries any travel detail beyond the
// guest's identity and preferences.
func (r ManifestRow) HasTravelData() bool {
	for _, v := range []string{
		r.TravelMode, r.PreferredArrivalDate, r.PreferredDepartureDate, r.ActualArrivalDate,
		r.FlightNumber, r.ArrivalTime, r.DepartureTime,
		r.OriginAirport, r.DestinationAirport, r.Airline,
	} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// ImportSkip explains why a manifest row was not applied.
type ImportSkip struct {
	Row    int
	Name   string
	Email  string
	Reason string
}

// ImportResult is the per-row tally of a manifest import.
type ImportResult struct {
	UpdatedCount   int
	CreatedCount   int
	UnchangedCount int
	Skipped        []ImportSkip
}

// CoordinationStatus is the dashboard view of the flight workflow.
type CoordinationStatus struct {
	TotalNeeding         int
	WithTravelInfo       int
	Confirmed            int
	CompletionPercent    int
	FlightListExported   bool
	FlightListExportedAt *time.Time
}
