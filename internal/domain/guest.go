package domain

import "github.com/google/uuid"

// Guest is read-only to this service. Seat demand is derived from the
// confirmed plus-one and the number of children travelling with the guest.
type Guest struct {
	ID                      uuid.UUID
	EventID                 uuid.UUID
	Name                    string
	Email                   string
	Phone                   string
	NeedsFlightAssistance   bool
	PlusOne                 bool
	ChildrenCount           int
	AccommodationPreference string
	DietaryRestrictions     string
	SpecialRequests         string
}

// SeatDemand is the number of seats the guest's party occupies.
func (g Guest) SeatDemand() int {
	n := 1 + g.ChildrenCount
	if g.PlusOne {
		n++
	}
	return n
}
