package domain

import (
	"time"

	"github.com/google/uuid"
)

// GroupStatus is the pickup lifecycle state of a TransportGroup.
type GroupStatus string

const (
	GroupPending   GroupStatus = "pending"
	GroupAssigned  GroupStatus = "assigned"
	GroupInTransit GroupStatus = "in_transit"
	GroupCompleted GroupStatus = "completed"
)

// ParseGroupStatus accepts only the four lifecycle states.
func ParseGroupStatus(s string) (GroupStatus, bool) {
	switch g := GroupStatus(s); g {
	case GroupPending, GroupAssigned, GroupInTransit, GroupCompleted:
		return g, true
	}
	return "", false
}

// groupTransitions lists the permitted moves. Anything else, including
// in_transit -> assigned and every move out of completed, is rejected.
var groupTransitions = map[GroupStatus][]GroupStatus{
	GroupPending:   {GroupAssigned},
	GroupAssigned:  {GroupPending, GroupInTransit, GroupCompleted},
	GroupInTransit: {GroupCompleted},
}

// CanTransition reports whether a group may move from one status to another.
func CanTransition(from, to GroupStatus) bool {
	for _, s := range groupTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// GroupSource records who created a group. Regeneration only replaces auto
// groups; manual groups survive it.
type GroupSource string

const (
	SourceAuto   GroupSource = "auto"
	SourceManual GroupSource = "manual"
)

// Reasons stored on a group that has no vehicle.
const (
	ReasonNoVehicle         = "no_vehicle_available"
	ReasonCapacityShortfall = "capacity_shortfall"
	ReasonUnassigned        = "vehicle_unassigned"
)

// TransportGroup is the unit of scheduling: guests + vehicle + time window.
type TransportGroup struct {
	ID               uuid.UUID
	EventID          uuid.UUID
	Direction        Direction
	Source           GroupSource
	PickupLocation   string
	PickupTime       time.Time
	WindowEnd        time.Time
	DropoffLocation  string
	VehicleID        *uuid.UUID
	RepresentativeID *uuid.UUID
	Status           GroupStatus
	GuestsPickedUp   int
	TotalGuests      int
	NeedsSplit       bool
	UnassignedReason string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TransportAllocation joins a guest to a group with the seats the guest's
// party needs.
type TransportAllocation struct {
	ID         uuid.UUID
	GroupID    uuid.UUID
	EventID    uuid.UUID
	GuestID    uuid.UUID
	Direction  Direction
	SeatDemand int
	Confirmed  bool
	PickedUp   bool
}

// GroupDetail is a group together with its allocations.
type GroupDetail struct {
	Group       TransportGroup
	Allocations []TransportAllocation
}

// LocationRepresentative is an on-site contact at an airport or station.
type LocationRepresentative struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	Name      string
	Phone     string
	Location  string
	CreatedAt time.Time
}

// RegenerationResult summarises a rebuild of automatic groups.
type RegenerationResult struct {
	GroupsCreated        int
	TotalGuestsProcessed int
	UngroupableCount     int
	UnassignedGroups     int
}
