package domain

import (
	"time"

	"github.com/google/uuid"
)

// VehicleStatus is the fleet-side state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleAssigned    VehicleStatus = "assigned"
	VehicleInTransit   VehicleStatus = "in_transit"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// ParseVehicleStatus accepts only the four fleet statuses.
func ParseVehicleStatus(s string) (VehicleStatus, bool) {
	switch v := VehicleStatus(s); v {
	case VehicleAvailable, VehicleAssigned, VehicleInTransit, VehicleMaintenance:
		return v, true
	}
	return "", false
}

// Vendor supplies vehicles for an event.
type Vendor struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	Name        string
	ContactName string
	Phone       string
	Email       string
	CreatedAt   time.Time
}

// Vehicle belongs to a Vendor. Capacity is a hard upper bound on seats.
type Vehicle struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	VendorID    uuid.UUID
	VehicleType string
	Label       string
	Capacity    int
	Status      VehicleStatus
	DriverName  string
	DriverPhone string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
