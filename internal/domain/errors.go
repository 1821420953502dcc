package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, unknown status value).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when an operation collides with the current state of
// a resource, e.g. deleting a vehicle that is carrying a group.
var ErrConflict = errors.New("conflict")

// ErrConfig marks a malformed per-event configuration value.
// Callers log it and fall back to the documented default.
var ErrConfig = errors.New("config error")

// ErrNoVehicleAvailable is reported when the fleet has no vehicle left for a
// group. The group is persisted as pending without a vehicle.
var ErrNoVehicleAvailable = errors.New("no vehicle available")

// ErrCapacityExceeded is the sentinel behind CapacityExceededError.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrVehicleUnavailable is returned when a vehicle is not in the available
// state at the moment of assignment.
var ErrVehicleUnavailable = errors.New("vehicle not available")

// ErrInvalidTransition is returned when a transport group or vehicle status
// change is not permitted from the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrGuestNotFound and ErrAmbiguousGuestMatch are per-row import outcomes.
// They never abort an import.
var (
	ErrGuestNotFound       = errors.New("guest not found")
	ErrAmbiguousGuestMatch = errors.New("ambiguous guest match")
)

// ErrConcurrentRegeneration is returned when another regeneration for the same
// event holds the lock or the transaction lost a serialization race.
// Nothing has been applied; the caller should retry.
var ErrConcurrentRegeneration = errors.New("concurrent regeneration in progress")

// ConfigError describes a malformed configuration field.
type ConfigError struct {
	Field string
	Value string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s=%q: %s", e.Field, e.Value, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// CapacityExceededError is returned by a manual vehicle assignment when the
// group needs more seats than the vehicle has.
type CapacityExceededError struct {
	GroupSeats      int
	VehicleCapacity int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded: group needs %d seats, vehicle has %d", e.GroupSeats, e.VehicleCapacity)
}

func (e *CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }
