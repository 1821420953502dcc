package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType selects the message template the delivery side uses.
type NotificationType string

const (
	NotifyConfirmation NotificationType = "confirmation"
	NotifyReminder     NotificationType = "reminder"
	NotifyUpdate       NotificationType = "update"
)

// ParseNotificationType accepts only the three known types.
func ParseNotificationType(s string) (NotificationType, bool) {
	switch t := NotificationType(s); t {
	case NotifyConfirmation, NotifyReminder, NotifyUpdate:
		return t, true
	}
	return "", false
}

// Notification is what gets handed to the delivery collaborator for one guest.
// Pickup fields are zero when the guest has no transport group yet.
type Notification struct {
	Type           NotificationType `json:"type"`
	EventID        uuid.UUID        `json:"event_id"`
	GuestID        uuid.UUID        `json:"guest_id"`
	GuestName      string           `json:"guest_name"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	PickupLocation string           `json:"pickup_location,omitempty"`
	PickupTime     *time.Time       `json:"pickup_time,omitempty"`
	FlightNumber   string           `json:"flight_number,omitempty"`
}

// NotificationOutcome is the result for one guest.
type NotificationOutcome struct {
	GuestID uuid.UUID
	Sent    bool
	Error   string
}

// DispatchResult tallies a notification batch.
type DispatchResult struct {
	Sent     int
	Failed   int
	Outcomes []NotificationOutcome
}
