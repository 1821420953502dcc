// Package notify delivers guest transport notifications. Delivery providers
// (email, SMS, WhatsApp) live outside this service; a Notifier only hands the
// message off.
package notify

import (
	"context"
	"log/slog"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// Notifier hands one guest notification to the delivery side.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// LogNotifier writes notifications to the structured log. Used when no
// message broker is configured.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(ctx context.Context, n domain.Notification) error {
	attrs := []any{
		"type", n.Type,
		"event_id", n.EventID,
		"guest_id", n.GuestID,
		"guest_name", n.GuestName,
	}
	if n.PickupTime != nil {
		attrs = append(attrs, "pickup_location", n.PickupLocation, "pickup_time", n.PickupTime.UTC())
	}
	l.log.InfoContext(ctx, "notification", attrs...)
	return nil
}

// RoutingKey is the topic used for a notification type, e.g.
// "transport.notification.reminder".
func RoutingKey(t domain.NotificationType) string {
	return "transport.notification." + string(t)
}
