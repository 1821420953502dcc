package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/metrics"
	"github.com/pkordes/wedding-transport/internal/notify"
	"github.com/pkordes/wedding-transport/internal/repo"
)

// DefaultNotifyConcurrency bounds in-flight deliveries when none is configured.
const DefaultNotifyConcurrency = 8

// NotificationService builds guest notifications from transport data and
// hands them to a notify.Notifier.
type NotificationService struct {
	guests      repo.GuestRepo
	travel      repo.TravelRecordRepo
	groups      repo.TransportGroupRepo
	notifier    notify.Notifier
	log         *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewNotificationService constructs a NotificationService. concurrency <= 0
// selects DefaultNotifyConcurrency.
func NewNotificationService(r repo.Repos, n notify.Notifier, log *slog.Logger, m *metrics.Metrics, concurrency int) *NotificationService {
	if concurrency <= 0 {
		concurrency = DefaultNotifyConcurrency
	}
	return &NotificationService{
		guests:      r.Guests,
		travel:      r.Travel,
		groups:      r.Groups,
		notifier:    n,
		log:         log,
		metrics:     m,
		concurrency: concurrency,
	}
}

// Dispatch sends one notification per guest. With no guestIDs every guest
// needing assistance is notified. A failed delivery is recorded in the
// result and does not stop the batch; only lookup failures abort it.
func (s *NotificationService) Dispatch(ctx context.Context, eventID uuid.UUID, t domain.NotificationType, guestIDs []uuid.UUID) (res domain.DispatchResult, err error) {
	ctx, span := startSpan(ctx, "NotificationService.Dispatch",
		attribute.String("event.id", eventID.String()),
		attribute.String("notification.type", string(t)))
	defer func() { endSpan(span, err) }()

	if _, ok := domain.ParseNotificationType(string(t)); !ok {
		return domain.DispatchResult{}, fmt.Errorf("service.NotificationService.Dispatch: %w",
			validationf("type must be confirmation, reminder or update"))
	}

	var guests []domain.Guest
	if len(guestIDs) == 0 {
		guests, err = s.guests.ListNeedingAssistance(ctx, eventID)
	} else {
		ids := dedupe(guestIDs)
		guests, err = s.guests.ListByIDs(ctx, eventID, ids)
		if err == nil && len(guests) != len(ids) {
			err = validationf("one or more guests do not belong to this event")
		}
	}
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("service.NotificationService.Dispatch: %w", err)
	}

	msgs := make([]domain.Notification, len(guests))
	for i, g := range guests {
		if msgs[i], err = s.build(ctx, eventID, t, g); err != nil {
			return domain.DispatchResult{}, fmt.Errorf("service.NotificationService.Dispatch: %w", err)
		}
	}

	outcomes := make([]domain.NotificationOutcome, len(msgs))
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for i, n := range msgs {
		eg.Go(func() error {
			o := domain.NotificationOutcome{GuestID: n.GuestID, Sent: true}
			if err := s.notifier.Notify(egCtx, n); err != nil {
				o.Sent = false
				o.Error = err.Error()
				s.log.WarnContext(egCtx, "notification failed", "guest_id", n.GuestID, "type", t, "error", err)
			}
			mu.Lock()
			outcomes[i] = o
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	res.Outcomes = outcomes
	for _, o := range outcomes {
		outcome := "sent"
		if o.Sent {
			res.Sent++
		} else {
			res.Failed++
			outcome = "failed"
		}
		s.metrics.NotificationsSent.WithLabelValues(string(t), outcome).Inc()
	}
	return res, nil
}

func (s *NotificationService) build(ctx context.Context, eventID uuid.UUID, t domain.NotificationType, g domain.Guest) (domain.Notification, error) {
	n := domain.Notification{
		Type:      t,
		EventID:   eventID,
		GuestID:   g.ID,
		GuestName: g.Name,
		Email:     g.Email,
		Phone:     g.Phone,
	}

	group, err := s.groups.FindByGuest(ctx, eventID, g.ID, domain.DirectionArrival)
	switch {
	case err == nil:
		pickup := group.PickupTime
		n.PickupLocation = group.PickupLocation
		n.PickupTime = &pickup
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Notification{}, err
	}

	rec, err := s.travel.GetByGuest(ctx, eventID, g.ID)
	switch {
	case err == nil:
		n.FlightNumber = strings.TrimSpace(rec.Airline + " " + rec.FlightNumber)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Notification{}, err
	}
	return n, nil
}
