package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// TravelRecordRepo persists guests' travel facts. Records are never deleted.
type TravelRecordRepo interface {
	// ListByEvent returns every record of the event ordered by guest id.
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.TravelRecord, error)

	// GetByGuest returns domain.ErrNotFound when the guest has no record yet.
	GetByGuest(ctx context.Context, eventID, guestID uuid.UUID) (domain.TravelRecord, error)

	// Upsert inserts or overwrites the record for (EventID, GuestID).
	// created reports whether a new row was inserted.
	Upsert(ctx context.Context, rec domain.TravelRecord) (out domain.TravelRecord, created bool, err error)

	// UpdateDelay records a delay report and sets the status to delayed.
	UpdateDelay(ctx context.Context, eventID, guestID uuid.UUID, delayMinutes int, actual *time.Time) (domain.TravelRecord, error)
}

type pgTravelRecordRepo struct {
	db db
}

// NewTravelRecordRepo constructs a TravelRecordRepo backed by the provided db connection.
func NewTravelRecordRepo(db db) TravelRecordRepo {
	return &pgTravelRecordRepo{db: db}
}

const travelColumns = `id, event_id, guest_id, arrival_mode, departure_mode, scheduled_arrival,
	scheduled_departure, actual_arrival, delay_minutes, origin, destination, flight_number,
	airline, status, needs_transportation, created_at, updated_at`

func (r *pgTravelRecordRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.TravelRecord, error) {
	q := `SELECT ` + travelColumns + ` FROM travel_records WHERE event_id = @event_id ORDER BY guest_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"event_id": eventID})
	if err != nil {
		return nil, fmt.Errorf("repo.TravelRecordRepo.ListByEvent: %w", err)
	}
	return collect(rows, "repo.TravelRecordRepo.ListByEvent", scanTravelRecord)
}

func (r *pgTravelRecordRepo) GetByGuest(ctx context.Context, eventID, guestID uuid.UUID) (domain.TravelRecord, error) {
	q := `SELECT ` + travelColumns + ` FROM travel_records WHERE event_id = @event_id AND guest_id = @guest_id`

	out, err := scanTravelRecord(r.db.QueryRow(ctx, q, pgx.NamedArgs{"event_id": eventID, "guest_id": guestID}))
	if err != nil {
		return domain.TravelRecord{}, fmt.Errorf("repo.TravelRecordRepo.GetByGuest: %w", err)
	}
	return out, nil
}

func (r *pgTravelRecordRepo) Upsert(ctx context.Context, rec domain.TravelRecord) (domain.TravelRecord, bool, error) {
	// xmax is zero only on a freshly inserted tuple.
	q := `
		INSERT INTO travel_records (event_id, guest_id, arrival_mode, departure_mode,
		    scheduled_arrival, scheduled_departure, actual_arrival, delay_minutes, origin,
		    destination, flight_number, airline, status, needs_transportation)
		VALUES (@event_id, @guest_id, @arrival_mode, @departure_mode, @scheduled_arrival,
		    @scheduled_departure, @actual_arrival, @delay_minutes, @origin, @destination,
		    @flight_number, @airline, @status, @needs_transportation)
		ON CONFLICT (event_id, guest_id) DO UPDATE
		SET arrival_mode         = EXCLUDED.arrival_mode,
		    departure_mode       = EXCLUDED.departure_mode,
		    scheduled_arrival    = EXCLUDED.scheduled_arrival,
		    scheduled_departure  = EXCLUDED.scheduled_departure,
		    actual_arrival       = EXCLUDED.actual_arrival,
		    delay_minutes        = EXCLUDED.delay_minutes,
		    origin               = EXCLUDED.origin,
		    destination          = EXCLUDED.destination,
		    flight_number        = EXCLUDED.flight_number,
		    airline              = EXCLUDED.airline,
		    status               = EXCLUDED.status,
		    needs_transportation = EXCLUDED.needs_transportation,
		    updated_at           = now()
		RETURNING ` + travelColumns + `, (xmax = 0) AS inserted`

	args := pgx.NamedArgs{
		"event_id":             rec.EventID,
		"guest_id":             rec.GuestID,
		"arrival_mode":         string(rec.ArrivalMode),
		"departure_mode":       string(rec.DepartureMode),
		"scheduled_arrival":    rec.ScheduledArrival,
		"scheduled_departure":  rec.ScheduledDeparture,
		"actual_arrival":       rec.ActualArrival,
		"delay_minutes":        rec.DelayMinutes,
		"origin":               rec.Origin,
		"destination":          rec.Destination,
		"flight_number":        rec.FlightNumber,
		"airline":              rec.Airline,
		"status":               string(rec.Status),
		"needs_transportation": rec.NeedsTransportation,
	}

	var inserted bool
	out, err := scanTravelRecordWith(r.db.QueryRow(ctx, q, args), &inserted)
	if err != nil {
		return domain.TravelRecord{}, false, fmt.Errorf("repo.TravelRecordRepo.Upsert: %w", err)
	}
	return out, inserted, nil
}

func (r *pgTravelRecordRepo) UpdateDelay(ctx context.Context, eventID, guestID uuid.UUID, delayMinutes int, actual *time.Time) (domain.TravelRecord, error) {
	q := `
		UPDATE travel_records
		SET delay_minutes  = @delay,
		    actual_arrival = @actual,
		    status         = 'delayed',
		    updated_at     = now()
		WHERE event_id = @event_id AND guest_id = @guest_id
		RETURNING ` + travelColumns

	args := pgx.NamedArgs{
		"event_id": eventID,
		"guest_id": guestID,
		"delay":    delayMinutes,
		"actual":   actual,
	}
	out, err := scanTravelRecord(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TravelRecord{}, fmt.Errorf("repo.TravelRecordRepo.UpdateDelay: %w", err)
	}
	return out, nil
}

func scanTravelRecord(s scanner) (domain.TravelRecord, error) {
	return scanTravelRecordWith(s)
}

// scanTravelRecordWith scans the travel columns followed by any extra
// destinations selected after them.
func scanTravelRecordWith(s scanner, extra ...any) (domain.TravelRecord, error) {
	var (
		t                  domain.TravelRecord
		id, eventID, guest pgtype.UUID
		arrMode, depMode   string
		status             string
		schedArr, schedDep pgtype.Timestamptz
		actual             pgtype.Timestamptz
	)
	dest := []any{&id, &eventID, &guest, &arrMode, &depMode, &schedArr, &schedDep, &actual,
		&t.DelayMinutes, &t.Origin, &t.Destination, &t.FlightNumber, &t.Airline, &status,
		&t.NeedsTransportation, &t.CreatedAt, &t.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return domain.TravelRecord{}, notFound(err)
	}

	t.ID = uuid.UUID(id.Bytes)
	t.EventID = uuid.UUID(eventID.Bytes)
	t.GuestID = uuid.UUID(guest.Bytes)
	t.ArrivalMode = domain.TravelMode(arrMode)
	t.DepartureMode = domain.TravelMode(depMode)
	t.Status = domain.TravelStatus(status)
	t.ScheduledArrival = timePtr(schedArr)
	t.ScheduledDeparture = timePtr(schedDep)
	t.ActualArrival = timePtr(actual)
	return t, nil
}
