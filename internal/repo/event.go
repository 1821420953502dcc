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

// EventRepo reads events and records the flight-list export.
// Events are created by the event subsystem; Create exists for seeding and
// integration tests.
type EventRepo interface {
	Create(ctx context.Context, e domain.Event) (domain.Event, error)

	// GetByID returns domain.ErrNotFound if no event with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Event, error)

	// MarkFlightListExported sets the export flag and timestamp.
	MarkFlightListExported(ctx context.Context, id uuid.UUID, at time.Time) (domain.Event, error)
}

type pgEventRepo struct {
	db db
}

// NewEventRepo constructs an EventRepo backed by the provided db connection.
func NewEventRepo(db db) EventRepo {
	return &pgEventRepo{db: db}
}

const eventColumns = `id, name, venue, time_zone, arrival_buffer_time, departure_buffer_time,
	flight_list_exported, flight_list_exported_at`

func (r *pgEventRepo) Create(ctx context.Context, e domain.Event) (domain.Event, error) {
	q := `
		INSERT INTO events (name, venue, time_zone, arrival_buffer_time, departure_buffer_time)
		VALUES (@name, @venue, @time_zone, NULLIF(@arrival_buffer, ''), NULLIF(@departure_buffer, ''))
		RETURNING ` + eventColumns

	tz := e.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	args := pgx.NamedArgs{
		"name":             e.Name,
		"venue":            e.Venue,
		"time_zone":        tz,
		"arrival_buffer":   e.ArrivalBufferTime,
		"departure_buffer": e.DepartureBufferTime,
	}

	out, err := scanEvent(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.Create: %w", err)
	}
	return out, nil
}

func (r *pgEventRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = @id`

	out, err := scanEvent(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.GetByID: %w", err)
	}
	return out, nil
}

func (r *pgEventRepo) MarkFlightListExported(ctx context.Context, id uuid.UUID, at time.Time) (domain.Event, error) {
	q := `
		UPDATE events
		SET flight_list_exported = true,
		    flight_list_exported_at = @at
		WHERE id = @id
		RETURNING ` + eventColumns

	out, err := scanEvent(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "at": at}))
	if err != nil {
		return domain.Event{}, fmt.Errorf("repo.EventRepo.MarkFlightListExported: %w", err)
	}
	return out, nil
}

func scanEvent(s scanner) (domain.Event, error) {
	var (
		e          domain.Event
		id         pgtype.UUID
		arrival    pgtype.Text
		departure  pgtype.Text
		exportedAt pgtype.Timestamptz
	)
	err := s.Scan(&id, &e.Name, &e.Venue, &e.TimeZone, &arrival, &departure,
		&e.FlightListExported, &exportedAt)
	if err != nil {
		return domain.Event{}, notFound(err)
	}

	e.ID = uuid.UUID(id.Bytes)
	e.ArrivalBufferTime = arrival.String
	e.DepartureBufferTime = departure.String
	e.FlightListExportedAt = timePtr(exportedAt)
	return e, nil
}
