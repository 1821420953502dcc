package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// GuestRepo reads guests. Guests belong to the guest-list subsystem;
// Create exists for seeding and integration tests.
type GuestRepo interface {
	Create(ctx context.Context, g domain.Guest) (domain.Guest, error)
	GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.Guest, error)

	// ListByIDs returns the guests of eventID among ids. Unknown ids are ignored.
	ListByIDs(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]domain.Guest, error)

	// ListNeedingAssistance returns guests who asked for travel help, by name.
	ListNeedingAssistance(ctx context.Context, eventID uuid.UUID) ([]domain.Guest, error)

	// FindByEmail and FindByName match case-insensitively and may return
	// more than one guest.
	FindByEmail(ctx context.Context, eventID uuid.UUID, email string) ([]domain.Guest, error)
	FindByName(ctx context.Context, eventID uuid.UUID, name string) ([]domain.Guest, error)
}

type pgGuestRepo struct {
	db db
}

// NewGuestRepo constructs a GuestRepo backed by the provided db connection.
func NewGuestRepo(db db) GuestRepo {
	return &pgGuestRepo{db: db}
}

const guestColumns = `id, event_id, name, email, phone, needs_flight_assistance, plus_one,
	children_count, accommodation_preference, dietary_restrictions, special_requests`

func (r *pgGuestRepo) Create(ctx context.Context, g domain.Guest) (domain.Guest, error) {
	q := `
		INSERT INTO guests (event_id, name, email, phone, needs_flight_assistance, plus_one,
		                    children_count, accommodation_preference, dietary_restrictions, special_requests)
		VALUES (@event_id, @name, @email, @phone, @needs_assistance, @plus_one,
		        @children, @accommodation, @dietary, @requests)
		RETURNING ` + guestColumns

	args := pgx.NamedArgs{
		"event_id":         g.EventID,
		"name":             g.Name,
		"email":            g.Email,
		"phone":            g.Phone,
		"needs_assistance": g.NeedsFlightAssistance,
		"plus_one":         g.PlusOne,
		"children":         g.ChildrenCount,
		"accommodation":    g.AccommodationPreference,
		"dietary":          g.DietaryRestrictions,
		"requests":         g.SpecialRequests,
	}

	out, err := scanGuest(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Guest{}, fmt.Errorf("repo.GuestRepo.Create: %w", err)
	}
	return out, nil
}

func (r *pgGuestRepo) GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.Guest, error) {
	q := `SELECT ` + guestColumns + ` FROM guests WHERE id = @id AND event_id = @event_id`

	out, err := scanGuest(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "event_id": eventID}))
	if err != nil {
		return domain.Guest{}, fmt.Errorf("repo.GuestRepo.GetByID: %w", err)
	}
	return out, nil
}

func (r *pgGuestRepo) ListByIDs(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]domain.Guest, error) {
	q := `
		SELECT ` + guestColumns + `
		FROM guests
		WHERE event_id = @event_id AND id = ANY(@ids::uuid[])
		ORDER BY name, id`

	return r.list(ctx, "repo.GuestRepo.ListByIDs", q, pgx.NamedArgs{"event_id": eventID, "ids": ids})
}

func (r *pgGuestRepo) ListNeedingAssistance(ctx context.Context, eventID uuid.UUID) ([]domain.Guest, error) {
	q := `
		SELECT ` + guestColumns + `
		FROM guests
		WHERE event_id = @event_id AND needs_flight_assistance
		ORDER BY name, id`

	return r.list(ctx, "repo.GuestRepo.ListNeedingAssistance", q, pgx.NamedArgs{"event_id": eventID})
}

func (r *pgGuestRepo) FindByEmail(ctx context.Context, eventID uuid.UUID, email string) ([]domain.Guest, error) {
	q := `
		SELECT ` + guestColumns + `
		FROM guests
		WHERE event_id = @event_id AND lower(email) = lower(@email)
		ORDER BY id`

	return r.list(ctx, "repo.GuestRepo.FindByEmail", q, pgx.NamedArgs{"event_id": eventID, "email": email})
}

func (r *pgGuestRepo) FindByName(ctx context.Context, eventID uuid.UUID, name string) ([]domain.Guest, error) {
	q := `
		SELECT ` + guestColumns + `
		FROM guests
		WHERE event_id = @event_id AND lower(name) = lower(@name)
		ORDER BY id`

	return r.list(ctx, "repo.GuestRepo.FindByName", q, pgx.NamedArgs{"event_id": eventID, "name": name})
}

func (r *pgGuestRepo) list(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.Guest, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return collect(rows, op, scanGuest)
}

func scanGuest(s scanner) (domain.Guest, error) {
	var (
		g       domain.Guest
		id      pgtype.UUID
		eventID pgtype.UUID
	)
	err := s.Scan(&id, &eventID, &g.Name, &g.Email, &g.Phone, &g.NeedsFlightAssistance,
		&g.PlusOne, &g.ChildrenCount, &g.AccommodationPreference, &g.DietaryRestrictions,
		&g.SpecialRequests)
	if err != nil {
		return domain.Guest{}, notFound(err)
	}
	g.ID = uuid.UUID(id.Bytes)
	g.EventID = uuid.UUID(eventID.Bytes)
	return g, nil
}
