package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// RepresentativeRepo stores on-site location representatives.
type RepresentativeRepo interface {
	Create(ctx context.Context, rep domain.LocationRepresentative) (domain.LocationRepresentative, error)
	GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.LocationRepresentative, error)
	List(ctx context.Context, eventID uuid.UUID) ([]domain.LocationRepresentative, error)
}

type pgRepresentativeRepo struct {
	db db
}

// NewRepresentativeRepo constructs a RepresentativeRepo backed by the provided db connection.
func NewRepresentativeRepo(db db) RepresentativeRepo {
	return &pgRepresentativeRepo{db: db}
}

const representativeColumns = `id, event_id, name, phone, location, created_at`

func (r *pgRepresentativeRepo) Create(ctx context.Context, rep domain.LocationRepresentative) (domain.LocationRepresentative, error) {
	q := `
		INSERT INTO location_representatives (event_id, name, phone, location)
		VALUES (@event_id, @name, @phone, @location)
		RETURNING ` + representativeColumns

	args := pgx.NamedArgs{
		"event_id": rep.EventID,
		"name":     rep.Name,
		"phone":    rep.Phone,
		"location": rep.Location,
	}
	out, err := scanRepresentative(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.LocationRepresentative{}, fmt.Errorf("repo.RepresentativeRepo.Create: %w", err)
	}
	return out, nil
}

func (r *pgRepresentativeRepo) GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.LocationRepresentative, error) {
	q := `SELECT ` + representativeColumns + ` FROM location_representatives WHERE id = @id AND event_id = @event_id`

	out, err := scanRepresentative(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "event_id": eventID}))
	if err != nil {
		return domain.LocationRepresentative{}, fmt.Errorf("repo.RepresentativeRepo.GetByID: %w", err)
	}
	return out, nil
}

func (r *pgRepresentativeRepo) List(ctx context.Context, eventID uuid.UUID) ([]domain.LocationRepresentative, error) {
	q := `SELECT ` + representativeColumns + ` FROM location_representatives WHERE event_id = @event_id ORDER BY location, name`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"event_id": eventID})
	if err != nil {
		return nil, fmt.Errorf("repo.RepresentativeRepo.List: %w", err)
	}
	return collect(rows, "repo.RepresentativeRepo.List", scanRepresentative)
}

func scanRepresentative(s scanner) (domain.LocationRepresentative, error) {
	var (
		rep         domain.LocationRepresentative
		id, eventID pgtype.UUID
	)
	if err := s.Scan(&id, &eventID, &rep.Name, &rep.Phone, &rep.Location, &rep.CreatedAt); err != nil {
		return domain.LocationRepresentative{}, notFound(err)
	}
	rep.ID = uuid.UUID(id.Bytes)
	rep.EventID = uuid.UUID(eventID.Bytes)
	return rep, nil
}
