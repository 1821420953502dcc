package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// VendorRepo defines the persistence operations for transport vendors.
type VendorRepo interface {
	Create(ctx context.Context, v domain.Vendor) (domain.Vendor, error)
	GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.Vendor, error)
	List(ctx context.Context, eventID uuid.UUID) ([]domain.Vendor, error)
}

type pgVendorRepo struct {
	db db
}

// NewVendorRepo constructs a VendorRepo backed by the provided db connection.
func NewVendorRepo(db db) VendorRepo {
	return &pgVendorRepo{db: db}
}

const vendorColumns = `id, event_id, name, contact_name, phone, email, created_at`

func (r *pgVendorRepo) Create(ctx context.Context, v domain.Vendor) (domain.Vendor, error) {
	q := `
		INSERT INTO vendors (event_id, name, contact_name, phone, email)
		VALUES (@event_id, @name, @contact_name, @phone, @email)
		RETURNING ` + vendorColumns

	args := pgx.NamedArgs{
		"event_id":     v.EventID,
		"name":         v.Name,
		"contact_name": v.ContactName,
		"phone":        v.Phone,
		"email":        v.Email,
	}
	out, err := scanVendor(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("repo.VendorRepo.Create: %w", err)
	}
	return out, nil
}

func (r *pgVendorRepo) GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.Vendor, error) {
	q := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = @id AND event_id = @event_id`

	out, err := scanVendor(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "event_id": eventID}))
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("repo.VendorRepo.GetByID: %w", err)
	}
	return out, nil
}

func (r *pgVendorRepo) List(ctx context.Context, eventID uuid.UUID) ([]domain.Vendor, error) {
	q := `SELECT ` + vendorColumns + ` FROM vendors WHERE event_id = @event_id ORDER BY name, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"event_id": eventID})
	if err != nil {
		return nil, fmt.Errorf("repo.VendorRepo.List: %w", err)
	}
	return collect(rows, "repo.VendorRepo.List", scanVendor)
}

func scanVendor(s scanner) (domain.Vendor, error) {
	var (
		v           domain.Vendor
		id, eventID pgtype.UUID
	)
	if err := s.Scan(&id, &eventID, &v.Name, &v.ContactName, &v.Phone, &v.Email, &v.CreatedAt); err != nil {
		return domain.Vendor{}, notFound(err)
	}
	v.ID = uuid.UUID(id.Bytes)
	v.EventID = uuid.UUID(eventID.Bytes)
	return v, nil
}
