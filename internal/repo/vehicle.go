package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// VehicleRepo defines the persistence operations for the vendor fleet.
type VehicleRepo interface {
	Create(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)

	// GetByID returns domain.ErrNotFound if the vehicle does not belong to eventID.
	GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error)

	// ListPaged returns one page of the event's vehicles ordered by label and
	// the total number of vehicles.
	ListPaged(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) ([]domain.Vehicle, int64, error)

	// ListAvailable returns available vehicles ordered by capacity then id.
	ListAvailable(ctx context.Context, eventID uuid.UUID) ([]domain.Vehicle, error)

	// LockForUpdate reads the vehicle with SELECT ... FOR UPDATE.
	LockForUpdate(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error)

	// Update overwrites descriptive fields. Status is left alone. A capacity
	// below the seats of the group the vehicle carries is refused with a
	// *domain.CapacityExceededError.
	Update(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)

	Delete(ctx context.Context, eventID, id uuid.UUID) error

	SetStatus(ctx context.Context, id uuid.UUID, status domain.VehicleStatus) (domain.Vehicle, error)

	// CompareAndSetStatus moves the vehicle from one status to another only if
	// it is currently in from. ok is false when no row matched.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.VehicleStatus) (ok bool, err error)

	// Release returns the listed vehicles to available unless they are in
	// maintenance.
	Release(ctx context.Context, ids []uuid.UUID) error
}

type pgVehicleRepo struct {
	db db
}

// NewVehicleRepo constructs a VehicleRepo backed by the provided db connection.
func NewVehicleRepo(db db) VehicleRepo {
	return &pgVehicleRepo{db: db}
}

const vehicleColumns = `id, event_id, vendor_id, vehicle_type, label, capacity, status,
	driver_name, driver_phone, created_at, updated_at`

func (r *pgVehicleRepo) Create(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	q := `
		INSERT INTO vehicles (event_id, vendor_id, vehicle_type, label, capacity, status,
		                      driver_name, driver_phone)
		VALUES (@event_id, @vendor_id, @vehicle_type, @label, @capacity, @status,
		        @driver_name, @driver_phone)
		RETURNING ` + vehicleColumns

	status := v.Status
	if status == "" {
		status = domain.VehicleAvailable
	}
	args := pgx.NamedArgs{
		"event_id":     v.EventID,
		"vendor_id":    v.VendorID,
		"vehicle_type": v.VehicleType,
		"label":        v.Label,
		"capacity":     v.Capacity,
		"status":       string(status),
		"driver_name":  v.DriverName,
		"driver_phone": v.DriverPhone,
	}
	out, err := scanVehicle(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.Create: %w", err)
	}
	return out, nil
}

func (r *pgVehicleRepo) GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error) {
	q := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = @id AND event_id = @event_id`

	out, err := scanVehicle(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "event_id": eventID}))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.GetByID: %w", err)
	}
	return out, nil
}

func (r *pgVehicleRepo) LockForUpdate(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error) {
	q := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = @id AND event_id = @event_id FOR UPDATE`

	out, err := scanVehicle(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "event_id": eventID}))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.LockForUpdate: %w", err)
	}
	return out, nil
}

func (r *pgVehicleRepo) ListPaged(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) ([]domain.Vehicle, int64, error) {
	var total int64
	const countQ = `SELECT count(*) FROM vehicles WHERE event_id = @event_id`
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"event_id": eventID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.VehicleRepo.ListPaged: count: %w", err)
	}

	q := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE event_id = @event_id
		ORDER BY label, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"event_id": eventID, "limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.VehicleRepo.ListPaged: %w", err)
	}
	out, err := collect(rows, "repo.VehicleRepo.ListPaged", scanVehicle)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *pgVehicleRepo) ListAvailable(ctx context.Context, eventID uuid.UUID) ([]domain.Vehicle, error) {
	q := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE event_id = @event_id AND status = 'available'
		ORDER BY capacity, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"event_id": eventID})
	if err != nil {
		return nil, fmt.Errorf("repo.VehicleRepo.ListAvailable: %w", err)
	}
	return collect(rows, "repo.VehicleRepo.ListAvailable", scanVehicle)
}

func (r *pgVehicleRepo) Update(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	q := `
		UPDATE vehicles
		SET vendor_id    = @vendor_id,
		    vehicle_type = @vehicle_type,
		    label        = @label,
		    capacity     = @capacity,
		    driver_name  = @driver_name,
		    driver_phone = @driver_phone,
		    updated_at   = now()
		WHERE id = @id AND event_id = @event_id
		  AND @capacity >= (` + carriedSeatsQuery + `)
		RETURNING ` + vehicleColumns

	args := pgx.NamedArgs{
		"id":           v.ID,
		"event_id":     v.EventID,
		"vendor_id":    v.VendorID,
		"vehicle_type": v.VehicleType,
		"label":        v.Label,
		"capacity":     v.Capacity,
		"driver_name":  v.DriverName,
		"driver_phone": v.DriverPhone,
	}
	out, err := scanVehicle(r.db.QueryRow(ctx, q, args))
	if errors.Is(err, domain.ErrNotFound) {
		err = r.explainRefusedUpdate(ctx, v)
	}
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.Update: %w", err)
	}
	return out, nil
}

// carriedSeatsQuery yields the seats of the unfinished group holding vehicle
// @id, or 0 when it carries none.
const carriedSeatsQuery = `
	SELECT COALESCE(MAX(total_guests), 0) FROM transport_groups
	WHERE vehicle_id = @id AND status <> 'completed'`

// explainRefusedUpdate tells a missing vehicle apart from a capacity shrink
// below the group it carries.
func (r *pgVehicleRepo) explainRefusedUpdate(ctx context.Context, v domain.Vehicle) error {
	q := `
		SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = @id AND event_id = @event_id),
		       (` + carriedSeatsQuery + `)`

	var exists bool
	var seats int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": v.ID, "event_id": v.EventID}).Scan(&exists, &seats); err != nil {
		return err
	}
	if !exists || seats <= v.Capacity {
		return domain.ErrNotFound
	}
	return &domain.CapacityExceededError{GroupSeats: seats, VehicleCapacity: v.Capacity}
}

func (r *pgVehicleRepo) Delete(ctx context.Context, eventID, id uuid.UUID) error {
	const q = `DELETE FROM vehicles WHERE id = @id AND event_id = @event_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "event_id": eventID})
	if err != nil {
		return fmt.Errorf("repo.VehicleRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.VehicleRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgVehicleRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.VehicleStatus) (domain.Vehicle, error) {
	q := `
		UPDATE vehicles SET status = @status, updated_at = now()
		WHERE id = @id
		RETURNING ` + vehicleColumns

	out, err := scanVehicle(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "status": string(status)}))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VehicleRepo.SetStatus: %w", err)
	}
	return out, nil
}

func (r *pgVehicleRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.VehicleStatus) (bool, error) {
	const q = `
		UPDATE vehicles SET status = @to, updated_at = now()
		WHERE id = @id AND status = @from`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "from": string(from), "to": string(to)})
	if err != nil {
		return false, fmt.Errorf("repo.VehicleRepo.CompareAndSetStatus: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgVehicleRepo) Release(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `
		UPDATE vehicles SET status = 'available', updated_at = now()
		WHERE id = ANY(@ids::uuid[]) AND status IN ('assigned', 'in_transit')`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"ids": ids}); err != nil {
		return fmt.Errorf("repo.VehicleRepo.Release: %w", err)
	}
	return nil
}

func scanVehicle(s scanner) (domain.Vehicle, error) {
	var (
		v                     domain.Vehicle
		id, eventID, vendorID pgtype.UUID
		status                string
	)
	err := s.Scan(&id, &eventID, &vendorID, &v.VehicleType, &v.Label, &v.Capacity, &status,
		&v.DriverName, &v.DriverPhone, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Vehicle{}, notFound(err)
	}
	v.ID = uuid.UUID(id.Bytes)
	v.EventID = uuid.UUID(eventID.Bytes)
	v.VendorID = uuid.UUID(vendorID.Bytes)
	v.Status = domain.VehicleStatus(status)
	return v, nil
}
