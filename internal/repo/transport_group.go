package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// TransportGroupRepo persists transport groups and their allocations.
// Multi-statement methods must run inside a Transactor.
type TransportGroupRepo interface {
	// Create inserts the group and one allocation per entry in allocs.
	// Allocation GroupID, EventID and Direction are taken from the group.
	Create(ctx context.Context, g domain.TransportGroup, allocs []domain.TransportAllocation) (domain.GroupDetail, error)

	GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.TransportGroup, error)

	// LockForUpdate reads the group with SELECT ... FOR UPDATE.
	LockForUpdate(ctx context.Context, eventID, id uuid.UUID) (domain.TransportGroup, error)

	// ListByEvent returns groups ordered by pickup time. A nil direction
	// returns both directions.
	ListByEvent(ctx context.Context, eventID uuid.UUID, dir *domain.Direction) ([]domain.TransportGroup, error)

	ListAllocations(ctx context.Context, groupID uuid.UUID) ([]domain.TransportAllocation, error)

	// FindByGuest returns the group holding the guest's allocation in dir.
	FindByGuest(ctx context.Context, eventID, guestID uuid.UUID, dir domain.Direction) (domain.TransportGroup, error)

	// FindByVehicle returns the non-completed group carrying the vehicle.
	FindByVehicle(ctx context.Context, vehicleID uuid.UUID) (domain.TransportGroup, error)

	// PreservedGuestIDs lists guests whose allocation in dir survives
	// regeneration: members of manual groups and of groups already in transit
	// or completed.
	PreservedGuestIDs(ctx context.Context, eventID uuid.UUID, dir domain.Direction) ([]uuid.UUID, error)

	// DeleteAutoGenerated removes the pending and assigned auto groups of
	// (eventID, dir) and their allocations and returns the vehicles they held.
	DeleteAutoGenerated(ctx context.Context, eventID uuid.UUID, dir domain.Direction) (vehicleIDs []uuid.UUID, err error)

	// Update overwrites the mutable lifecycle fields of g.
	Update(ctx context.Context, g domain.TransportGroup) (domain.TransportGroup, error)

	// MarkPickedUp flags the guest's allocation in groupID. changed is false
	// when the allocation was already picked up.
	MarkPickedUp(ctx context.Context, groupID, guestID uuid.UUID) (alloc domain.TransportAllocation, changed bool, err error)
}

type pgTransportGroupRepo struct {
	db db
}

// NewTransportGroupRepo constructs a TransportGroupRepo backed by the provided db connection.
func NewTransportGroupRepo(db db) TransportGroupRepo {
	return &pgTransportGroupRepo{db: db}
}

const groupColumns = `id, event_id, direction, source, pickup_location, pickup_time, window_end,
	dropoff_location, vehicle_id, representative_id, status, guests_picked_up, total_guests,
	needs_split, unassigned_reason, created_at, updated_at`

const allocationColumns = `id, group_id, event_id, guest_id, direction, seat_demand, confirmed, picked_up`

func (r *pgTransportGroupRepo) Create(ctx context.Context, g domain.TransportGroup, allocs []domain.TransportAllocation) (domain.GroupDetail, error) {
	q := `
		INSERT INTO transport_groups (event_id, direction, source, pickup_location, pickup_time,
		    window_end, dropoff_location, vehicle_id, representative_id, status, guests_picked_up,
		    total_guests, needs_split, unassigned_reason)
		VALUES (@event_id, @direction, @source, @pickup_location, @pickup_time, @window_end,
		    @dropoff_location, @vehicle_id, @representative_id, @status, @picked_up, @total,
		    @needs_split, @reason)
		RETURNING ` + groupColumns

	status := g.Status
	if status == "" {
		status = domain.GroupPending
	}
	source := g.Source
	if source == "" {
		source = domain.SourceAuto
	}
	args := pgx.NamedArgs{
		"event_id":          g.EventID,
		"direction":         string(g.Direction),
		"source":            string(source),
		"pickup_location":   g.PickupLocation,
		"pickup_time":       g.PickupTime,
		"window_end":        g.WindowEnd,
		"dropoff_location":  g.DropoffLocation,
		"vehicle_id":        g.VehicleID,
		"representative_id": g.RepresentativeID,
		"status":            string(status),
		"picked_up":         g.GuestsPickedUp,
		"total":             g.TotalGuests,
		"needs_split":       g.NeedsSplit,
		"reason":            g.UnassignedReason,
	}

	created, err := scanGroup(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.GroupDetail{}, fmt.Errorf("repo.TransportGroupRepo.Create: %w", err)
	}

	aq := `
		INSERT INTO transport_allocations (group_id, event_id, guest_id, direction, seat_demand, confirmed)
		VALUES (@group_id, @event_id, @guest_id, @direction, @seat_demand, @confirmed)
		RETURNING ` + allocationColumns

	detail := domain.GroupDetail{Group: created, Allocations: make([]domain.TransportAllocation, 0, len(allocs))}
	for _, a := range allocs {
		aargs := pgx.NamedArgs{
			"group_id":    created.ID,
			"event_id":    created.EventID,
			"guest_id":    a.GuestID,
			"direction":   string(created.Direction),
			"seat_demand": a.SeatDemand,
			"confirmed":   a.Confirmed,
		}
		alloc, err := scanAllocation(r.db.QueryRow(ctx, aq, aargs))
		if err != nil {
			return domain.GroupDetail{}, fmt.Errorf("repo.TransportGroupRepo.Create: allocation: %w", err)
		}
		detail.Allocations = append(detail.Allocations, alloc)
	}
	return detail, nil
}

func (r *pgTransportGroupRepo) GetByID(ctx context.Context, eventID, id uuid.UUID) (domain.TransportGroup, error) {
	q := `SELECT ` + groupColumns + ` FROM transport_groups WHERE id = @id AND event_id = @event_id`

	out, err := scanGroup(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "event_id": eventID}))
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("repo.TransportGroupRepo.GetByID: %w", err)
	}
	return out, nil
}

func (r *pgTransportGroupRepo) LockForUpdate(ctx context.Context, eventID, id uuid.UUID) (domain.TransportGroup, error) {
	q := `SELECT ` + groupColumns + ` FROM transport_groups WHERE id = @id AND event_id = @event_id FOR UPDATE`

	out, err := scanGroup(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "event_id": eventID}))
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("repo.TransportGroupRepo.LockForUpdate: %w", err)
	}
	return out, nil
}

func (r *pgTransportGroupRepo) ListByEvent(ctx context.Context, eventID uuid.UUID, dir *domain.Direction) ([]domain.TransportGroup, error) {
	q := `
		SELECT ` + groupColumns + `
		FROM transport_groups
		WHERE event_id = @event_id
		  AND (@direction::text IS NULL OR direction = @direction::text)
		ORDER BY pickup_time, id`

	var direction *string
	if dir != nil {
		d := string(*dir)
		direction = &d
	}
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"event_id": eventID, "direction": direction})
	if err != nil {
		return nil, fmt.Errorf("repo.TransportGroupRepo.ListByEvent: %w", err)
	}
	return collect(rows, "repo.TransportGroupRepo.ListByEvent", scanGroup)
}

func (r *pgTransportGroupRepo) ListAllocations(ctx context.Context, groupID uuid.UUID) ([]domain.TransportAllocation, error) {
	q := `SELECT ` + allocationColumns + ` FROM transport_allocations WHERE group_id = @group_id ORDER BY guest_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"group_id": groupID})
	if err != nil {
		return nil, fmt.Errorf("repo.TransportGroupRepo.ListAllocations: %w", err)
	}
	return collect(rows, "repo.TransportGroupRepo.ListAllocations", scanAllocation)
}

func (r *pgTransportGroupRepo) FindByGuest(ctx context.Context, eventID, guestID uuid.UUID, dir domain.Direction) (domain.TransportGroup, error) {
	q := `
		SELECT ` + prefixed("g", groupColumns) + `
		FROM transport_groups g
		JOIN transport_allocations a ON a.group_id = g.id
		WHERE a.event_id = @event_id AND a.guest_id = @guest_id AND a.direction = @direction`

	args := pgx.NamedArgs{"event_id": eventID, "guest_id": guestID, "direction": string(dir)}
	out, err := scanGroup(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("repo.TransportGroupRepo.FindByGuest: %w", err)
	}
	return out, nil
}

func (r *pgTransportGroupRepo) FindByVehicle(ctx context.Context, vehicleID uuid.UUID) (domain.TransportGroup, error) {
	q := `
		SELECT ` + groupColumns + `
		FROM transport_groups
		WHERE vehicle_id = @vehicle_id AND status <> 'completed'
		ORDER BY pickup_time
		LIMIT 1`

	out, err := scanGroup(r.db.QueryRow(ctx, q, pgx.NamedArgs{"vehicle_id": vehicleID}))
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("repo.TransportGroupRepo.FindByVehicle: %w", err)
	}
	return out, nil
}

func (r *pgTransportGroupRepo) PreservedGuestIDs(ctx context.Context, eventID uuid.UUID, dir domain.Direction) ([]uuid.UUID, error) {
	const q = `
		SELECT a.guest_id
		FROM transport_allocations a
		JOIN transport_groups g ON g.id = a.group_id
		WHERE g.event_id = @event_id AND g.direction = @direction
		  AND (g.source = 'manual' OR g.status IN ('in_transit', 'completed'))
		ORDER BY a.guest_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"event_id": eventID, "direction": string(dir)})
	if err != nil {
		return nil, fmt.Errorf("repo.TransportGroupRepo.PreservedGuestIDs: %w", err)
	}
	return collect(rows, "repo.TransportGroupRepo.PreservedGuestIDs", scanUUID)
}

func (r *pgTransportGroupRepo) DeleteAutoGenerated(ctx context.Context, eventID uuid.UUID, dir domain.Direction) ([]uuid.UUID, error) {
	const selectQ = `
		SELECT id, vehicle_id
		FROM transport_groups
		WHERE event_id = @event_id AND direction = @direction AND source = 'auto'
		  AND status IN ('pending', 'assigned')
		FOR UPDATE`

	rows, err := r.db.Query(ctx, selectQ, pgx.NamedArgs{"event_id": eventID, "direction": string(dir)})
	if err != nil {
		return nil, fmt.Errorf("repo.TransportGroupRepo.DeleteAutoGenerated: select: %w", err)
	}
	type ref struct {
		id      uuid.UUID
		vehicle *uuid.UUID
	}
	refs, err := collect(rows, "repo.TransportGroupRepo.DeleteAutoGenerated", func(s scanner) (ref, error) {
		var id, vehicle pgtype.UUID
		if err := s.Scan(&id, &vehicle); err != nil {
			return ref{}, err
		}
		return ref{id: uuid.UUID(id.Bytes), vehicle: uuidPtr(vehicle)}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}

	groupIDs := make([]uuid.UUID, 0, len(refs))
	var vehicleIDs []uuid.UUID
	for _, rf := range refs {
		groupIDs = append(groupIDs, rf.id)
		if rf.vehicle != nil {
			vehicleIDs = append(vehicleIDs, *rf.vehicle)
		}
	}

	const delAllocs = `DELETE FROM transport_allocations WHERE group_id = ANY(@ids::uuid[])`
	if _, err := r.db.Exec(ctx, delAllocs, pgx.NamedArgs{"ids": groupIDs}); err != nil {
		return nil, fmt.Errorf("repo.TransportGroupRepo.DeleteAutoGenerated: allocations: %w", err)
	}
	const delGroups = `DELETE FROM transport_groups WHERE id = ANY(@ids::uuid[])`
	if _, err := r.db.Exec(ctx, delGroups, pgx.NamedArgs{"ids": groupIDs}); err != nil {
		return nil, fmt.Errorf("repo.TransportGroupRepo.DeleteAutoGenerated: groups: %w", err)
	}
	return vehicleIDs, nil
}

func (r *pgTransportGroupRepo) Update(ctx context.Context, g domain.TransportGroup) (domain.TransportGroup, error) {
	q := `
		UPDATE transport_groups
		SET vehicle_id        = @vehicle_id,
		    representative_id = @representative_id,
		    status            = @status,
		    guests_picked_up  = @picked_up,
		    needs_split       = @needs_split,
		    unassigned_reason = @reason,
		    updated_at        = now()
		WHERE id = @id AND event_id = @event_id
		RETURNING ` + groupColumns

	args := pgx.NamedArgs{
		"id":                g.ID,
		"event_id":          g.EventID,
		"vehicle_id":        g.VehicleID,
		"representative_id": g.RepresentativeID,
		"status":            string(g.Status),
		"picked_up":         g.GuestsPickedUp,
		"needs_split":       g.NeedsSplit,
		"reason":            g.UnassignedReason,
	}
	out, err := scanGroup(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("repo.TransportGroupRepo.Update: %w", err)
	}
	return out, nil
}

func (r *pgTransportGroupRepo) MarkPickedUp(ctx context.Context, groupID, guestID uuid.UUID) (domain.TransportAllocation, bool, error) {
	q := `
		UPDATE transport_allocations SET picked_up = true
		WHERE group_id = @group_id AND guest_id = @guest_id AND NOT picked_up
		RETURNING ` + allocationColumns

	args := pgx.NamedArgs{"group_id": groupID, "guest_id": guestID}
	alloc, err := scanAllocation(r.db.QueryRow(ctx, q, args))
	if err == nil {
		return alloc, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.TransportAllocation{}, false, fmt.Errorf("repo.TransportGroupRepo.MarkPickedUp: %w", err)
	}

	// Either already picked up or not in this group at all.
	getQ := `SELECT ` + allocationColumns + ` FROM transport_allocations WHERE group_id = @group_id AND guest_id = @guest_id`
	alloc, err = scanAllocation(r.db.QueryRow(ctx, getQ, args))
	if err != nil {
		return domain.TransportAllocation{}, false, fmt.Errorf("repo.TransportGroupRepo.MarkPickedUp: %w", err)
	}
	return alloc, false, nil
}

func scanGroup(s scanner) (domain.TransportGroup, error) {
	var (
		g                 domain.TransportGroup
		id, eventID       pgtype.UUID
		vehicleID, repID  pgtype.UUID
		direction, source string
		status            string
	)
	err := s.Scan(&id, &eventID, &direction, &source, &g.PickupLocation, &g.PickupTime,
		&g.WindowEnd, &g.DropoffLocation, &vehicleID, &repID, &status, &g.GuestsPickedUp,
		&g.TotalGuests, &g.NeedsSplit, &g.UnassignedReason, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return domain.TransportGroup{}, notFound(err)
	}
	g.ID = uuid.UUID(id.Bytes)
	g.EventID = uuid.UUID(eventID.Bytes)
	g.Direction = domain.Direction(direction)
	g.Source = domain.GroupSource(source)
	g.Status = domain.GroupStatus(status)
	g.VehicleID = uuidPtr(vehicleID)
	g.RepresentativeID = uuidPtr(repID)
	return g, nil
}

func scanAllocation(s scanner) (domain.TransportAllocation, error) {
	var (
		a                        domain.TransportAllocation
		id, groupID, eventID, gu pgtype.UUID
		direction                string
	)
	err := s.Scan(&id, &groupID, &eventID, &gu, &direction, &a.SeatDemand, &a.Confirmed, &a.PickedUp)
	if err != nil {
		return domain.TransportAllocation{}, notFound(err)
	}
	a.ID = uuid.UUID(id.Bytes)
	a.GroupID = uuid.UUID(groupID.Bytes)
	a.EventID = uuid.UUID(eventID.Bytes)
	a.GuestID = uuid.UUID(gu.Bytes)
	a.Direction = domain.Direction(direction)
	return a, nil
}

func scanUUID(s scanner) (uuid.UUID, error) {
	var id pgtype.UUID
	if err := s.Scan(&id); err != nil {
		return uuid.UUID{}, err
	}
	return uuid.UUID(id.Bytes), nil
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
