package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/metrics"
	"github.com/pkordes/wedding-transport/internal/planner"
	"github.com/pkordes/wedding-transport/internal/repo"
)

// TransportService builds transport groups from travel records and drives
// them through the pickup lifecycle.
type TransportService struct {
	tx      repo.Transactor
	repos   repo.Repos
	log     *slog.Logger
	metrics *metrics.Metrics
	now     clock
}

// NewTransportService constructs a TransportService. repos serves reads that
// need no transaction; every write goes through tx.
func NewTransportService(tx repo.Transactor, repos repo.Repos, log *slog.Logger, m *metrics.Metrics) *TransportService {
	return &TransportService{tx: tx, repos: repos, log: log, metrics: m, now: time.Now}
}

// Regenerate rebuilds the automatic transport groups of one event and
// direction from the current travel records.
//
// Everything happens in one serializable transaction holding the event lock:
// old auto groups are removed and their vehicles released, then records are
// clustered and matched against the available fleet. Guests in manual groups
// and in groups already under way are left where they are. On any error
// nothing is changed.
func (s *TransportService) Regenerate(ctx context.Context, eventID uuid.UUID, dir domain.Direction) (res domain.RegenerationResult, err error) {
	ctx, span := startSpan(ctx, "TransportService.Regenerate",
		attribute.String("event.id", eventID.String()),
		attribute.String("transport.direction", string(dir)))
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, domain.ErrConcurrentRegeneration):
			outcome = "conflict"
		case err != nil:
			outcome = "error"
		}
		s.metrics.Regenerations.WithLabelValues(string(dir), outcome).Inc()
		s.metrics.RegenerationDuration.Observe(time.Since(start).Seconds())
		endSpan(span, err)
	}()

	err = s.tx.WithinEventLock(ctx, eventID, func(r repo.Repos) error {
		var txErr error
		res, txErr = s.regenerate(ctx, r, eventID, dir)
		return txErr
	})
	if err != nil {
		return domain.RegenerationResult{}, fmt.Errorf("service.TransportService.Regenerate: %w", err)
	}

	s.metrics.GroupsCreated.Add(float64(res.GroupsCreated))
	s.metrics.UnassignedGroups.Add(float64(res.UnassignedGroups))
	if res.UnassignedGroups > 0 {
		s.log.WarnContext(ctx, "transport groups left without vehicle",
			"event_id", eventID, "direction", dir, "count", res.UnassignedGroups)
	}
	return res, nil
}

func (s *TransportService) regenerate(ctx context.Context, r repo.Repos, eventID uuid.UUID, dir domain.Direction) (domain.RegenerationResult, error) {
	event, err := r.Events.GetByID(ctx, eventID)
	if err != nil {
		return domain.RegenerationResult{}, err
	}

	buffer, err := planner.BufferMinutes(event.BufferTime(dir), dir)
	if err != nil {
		s.log.WarnContext(ctx, "invalid buffer time, using default",
			"event_id", eventID, "direction", dir, "error", err, "buffer_minutes", buffer)
	}

	released, err := r.Groups.DeleteAutoGenerated(ctx, eventID, dir)
	if err != nil {
		return domain.RegenerationResult{}, err
	}
	if err := r.Vehicles.Release(ctx, released); err != nil {
		return domain.RegenerationResult{}, err
	}

	preservedIDs, err := r.Groups.PreservedGuestIDs(ctx, eventID, dir)
	if err != nil {
		return domain.RegenerationResult{}, err
	}
	preserved := make(map[uuid.UUID]bool, len(preservedIDs))
	for _, id := range preservedIDs {
		preserved[id] = true
	}

	records, err := r.Travel.ListByEvent(ctx, eventID)
	if err != nil {
		return domain.RegenerationResult{}, err
	}
	candidates := make([]domain.TravelRecord, 0, len(records))
	guestIDs := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		if !rec.Groupable() || preserved[rec.GuestID] {
			continue
		}
		candidates = append(candidates, rec)
		guestIDs = append(guestIDs, rec.GuestID)
	}

	guests, err := r.Guests.ListByIDs(ctx, eventID, guestIDs)
	if err != nil {
		return domain.RegenerationResult{}, err
	}
	seats := make(map[uuid.UUID]int, len(guests))
	for _, g := range guests {
		seats[g.ID] = g.SeatDemand()
	}

	byGuest := make(map[uuid.UUID]domain.TravelRecord, len(candidates))
	members := make([]planner.Member, 0, len(candidates))
	for _, rec := range candidates {
		demand, ok := seats[rec.GuestID]
		if !ok {
			continue
		}
		byGuest[rec.GuestID] = rec
		members = append(members, planner.Member{GuestID: rec.GuestID, At: rec.ScheduledAt(dir), SeatDemand: demand})
	}

	windows, ungroupable := planner.GroupArrivals(members, buffer)

	fleet, err := r.Vehicles.ListAvailable(ctx, eventID)
	if err != nil {
		return domain.RegenerationResult{}, err
	}
	pool := make([]planner.Vehicle, len(fleet))
	for i, v := range fleet {
		pool[i] = planner.Vehicle{ID: v.ID, Capacity: v.Capacity}
	}

	res := domain.RegenerationResult{
		TotalGuestsProcessed: len(members),
		UngroupableCount:     len(ungroupable),
	}
	for _, a := range planner.MatchVehicles(windows, pool) {
		group, allocs := buildGroup(event, dir, a, byGuest)
		if a.VehicleID != nil {
			ok, err := r.Vehicles.CompareAndSetStatus(ctx, *a.VehicleID, domain.VehicleAvailable, domain.VehicleAssigned)
			if err != nil {
				return domain.RegenerationResult{}, err
			}
			if !ok {
				return domain.RegenerationResult{}, fmt.Errorf("vehicle %s taken during regeneration: %w", *a.VehicleID, domain.ErrConcurrentRegeneration)
			}
		} else {
			res.UnassignedGroups++
		}
		if _, err := r.Groups.Create(ctx, group, allocs); err != nil {
			return domain.RegenerationResult{}, err
		}
		res.GroupsCreated++
	}
	return res, nil
}

// buildGroup turns a planned assignment into a group and its allocations.
// Arrivals are picked up at the members' arrival point and dropped at the
// venue; departures run the other way.
func buildGroup(event domain.Event, dir domain.Direction, a planner.Assignment, byGuest map[uuid.UUID]domain.TravelRecord) (domain.TransportGroup, []domain.TransportAllocation) {
	var hub string
	allocs := make([]domain.TransportAllocation, 0, len(a.Window.Members))
	for _, m := range a.Window.Members {
		rec := byGuest[m.GuestID]
		if hub == "" {
			hub = rec.Destination
		}
		allocs = append(allocs, domain.TransportAllocation{
			GuestID:    m.GuestID,
			SeatDemand: m.SeatDemand,
			Confirmed:  rec.Status == domain.TravelStatusConfirmed,
		})
	}

	g := domain.TransportGroup{
		EventID:          event.ID,
		Direction:        dir,
		Source:           domain.SourceAuto,
		PickupLocation:   hub,
		DropoffLocation:  event.Venue,
		PickupTime:       a.Window.Start,
		WindowEnd:        a.Window.End,
		VehicleID:        a.VehicleID,
		Status:           domain.GroupPending,
		TotalGuests:      a.Window.Seats(),
		NeedsSplit:       a.NeedsSplit,
		UnassignedReason: a.Reason,
	}
	if dir == domain.DirectionDeparture {
		g.PickupLocation, g.DropoffLocation = event.Venue, hub
	}
	if a.VehicleID != nil {
		g.Status = domain.GroupAssigned
	}
	return g, allocs
}

// ListGroups returns the event's groups. A nil direction lists both.
func (s *TransportService) ListGroups(ctx context.Context, eventID uuid.UUID, dir *domain.Direction) ([]domain.TransportGroup, error) {
	if _, err := s.repos.Events.GetByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("service.TransportService.ListGroups: %w", err)
	}
	groups, err := s.repos.Groups.ListByEvent(ctx, eventID, dir)
	if err != nil {
		return nil, fmt.Errorf("service.TransportService.ListGroups: %w", err)
	}
	return groups, nil
}

// GetGroup returns a group with its allocations.
func (s *TransportService) GetGroup(ctx context.Context, eventID, groupID uuid.UUID) (domain.GroupDetail, error) {
	g, err := s.repos.Groups.GetByID(ctx, eventID, groupID)
	if err != nil {
		return domain.GroupDetail{}, fmt.Errorf("service.TransportService.GetGroup: %w", err)
	}
	allocs, err := s.repos.Groups.ListAllocations(ctx, groupID)
	if err != nil {
		return domain.GroupDetail{}, fmt.Errorf("service.TransportService.GetGroup: %w", err)
	}
	return domain.GroupDetail{Group: g, Allocations: allocs}, nil
}

// UpdateStatus moves a group to a new lifecycle status and keeps its vehicle
// in step: in_transit marks the vehicle in transit, pending and completed
// return it to the fleet.
func (s *TransportService) UpdateStatus(ctx context.Context, eventID, groupID uuid.UUID, to domain.GroupStatus) (domain.TransportGroup, error) {
	var out domain.TransportGroup
	err := s.tx.WithinTx(ctx, func(r repo.Repos) error {
		g, err := r.Groups.LockForUpdate(ctx, eventID, groupID)
		if err != nil {
			return err
		}
		out, err = s.transition(ctx, r, g, to)
		return err
	})
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("service.TransportService.UpdateStatus: %w", err)
	}
	return out, nil
}

// UnassignVehicle takes the vehicle off an assigned group and returns the
// group to pending. Used when a vendor cancels.
func (s *TransportService) UnassignVehicle(ctx context.Context, eventID, groupID uuid.UUID) (domain.TransportGroup, error) {
	g, err := s.UpdateStatus(ctx, eventID, groupID, domain.GroupPending)
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("service.TransportService.UnassignVehicle: %w", err)
	}
	return g, nil
}

func (s *TransportService) transition(ctx context.Context, r repo.Repos, g domain.TransportGroup, to domain.GroupStatus) (domain.TransportGroup, error) {
	if !domain.CanTransition(g.Status, to) {
		return domain.TransportGroup{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, g.Status, to)
	}

	switch to {
	case domain.GroupAssigned:
		if g.VehicleID == nil {
			return domain.TransportGroup{}, validationf("group has no vehicle; assign one first")
		}
	case domain.GroupPending:
		if g.VehicleID != nil {
			if _, err := r.Vehicles.SetStatus(ctx, *g.VehicleID, domain.VehicleAvailable); err != nil {
				return domain.TransportGroup{}, err
			}
		}
		g.VehicleID = nil
		g.UnassignedReason = domain.ReasonUnassigned
	case domain.GroupInTransit:
		if g.VehicleID != nil {
			if _, err := r.Vehicles.SetStatus(ctx, *g.VehicleID, domain.VehicleInTransit); err != nil {
				return domain.TransportGroup{}, err
			}
		}
	case domain.GroupCompleted:
		if g.GuestsPickedUp < g.TotalGuests {
			return domain.TransportGroup{}, fmt.Errorf("%w: %d of %d guests picked up",
				domain.ErrInvalidTransition, g.GuestsPickedUp, g.TotalGuests)
		}
		if g.VehicleID != nil {
			if _, err := r.Vehicles.SetStatus(ctx, *g.VehicleID, domain.VehicleAvailable); err != nil {
				return domain.TransportGroup{}, err
			}
		}
	}

	g.Status = to
	updated, err := r.Groups.Update(ctx, g)
	if err != nil {
		return domain.TransportGroup{}, err
	}
	s.metrics.GroupTransitions.WithLabelValues(string(to)).Inc()
	return updated, nil
}

// AssignVehicle puts a vehicle on a group by hand.
//
// The group and vehicle rows are locked and the vehicle is taken with a
// compare-and-swap on its status, so two concurrent assignments of the same
// vehicle cannot both succeed and a concurrent capacity change cannot slip
// in between the seat check and the assignment. A vehicle already on another group yields
// domain.ErrVehicleUnavailable and changes nothing. A vehicle previously on
// this group goes back to the fleet.
func (s *TransportService) AssignVehicle(ctx context.Context, eventID, vehicleID, groupID uuid.UUID) (out domain.TransportGroup, err error) {
	ctx, span := startSpan(ctx, "TransportService.AssignVehicle",
		attribute.String("event.id", eventID.String()),
		attribute.String("vehicle.id", vehicleID.String()),
		attribute.String("transport_group.id", groupID.String()))
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, domain.ErrCapacityExceeded):
			outcome = "capacity_exceeded"
		case errors.Is(err, domain.ErrVehicleUnavailable):
			outcome = "unavailable"
		case err != nil:
			outcome = "error"
		}
		s.metrics.VehicleAssignments.WithLabelValues(outcome).Inc()
		endSpan(span, err)
	}()

	err = s.tx.WithinTx(ctx, func(r repo.Repos) error {
		g, err := r.Groups.LockForUpdate(ctx, eventID, groupID)
		if err != nil {
			return err
		}
		v, err := r.Vehicles.LockForUpdate(ctx, eventID, vehicleID)
		if err != nil {
			return err
		}
		if g.VehicleID != nil && *g.VehicleID == vehicleID {
			out = g
			return nil
		}
		if g.Status != domain.GroupPending && g.Status != domain.GroupAssigned {
			return fmt.Errorf("%w: cannot change vehicle of a %s group", domain.ErrInvalidTransition, g.Status)
		}
		if g.TotalGuests > v.Capacity {
			return &domain.CapacityExceededError{GroupSeats: g.TotalGuests, VehicleCapacity: v.Capacity}
		}

		ok, err := r.Vehicles.CompareAndSetStatus(ctx, v.ID, domain.VehicleAvailable, domain.VehicleAssigned)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: vehicle is %s", domain.ErrVehicleUnavailable, v.Status)
		}
		if g.VehicleID != nil {
			if _, err := r.Vehicles.SetStatus(ctx, *g.VehicleID, domain.VehicleAvailable); err != nil {
				return err
			}
		}

		id := v.ID
		g.VehicleID = &id
		g.Status = domain.GroupAssigned
		g.UnassignedReason = ""
		out, err = r.Groups.Update(ctx, g)
		return err
	})
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("service.TransportService.AssignVehicle: %w", err)
	}
	return out, nil
}

// ConfirmPickup records that a guest's party boarded. The count grows by the
// party's seats once per guest; when everyone is aboard the group completes
// and its vehicle returns to the fleet.
func (s *TransportService) ConfirmPickup(ctx context.Context, eventID, groupID, guestID uuid.UUID) (domain.TransportGroup, error) {
	var out domain.TransportGroup
	err := s.tx.WithinTx(ctx, func(r repo.Repos) error {
		g, err := r.Groups.LockForUpdate(ctx, eventID, groupID)
		if err != nil {
			return err
		}
		if g.Status != domain.GroupAssigned && g.Status != domain.GroupInTransit {
			return fmt.Errorf("%w: pickups are not accepted for a %s group", domain.ErrInvalidTransition, g.Status)
		}

		alloc, changed, err := r.Groups.MarkPickedUp(ctx, groupID, guestID)
		if err != nil {
			return err
		}
		if !changed {
			out = g
			return nil
		}

		g.GuestsPickedUp += alloc.SeatDemand
		if g.GuestsPickedUp >= g.TotalGuests {
			g.GuestsPickedUp = g.TotalGuests
			out, err = s.transition(ctx, r, g, domain.GroupCompleted)
			return err
		}
		out, err = r.Groups.Update(ctx, g)
		return err
	})
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("service.TransportService.ConfirmPickup: %w", err)
	}
	return out, nil
}

// ManualGroupInput describes a group built by a coordinator.
type ManualGroupInput struct {
	Direction        domain.Direction
	GuestIDs         []uuid.UUID
	PickupLocation   string
	DropoffLocation  string
	PickupTime       time.Time
	VehicleID        *uuid.UUID
	RepresentativeID *uuid.UUID
}

// CreateManualGroup creates a group with explicit guests. Manual groups
// survive regeneration. Guests already allocated in the same direction are
// rejected with domain.ErrConflict.
func (s *TransportService) CreateManualGroup(ctx context.Context, eventID uuid.UUID, in ManualGroupInput) (domain.GroupDetail, error) {
	if len(in.GuestIDs) == 0 {
		return domain.GroupDetail{}, fmt.Errorf("service.TransportService.CreateManualGroup: %w", validationf("at least one guest is required"))
	}
	if in.PickupTime.IsZero() {
		return domain.GroupDetail{}, fmt.Errorf("service.TransportService.CreateManualGroup: %w", validationf("pickup time is required"))
	}
	if in.Direction == "" {
		in.Direction = domain.DirectionArrival
	}

	var out domain.GroupDetail
	err := s.tx.WithinTx(ctx, func(r repo.Repos) error {
		event, err := r.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}

		unique := dedupe(in.GuestIDs)
		guests, err := r.Guests.ListByIDs(ctx, eventID, unique)
		if err != nil {
			return err
		}
		if len(guests) != len(unique) {
			return validationf("one or more guests do not belong to this event")
		}

		seats := 0
		allocs := make([]domain.TransportAllocation, 0, len(guests))
		for _, g := range guests {
			_, err := r.Groups.FindByGuest(ctx, eventID, g.ID, in.Direction)
			if err == nil {
				return fmt.Errorf("%w: guest %s already has a %s group", domain.ErrConflict, g.Name, in.Direction)
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			seats += g.SeatDemand()
			allocs = append(allocs, domain.TransportAllocation{GuestID: g.ID, SeatDemand: g.SeatDemand()})
		}

		group := domain.TransportGroup{
			EventID:         eventID,
			Direction:       in.Direction,
			Source:          domain.SourceManual,
			PickupLocation:  in.PickupLocation,
			DropoffLocation: in.DropoffLocation,
			PickupTime:      in.PickupTime,
			WindowEnd:       in.PickupTime,
			Status:          domain.GroupPending,
			TotalGuests:     seats,
		}
		if group.DropoffLocation == "" && in.Direction == domain.DirectionArrival {
			group.DropoffLocation = event.Venue
		}
		if group.PickupLocation == "" && in.Direction == domain.DirectionDeparture {
			group.PickupLocation = event.Venue
		}

		if in.RepresentativeID != nil {
			if _, err := r.Representatives.GetByID(ctx, eventID, *in.RepresentativeID); err != nil {
				return err
			}
			group.RepresentativeID = in.RepresentativeID
		}

		if in.VehicleID != nil {
			v, err := r.Vehicles.GetByID(ctx, eventID, *in.VehicleID)
			if err != nil {
				return err
			}
			if seats > v.Capacity {
				return &domain.CapacityExceededError{GroupSeats: seats, VehicleCapacity: v.Capacity}
			}
			ok, err := r.Vehicles.CompareAndSetStatus(ctx, v.ID, domain.VehicleAvailable, domain.VehicleAssigned)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: vehicle is %s", domain.ErrVehicleUnavailable, v.Status)
			}
			group.VehicleID = in.VehicleID
			group.Status = domain.GroupAssigned
		} else {
			group.UnassignedReason = domain.ReasonNoVehicle
		}

		out, err = r.Groups.Create(ctx, group, allocs)
		return err
	})
	if err != nil {
		return domain.GroupDetail{}, fmt.Errorf("service.TransportService.CreateManualGroup: %w", err)
	}
	s.metrics.GroupsCreated.Inc()
	return out, nil
}

// AttachRepresentative sets or clears (repID nil) the on-site contact of a group.
func (s *TransportService) AttachRepresentative(ctx context.Context, eventID, groupID uuid.UUID, repID *uuid.UUID) (domain.TransportGroup, error) {
	var out domain.TransportGroup
	err := s.tx.WithinTx(ctx, func(r repo.Repos) error {
		g, err := r.Groups.LockForUpdate(ctx, eventID, groupID)
		if err != nil {
			return err
		}
		if repID != nil {
			if _, err := r.Representatives.GetByID(ctx, eventID, *repID); err != nil {
				return err
			}
		}
		g.RepresentativeID = repID
		out, err = r.Groups.Update(ctx, g)
		return err
	})
	if err != nil {
		return domain.TransportGroup{}, fmt.Errorf("service.TransportService.AttachRepresentative: %w", err)
	}
	return out, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
