package service_test

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/repo"
)

// ---- in-memory store ---------------------------------------------------------

// store is an in-memory stand-in for the Postgres repos. It implements every
// repository interface plus repo.Transactor; a failed transaction restores
// the snapshot taken when it began.
type store struct {
	mu sync.Mutex
	tx sync.Mutex

	events   map[uuid.UUID]domain.Event
	guests   map[uuid.UUID]domain.Guest
	travel   map[uuid.UUID]domain.TravelRecord // by guest
	vendors  map[uuid.UUID]domain.Vendor
	vehicles map[uuid.UUID]domain.Vehicle
	reps     map[uuid.UUID]domain.LocationRepresentative
	groups   map[uuid.UUID]domain.TransportGroup
	allocs   []domain.TransportAllocation

	// failGroupCreate, when set, is consulted before each group insert with
	// the number of inserts made so far.
	failGroupCreate func(n int) error
	groupCreates    int
}

func newStore() *store {
	return &store{
		events:   map[uuid.UUID]domain.Event{},
		guests:   map[uuid.UUID]domain.Guest{},
		travel:   map[uuid.UUID]domain.TravelRecord{},
		vendors:  map[uuid.UUID]domain.Vendor{},
		vehicles: map[uuid.UUID]domain.Vehicle{},
		reps:     map[uuid.UUID]domain.LocationRepresentative{},
		groups:   map[uuid.UUID]domain.TransportGroup{},
	}
}

type snapshot struct {
	events   map[uuid.UUID]domain.Event
	guests   map[uuid.UUID]domain.Guest
	travel   map[uuid.UUID]domain.TravelRecord
	vendors  map[uuid.UUID]domain.Vendor
	vehicles map[uuid.UUID]domain.Vehicle
	reps     map[uuid.UUID]domain.LocationRepresentative
	groups   map[uuid.UUID]domain.TransportGroup
	allocs   []domain.TransportAllocation
}

func (s *store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		events:   maps.Clone(s.events),
		guests:   maps.Clone(s.guests),
		travel:   maps.Clone(s.travel),
		vendors:  maps.Clone(s.vendors),
		vehicles: maps.Clone(s.vehicles),
		reps:     maps.Clone(s.reps),
		groups:   maps.Clone(s.groups),
		allocs:   slices.Clone(s.allocs),
	}
}

func (s *store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events, s.guests, s.travel = snap.events, snap.guests, snap.travel
	s.vendors, s.vehicles, s.reps = snap.vendors, snap.vehicles, snap.reps
	s.groups, s.allocs = snap.groups, snap.allocs
}

func (s *store) repos() repo.Repos {
	return repo.Repos{
		Events:          fakeEvents{s},
		Guests:          fakeGuests{s},
		Travel:          fakeTravel{s},
		Vendors:         fakeVendors{s},
		Vehicles:        fakeVehicles{s},
		Groups:          fakeGroups{s},
		Representatives: fakeReps{s},
	}
}

func (s *store) WithinTx(_ context.Context, fn func(repo.Repos) error) error {
	s.tx.Lock()
	defer s.tx.Unlock()
	snap := s.snapshot()
	if err := fn(s.repos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *store) WithinEventLock(ctx context.Context, _ uuid.UUID, fn func(repo.Repos) error) error {
	return s.WithinTx(ctx, fn)
}

var _ repo.Transactor = (*store)(nil)

// ---- seeding helpers ---------------------------------------------------------

func (s *store) addEvent(e domain.Event) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.events[e.ID] = e
	return e
}

func (s *store) addGuest(g domain.Guest) domain.Guest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	s.guests[g.ID] = g
	return g
}

func (s *store) addTravel(r domain.TravelRecord) domain.TravelRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.travel[r.GuestID] = r
	return r
}

func (s *store) addVehicle(v domain.Vehicle) domain.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = domain.VehicleAvailable
	}
	s.vehicles[v.ID] = v
	return v
}

func (s *store) vehicle(id uuid.UUID) domain.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicles[id]
}

func (s *store) group(id uuid.UUID) domain.TransportGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups[id]
}

func (s *store) record(guestID uuid.UUID) domain.TravelRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.travel[guestID]
}

// groupsFor returns the event's groups in dir ordered by pickup time.
func (s *store) groupsFor(eventID uuid.UUID, dir domain.Direction) []domain.TransportGroup {
	gs, _ := fakeGroups{s}.ListByEvent(context.Background(), eventID, &dir)
	return gs
}

// members returns the guest ids allocated to a group.
func (s *store) members(groupID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for _, a := range s.allocs {
		if a.GroupID == groupID {
			out = append(out, a.GuestID)
		}
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return out
}

// ---- events --------------------------------------------------------------------

type fakeEvents struct{ s *store }

func (f fakeEvents) Create(_ context.Context, e domain.Event) (domain.Event, error) {
	return f.s.addEvent(e), nil
}

func (f fakeEvents) GetByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return e, nil
}

func (f fakeEvents) MarkFlightListExported(_ context.Context, id uuid.UUID, at time.Time) (domain.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	e.FlightListExported = true
	e.FlightListExportedAt = &at
	f.s.events[id] = e
	return e, nil
}

// ---- guests --------------------------------------------------------------------

type fakeGuests struct{ s *store }

func (f fakeGuests) Create(_ context.Context, g domain.Guest) (domain.Guest, error) {
	return f.s.addGuest(g), nil
}

func (f fakeGuests) GetByID(_ context.Context, eventID, id uuid.UUID) (domain.Guest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	g, ok := f.s.guests[id]
	if !ok || g.EventID != eventID {
		return domain.Guest{}, domain.ErrNotFound
	}
	return g, nil
}

func (f fakeGuests) ListByIDs(_ context.Context, eventID uuid.UUID, ids []uuid.UUID) ([]domain.Guest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Guest{}
	for _, id := range ids {
		if g, ok := f.s.guests[id]; ok && g.EventID == eventID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f fakeGuests) ListNeedingAssistance(_ context.Context, eventID uuid.UUID) ([]domain.Guest, error) {
	return f.filter(eventID, func(g domain.Guest) bool { return g.NeedsFlightAssistance }), nil
}

func (f fakeGuests) FindByEmail(_ context.Context, eventID uuid.UUID, email string) ([]domain.Guest, error) {
	return f.filter(eventID, func(g domain.Guest) bool { return strings.EqualFold(g.Email, email) }), nil
}

func (f fakeGuests) FindByName(_ context.Context, eventID uuid.UUID, name string) ([]domain.Guest, error) {
	return f.filter(eventID, func(g domain.Guest) bool { return strings.EqualFold(g.Name, name) }), nil
}

func (f fakeGuests) filter(eventID uuid.UUID, keep func(domain.Guest) bool) []domain.Guest {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Guest{}
	for _, g := range f.s.guests {
		if g.EventID == eventID && keep(g) {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b domain.Guest) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// ---- travel records --------------------------------------------------------------

type fakeTravel struct{ s *store }

func (f fakeTravel) ListByEvent(_ context.Context, eventID uuid.UUID) ([]domain.TravelRecord, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.TravelRecord{}
	for _, r := range f.s.travel {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.TravelRecord) int { return bytes.Compare(a.GuestID[:], b.GuestID[:]) })
	return out, nil
}

func (f fakeTravel) GetByGuest(_ context.Context, eventID, guestID uuid.UUID) (domain.TravelRecord, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.travel[guestID]
	if !ok || r.EventID != eventID {
		return domain.TravelRecord{}, domain.ErrNotFound
	}
	return r, nil
}

func (f fakeTravel) Upsert(_ context.Context, rec domain.TravelRecord) (domain.TravelRecord, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	existing, ok := f.s.travel[rec.GuestID]
	if ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = uuid.New()
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = time.Now()
	f.s.travel[rec.GuestID] = rec
	return rec, !ok, nil
}

func (f fakeTravel) UpdateDelay(_ context.Context, eventID, guestID uuid.UUID, delay int, actual *time.Time) (domain.TravelRecord, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.travel[guestID]
	if !ok || r.EventID != eventID {
		return domain.TravelRecord{}, domain.ErrNotFound
	}
	r.DelayMinutes = delay
	r.ActualArrival = actual
	r.Status = domain.TravelStatusDelayed
	f.s.travel[guestID] = r
	return r, nil
}

// ---- vendors ---------------------------------------------------------------------

type fakeVendors struct{ s *store }

func (f fakeVendors) Create(_ context.Context, v domain.Vendor) (domain.Vendor, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v.ID = uuid.New()
	f.s.vendors[v.ID] = v
	return v, nil
}

func (f fakeVendors) GetByID(_ context.Context, eventID, id uuid.UUID) (domain.Vendor, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.vendors[id]
	if !ok || v.EventID != eventID {
		return domain.Vendor{}, domain.ErrNotFound
	}
	return v, nil
}

func (f fakeVendors) List(_ context.Context, eventID uuid.UUID) ([]domain.Vendor, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Vendor{}
	for _, v := range f.s.vendors {
		if v.EventID == eventID {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b domain.Vendor) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// ---- vehicles --------------------------------------------------------------------

type fakeVehicles struct{ s *store }

func (f fakeVehicles) Create(_ context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	return f.s.addVehicle(v), nil
}

func (f fakeVehicles) GetByID(_ context.Context, eventID, id uuid.UUID) (domain.Vehicle, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.vehicles[id]
	if !ok || v.EventID != eventID {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	return v, nil
}

func (f fakeVehicles) list(eventID uuid.UUID, keep func(domain.Vehicle) bool) []domain.Vehicle {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Vehicle{}
	for _, v := range f.s.vehicles {
		if v.EventID == eventID && keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (f fakeVehicles) ListPaged(_ context.Context, eventID uuid.UUID, p domain.PageRequest) ([]domain.Vehicle, int64, error) {
	all := f.list(eventID, func(domain.Vehicle) bool { return true })
	slices.SortFunc(all, func(a, b domain.Vehicle) int { return strings.Compare(a.Label, b.Label) })
	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}

func (f fakeVehicles) ListAvailable(_ context.Context, eventID uuid.UUID) ([]domain.Vehicle, error) {
	out := f.list(eventID, func(v domain.Vehicle) bool { return v.Status == domain.VehicleAvailable })
	slices.SortFunc(out, func(a, b domain.Vehicle) int {
		if a.Capacity != b.Capacity {
			return a.Capacity - b.Capacity
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (f fakeVehicles) LockForUpdate(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error) {
	return f.GetByID(ctx, eventID, id)
}

func (f fakeVehicles) Update(_ context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.vehicles[v.ID]
	if !ok || cur.EventID != v.EventID {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	for _, g := range f.s.groups {
		if g.VehicleID != nil && *g.VehicleID == v.ID && g.Status != domain.GroupCompleted && g.TotalGuests > v.Capacity {
			return domain.Vehicle{}, &domain.CapacityExceededError{GroupSeats: g.TotalGuests, VehicleCapacity: v.Capacity}
		}
	}
	v.Status = cur.Status
	f.s.vehicles[v.ID] = v
	return v, nil
}

func (f fakeVehicles) Delete(_ context.Context, eventID, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.vehicles[id]
	if !ok || v.EventID != eventID {
		return domain.ErrNotFound
	}
	delete(f.s.vehicles, id)
	return nil
}

func (f fakeVehicles) SetStatus(_ context.Context, id uuid.UUID, status domain.VehicleStatus) (domain.Vehicle, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.vehicles[id]
	if !ok {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	v.Status = status
	f.s.vehicles[id] = v
	return v, nil
}

func (f fakeVehicles) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to domain.VehicleStatus) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.vehicles[id]
	if !ok || v.Status != from {
		return false, nil
	}
	v.Status = to
	f.s.vehicles[id] = v
	return true, nil
}

func (f fakeVehicles) Release(_ context.Context, ids []uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, id := range ids {
		v, ok := f.s.vehicles[id]
		if ok && (v.Status == domain.VehicleAssigned || v.Status == domain.VehicleInTransit) {
			v.Status = domain.VehicleAvailable
			f.s.vehicles[id] = v
		}
	}
	return nil
}

// ---- representatives ---------------------------------------------------------------

type fakeReps struct{ s *store }

func (f fakeReps) Create(_ context.Context, r domain.LocationRepresentative) (domain.LocationRepresentative, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r.ID = uuid.New()
	f.s.reps[r.ID] = r
	return r, nil
}

func (f fakeReps) GetByID(_ context.Context, eventID, id uuid.UUID) (domain.LocationRepresentative, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.reps[id]
	if !ok || r.EventID != eventID {
		return domain.LocationRepresentative{}, domain.ErrNotFound
	}
	return r, nil
}

func (f fakeReps) List(_ context.Context, eventID uuid.UUID) ([]domain.LocationRepresentative, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.LocationRepresentative{}
	for _, r := range f.s.reps {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ---- transport groups --------------------------------------------------------------

type fakeGroups struct{ s *store }

var errUniqueAllocation = errors.New("duplicate allocation")

func (f fakeGroups) Create(_ context.Context, g domain.TransportGroup, allocs []domain.TransportAllocation) (domain.GroupDetail, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failGroupCreate != nil {
		if err := f.s.failGroupCreate(f.s.groupCreates); err != nil {
			return domain.GroupDetail{}, err
		}
	}
	f.s.groupCreates++

	if g.Status == "" {
		g.Status = domain.GroupPending
	}
	if g.Source == "" {
		g.Source = domain.SourceAuto
	}
	g.ID = uuid.New()
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt

	detail := domain.GroupDetail{Group: g}
	for _, a := range allocs {
		for _, existing := range f.s.allocs {
			if existing.EventID == g.EventID && existing.GuestID == a.GuestID && existing.Direction == g.Direction {
				return domain.GroupDetail{}, errUniqueAllocation
			}
		}
		a.ID = uuid.New()
		a.GroupID = g.ID
		a.EventID = g.EventID
		a.Direction = g.Direction
		f.s.allocs = append(f.s.allocs, a)
		detail.Allocations = append(detail.Allocations, a)
	}
	f.s.groups[g.ID] = g
	return detail, nil
}

func (f fakeGroups) GetByID(_ context.Context, eventID, id uuid.UUID) (domain.TransportGroup, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	g, ok := f.s.groups[id]
	if !ok || g.EventID != eventID {
		return domain.TransportGroup{}, domain.ErrNotFound
	}
	return g, nil
}

func (f fakeGroups) LockForUpdate(ctx context.Context, eventID, id uuid.UUID) (domain.TransportGroup, error) {
	return f.GetByID(ctx, eventID, id)
}

func (f fakeGroups) ListByEvent(_ context.Context, eventID uuid.UUID, dir *domain.Direction) ([]domain.TransportGroup, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.TransportGroup{}
	for _, g := range f.s.groups {
		if g.EventID == eventID && (dir == nil || g.Direction == *dir) {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b domain.TransportGroup) int {
		if c := a.PickupTime.Compare(b.PickupTime); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (f fakeGroups) ListAllocations(_ context.Context, groupID uuid.UUID) ([]domain.TransportAllocation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.TransportAllocation{}
	for _, a := range f.s.allocs {
		if a.GroupID == groupID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b domain.TransportAllocation) int { return bytes.Compare(a.GuestID[:], b.GuestID[:]) })
	return out, nil
}

func (f fakeGroups) FindByGuest(_ context.Context, eventID, guestID uuid.UUID, dir domain.Direction) (domain.TransportGroup, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.allocs {
		if a.EventID == eventID && a.GuestID == guestID && a.Direction == dir {
			return f.s.groups[a.GroupID], nil
		}
	}
	return domain.TransportGroup{}, domain.ErrNotFound
}

func (f fakeGroups) FindByVehicle(_ context.Context, vehicleID uuid.UUID) (domain.TransportGroup, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, g := range f.s.groups {
		if g.VehicleID != nil && *g.VehicleID == vehicleID && g.Status != domain.GroupCompleted {
			return g, nil
		}
	}
	return domain.TransportGroup{}, domain.ErrNotFound
}

func (f fakeGroups) PreservedGuestIDs(_ context.Context, eventID uuid.UUID, dir domain.Direction) ([]uuid.UUID, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []uuid.UUID
	for _, a := range f.s.allocs {
		g := f.s.groups[a.GroupID]
		if g.EventID != eventID || g.Direction != dir {
			continue
		}
		if g.Source == domain.SourceManual || g.Status == domain.GroupInTransit || g.Status == domain.GroupCompleted {
			out = append(out, a.GuestID)
		}
	}
	return out, nil
}

func (f fakeGroups) DeleteAutoGenerated(_ context.Context, eventID uuid.UUID, dir domain.Direction) ([]uuid.UUID, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	doomed := map[uuid.UUID]bool{}
	var vehicles []uuid.UUID
	for id, g := range f.s.groups {
		if g.EventID != eventID || g.Direction != dir || g.Source != domain.SourceAuto {
			continue
		}
		if g.Status != domain.GroupPending && g.Status != domain.GroupAssigned {
			continue
		}
		doomed[id] = true
		if g.VehicleID != nil {
			vehicles = append(vehicles, *g.VehicleID)
		}
	}
	f.s.allocs = slices.DeleteFunc(f.s.allocs, func(a domain.TransportAllocation) bool { return doomed[a.GroupID] })
	for id := range doomed {
		delete(f.s.groups, id)
	}
	return vehicles, nil
}

func (f fakeGroups) Update(_ context.Context, g domain.TransportGroup) (domain.TransportGroup, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.groups[g.ID]
	if !ok || cur.EventID != g.EventID {
		return domain.TransportGroup{}, domain.ErrNotFound
	}
	cur.VehicleID = g.VehicleID
	cur.RepresentativeID = g.RepresentativeID
	cur.Status = g.Status
	cur.GuestsPickedUp = g.GuestsPickedUp
	cur.NeedsSplit = g.NeedsSplit
	cur.UnassignedReason = g.UnassignedReason
	cur.UpdatedAt = time.Now()
	f.s.groups[g.ID] = cur
	return cur, nil
}

func (f fakeGroups) MarkPickedUp(_ context.Context, groupID, guestID uuid.UUID) (domain.TransportAllocation, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i, a := range f.s.allocs {
		if a.GroupID != groupID || a.GuestID != guestID {
			continue
		}
		if a.PickedUp {
			return a, false, nil
		}
		f.s.allocs[i].PickedUp = true
		return f.s.allocs[i], true, nil
	}
	return domain.TransportAllocation{}, false, domain.ErrNotFound
}

var (
	_ repo.EventRepo          = fakeEvents{}
	_ repo.GuestRepo          = fakeGuests{}
	_ repo.TravelRecordRepo   = fakeTravel{}
	_ repo.VendorRepo         = fakeVendors{}
	_ repo.VehicleRepo        = fakeVehicles{}
	_ repo.RepresentativeRepo = fakeReps{}
	_ repo.TransportGroupRepo = fakeGroups{}
)
