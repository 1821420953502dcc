package planner

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// Vehicle is the planner's view of an available vehicle.
type Vehicle struct {
	ID       uuid.UUID
	Capacity int
}

// Assignment is a planned transport group. VehicleID is nil when nothing in
// the pool could carry the members, in which case Reason says why.
type Assignment struct {
	Window     Window
	VehicleID  *uuid.UUID
	Capacity   int
	NeedsSplit bool
	Reason     string
}

// MatchVehicles assigns vehicles from pool to windows in order.
//
// Each window gets the smallest vehicle that seats all of it. When none is
// large enough the window is split: the largest vehicle is filled first-fit
// in time order, never separating a party, and the rest is matched again.
// Chosen vehicles leave the pool. A remainder that cannot be seated becomes
// a vehicle-less assignment with reason no_vehicle_available (pool empty) or
// capacity_shortfall (a party is larger than every remaining vehicle).
func MatchVehicles(windows []Window, pool []Vehicle) []Assignment {
	avail := make([]Vehicle, 0, len(pool))
	for _, v := range pool {
		if v.Capacity > 0 {
			avail = append(avail, v)
		}
	}
	sort.Slice(avail, func(i, j int) bool {
		if avail[i].Capacity != avail[j].Capacity {
			return avail[i].Capacity < avail[j].Capacity
		}
		return bytes.Compare(avail[i].ID[:], avail[j].ID[:]) < 0
	})

	var out []Assignment
	for _, w := range windows {
		if len(w.Members) == 0 {
			continue
		}
		var as []Assignment
		as, avail = matchWindow(w, avail, false)
		out = append(out, as...)
	}
	return out
}

// matchWindow seats one window. avail is sorted by capacity then id and the
// updated pool is returned.
func matchWindow(w Window, avail []Vehicle, split bool) ([]Assignment, []Vehicle) {
	if len(avail) == 0 {
		return []Assignment{{Window: w, NeedsSplit: split, Reason: domain.ReasonNoVehicle}}, avail
	}

	demand := w.Seats()
	for i, v := range avail {
		if v.Capacity >= demand {
			id := v.ID
			return []Assignment{{Window: w, VehicleID: &id, Capacity: v.Capacity, NeedsSplit: split}}, remove(avail, i)
		}
	}

	largest := avail[len(avail)-1]
	var seated, rest []Member
	used := 0
	for _, m := range w.Members {
		if used+m.SeatDemand <= largest.Capacity {
			seated = append(seated, m)
			used += m.SeatDemand
			continue
		}
		rest = append(rest, m)
	}
	if len(seated) == 0 {
		return []Assignment{{Window: w, NeedsSplit: true, Reason: domain.ReasonCapacityShortfall}}, avail
	}

	id := largest.ID
	first := Assignment{
		Window:     Window{Start: w.Start, End: w.End, Members: seated},
		VehicleID:  &id,
		Capacity:   largest.Capacity,
		NeedsSplit: true,
	}
	avail = avail[:len(avail)-1]
	more, avail := matchWindow(Window{Start: w.Start, End: w.End, Members: rest}, avail, true)
	return append([]Assignment{first}, more...), avail
}

func remove(vs []Vehicle, i int) []Vehicle {
	out := make([]Vehicle, 0, len(vs)-1)
	out = append(out, vs[:i]...)
	return append(out, vs[i+1:]...)
}
