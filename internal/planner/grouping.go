package planner

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Member is one guest's party as seen by the planner.
type Member struct {
	GuestID    uuid.UUID
	At         *time.Time
	SeatDemand int
}

// Window is a candidate transport group: members whose time falls inside
// [Start, End].
type Window struct {
	Start   time.Time
	End     time.Time
	Members []Member
}

// Seats returns the total seat demand of the window.
func (w Window) Seats() int {
	n := 0
	for _, m := range w.Members {
		n += m.SeatDemand
	}
	return n
}

// GroupArrivals clusters members into windows of bufferMin minutes anchored
// at the earliest member of each window.
//
// Members are ordered by time, ties broken by guest id, so the output is a
// deterministic function of the input set. Members without a time are
// returned separately as ungroupable.
func GroupArrivals(members []Member, bufferMin int) (windows []Window, ungroupable []Member) {
	timed := make([]Member, 0, len(members))
	for _, m := range members {
		if m.At == nil {
			ungroupable = append(ungroupable, m)
			continue
		}
		timed = append(timed, m)
	}

	sort.SliceStable(timed, func(i, j int) bool {
		a, b := *timed[i].At, *timed[j].At
		if !a.Equal(b) {
			return a.Before(b)
		}
		return bytes.Compare(timed[i].GuestID[:], timed[j].GuestID[:]) < 0
	})

	buffer := time.Duration(bufferMin) * time.Minute
	var cur *Window
	for _, m := range timed {
		t := *m.At
		if cur != nil && !t.After(cur.End) {
			cur.Members = append(cur.Members, m)
			continue
		}
		if cur != nil {
			windows = append(windows, *cur)
		}
		cur = &Window{Start: t, End: t.Add(buffer), Members: []Member{m}}
	}
	if cur != nil {
		windows = append(windows, *cur)
	}
	return windows, ungroupable
}
