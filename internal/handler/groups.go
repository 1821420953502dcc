package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/service"
)

// TransportGroup is the JSON form of domain.TransportGroup.
type TransportGroup struct {
	ID               uuid.UUID  `json:"id"`
	EventID          uuid.UUID  `json:"eventId"`
	Direction        string     `json:"direction"`
	Source           string     `json:"source"`
	PickupLocation   string     `json:"pickupLocation"`
	PickupTime       time.Time  `json:"pickupTime"`
	WindowEnd        time.Time  `json:"windowEnd"`
	DropoffLocation  string     `json:"dropoffLocation"`
	VehicleID        *uuid.UUID `json:"vehicleId"`
	RepresentativeID *uuid.UUID `json:"representativeId"`
	Status           string     `json:"status"`
	GuestsPickedUp   int        `json:"guestsPickedUp"`
	TotalGuests      int        `json:"totalGuests"`
	NeedsSplit       bool       `json:"needsSplit"`
	UnassignedReason string     `json:"unassignedReason,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Allocation is one guest's seat in a group.
type Allocation struct {
	GuestID    uuid.UUID `json:"guestId"`
	SeatDemand int       `json:"seatDemand"`
	Confirmed  bool      `json:"confirmed"`
	PickedUp   bool      `json:"pickedUp"`
}

// TransportGroupDetail is a group with its allocations.
type TransportGroupDetail struct {
	TransportGroup
	Allocations []Allocation `json:"allocations"`
}

// RegenerationResponse is the body of a successful regeneration.
type RegenerationResponse struct {
	GroupsCreated        int `json:"groupsCreated"`
	TotalGuestsProcessed int `json:"totalGuestsProcessed"`
	UngroupableCount     int `json:"ungroupableCount"`
	UnassignedGroups     int `json:"unassignedGroups"`
}

// CreateGroupRequest is the body of POST /events/{id}/transport-groups.
type CreateGroupRequest struct {
	Direction        string      `json:"direction"`
	GuestIDs         []uuid.UUID `json:"guestIds"`
	PickupLocation   string      `json:"pickupLocation"`
	DropoffLocation  string      `json:"dropoffLocation"`
	PickupTime       time.Time   `json:"pickupTime"`
	VehicleID        *uuid.UUID  `json:"vehicleId"`
	RepresentativeID *uuid.UUID  `json:"representativeId"`
}

// GroupStatusRequest is the body of PATCH .../transport-groups/{groupId}/status.
type GroupStatusRequest struct {
	Status string `json:"status"`
}

// PickupRequest is the body of POST .../transport-groups/{groupId}/pickups.
type PickupRequest struct {
	GuestID uuid.UUID `json:"guestId"`
}

// RepresentativeRequest is the body of PUT .../transport-groups/{groupId}/representative.
// A null id detaches the current representative.
type RepresentativeRequest struct {
	RepresentativeID *uuid.UUID `json:"representativeId"`
}

// AssignVehicleRequest is the body of POST .../vehicles/{vehicleId}/assign.
type AssignVehicleRequest struct {
	TransportGroupID uuid.UUID `json:"transportGroupId"`
}

// directionParam reads the optional ?direction= query parameter.
func directionParam(r *http.Request) (*domain.Direction, error) {
	var raw *string
	if err := queryParam(r, "direction", &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	d, ok := domain.ParseDirection(*raw)
	if !ok {
		return nil, fmt.Errorf("direction must be arrival or departure")
	}
	return &d, nil
}

// RegenerateTransport handles POST /events/{id}/regenerate-transport-from-flights.
func (s *Server) RegenerateTransport(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	dir, err := directionParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if dir == nil {
		d := domain.DirectionArrival
		dir = &d
	}

	res, err := s.transport.Regenerate(r.Context(), ids[0], *dir)
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	writeJSON(w, http.StatusOK, RegenerationResponse(res))
}

// ListGroups handles GET /events/{id}/transport-groups.
// Supports ?direction=arrival|departure; both directions when absent.
func (s *Server) ListGroups(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	dir, err := directionParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	groups, err := s.transport.ListGroups(r.Context(), ids[0], dir)
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	out := make([]TransportGroup, len(groups))
	for i, g := range groups {
		out[i] = groupToResponse(g)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateGroup handles POST /events/{id}/transport-groups.
func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	var req CreateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dir, valid := domain.ParseDirection(req.Direction)
	if !valid {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("direction must be arrival or departure"))
		return
	}

	detail, err := s.transport.CreateManualGroup(r.Context(), ids[0], service.ManualGroupInput{
		Direction:        dir,
		GuestIDs:         req.GuestIDs,
		PickupLocation:   req.PickupLocation,
		DropoffLocation:  req.DropoffLocation,
		PickupTime:       req.PickupTime,
		VehicleID:        req.VehicleID,
		RepresentativeID: req.RepresentativeID,
	})
	if err != nil {
		s.writeError(w, r, "event, vehicle or representative", err)
		return
	}
	writeJSON(w, http.StatusCreated, detailToResponse(detail))
}

// GetGroup handles GET /events/{id}/transport-groups/{groupId}.
func (s *Server) GetGroup(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "groupId")
	if !ok {
		return
	}
	detail, err := s.transport.GetGroup(r.Context(), ids[0], ids[1])
	if err != nil {
		s.writeError(w, r, "transport group", err)
		return
	}
	writeJSON(w, http.StatusOK, detailToResponse(detail))
}

// UpdateGroupStatus handles PATCH /events/{id}/transport-groups/{groupId}/status.
func (s *Server) UpdateGroupStatus(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "groupId")
	if !ok {
		return
	}
	var req GroupStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to, valid := domain.ParseGroupStatus(req.Status)
	if !valid {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("status must be pending, assigned, in_transit or completed"))
		return
	}

	g, err := s.transport.UpdateStatus(r.Context(), ids[0], ids[1], to)
	if err != nil {
		s.writeError(w, r, "transport group", err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

// UnassignVehicle handles POST /events/{id}/transport-groups/{groupId}/unassign-vehicle.
func (s *Server) UnassignVehicle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "groupId")
	if !ok {
		return
	}
	g, err := s.transport.UnassignVehicle(r.Context(), ids[0], ids[1])
	if err != nil {
		s.writeError(w, r, "transport group", err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

// ConfirmPickup handles POST /events/{id}/transport-groups/{groupId}/pickups.
func (s *Server) ConfirmPickup(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "groupId")
	if !ok {
		return
	}
	var req PickupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.GuestID == uuid.Nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("guestId is required"))
		return
	}

	g, err := s.transport.ConfirmPickup(r.Context(), ids[0], ids[1], req.GuestID)
	if err != nil {
		s.writeError(w, r, "transport group or allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

// AttachRepresentative handles PUT /events/{id}/transport-groups/{groupId}/representative.
func (s *Server) AttachRepresentative(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "groupId")
	if !ok {
		return
	}
	var req RepresentativeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := s.transport.AttachRepresentative(r.Context(), ids[0], ids[1], req.RepresentativeID)
	if err != nil {
		s.writeError(w, r, "transport group or representative", err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

// GetDriverManifest handles GET /events/{id}/transport-groups/{groupId}/manifest.pdf.
func (s *Server) GetDriverManifest(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "groupId")
	if !ok {
		return
	}
	pdf, err := s.transport.DriverManifest(r.Context(), ids[0], ids[1])
	if err != nil {
		s.writeError(w, r, "transport group", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="manifest-%s.pdf"`, ids[1]))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write(pdf)
}

// AssignVehicle handles POST /events/{id}/vehicles/{vehicleId}/assign.
// Returns 400 when the group needs more seats than the vehicle has (both
// numbers in details) or when the vehicle is already taken.
func (s *Server) AssignVehicle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "vehicleId")
	if !ok {
		return
	}
	var req AssignVehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TransportGroupID == uuid.Nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("transportGroupId is required"))
		return
	}

	g, err := s.transport.AssignVehicle(r.Context(), ids[0], ids[1], req.TransportGroupID)
	if err != nil {
		s.writeError(w, r, "vehicle or transport group", err)
		return
	}
	writeJSON(w, http.StatusOK, groupToResponse(g))
}

func groupToResponse(g domain.TransportGroup) TransportGroup {
	return TransportGroup{
		ID:               g.ID,
		EventID:          g.EventID,
		Direction:        string(g.Direction),
		Source:           string(g.Source),
		PickupLocation:   g.PickupLocation,
		PickupTime:       g.PickupTime.UTC(),
		WindowEnd:        g.WindowEnd.UTC(),
		DropoffLocation:  g.DropoffLocation,
		VehicleID:        g.VehicleID,
		RepresentativeID: g.RepresentativeID,
		Status:           string(g.Status),
		GuestsPickedUp:   g.GuestsPickedUp,
		TotalGuests:      g.TotalGuests,
		NeedsSplit:       g.NeedsSplit,
		UnassignedReason: g.UnassignedReason,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

func detailToResponse(d domain.GroupDetail) TransportGroupDetail {
	allocs := make([]Allocation, len(d.Allocations))
	for i, a := range d.Allocations {
		allocs[i] = Allocation{GuestID: a.GuestID, SeatDemand: a.SeatDemand, Confirmed: a.Confirmed, PickedUp: a.PickedUp}
	}
	return TransportGroupDetail{TransportGroup: groupToResponse(d.Group), Allocations: allocs}
}
