package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// Vendor is the JSON form of domain.Vendor.
type Vendor struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"eventId"`
	Name        string    `json:"name"`
	ContactName string    `json:"contactName,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VendorRequest is the body of POST /events/{id}/vendors.
type VendorRequest struct {
	Name        string               `json:"name"`
	ContactName string               `json:"contactName"`
	Phone       string               `json:"phone"`
	Email       *openapi_types.Email `json:"email"`
}

// Vehicle is the JSON form of domain.Vehicle.
type Vehicle struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"eventId"`
	VendorID    uuid.UUID `json:"vendorId"`
	VehicleType string    `json:"vehicleType"`
	Label       string    `json:"label"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	DriverName  string    `json:"driverName,omitempty"`
	DriverPhone string    `json:"driverPhone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VehicleRequest is the body of POST and PUT on vehicles. Status is only
// read on create.
type VehicleRequest struct {
	VendorID    uuid.UUID `json:"vendorId"`
	VehicleType string    `json:"vehicleType"`
	Label       string    `json:"label"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	DriverName  string    `json:"driverName"`
	DriverPhone string    `json:"driverPhone"`
}

// VehicleStatusRequest is the body of PATCH .../vehicles/{vehicleId}/status.
type VehicleStatusRequest struct {
	Status string `json:"status"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// VehicleList is the body of GET /events/{id}/vehicles.
type VehicleList struct {
	Data       []Vehicle  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Representative is the JSON form of domain.LocationRepresentative.
type Representative struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"eventId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RepresentativeCreateRequest is the body of POST /events/{id}/location-representatives.
type RepresentativeCreateRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// ---- vendors ----------------------------------------------------------------

// CreateVendor handles POST /events/{id}/vendors.
func (s *Server) CreateVendor(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	var req VendorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v := domain.Vendor{EventID: ids[0], Name: req.Name, ContactName: req.ContactName, Phone: req.Phone}
	if req.Email != nil {
		v.Email = string(*req.Email)
	}

	created, err := s.fleet.CreateVendor(r.Context(), v)
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	writeJSON(w, http.StatusCreated, vendorToResponse(created))
}

// ListVendors handles GET /events/{id}/vendors.
func (s *Server) ListVendors(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	vendors, err := s.fleet.ListVendors(r.Context(), ids[0])
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	out := make([]Vendor, len(vendors))
	for i, v := range vendors {
		out[i] = vendorToResponse(v)
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- vehicles ----------------------------------------------------------------

// CreateVehicle handles POST /events/{id}/vehicles.
func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	var req VehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v := requestToVehicle(ids[0], uuid.Nil, req)
	if req.Status != "" {
		status, valid := domain.ParseVehicleStatus(req.Status)
		if !valid {
			writeJSON(w, http.StatusBadRequest, requestBody("unknown vehicle status "+req.Status))
			return
		}
		v.Status = status
	}

	created, err := s.fleet.CreateVehicle(r.Context(), v)
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicleToResponse(created))
}

// ListVehicles handles GET /events/{id}/vehicles.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	var page, limit *int
	if err := queryParam(r, "page", &page); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if err := queryParam(r, "limit", &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	params := domain.NewPageRequest(page, limit)

	vehicles, total, err := s.fleet.ListVehicles(r.Context(), ids[0], params)
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	data := make([]Vehicle, len(vehicles))
	for i, v := range vehicles {
		data[i] = vehicleToResponse(v)
	}
	writeJSON(w, http.StatusOK, VehicleList{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: int(total), Pages: params.Pages(total)},
	})
}

// GetVehicle handles GET /events/{id}/vehicles/{vehicleId}.
func (s *Server) GetVehicle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "vehicleId")
	if !ok {
		return
	}
	v, err := s.fleet.GetVehicle(r.Context(), ids[0], ids[1])
	if err != nil {
		s.writeError(w, r, "vehicle", err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleToResponse(v))
}

// UpdateVehicle handles PUT /events/{id}/vehicles/{vehicleId}.
func (s *Server) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "vehicleId")
	if !ok {
		return
	}
	var req VehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := s.fleet.UpdateVehicle(r.Context(), requestToVehicle(ids[0], ids[1], req))
	if err != nil {
		s.writeError(w, r, "vehicle", err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleToResponse(updated))
}

// DeleteVehicle handles DELETE /events/{id}/vehicles/{vehicleId}.
func (s *Server) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "vehicleId")
	if !ok {
		return
	}
	if err := s.fleet.DeleteVehicle(r.Context(), ids[0], ids[1]); err != nil {
		s.writeError(w, r, "vehicle", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// manualVehicleStatusMessage points callers at the group lifecycle routes
// that own the assigned and in_transit states.
const manualVehicleStatusMessage = "status must be available or maintenance; " +
	"assign a vehicle with POST /events/{id}/vehicles/{vehicleId}/assign, " +
	"release it with POST /events/{id}/transport-groups/{groupId}/unassign-vehicle, " +
	"and move it in or out of transit with PATCH /events/{id}/transport-groups/{groupId}/status"

// SetVehicleStatus handles PATCH /events/{id}/vehicles/{vehicleId}/status.
// Only available and maintenance can be set by hand; anything else is a 400.
func (s *Server) SetVehicleStatus(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id", "vehicleId")
	if !ok {
		return
	}
	var req VehicleStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status, valid := domain.ParseVehicleStatus(req.Status)
	if !valid || (status != domain.VehicleAvailable && status != domain.VehicleMaintenance) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Code:    "invalid_status",
			Message: manualVehicleStatusMessage,
		}})
		return
	}

	v, err := s.fleet.SetVehicleStatus(r.Context(), ids[0], ids[1], status)
	if err != nil {
		s.writeError(w, r, "vehicle", err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleToResponse(v))
}

// ---- representatives ----------------------------------------------------------

// CreateRepresentative handles POST /events/{id}/location-representatives.
func (s *Server) CreateRepresentative(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	var req RepresentativeCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rep, err := s.fleet.CreateRepresentative(r.Context(), domain.LocationRepresentative{
		EventID: ids[0], Name: req.Name, Phone: req.Phone, Location: req.Location,
	})
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	writeJSON(w, http.StatusCreated, representativeToResponse(rep))
}

// ListRepresentatives handles GET /events/{id}/location-representatives.
func (s *Server) ListRepresentatives(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, "id")
	if !ok {
		return
	}
	reps, err := s.fleet.ListRepresentatives(r.Context(), ids[0])
	if err != nil {
		s.writeError(w, r, "event", err)
		return
	}
	out := make([]Representative, len(reps))
	for i, rep := range reps {
		out[i] = representativeToResponse(rep)
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- mapping ----------------------------------------------------------------

func requestToVehicle(eventID, id uuid.UUID, req VehicleRequest) domain.Vehicle {
	return domain.Vehicle{
		ID:          id,
		EventID:     eventID,
		VendorID:    req.VendorID,
		VehicleType: req.VehicleType,
		Label:       req.Label,
		Capacity:    req.Capacity,
		DriverName:  req.DriverName,
		DriverPhone: req.DriverPhone,
	}
}

func vendorToResponse(v domain.Vendor) Vendor {
	return Vendor{
		ID:          v.ID,
		EventID:     v.EventID,
		Name:        v.Name,
		ContactName: v.ContactName,
		Phone:       v.Phone,
		Email:       v.Email,
		CreatedAt:   v.CreatedAt,
	}
}

func vehicleToResponse(v domain.Vehicle) Vehicle {
	return Vehicle{
		ID:          v.ID,
		EventID:     v.EventID,
		VendorID:    v.VendorID,
		VehicleType: v.VehicleType,
		Label:       v.Label,
		Capacity:    v.Capacity,
		Status:      string(v.Status),
		DriverName:  v.DriverName,
		DriverPhone: v.DriverPhone,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func representativeToResponse(r domain.LocationRepresentative) Representative {
	return Representative{
		ID:        r.ID,
		EventID:   r.EventID,
		Name:      r.Name,
		Phone:     r.Phone,
		Location:  r.Location,
		CreatedAt: r.CreatedAt,
	}
}
