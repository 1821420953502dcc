// Package handler implements the HTTP handlers for the wedding transport API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, groups.go, fleet.go, coordination.go) but all share the
// same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/service"
)

// TransportServicer defines the group operations the transport handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TransportServicer interface {
	Regenerate(ctx context.Context, eventID uuid.UUID, dir domain.Direction) (domain.RegenerationResult, error)
	ListGroups(ctx context.Context, eventID uuid.UUID, dir *domain.Direction) ([]domain.TransportGroup, error)
	GetGroup(ctx context.Context, eventID, groupID uuid.UUID) (domain.GroupDetail, error)
	CreateManualGroup(ctx context.Context, eventID uuid.UUID, in service.ManualGroupInput) (domain.GroupDetail, error)
	UpdateStatus(ctx context.Context, eventID, groupID uuid.UUID, to domain.GroupStatus) (domain.TransportGroup, error)
	UnassignVehicle(ctx context.Context, eventID, groupID uuid.UUID) (domain.TransportGroup, error)
	AssignVehicle(ctx context.Context, eventID, vehicleID, groupID uuid.UUID) (domain.TransportGroup, error)
	ConfirmPickup(ctx context.Context, eventID, groupID, guestID uuid.UUID) (domain.TransportGroup, error)
	AttachRepresentative(ctx context.Context, eventID, groupID uuid.UUID, repID *uuid.UUID) (domain.TransportGroup, error)
	DriverManifest(ctx context.Context, eventID, groupID uuid.UUID) ([]byte, error)
}

// FleetServicer defines the vendor, vehicle and representative operations.
type FleetServicer interface {
	CreateVendor(ctx context.Context, v domain.Vendor) (domain.Vendor, error)
	ListVendors(ctx context.Context, eventID uuid.UUID) ([]domain.Vendor, error)
	CreateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	GetVehicle(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error)
	ListVehicles(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) ([]domain.Vehicle, int64, error)
	UpdateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, eventID, id uuid.UUID) error
	SetVehicleStatus(ctx context.Context, eventID, id uuid.UUID, status domain.VehicleStatus) (domain.Vehicle, error)
	CreateRepresentative(ctx context.Context, rep domain.LocationRepresentative) (domain.LocationRepresentative, error)
	ListRepresentatives(ctx context.Context, eventID uuid.UUID) ([]domain.LocationRepresentative, error)
}

// CoordinationServicer defines the travel-agent workflow operations.
type CoordinationServicer interface {
	Status(ctx context.Context, eventID uuid.UUID) (domain.CoordinationStatus, error)
	Export(ctx context.Context, eventID uuid.UUID) ([]domain.ManifestRow, error)
	Import(ctx context.Context, eventID uuid.UUID, rows []domain.ManifestRow) (domain.ImportResult, error)
	ReportDelay(ctx context.Context, eventID, guestID uuid.UUID, delayMinutes int, actual *time.Time) (domain.TravelRecord, error)
}

// NotificationServicer dispatches guest notifications.
type NotificationServicer interface {
	Dispatch(ctx context.Context, eventID uuid.UUID, t domain.NotificationType, guestIDs []uuid.UUID) (domain.DispatchResult, error)
}

// Server serves every API endpoint.
// Wire it in main.go by mounting Server.Handler on the root router.
type Server struct {
	transport     TransportServicer
	fleet         FleetServicer
	coordination  CoordinationServicer
	notifications NotificationServicer
	db            Pinger
	log           *slog.Logger
}

// NewServer constructs the Server with all its dependencies. A nil logger
// discards handler error logs.
func NewServer(transport TransportServicer, fleet FleetServicer, coordination CoordinationServicer, notifications NotificationServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		transport:     transport,
		fleet:         fleet,
		coordination:  coordination,
		notifications: notifications,
		log:           log,
	}
}

// WithReadiness makes /readyz depend on db being reachable.
func (s *Server) WithReadiness(db Pinger) *Server {
	s.db = db
	return s
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil)
}

// Handler returns a chi router serving every endpoint.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Register adds every route to r. Route patterns are chi patterns, so the
// request metrics middleware can label by template instead of raw path.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/readyz", s.GetReady)

	r.Route("/events/{id}", func(r chi.Router) {
		r.Get("/flight-coordination-status", s.GetCoordinationStatus)
		r.Post("/export-flight-list", s.ExportFlightList)
		r.Post("/import-flight-details", s.ImportFlightDetails)
		r.Post("/regenerate-transport-from-flights", s.RegenerateTransport)
		r.Patch("/travel-records/{guestId}/delay", s.ReportDelay)
		r.Post("/transport-notifications", s.DispatchNotifications)

		r.Get("/vendors", s.ListVendors)
		r.Post("/vendors", s.CreateVendor)

		r.Get("/vehicles", s.ListVehicles)
		r.Post("/vehicles", s.CreateVehicle)
		r.Get("/vehicles/{vehicleId}", s.GetVehicle)
		r.Put("/vehicles/{vehicleId}", s.UpdateVehicle)
		r.Delete("/vehicles/{vehicleId}", s.DeleteVehicle)
		r.Patch("/vehicles/{vehicleId}/status", s.SetVehicleStatus)
		r.Post("/vehicles/{vehicleId}/assign", s.AssignVehicle)

		r.Get("/transport-groups", s.ListGroups)
		r.Post("/transport-groups", s.CreateGroup)
		r.Get("/transport-groups/{groupId}", s.GetGroup)
		r.Patch("/transport-groups/{groupId}/status", s.UpdateGroupStatus)
		r.Post("/transport-groups/{groupId}/unassign-vehicle", s.UnassignVehicle)
		r.Post("/transport-groups/{groupId}/pickups", s.ConfirmPickup)
		r.Put("/transport-groups/{groupId}/representative", s.AttachRepresentative)
		r.Get("/transport-groups/{groupId}/manifest.pdf", s.GetDriverManifest)

		r.Get("/location-representatives", s.ListRepresentatives)
		r.Post("/location-representatives", s.CreateRepresentative)
	})
}
