package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/repo"
)

// FleetService manages vendors, their vehicles and on-site representatives.
type FleetService struct {
	tx              repo.Transactor
	events          repo.EventRepo
	vendors         repo.VendorRepo
	vehicles        repo.VehicleRepo
	groups          repo.TransportGroupRepo
	representatives repo.RepresentativeRepo
}

// NewFleetService constructs a FleetService from the shared repositories.
func NewFleetService(tx repo.Transactor, r repo.Repos) *FleetService {
	return &FleetService{
		tx:              tx,
		events:          r.Events,
		vendors:         r.Vendors,
		vehicles:        r.Vehicles,
		groups:          r.Groups,
		representatives: r.Representatives,
	}
}

// CreateVendor validates and persists a vendor.
func (s *FleetService) CreateVendor(ctx context.Context, v domain.Vendor) (domain.Vendor, error) {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return domain.Vendor{}, fmt.Errorf("service.FleetService.CreateVendor: %w", validationf("name is required"))
	}
	if _, err := s.events.GetByID(ctx, v.EventID); err != nil {
		return domain.Vendor{}, fmt.Errorf("service.FleetService.CreateVendor: %w", err)
	}
	out, err := s.vendors.Create(ctx, v)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("service.FleetService.CreateVendor: %w", err)
	}
	return out, nil
}

func (s *FleetService) ListVendors(ctx context.Context, eventID uuid.UUID) ([]domain.Vendor, error) {
	out, err := s.vendors.List(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("service.FleetService.ListVendors: %w", err)
	}
	return out, nil
}

// CreateVehicle validates and persists a vehicle. New vehicles start
// available unless created in maintenance.
func (s *FleetService) CreateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	if err := s.validateVehicle(ctx, v); err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.CreateVehicle: %w", err)
	}
	switch v.Status {
	case "":
		v.Status = domain.VehicleAvailable
	case domain.VehicleAvailable, domain.VehicleMaintenance:
	default:
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.CreateVehicle: %w",
			validationf("status must be available or maintenance"))
	}
	out, err := s.vehicles.Create(ctx, v)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.CreateVehicle: %w", err)
	}
	return out, nil
}

func (s *FleetService) GetVehicle(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error) {
	out, err := s.vehicles.GetByID(ctx, eventID, id)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.GetVehicle: %w", err)
	}
	return out, nil
}

// ListVehicles returns one page of vehicles and the total count.
func (s *FleetService) ListVehicles(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) ([]domain.Vehicle, int64, error) {
	out, total, err := s.vehicles.ListPaged(ctx, eventID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.FleetService.ListVehicles: %w", err)
	}
	return out, total, nil
}

// UpdateVehicle overwrites the descriptive fields of a vehicle. Capacity may
// not drop below the seats of the group the vehicle is carrying.
func (s *FleetService) UpdateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	if err := s.validateVehicle(ctx, v); err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.UpdateVehicle: %w", err)
	}
	// The vehicle row lock orders this update against AssignVehicle, which
	// takes the same lock before comparing seats with capacity.
	var out domain.Vehicle
	err := s.tx.WithinTx(ctx, func(r repo.Repos) error {
		current, err := r.Vehicles.LockForUpdate(ctx, v.EventID, v.ID)
		if err != nil {
			return err
		}
		if v.Capacity < current.Capacity {
			g, err := r.Groups.FindByVehicle(ctx, v.ID)
			switch {
			case err == nil && g.TotalGuests > v.Capacity:
				return &domain.CapacityExceededError{GroupSeats: g.TotalGuests, VehicleCapacity: v.Capacity}
			case err != nil && !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}
		out, err = r.Vehicles.Update(ctx, v)
		return err
	})
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.UpdateVehicle: %w", err)
	}
	return out, nil
}

// DeleteVehicle removes a vehicle that is not carrying a group.
func (s *FleetService) DeleteVehicle(ctx context.Context, eventID, id uuid.UUID) error {
	v, err := s.vehicles.GetByID(ctx, eventID, id)
	if err != nil {
		return fmt.Errorf("service.FleetService.DeleteVehicle: %w", err)
	}
	if v.Status == domain.VehicleAssigned || v.Status == domain.VehicleInTransit {
		return fmt.Errorf("service.FleetService.DeleteVehicle: %w: vehicle is %s", domain.ErrConflict, v.Status)
	}
	if err := s.vehicles.Delete(ctx, eventID, id); err != nil {
		return fmt.Errorf("service.FleetService.DeleteVehicle: %w", err)
	}
	return nil
}

// SetVehicleStatus lets a coordinator take a vehicle in or out of
// maintenance. assigned and in_transit follow the group lifecycle and cannot
// be set here.
func (s *FleetService) SetVehicleStatus(ctx context.Context, eventID, id uuid.UUID, status domain.VehicleStatus) (domain.Vehicle, error) {
	if status != domain.VehicleAvailable && status != domain.VehicleMaintenance {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.SetVehicleStatus: %w",
			validationf("status must be available or maintenance; assigned and in_transit follow vehicle assignment and group status changes"))
	}
	v, err := s.vehicles.GetByID(ctx, eventID, id)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.SetVehicleStatus: %w", err)
	}
	if v.Status == status {
		return v, nil
	}
	// A carried vehicle is released through its group.
	if v.Status == domain.VehicleAssigned || v.Status == domain.VehicleInTransit {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.SetVehicleStatus: %w: vehicle is %s",
			domain.ErrInvalidTransition, v.Status)
	}
	ok, err := s.vehicles.CompareAndSetStatus(ctx, id, v.Status, status)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.SetVehicleStatus: %w", err)
	}
	if !ok {
		return domain.Vehicle{}, fmt.Errorf("service.FleetService.SetVehicleStatus: %w: vehicle status changed concurrently",
			domain.ErrConflict)
	}
	v.Status = status
	return v, nil
}

func (s *FleetService) validateVehicle(ctx context.Context, v domain.Vehicle) error {
	if v.Capacity <= 0 {
		return validationf("capacity must be greater than zero")
	}
	if v.VendorID == uuid.Nil {
		return validationf("vendor_id is required")
	}
	if _, err := s.vendors.GetByID(ctx, v.EventID, v.VendorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return validationf("vendor %s does not exist for this event", v.VendorID)
		}
		return err
	}
	return nil
}

// CreateRepresentative validates and persists a location representative.
func (s *FleetService) CreateRepresentative(ctx context.Context, rep domain.LocationRepresentative) (domain.LocationRepresentative, error) {
	rep.Name = strings.TrimSpace(rep.Name)
	if rep.Name == "" {
		return domain.LocationRepresentative{}, fmt.Errorf("service.FleetService.CreateRepresentative: %w", validationf("name is required"))
	}
	if _, err := s.events.GetByID(ctx, rep.EventID); err != nil {
		return domain.LocationRepresentative{}, fmt.Errorf("service.FleetService.CreateRepresentative: %w", err)
	}
	out, err := s.representatives.Create(ctx, rep)
	if err != nil {
		return domain.LocationRepresentative{}, fmt.Errorf("service.FleetService.CreateRepresentative: %w", err)
	}
	return out, nil
}

func (s *FleetService) ListRepresentatives(ctx context.Context, eventID uuid.UUID) ([]domain.LocationRepresentative, error) {
	out, err := s.representatives.List(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("service.FleetService.ListRepresentatives: %w", err)
	}
	return out, nil
}
