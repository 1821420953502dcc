package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// driverManifest is everything printed on a driver sheet.
type driverManifest struct {
	event          domain.Event
	group          domain.TransportGroup
	vehicle        *domain.Vehicle
	representative *domain.LocationRepresentative
	guests         []manifestGuest
	generatedAt    time.Time
}

type manifestGuest struct {
	name   string
	phone  string
	flight string
	seats  int
}

// DriverManifest renders a one-page PDF for the driver of a group: pickup
// window, vehicle, representative and the guests with their seat counts.
func (s *TransportService) DriverManifest(ctx context.Context, eventID, groupID uuid.UUID) ([]byte, error) {
	m, err := s.loadDriverManifest(ctx, eventID, groupID)
	if err != nil {
		return nil, fmt.Errorf("service.TransportService.DriverManifest: %w", err)
	}
	b, err := renderDriverManifest(m)
	if err != nil {
		return nil, fmt.Errorf("service.TransportService.DriverManifest: %w", err)
	}
	return b, nil
}

func (s *TransportService) loadDriverManifest(ctx context.Context, eventID, groupID uuid.UUID) (driverManifest, error) {
	event, err := s.repos.Events.GetByID(ctx, eventID)
	if err != nil {
		return driverManifest{}, err
	}
	detail, err := s.GetGroup(ctx, eventID, groupID)
	if err != nil {
		return driverManifest{}, err
	}
	m := driverManifest{event: event, group: detail.Group, generatedAt: s.now()}

	if g := detail.Group; g.VehicleID != nil {
		v, err := s.repos.Vehicles.GetByID(ctx, eventID, *g.VehicleID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return driverManifest{}, err
		}
		if err == nil {
			m.vehicle = &v
		}
	}
	if g := detail.Group; g.RepresentativeID != nil {
		rep, err := s.repos.Representatives.GetByID(ctx, eventID, *g.RepresentativeID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return driverManifest{}, err
		}
		if err == nil {
			m.representative = &rep
		}
	}

	ids := make([]uuid.UUID, len(detail.Allocations))
	seats := make(map[uuid.UUID]int, len(detail.Allocations))
	for i, a := range detail.Allocations {
		ids[i] = a.GuestID
		seats[a.GuestID] = a.SeatDemand
	}
	guests, err := s.repos.Guests.ListByIDs(ctx, eventID, ids)
	if err != nil {
		return driverManifest{}, err
	}
	for _, g := range guests {
		mg := manifestGuest{name: g.Name, phone: g.Phone, seats: seats[g.ID]}
		rec, err := s.repos.Travel.GetByGuest(ctx, eventID, g.ID)
		switch {
		case err == nil:
			mg.flight = strings.TrimSpace(rec.Airline + " " + rec.FlightNumber)
		case !errors.Is(err, domain.ErrNotFound):
			return driverManifest{}, err
		}
		m.guests = append(m.guests, mg)
	}
	return m, nil
}

func renderDriverManifest(m driverManifest) ([]byte, error) {
	loc := m.event.Location()
	g := m.group

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Driver Manifest", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "DRIVER MANIFEST")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Event        : " + m.event.Name,
		"Direction    : " + string(g.Direction),
		"Pickup       : " + safe(g.PickupLocation, "-"),
		"Dropoff      : " + safe(g.DropoffLocation, "-"),
		fmt.Sprintf("Window       : %s - %s (%s)",
			g.PickupTime.In(loc).Format("2006-01-02 15:04"), g.WindowEnd.In(loc).Format("15:04"), loc),
		fmt.Sprintf("Seats        : %d", g.TotalGuests),
		"Status       : " + string(g.Status),
	}
	if v := m.vehicle; v != nil {
		lines = append(lines,
			fmt.Sprintf("Vehicle      : %s %s (%d seats)", safe(v.VehicleType, ""), safe(v.Label, "-"), v.Capacity),
			"Driver       : "+safe(strings.TrimSpace(v.DriverName+" "+v.DriverPhone), "-"))
	} else {
		lines = append(lines, "Vehicle      : not assigned")
	}
	if r := m.representative; r != nil {
		lines = append(lines, "On-site rep  : "+strings.TrimSpace(r.Name+" "+r.Phone))
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(80, 8, "Guest", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 8, "Phone", "1", 0, "", false, 0, "")
	pdf.CellFormat(45, 8, "Flight", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 8, "Seats", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, mg := range m.guests {
		pdf.CellFormat(80, 7, mg.name, "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, safe(mg.phone, "-"), "1", 0, "", false, 0, "")
		pdf.CellFormat(45, 7, safe(mg.flight, "-"), "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", mg.seats), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Generated "+m.generatedAt.In(loc).Format("2006-01-02 15:04 MST"), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
