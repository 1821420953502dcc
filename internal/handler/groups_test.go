package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/handler"
	"github.com/pkordes/wedding-transport/internal/service"
)

// ---- POST /events/{id}/regenerate-transport-from-flights --------------------

func TestRegenerateTransport_200_DefaultsToArrival(t *testing.T) {
	eventID := uuid.New()
	var gotDir domain.Direction
	svc := &mockTransportServicer{
		regenerate: func(_ context.Context, id uuid.UUID, dir domain.Direction) (domain.RegenerationResult, error) {
			assert.Equal(t, eventID, id)
			gotDir = dir
			return domain.RegenerationResult{GroupsCreated: 2, TotalGuestsProcessed: 3, UngroupableCount: 1}, nil
		},
	}

	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost,
		"/events/"+eventID.String()+"/regenerate-transport-from-flights", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DirectionArrival, gotDir)

	var resp handler.RegenerationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, handler.RegenerationResponse{GroupsCreated: 2, TotalGuestsProcessed: 3, UngroupableCount: 1}, resp)
}

func TestRegenerateTransport_Departure(t *testing.T) {
	var gotDir domain.Direction
	svc := &mockTransportServicer{
		regenerate: func(_ context.Context, _ uuid.UUID, dir domain.Direction) (domain.RegenerationResult, error) {
			gotDir = dir
			return domain.RegenerationResult{}, nil
		},
	}

	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost,
		"/events/"+uuid.NewString()+"/regenerate-transport-from-flights?direction=departure", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DirectionDeparture, gotDir)
}

func TestRegenerateTransport_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
		code   string
	}{
		{"bad event id", "/events/not-a-uuid/regenerate-transport-from-flights", nil, http.StatusBadRequest, "validation_error"},
		{"bad direction", "/events/" + uuid.NewString() + "/regenerate-transport-from-flights?direction=sideways", nil, http.StatusBadRequest, "validation_error"},
		{"event not found", "/events/" + uuid.NewString() + "/regenerate-transport-from-flights", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"concurrent", "/events/" + uuid.NewString() + "/regenerate-transport-from-flights",
			fmt.Errorf("service.TransportService.Regenerate: %w", domain.ErrConcurrentRegeneration), http.StatusConflict, "concurrent_regeneration"},
		{"unexpected", "/events/" + uuid.NewString() + "/regenerate-transport-from-flights", fmt.Errorf("db down"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockTransportServicer{
				regenerate: func(context.Context, uuid.UUID, domain.Direction) (domain.RegenerationResult, error) {
					return domain.RegenerationResult{}, tc.err
				},
			}
			rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost, tc.target, nil)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

// ---- GET /events/{id}/transport-groups --------------------------------------

func TestListGroups_200(t *testing.T) {
	eventID := uuid.New()
	g := groupFixture(eventID)
	var gotDir *domain.Direction
	svc := &mockTransportServicer{
		listGroups: func(_ context.Context, _ uuid.UUID, dir *domain.Direction) ([]domain.TransportGroup, error) {
			gotDir = dir
			return []domain.TransportGroup{g}, nil
		},
	}
	h := newHTTPHandler(services{transport: svc})

	rec := serve(h, http.MethodGet, "/events/"+eventID.String()+"/transport-groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, gotDir)

	var resp []handler.TransportGroup
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, g.ID, resp[0].ID)
	assert.Equal(t, "arrival", resp[0].Direction)
	assert.Equal(t, "auto", resp[0].Source)
	assert.Equal(t, "BOM T2", resp[0].PickupLocation)
	assert.True(t, g.PickupTime.Equal(resp[0].PickupTime))
	assert.Nil(t, resp[0].VehicleID)

	rec = serve(h, http.MethodGet, "/events/"+eventID.String()+"/transport-groups?direction=departure", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotDir)
	assert.Equal(t, domain.DirectionDeparture, *gotDir)
}

func TestListGroups_EmptyIsArray(t *testing.T) {
	svc := &mockTransportServicer{
		listGroups: func(context.Context, uuid.UUID, *domain.Direction) ([]domain.TransportGroup, error) {
			return nil, nil
		},
	}
	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodGet, "/events/"+uuid.NewString()+"/transport-groups", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// ---- GET /events/{id}/transport-groups/{groupId} ----------------------------

func TestGetGroup_200WithAllocations(t *testing.T) {
	eventID := uuid.New()
	g := groupFixture(eventID)
	guest := uuid.New()
	svc := &mockTransportServicer{
		getGroup: func(_ context.Context, _, id uuid.UUID) (domain.GroupDetail, error) {
			assert.Equal(t, g.ID, id)
			return domain.GroupDetail{Group: g, Allocations: []domain.TransportAllocation{
				{GroupID: g.ID, GuestID: guest, SeatDemand: 3, Confirmed: true},
			}}, nil
		},
	}

	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodGet,
		fmt.Sprintf("/events/%s/transport-groups/%s", eventID, g.ID), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.TransportGroupDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, g.ID, resp.ID)
	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, handler.Allocation{GuestID: guest, SeatDemand: 3, Confirmed: true}, resp.Allocations[0])
}

func TestGetGroup_404(t *testing.T) {
	svc := &mockTransportServicer{
		getGroup: func(context.Context, uuid.UUID, uuid.UUID) (domain.GroupDetail, error) {
			return domain.GroupDetail{}, fmt.Errorf("repo.TransportGroupRepo.GetByID: %w", domain.ErrNotFound)
		},
	}
	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodGet,
		fmt.Sprintf("/events/%s/transport-groups/%s", uuid.New(), uuid.New()), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "transport group not found", decodeError(t, rec).Error.Message)
}

// ---- POST /events/{id}/transport-groups -------------------------------------

func TestCreateGroup_201(t *testing.T) {
	eventID := uuid.New()
	guests := []uuid.UUID{uuid.New(), uuid.New()}
	pickup := time.Date(2026, 12, 12, 14, 0, 0, 0, time.UTC)
	var got service.ManualGroupInput
	svc := &mockTransportServicer{
		createManual: func(_ context.Context, _ uuid.UUID, in service.ManualGroupInput) (domain.GroupDetail, error) {
			got = in
			g := groupFixture(eventID)
			g.Source = domain.SourceManual
			return domain.GroupDetail{Group: g}, nil
		},
	}

	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost, "/events/"+eventID.String()+"/transport-groups",
		jsonBody(t, map[string]any{
			"direction":       "departure",
			"guestIds":        guests,
			"pickupLocation":  "Taj Palace",
			"dropoffLocation": "BOM T2",
			"pickupTime":      pickup,
		}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.DirectionDeparture, got.Direction)
	assert.Equal(t, guests, got.GuestIDs)
	assert.True(t, pickup.Equal(got.PickupTime))
	assert.Nil(t, got.VehicleID)

	var resp handler.TransportGroupDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "manual", resp.Source)
	assert.NotNil(t, resp.Allocations)
}

func TestCreateGroup_422(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"malformed", `{"direction":`},
		{"unknown field", `{"direction":"arrival","seats":4}`},
		{"bad direction", `{"direction":"sideways"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(newHTTPHandler(services{transport: &mockTransportServicer{}}), http.MethodPost,
				"/events/"+uuid.NewString()+"/transport-groups", bytesReader(tc.body))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, "validation_error", decodeError(t, rec).Error.Code)
		})
	}
}

func TestCreateGroup_409_GuestAlreadyAllocated(t *testing.T) {
	svc := &mockTransportServicer{
		createManual: func(context.Context, uuid.UUID, service.ManualGroupInput) (domain.GroupDetail, error) {
			return domain.GroupDetail{}, fmt.Errorf("service.TransportService.CreateManualGroup: %w: guest already has an arrival group", domain.ErrConflict)
		},
	}
	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost, "/events/"+uuid.NewString()+"/transport-groups",
		jsonBody(t, map[string]any{"direction": "arrival", "guestIds": []uuid.UUID{uuid.New()}}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "conflict", resp.Error.Code)
	assert.Equal(t, "conflict: guest already has an arrival group", resp.Error.Message)
}

// ---- POST /events/{id}/vehicles/{vehicleId}/assign --------------------------

func TestAssignVehicle_200(t *testing.T) {
	eventID, vehicleID := uuid.New(), uuid.New()
	g := groupFixture(eventID)
	svc := &mockTransportServicer{
		assignVehicle: func(_ context.Context, _, vID, gID uuid.UUID) (domain.TransportGroup, error) {
			assert.Equal(t, vehicleID, vID)
			assert.Equal(t, g.ID, gID)
			g.VehicleID = &vID
			g.Status = domain.GroupAssigned
			return g, nil
		},
	}

	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost,
		fmt.Sprintf("/events/%s/vehicles/%s/assign", eventID, vehicleID),
		jsonBody(t, map[string]any{"transportGroupId": g.ID}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.TransportGroup
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.VehicleID)
	assert.Equal(t, vehicleID, *resp.VehicleID)
	assert.Equal(t, "assigned", resp.Status)
}

func TestAssignVehicle_400_CapacityExceeded(t *testing.T) {
	svc := &mockTransportServicer{
		assignVehicle: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (domain.TransportGroup, error) {
			return domain.TransportGroup{}, fmt.Errorf("service.TransportService.AssignVehicle: %w",
				&domain.CapacityExceededError{GroupSeats: 3, VehicleCapacity: 2})
		},
	}

	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost,
		fmt.Sprintf("/events/%s/vehicles/%s/assign", uuid.New(), uuid.New()),
		jsonBody(t, map[string]any{"transportGroupId": uuid.New()}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "capacity_exceeded", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "3 seats")
	// JSON numbers decode into float64 through map[string]any.
	assert.Equal(t, map[string]any{"groupSeats": float64(3), "vehicleCapacity": float64(2)}, resp.Error.Details)
}

func TestAssignVehicle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unavailable", fmt.Errorf("svc: %w", domain.ErrVehicleUnavailable), http.StatusBadRequest, "vehicle_unavailable"},
		{"not found", fmt.Errorf("svc: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"in transit", fmt.Errorf("svc: %w", domain.ErrInvalidTransition), http.StatusConflict, "invalid_transition"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockTransportServicer{
				assignVehicle: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (domain.TransportGroup, error) {
					return domain.TransportGroup{}, tc.err
				},
			}
			rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost,
				fmt.Sprintf("/events/%s/vehicles/%s/assign", uuid.New(), uuid.New()),
				jsonBody(t, map[string]any{"transportGroupId": uuid.New()}))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestAssignVehicle_422_MissingGroup(t *testing.T) {
	rec := serve(newHTTPHandler(services{transport: &mockTransportServicer{}}), http.MethodPost,
		fmt.Sprintf("/events/%s/vehicles/%s/assign", uuid.New(), uuid.New()),
		jsonBody(t, map[string]any{}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "transportGroupId is required", decodeError(t, rec).Error.Message)
}

// ---- status, pickups, representative -----------------------------------------

func TestUpdateGroupStatus(t *testing.T) {
	eventID := uuid.New()
	g := groupFixture(eventID)
	svc := &mockTransportServicer{
		updateStatus: func(_ context.Context, _, _ uuid.UUID, to domain.GroupStatus) (domain.TransportGroup, error) {
			if to == domain.GroupAssigned {
				return domain.TransportGroup{}, fmt.Errorf("service.TransportService.UpdateStatus: %w: in_transit -> assigned", domain.ErrInvalidTransition)
			}
			g.Status = to
			return g, nil
		},
	}
	h := newHTTPHandler(services{transport: svc})
	target := fmt.Sprintf("/events/%s/transport-groups/%s/status", eventID, g.ID)

	rec := serve(h, http.MethodPatch, target, jsonBody(t, map[string]any{"status": "in_transit"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.TransportGroup
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "in_transit", resp.Status)

	rec = serve(h, http.MethodPatch, target, jsonBody(t, map[string]any{"status": "assigned"}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decodeError(t, rec).Error.Code)

	rec = serve(h, http.MethodPatch, target, jsonBody(t, map[string]any{"status": "lost"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUnassignVehicle_200(t *testing.T) {
	eventID := uuid.New()
	g := groupFixture(eventID)
	g.UnassignedReason = domain.ReasonUnassigned
	svc := &mockTransportServicer{
		unassignVehicle: func(context.Context, uuid.UUID, uuid.UUID) (domain.TransportGroup, error) {
			return g, nil
		},
	}
	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPost,
		fmt.Sprintf("/events/%s/transport-groups/%s/unassign-vehicle", eventID, g.ID), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.TransportGroup
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.ReasonUnassigned, resp.UnassignedReason)
	assert.Equal(t, "pending", resp.Status)
}

func TestConfirmPickup(t *testing.T) {
	eventID := uuid.New()
	g := groupFixture(eventID)
	guest := uuid.New()
	svc := &mockTransportServicer{
		confirmPickup: func(_ context.Context, _, _, guestID uuid.UUID) (domain.TransportGroup, error) {
			if guestID != guest {
				return domain.TransportGroup{}, fmt.Errorf("repo.TransportGroupRepo.MarkPickedUp: %w", domain.ErrNotFound)
			}
			g.GuestsPickedUp = 3
			g.Status = domain.GroupCompleted
			return g, nil
		},
	}
	h := newHTTPHandler(services{transport: svc})
	target := fmt.Sprintf("/events/%s/transport-groups/%s/pickups", eventID, g.ID)

	rec := serve(h, http.MethodPost, target, jsonBody(t, map[string]any{"guestId": guest}))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.TransportGroup
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.GuestsPickedUp)
	assert.Equal(t, "completed", resp.Status)

	rec = serve(h, http.MethodPost, target, jsonBody(t, map[string]any{"guestId": uuid.New()}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodPost, target, jsonBody(t, map[string]any{}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAttachRepresentative_NullDetaches(t *testing.T) {
	eventID := uuid.New()
	g := groupFixture(eventID)
	called := false
	svc := &mockTransportServicer{
		attachRep: func(_ context.Context, _, _ uuid.UUID, repID *uuid.UUID) (domain.TransportGroup, error) {
			called = true
			assert.Nil(t, repID)
			return g, nil
		},
	}
	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodPut,
		fmt.Sprintf("/events/%s/transport-groups/%s/representative", eventID, g.ID),
		jsonBody(t, map[string]any{"representativeId": nil}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

// ---- GET .../manifest.pdf ---------------------------------------------------

func TestGetDriverManifest_PDF(t *testing.T) {
	eventID, groupID := uuid.New(), uuid.New()
	svc := &mockTransportServicer{
		driverManifest: func(context.Context, uuid.UUID, uuid.UUID) ([]byte, error) {
			return []byte("%PDF-1.3 fake"), nil
		},
	}
	rec := serve(newHTTPHandler(services{transport: svc}), http.MethodGet,
		fmt.Sprintf("/events/%s/transport-groups/%s/manifest.pdf", eventID, groupID), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), groupID.String())
	assert.Equal(t, "%PDF-1.3 fake", rec.Body.String())
}
