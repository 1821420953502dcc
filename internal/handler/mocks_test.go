package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/handler"
	"github.com/pkordes/wedding-transport/internal/service"
)

// Each mock is a test double for one servicer interface.
// Set only the method fields your test needs; calling an unset one panics,
// which flags an unexpected call.

type mockTransportServicer struct {
	regenerate      func(ctx context.Context, eventID uuid.UUID, dir domain.Direction) (domain.RegenerationResult, error)
	listGroups      func(ctx context.Context, eventID uuid.UUID, dir *domain.Direction) ([]domain.TransportGroup, error)
	getGroup        func(ctx context.Context, eventID, groupID uuid.UUID) (domain.GroupDetail, error)
	createManual    func(ctx context.Context, eventID uuid.UUID, in service.ManualGroupInput) (domain.GroupDetail, error)
	updateStatus    func(ctx context.Context, eventID, groupID uuid.UUID, to domain.GroupStatus) (domain.TransportGroup, error)
	unassignVehicle func(ctx context.Context, eventID, groupID uuid.UUID) (domain.TransportGroup, error)
	assignVehicle   func(ctx context.Context, eventID, vehicleID, groupID uuid.UUID) (domain.TransportGroup, error)
	confirmPickup   func(ctx context.Context, eventID, groupID, guestID uuid.UUID) (domain.TransportGroup, error)
	attachRep       func(ctx context.Context, eventID, groupID uuid.UUID, repID *uuid.UUID) (domain.TransportGroup, error)
	driverManifest  func(ctx context.Context, eventID, groupID uuid.UUID) ([]byte, error)
}

func (m *mockTransportServicer) Regenerate(ctx context.Context, eventID uuid.UUID, dir domain.Direction) (domain.RegenerationResult, error) {
	return m.regenerate(ctx, eventID, dir)
}
func (m *mockTransportServicer) ListGroups(ctx context.Context, eventID uuid.UUID, dir *domain.Direction) ([]domain.TransportGroup, error) {
	return m.listGroups(ctx, eventID, dir)
}
func (m *mockTransportServicer) GetGroup(ctx context.Context, eventID, groupID uuid.UUID) (domain.GroupDetail, error) {
	return m.getGroup(ctx, eventID, groupID)
}
func (m *mockTransportServicer) CreateManualGroup(ctx context.Context, eventID uuid.UUID, in service.ManualGroupInput) (domain.GroupDetail, error) {
	return m.createManual(ctx, eventID, in)
}
func (m *mockTransportServicer) UpdateStatus(ctx context.Context, eventID, groupID uuid.UUID, to domain.GroupStatus) (domain.TransportGroup, error) {
	return m.updateStatus(ctx, eventID, groupID, to)
}
func (m *mockTransportServicer) UnassignVehicle(ctx context.Context, eventID, groupID uuid.UUID) (domain.TransportGroup, error) {
	return m.unassignVehicle(ctx, eventID, groupID)
}
func (m *mockTransportServicer) AssignVehicle(ctx context.Context, eventID, vehicleID, groupID uuid.UUID) (domain.TransportGroup, error) {
	return m.assignVehicle(ctx, eventID, vehicleID, groupID)
}
func (m *mockTransportServicer) ConfirmPickup(ctx context.Context, eventID, groupID, guestID uuid.UUID) (domain.TransportGroup, error) {
	return m.confirmPickup(ctx, eventID, groupID, guestID)
}
func (m *mockTransportServicer) AttachRepresentative(ctx context.Context, eventID, groupID uuid.UUID, repID *uuid.UUID) (domain.TransportGroup, error) {
	return m.attachRep(ctx, eventID, groupID, repID)
}
func (m *mockTransportServicer) DriverManifest(ctx context.Context, eventID, groupID uuid.UUID) ([]byte, error) {
	return m.driverManifest(ctx, eventID, groupID)
}

type mockFleetServicer struct {
	createVendor         func(ctx context.Context, v domain.Vendor) (domain.Vendor, error)
	listVendors          func(ctx context.Context, eventID uuid.UUID) ([]domain.Vendor, error)
	createVehicle        func(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	getVehicle           func(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error)
	listVehicles         func(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) ([]domain.Vehicle, int64, error)
	updateVehicle        func(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
	deleteVehicle        func(ctx context.Context, eventID, id uuid.UUID) error
	setVehicleStatus     func(ctx context.Context, eventID, id uuid.UUID, status domain.VehicleStatus) (domain.Vehicle, error)
	createRepresentative func(ctx context.Context, rep domain.LocationRepresentative) (domain.LocationRepresentative, error)
	listRepresentatives  func(ctx context.Context, eventID uuid.UUID) ([]domain.LocationRepresentative, error)
}

func (m *mockFleetServicer) CreateVendor(ctx context.Context, v domain.Vendor) (domain.Vendor, error) {
	return m.createVendor(ctx, v)
}
func (m *mockFleetServicer) ListVendors(ctx context.Context, eventID uuid.UUID) ([]domain.Vendor, error) {
	return m.listVendors(ctx, eventID)
}
func (m *mockFleetServicer) CreateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	return m.createVehicle(ctx, v)
}
func (m *mockFleetServicer) GetVehicle(ctx context.Context, eventID, id uuid.UUID) (domain.Vehicle, error) {
	return m.getVehicle(ctx, eventID, id)
}
func (m *mockFleetServicer) ListVehicles(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) ([]domain.Vehicle, int64, error) {
	return m.listVehicles(ctx, eventID, p)
}
func (m *mockFleetServicer) UpdateVehicle(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	return m.updateVehicle(ctx, v)
}
func (m *mockFleetServicer) DeleteVehicle(ctx context.Context, eventID, id uuid.UUID) error {
	return m.deleteVehicle(ctx, eventID, id)
}
func (m *mockFleetServicer) SetVehicleStatus(ctx context.Context, eventID, id uuid.UUID, status domain.VehicleStatus) (domain.Vehicle, error) {
	return m.setVehicleStatus(ctx, eventID, id, status)
}
func (m *mockFleetServicer) CreateRepresentative(ctx context.Context, rep domain.LocationRepresentative) (domain.LocationRepresentative, error) {
	return m.createRepresentative(ctx, rep)
}
func (m *mockFleetServicer) ListRepresentatives(ctx context.Context, eventID uuid.UUID) ([]domain.LocationRepresentative, error) {
	return m.listRepresentatives(ctx, eventID)
}

type mockCoordinationServicer struct {
	status      func(ctx context.Context, eventID uuid.UUID) (domain.CoordinationStatus, error)
	export      func(ctx context.Context, eventID uuid.UUID) ([]domain.ManifestRow, error)
	importRows  func(ctx context.Context, eventID uuid.UUID, rows []domain.ManifestRow) (domain.ImportResult, error)
	reportDelay func(ctx context.Context, eventID, guestID uuid.UUID, delayMinutes int, actual *time.Time) (domain.TravelRecord, error)
}

func (m *mockCoordinationServicer) Status(ctx context.Context, eventID uuid.UUID) (domain.CoordinationStatus, error) {
	return m.status(ctx, eventID)
}
func (m *mockCoordinationServicer) Export(ctx context.Context, eventID uuid.UUID) ([]domain.ManifestRow, error) {
	return m.export(ctx, eventID)
}
func (m *mockCoordinationServicer) Import(ctx context.Context, eventID uuid.UUID, rows []domain.ManifestRow) (domain.ImportResult, error) {
	return m.importRows(ctx, eventID, rows)
}
func (m *mockCoordinationServicer) ReportDelay(ctx context.Context, eventID, guestID uuid.UUID, delayMinutes int, actual *time.Time) (domain.TravelRecord, error) {
	return m.reportDelay(ctx, eventID, guestID, delayMinutes, actual)
}

type mockNotificationServicer struct {
	dispatch func(ctx context.Context, eventID uuid.UUID, t domain.NotificationType, guestIDs []uuid.UUID) (domain.DispatchResult, error)
}

func (m *mockNotificationServicer) Dispatch(ctx context.Context, eventID uuid.UUID, t domain.NotificationType, guestIDs []uuid.UUID) (domain.DispatchResult, error) {
	return m.dispatch(ctx, eventID, t, guestIDs)
}

// compile-time checks: every mock must satisfy its handler interface.
var (
	_ handler.TransportServicer    = (*mockTransportServicer)(nil)
	_ handler.FleetServicer        = (*mockFleetServicer)(nil)
	_ handler.CoordinationServicer = (*mockCoordinationServicer)(nil)
	_ handler.NotificationServicer = (*mockNotificationServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

// services bundles the mocks a test wants wired. Nil fields stay nil in the
// Server, mirroring how main.go always passes all four.
type services struct {
	transport     *mockTransportServicer
	fleet         *mockFleetServicer
	coordination  *mockCoordinationServicer
	notifications *mockNotificationServicer
}

// newHTTPHandler wires a Server with the given mocks into the chi router.
// This mirrors exactly how main.go wires it in production.
func newHTTPHandler(s services) http.Handler {
	var (
		t handler.TransportServicer
		f handler.FleetServicer
		c handler.CoordinationServicer
		n handler.NotificationServicer
	)
	if s.transport != nil {
		t = s.transport
	}
	if s.fleet != nil {
		f = s.fleet
	}
	if s.coordination != nil {
		c = s.coordination
	}
	if s.notifications != nil {
		n = s.notifications
	}
	return handler.NewServer(t, f, c, n, nil).Handler()
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}

// serve sends one request through h and returns the recorder.
func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func groupFixture(eventID uuid.UUID) domain.TransportGroup {
	pickup := time.Date(2026, 12, 12, 10, 0, 0, 0, time.UTC)
	return domain.TransportGroup{
		ID:              uuid.New(),
		EventID:         eventID,
		Direction:       domain.DirectionArrival,
		Source:          domain.SourceAuto,
		PickupLocation:  "BOM T2",
		PickupTime:      pickup,
		WindowEnd:       pickup.Add(time.Hour),
		DropoffLocation: "Taj Palace",
		Status:          domain.GroupPending,
		TotalGuests:     3,
		CreatedAt:       pickup.Add(-48 * time.Hour),
		UpdatedAt:       pickup.Add(-48 * time.Hour),
	}
}
