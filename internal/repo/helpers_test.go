package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/repo"
	"github.com/pkordes/wedding-transport/testutil"
)

// newTestRepos returns every repository bound to a transaction that is
// rolled back when the test finishes.
func newTestRepos(t *testing.T) repo.Repos {
	t.Helper()
	return repo.NewRepos(testutil.BeginTx(t, testutil.NewPool(t)))
}

var day = time.Date(2026, 12, 12, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func seedEvent(t *testing.T, r repo.Repos) domain.Event {
	t.Helper()
	e, err := r.Events.Create(context.Background(), domain.Event{
		Name:              "Anu & Ben",
		Venue:             "Taj Palace",
		TimeZone:          "Asia/Kolkata",
		ArrivalBufferTime: "01:00",
	})
	require.NoError(t, err)
	return e
}

func seedGuest(t *testing.T, r repo.Repos, eventID uuid.UUID, name, email string) domain.Guest {
	t.Helper()
	g, err := r.Guests.Create(context.Background(), domain.Guest{
		EventID:               eventID,
		Name:                  name,
		Email:                 email,
		NeedsFlightAssistance: true,
	})
	require.NoError(t, err)
	return g
}

func seedVehicle(t *testing.T, r repo.Repos, eventID uuid.UUID, label string, capacity int) domain.Vehicle {
	t.Helper()
	ctx := context.Background()
	vendor, err := r.Vendors.Create(ctx, domain.Vendor{EventID: eventID, Name: "Vendor " + label})
	require.NoError(t, err)
	v, err := r.Vehicles.Create(ctx, domain.Vehicle{
		EventID: eventID, VendorID: vendor.ID, VehicleType: "van", Label: label, Capacity: capacity,
	})
	require.NoError(t, err)
	return v
}

func ptr[T any](v T) *T { return &v }
