// Package repo contains all database access logic for the transport
// coordination service. Each resource has its own file with an interface and a
// Postgres implementation. No business logic lives here, only SQL and type
// mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Events          EventRepo
	Guests          GuestRepo
	Travel          TravelRecordRepo
	Vendors         VendorRepo
	Vehicles        VehicleRepo
	Groups          TransportGroupRepo
	Representatives RepresentativeRepo
}

// NewRepos binds all repositories to db.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRepos(db db) Repos {
	return Repos{
		Events:          NewEventRepo(db),
		Guests:          NewGuestRepo(db),
		Travel:          NewTravelRecordRepo(db),
		Vendors:         NewVendorRepo(db),
		Vehicles:        NewVehicleRepo(db),
		Groups:          NewTransportGroupRepo(db),
		Representatives: NewRepresentativeRepo(db),
	}
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// collect drains rows through scan. The caller's method name prefixes errors.
func collect[T any](rows pgx.Rows, op string, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}
