// Package testutil holds the database plumbing shared by integration tests.
// Everything here is driven by TEST_DATABASE_URL: tests skip when it is
// unset, so `go test ./...` stays green on machines without Postgres.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/wedding-transport/migrations"
)

// EnvDatabaseURL names the variable holding the test database DSN.
const EnvDatabaseURL = "TEST_DATABASE_URL"

// NewPool returns a pool on the test database, closed when t finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := requireDSN(t)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("testutil: open pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("testutil: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// BeginTx starts a transaction on pool that is rolled back when t finishes.
// Repositories bound to it see their own writes and leave nothing behind.
func BeginTx(t *testing.T, pool *pgxpool.Pool) pgx.Tx {
	t.Helper()
	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB returns a database/sql handle on the test database for code that
// needs one, such as the goose provider. It is closed when t finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	pool := NewPool(t)
	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MigrateUp applies every pending migration to the database at dsn. It is
// meant for TestMain, which has no *testing.T.
func MigrateUp(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("testutil: open pool: %w", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	p, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("testutil: migrate up: %w", err)
	}
	return nil
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skip(EnvDatabaseURL + " not set; skipping integration test")
	}
	return dsn
}
