package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// sqlstateSerializationFailure is returned by Postgres when a serializable
// transaction cannot be committed.
const sqlstateSerializationFailure = "40001"

// Transactor runs a function against repositories bound to one transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	// WithinTx runs fn in a read committed transaction.
	WithinTx(ctx context.Context, fn func(Repos) error) error

	// WithinEventLock runs fn in a serializable transaction holding a
	// transaction-scoped advisory lock for eventID. Returns
	// domain.ErrConcurrentRegeneration when the lock is held elsewhere or the
	// commit loses a serialization race.
	WithinEventLock(ctx context.Context, eventID uuid.UUID, fn func(Repos) error) error
}

// beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type pgTransactor struct {
	db beginner
}

// NewTransactor constructs a Transactor that opens transactions on db.
func NewTransactor(db beginner) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(Repos) error) error {
	return t.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	})
}

func (t *pgTransactor) WithinEventLock(ctx context.Context, eventID uuid.UUID, fn func(Repos) error) error {
	err := t.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		const q = `SELECT pg_try_advisory_xact_lock(hashtextextended(@key, 0))`

		var locked bool
		if err := tx.QueryRow(ctx, q, pgx.NamedArgs{"key": "transport:" + eventID.String()}).Scan(&locked); err != nil {
			return fmt.Errorf("acquire event lock: %w", err)
		}
		if !locked {
			return domain.ErrConcurrentRegeneration
		}
		return fn(NewRepos(tx))
	})
	if isSerializationFailure(err) {
		return fmt.Errorf("repo.Transactor.WithinEventLock: %w", domain.ErrConcurrentRegeneration)
	}
	return err
}

func (t *pgTransactor) run(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("repo.Transactor: begin: %w", err)
	}
	defer func() {
		// Rollback after a successful Commit is a no-op.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.Transactor: commit: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlstateSerializationFailure
}
