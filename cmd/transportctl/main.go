// Command transportctl is the operator CLI for the wedding transport service.
// It applies schema migrations and runs the batch operations that the API
// exposes, against the database named by DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pkordes/wedding-transport/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "transportctl",
		Short:         "Operate the wedding transport service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(regenerateCmd())
	root.AddCommand(statusCmd())
	return root
}

// connect loads configuration and opens a verified connection pool.
func connect(ctx context.Context) (*pgxpool.Pool, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, config.Config{}, fmt.Errorf("connect to database: %w", err)
	}
	return pool, cfg, nil
}

// eventFlag reads and parses the required --event flag.
func eventFlag(cmd *cobra.Command) (uuid.UUID, error) {
	raw, err := cmd.Flags().GetString("event")
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid event id %q", raw)
	}
	return id, nil
}

// newLogger writes text logs to stderr so stdout stays machine readable.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
