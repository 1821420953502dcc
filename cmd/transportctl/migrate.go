package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/wedding-transport/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withProvider(cmd.Context(), func(ctx context.Context, p *goose.Provider) error {
					results, err := p.Up(ctx)
					if err != nil {
						return fmt.Errorf("migrate up: %w", err)
					}
					for _, r := range results {
						fmt.Fprintf(cmd.OutOrStdout(), "applied %s (%s)\n", r.Source.Path, r.Duration)
					}
					if len(results) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withProvider(cmd.Context(), func(ctx context.Context, p *goose.Provider) error {
					r, err := p.Down(ctx)
					if errors.Is(err, goose.ErrNoNextVersion) {
						fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
						return nil
					}
					if err != nil {
						return fmt.Errorf("migrate down: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", r.Source.Path)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withProvider(cmd.Context(), func(ctx context.Context, p *goose.Provider) error {
					statuses, err := p.Status(ctx)
					if err != nil {
						return fmt.Errorf("migrate status: %w", err)
					}
					for _, s := range statuses {
						applied := "pending"
						if s.State == goose.StateApplied {
							applied = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
						fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", s.Source.Path, applied)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func withProvider(ctx context.Context, fn func(context.Context, *goose.Provider) error) error {
	pool, _, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) { _ = db.Close() }(db)

	p, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}
	return fn(ctx, p)
}
