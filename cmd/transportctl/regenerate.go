package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pkordes/wedding-transport/internal/domain"
	"github.com/pkordes/wedding-transport/internal/metrics"
	"github.com/pkordes/wedding-transport/internal/repo"
	"github.com/pkordes/wedding-transport/internal/service"
)

func regenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Rebuild the automatic transport groups of an event",
		Long: `Rebuild the automatic transport groups of an event from its travel records.

Manual groups and groups already in transit or completed are kept. The
command fails without changing anything when another regeneration for the
same event is running.`,
		Args: cobra.NoArgs,
		RunE: runRegenerate,
	}
	cmd.Flags().String("event", "", "event id (required)")
	cmd.Flags().String("direction", string(domain.DirectionArrival), "arrival or departure")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func runRegenerate(cmd *cobra.Command, _ []string) error {
	eventID, err := eventFlag(cmd)
	if err != nil {
		return err
	}
	rawDir, _ := cmd.Flags().GetString("direction")
	dir, ok := domain.ParseDirection(rawDir)
	if !ok {
		return fmt.Errorf("direction must be arrival or departure, got %q", rawDir)
	}

	ctx := cmd.Context()
	pool, cfg, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := service.NewTransportService(
		repo.NewTransactor(pool),
		repo.NewRepos(pool),
		newLogger(cfg.LogLevel),
		metrics.New(prometheus.NewRegistry(), "transportctl"),
	)
	res, err := svc.Regenerate(ctx, eventID, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "groups created:          %d\n", res.GroupsCreated)
	fmt.Fprintf(out, "guests processed:        %d\n", res.TotalGuestsProcessed)
	fmt.Fprintf(out, "ungroupable records:     %d\n", res.UngroupableCount)
	fmt.Fprintf(out, "groups without vehicle:  %d\n", res.UnassignedGroups)
	return nil
}
