package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pkordes/wedding-transport/internal/metrics"
	"github.com/pkordes/wedding-transport/internal/repo"
	"github.com/pkordes/wedding-transport/internal/service"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show flight coordination progress and transport groups of an event",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().String("event", "", "event id (required)")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	eventID, err := eventFlag(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, cfg, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	log := newLogger(cfg.LogLevel)
	m := metrics.New(prometheus.NewRegistry(), "transportctl")
	repos := repo.NewRepos(pool)

	st, err := service.NewCoordinationService(repos, log, m).Status(ctx, eventID)
	if err != nil {
		return err
	}
	groups, err := service.NewTransportService(repo.NewTransactor(pool), repos, log, m).ListGroups(ctx, eventID, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	exported := "no"
	if st.FlightListExportedAt != nil {
		exported = st.FlightListExportedAt.Format("2006-01-02 15:04 MST")
	}
	fmt.Fprintf(out, "guests needing assistance: %d\n", st.TotalNeeding)
	fmt.Fprintf(out, "with travel info:          %d\n", st.WithTravelInfo)
	fmt.Fprintf(out, "confirmed:                 %d\n", st.Confirmed)
	fmt.Fprintf(out, "completion:                %d%%\n", st.CompletionPercent)
	fmt.Fprintf(out, "flight list exported:      %s\n\n", exported)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTION\tPICKUP\tLOCATION\tSTATUS\tGUESTS\tVEHICLE")
	for _, g := range groups {
		vehicle := "-"
		if g.VehicleID != nil {
			vehicle = g.VehicleID.String()
		} else if g.UnassignedReason != "" {
			vehicle = g.UnassignedReason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			g.Direction, g.PickupTime.UTC().Format("2006-01-02 15:04Z"), g.PickupLocation,
			g.Status, g.GuestsPickedUp, g.TotalGuests, vehicle)
	}
	return tw.Flush()
}
