package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/psc-mapa/psc-cli/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show point store contents and the last ingest run",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "points:  %d\n", stats.Points)
	fmt.Fprintf(out, "codes:   %d\n", stats.Codes)
	if stats.Points > 0 {
		fmt.Fprintf(out, "extent:  lon [%.5f, %.5f] lat [%.5f, %.5f]\n",
			stats.MinLon, stats.MaxLon, stats.MinLat, stats.MaxLat)
	}
	if stats.LastRun != nil {
		r := stats.LastRun
		fmt.Fprintf(out, "last run: %s  source=%s  status=%s  accepted=%d rejected=%d\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Source, r.Status, r.Accepted, r.Rejected)
		if r.Error != "" {
			fmt.Fprintf(out, "error:   %s\n", r.Error)
		}
	}
	return nil
}
