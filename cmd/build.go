package main

import (
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/output"
	"github.com/psc-mapa/psc-cli/internal/pipeline"
	"github.com/psc-mapa/psc-cli/internal/store"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build colored boundary polygons from stored points",
	Long:  "Loads points from the store, synthesizes a boundary polygon per postal code, derives adjacency, assigns map colors, and writes GeoJSON, the run report, and optionally Postgres.",
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	points, err := st.LoadPoints(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("points loaded", zap.Int("count", len(points)))

	res, err := pipeline.Run(ctx, &cfg.Build, points)
	if err != nil {
		return err
	}

	if err := output.WriteGeoJSON(cfg.Output.GeoJSON, res.Regions); err != nil {
		return err
	}
	if err := output.WriteReport(cfg.Output.Report, res.Report); err != nil {
		return err
	}

	if cfg.Output.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Output.PostgresURL)
		if err != nil {
			return eris.Wrap(err, "cmd: connect postgres")
		}
		defer pool.Close()

		if _, err := output.WriteRegions(ctx, pool, res.Regions); err != nil {
			return err
		}
	}

	return nil
}
