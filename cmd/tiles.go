package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/tiles"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Cut vector tiles from the generated GeoJSON",
	Long:  "Runs tippecanoe over the build output to produce an MVT tile directory for the preview server.",
	RunE:  runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)
}

func runTiles(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tc := tiles.NewTippecanoe(tiles.Options{
		BinPath:   cfg.Tiles.TippecanoePath,
		MinZoom:   cfg.Tiles.MinZoom,
		MaxZoom:   cfg.Tiles.MaxZoom,
		Layer:     cfg.Tiles.Layer,
		OutputDir: cfg.Tiles.OutputDir,
	})

	if err := tc.Run(ctx, cfg.Output.GeoJSON); err != nil {
		return err
	}

	zap.L().Info("tiles written", zap.String("dir", cfg.Tiles.OutputDir))
	return nil
}
