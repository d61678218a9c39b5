package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "psc-cli",
	Short: "Czech postal code boundary builder",
	Long:  "Ingests RÚIAN address points, synthesizes PSČ boundary polygons, colors the resulting map, and exports GeoJSON and vector tiles.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
