package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/psc-mapa/psc-cli/internal/fetcher"
	"github.com/psc-mapa/psc-cli/internal/ingest"
	"github.com/psc-mapa/psc-cli/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <source>",
	Short: "Load address points from a RÚIAN CSV or shapefile",
	Long:  "Reads a RÚIAN address-point export (CSV, zipped CSV, or point shapefile; local path or http/ftp URL) and loads it into the point store.",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().Bool("replace", false, "Clear existing points before loading")
	ingestCmd.Flags().String("code-field", "PSC", "Shapefile attribute holding the postal code")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := args[0]
	replace, _ := cmd.Flags().GetBool("replace")
	codeField, _ := cmd.Flags().GetString("code-field")

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if replace {
		if err := st.Clear(ctx); err != nil {
			return err
		}
	}

	run, err := st.BeginRun(ctx, source)
	if err != nil {
		return err
	}

	res, err := parseSource(ctx, source, codeField)
	if err != nil {
		if ferr := st.FailRun(ctx, run.ID, err.Error()); ferr != nil {
			zap.L().Error("mark run failed", zap.Error(ferr))
		}
		return err
	}

	if err := st.InsertPoints(ctx, run.ID, res.Points); err != nil {
		if ferr := st.FailRun(ctx, run.ID, err.Error()); ferr != nil {
			zap.L().Error("mark run failed", zap.Error(ferr))
		}
		return err
	}
	if err := st.CompleteRun(ctx, run.ID, res.Accepted, res.Rejected); err != nil {
		return err
	}

	zap.L().Info("ingest complete",
		zap.String("run", run.ID),
		zap.Int("accepted", res.Accepted),
		zap.Int("rejected", res.Rejected),
		zap.Int("projection_failures", res.ProjectionFailures),
		zap.Int("out_of_bounds", res.OutOfBounds))
	return nil
}

// parseSource dispatches on file type. Shapefiles must be local paths;
// CSV sources may be local, zipped, or remote.
func parseSource(ctx context.Context, source, codeField string) (*ingest.Result, error) {
	if strings.EqualFold(filepath.Ext(source), ".shp") {
		return ingest.Shapefile(source, codeField)
	}

	r, err := ingest.OpenSource(ctx, source, fetcher.HTTPOptions{
		Timeout:    time.Duration(cfg.Ingest.TimeoutSecs) * time.Second,
		RatePerSec: rate.Limit(cfg.Ingest.RatePerSec),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "cmd: open source %s", source)
	}
	defer r.Close()

	var delim rune
	if cfg.Ingest.Delimiter != "" {
		delim = rune(cfg.Ingest.Delimiter[0])
	}
	return ingest.CSV(ctx, r, ingest.Options{
		Encoding:  cfg.Ingest.Encoding,
		Delimiter: delim,
	})
}
