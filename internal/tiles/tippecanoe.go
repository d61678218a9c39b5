// Package tiles shells out to tippecanoe to cut vector tiles from the
// generated GeoJSON.
package tiles

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options controls a tippecanoe run.
type Options struct {
	BinPath   string // tippecanoe binary, "tippecanoe" if empty
	MinZoom   int
	MaxZoom   int
	Layer     string // tile layer name, "psc" if empty
	OutputDir string // tile directory target
}

// Tippecanoe runs the tippecanoe CLI tool.
type Tippecanoe struct {
	opts Options
}

// NewTippecanoe creates a tile cutter with the given options.
func NewTippecanoe(opts Options) *Tippecanoe {
	if opts.BinPath == "" {
		opts.BinPath = "tippecanoe"
	}
	if opts.Layer == "" {
		opts.Layer = "psc"
	}
	return &Tippecanoe{opts: opts}
}

// Available reports whether the tippecanoe binary can be found on PATH.
func (t *Tippecanoe) Available() error {
	if _, err := exec.LookPath(t.opts.BinPath); err != nil {
		return eris.Wrapf(err, "tiles: tippecanoe binary %q not found", t.opts.BinPath)
	}
	return nil
}

// args builds the tippecanoe argument list for one GeoJSON input.
//
// Shared borders between neighboring polygons must simplify identically
// or the rendered map shows hairline gaps, hence --detect-shared-borders.
func (t *Tippecanoe) args(geojsonPath string) []string {
	return []string{
		"--output-to-directory", t.opts.OutputDir,
		"--layer", t.opts.Layer,
		"--minimum-zoom", fmt.Sprintf("%d", t.opts.MinZoom),
		"--maximum-zoom", fmt.Sprintf("%d", t.opts.MaxZoom),
		"--detect-shared-borders",
		"--coalesce-densest-as-needed",
		"--drop-densest-as-needed",
		"--no-feature-limit",
		"--no-tile-compression",
		"--force",
		geojsonPath,
	}
}

// Run cuts tiles from geojsonPath into the configured output directory.
func (t *Tippecanoe) Run(ctx context.Context, geojsonPath string) error {
	if err := t.Available(); err != nil {
		return err
	}
	if _, err := os.Stat(geojsonPath); err != nil {
		return eris.Wrapf(err, "tiles: input %s", geojsonPath)
	}
	if err := os.MkdirAll(t.opts.OutputDir, 0o755); err != nil {
		return eris.Wrap(err, "tiles: create output dir")
	}

	cmd := exec.CommandContext(ctx, t.opts.BinPath, t.args(geojsonPath)...)

	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr

	zap.L().Info("running tippecanoe",
		zap.String("input", geojsonPath),
		zap.String("output", t.opts.OutputDir),
		zap.Int("min_zoom", t.opts.MinZoom),
		zap.Int("max_zoom", t.opts.MaxZoom))

	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "tiles: tippecanoe failed: %s", stderr.String())
	}
	return nil
}
