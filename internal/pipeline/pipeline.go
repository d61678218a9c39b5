// Package pipeline orchestrates a full build: points in, colored regions
// and a run report out.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/psc-mapa/psc-cli/internal/adjacency"
	"github.com/psc-mapa/psc-cli/internal/color"
	"github.com/psc-mapa/psc-cli/internal/config"
	"github.com/psc-mapa/psc-cli/internal/output"
	"github.com/psc-mapa/psc-cli/internal/pointset"
	"github.com/psc-mapa/psc-cli/internal/proj"
	"github.com/psc-mapa/psc-cli/internal/region"
)

// Result is what a build run produced.
type Result struct {
	Regions []*region.Region
	Graph   *adjacency.Graph
	Colors  color.Assignment
	Report  *output.Report
}

// Run builds regions from the given points per the build configuration.
// Input errors and per-code construction failures abort the run in strict
// mode; otherwise they are logged and reported.
func Run(ctx context.Context, cfg *config.BuildConfig, points []pointset.Point) (*Result, error) {
	start := time.Now()
	rep := &output.Report{
		GeneratedAt: start.UTC(),
		Strategy:    cfg.Strategy,
		Points:      len(points),
		PaletteSize: cfg.PaletteSize,
	}

	set, inputErrs := pointset.New(points)
	if len(inputErrs) > 0 {
		if cfg.Strict {
			return nil, eris.Wrapf(inputErrs[0], "pipeline: %d invalid input records", len(inputErrs))
		}
		zap.L().Warn("invalid input records skipped", zap.Int("count", len(inputErrs)))
	}
	if set.Len() == 0 {
		return nil, eris.New("pipeline: no usable points")
	}

	frame := frameFor(set)
	builder, err := newBuilder(cfg, frame, set)
	if err != nil {
		return nil, err
	}

	regions, failures, err := buildRegions(ctx, builder, set, cfg)
	if err != nil {
		return nil, err
	}
	for _, f := range failures {
		rep.AddFailure(f.code, f.err)
	}

	graph, err := adjacency.Build(ctx, regions, cfg.AdjacencyToleranceM, cfg.Workers)
	if err != nil {
		return nil, err
	}
	rep.AdjacencyEdges = len(graph.Edges())

	colors := color.Assign(graph, cfg.PaletteSize)
	for _, r := range regions {
		r.ColorIndex = colors[r.Code]
	}
	rep.ColorConflicts = len(color.Conflicts(graph, colors))

	output.Summarize(rep, regions)

	zap.L().Info("build complete",
		zap.Int("regions", len(regions)),
		zap.Int("failed", len(rep.Failed)),
		zap.Int("edges", rep.AdjacencyEdges),
		zap.Int("colors_used", rep.ColorsUsed),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{Regions: regions, Graph: graph, Colors: colors, Report: rep}, nil
}

type failure struct {
	code string
	err  error
}

// buildRegions runs the per-code builds on a worker pool. The builder's
// global preparation (Voronoi diagram) already happened in newBuilder;
// Build calls are independent per group.
func buildRegions(ctx context.Context, builder region.Builder, set *pointset.Set, cfg *config.BuildConfig) ([]*region.Region, []failure, error) {
	groups := set.Groups()

	var (
		mu       sync.Mutex
		regions  = make([]*region.Region, 0, len(groups))
		failures []failure
	)

	g, ctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, grp := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := builder.Build(grp)
			if err != nil {
				var ce *region.ConstructionError
				if errors.As(err, &ce) && !cfg.Strict {
					zap.L().Warn("region construction failed",
						zap.String("code", grp.Code), zap.Error(err))
					mu.Lock()
					failures = append(failures, failure{code: grp.Code, err: err})
					mu.Unlock()
					return nil
				}
				return eris.Wrapf(err, "pipeline: build region %s", grp.Code)
			}
			mu.Lock()
			regions = append(regions, r)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].Code < regions[j].Code })
	return regions, failures, nil
}

// newBuilder selects the boundary strategy once per run.
func newBuilder(cfg *config.BuildConfig, frame *proj.Frame, set *pointset.Set) (region.Builder, error) {
	params := region.Params{
		BufferRadiusM:         cfg.BufferRadiusM,
		AlphaMinM:             cfg.AlphaMinM,
		AlphaMaxM:             cfg.AlphaMaxM,
		AlphaDensityThreshold: cfg.AlphaDensityThreshold,
		ClipBufferM:           cfg.ClipBufferM,
		SimplifyToleranceM:    cfg.SimplifyToleranceM,
	}

	switch cfg.Strategy {
	case "", "concave":
		return region.NewConcaveBuilder(params, frame), nil
	case "voronoi":
		return region.NewVoronoiBuilder(params, frame, set.AllPoints())
	default:
		return nil, eris.Errorf("pipeline: unknown build strategy %q", cfg.Strategy)
	}
}

// frameFor centers the metric frame on the dataset.
func frameFor(set *pointset.Set) *proj.Frame {
	pts := set.AllPoints()
	lons := make([]float64, len(pts))
	lats := make([]float64, len(pts))
	for i, p := range pts {
		lons[i] = p.Lon
		lats[i] = p.Lat
	}
	return proj.FrameFor(lons, lats)
}
