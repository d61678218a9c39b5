package pipeline

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psc-mapa/psc-cli/internal/config"
	"github.com/psc-mapa/psc-cli/internal/pointset"
	"github.com/psc-mapa/psc-cli/internal/proj"
	"github.com/psc-mapa/psc-cli/internal/region"
)

func testBuildConfig() *config.BuildConfig {
	return &config.BuildConfig{
		Strategy:              "concave",
		BufferRadiusM:         500,
		AlphaMinM:             800,
		AlphaMaxM:             5000,
		AlphaDensityThreshold: 50,
		ClipBufferM:           500,
		SimplifyToleranceM:    20,
		AdjacencyToleranceM:   25,
		PaletteSize:           6,
		Workers:               4,
	}
}

// gridPoints lays out a stepM-spaced n×n grid of points for one code,
// anchored at (originX, originY) meters from the frame center.
func gridPoints(frame *proj.Frame, code string, originX, originY, stepM float64, n int) []pointset.Point {
	var pts []pointset.Point
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			lon, lat := frame.Unproject(originX+float64(i)*stepM, originY+float64(j)*stepM)
			pts = append(pts, pointset.Point{
				Code:     code,
				Lon:      lon,
				Lat:      lat,
				SourceID: fmt.Sprintf("%s-%d-%d", code, i, j),
			})
		}
	}
	return pts
}

func testPoints(frame *proj.Frame) []pointset.Point {
	pts := gridPoints(frame, "11000", 0, 0, 400, 4)
	pts = append(pts, gridPoints(frame, "12000", 3000, 0, 400, 4)...)
	// Single address and a pair, exercising the small-group paths.
	lon, lat := frame.Unproject(-3000, 0)
	pts = append(pts, pointset.Point{Code: "13000", Lon: lon, Lat: lat, SourceID: "13000-0"})
	lon, lat = frame.Unproject(0, 5000)
	pts = append(pts, pointset.Point{Code: "14000", Lon: lon, Lat: lat, SourceID: "14000-0"})
	lon, lat = frame.Unproject(800, 5000)
	pts = append(pts, pointset.Point{Code: "14000", Lon: lon, Lat: lat, SourceID: "14000-1"})
	return pts
}

func TestRunConcave(t *testing.T) {
	frame := proj.NewFrame(14.4, 50.05)
	cfg := testBuildConfig()

	res, err := Run(context.Background(), cfg, testPoints(frame))
	require.NoError(t, err)

	require.Len(t, res.Regions, 4)
	byCode := map[string]*region.Region{}
	for _, r := range res.Regions {
		byCode[r.Code] = r
	}

	assert.Equal(t, region.MethodConcaveHull, byCode["11000"].Method)
	assert.Equal(t, region.MethodConcaveHull, byCode["12000"].Method)
	assert.Equal(t, region.MethodBuffer, byCode["13000"].Method)
	assert.Equal(t, region.MethodConvexHullFallback, byCode["14000"].Method)

	for _, r := range res.Regions {
		assert.GreaterOrEqual(t, r.ColorIndex, 0, r.Code)
		assert.Less(t, r.ColorIndex, cfg.PaletteSize, r.Code)
		assert.Greater(t, r.AreaKm2, 0.0, r.Code)
	}

	// Distinct colors across every adjacency edge.
	for _, e := range res.Graph.Edges() {
		assert.NotEqual(t, res.Colors[e.A], res.Colors[e.B])
	}

	rep := res.Report
	assert.Equal(t, 4, rep.Regions)
	assert.Equal(t, len(testPoints(frame)), rep.Points)
	assert.Empty(t, rep.Failed)
	assert.Equal(t, 0, rep.ColorConflicts)
	assert.Equal(t, 2, rep.MethodCounts[string(region.MethodConcaveHull)])
	// All four regions are well separated, so no edges exist even though
	// the graph holds four nodes.
	assert.Empty(t, res.Graph.Edges())
	assert.Equal(t, 0, rep.AdjacencyEdges)
}

func TestRunVoronoi(t *testing.T) {
	frame := proj.NewFrame(14.4, 50.05)
	cfg := testBuildConfig()
	cfg.Strategy = "voronoi"

	pts := gridPoints(frame, "11000", 0, 0, 500, 3)
	pts = append(pts, gridPoints(frame, "12000", 3000, 0, 500, 3)...)

	res, err := Run(context.Background(), cfg, pts)
	require.NoError(t, err)
	require.Len(t, res.Regions, 2)
	for _, r := range res.Regions {
		assert.Equal(t, region.MethodVoronoiCell, r.Method)
	}
	assert.Equal(t, "voronoi", res.Report.Strategy)

	// The two codes share the Voronoi bisector, giving exactly one edge.
	assert.Equal(t, len(res.Graph.Edges()), res.Report.AdjacencyEdges)
	assert.Equal(t, 1, res.Report.AdjacencyEdges)
}

func TestRunSkipsInvalidRecords(t *testing.T) {
	frame := proj.NewFrame(14.4, 50.05)
	pts := gridPoints(frame, "11000", 0, 0, 400, 3)
	pts = append(pts,
		pointset.Point{Code: "", Lon: 14.4, Lat: 50.0},
		pointset.Point{Code: "12000", Lon: math.NaN(), Lat: 50.0},
	)

	res, err := Run(context.Background(), testBuildConfig(), pts)
	require.NoError(t, err)
	assert.Len(t, res.Regions, 1)
}

func TestRunStrictRejectsInvalidRecords(t *testing.T) {
	frame := proj.NewFrame(14.4, 50.05)
	cfg := testBuildConfig()
	cfg.Strict = true

	pts := gridPoints(frame, "11000", 0, 0, 400, 3)
	pts = append(pts, pointset.Point{Code: "", Lon: 14.4, Lat: 50.0})

	_, err := Run(context.Background(), cfg, pts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input records")
}

func TestRunNoPoints(t *testing.T) {
	_, err := Run(context.Background(), testBuildConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable points")
}

func TestRunUnknownStrategy(t *testing.T) {
	frame := proj.NewFrame(14.4, 50.05)
	cfg := testBuildConfig()
	cfg.Strategy = "quilt"

	_, err := Run(context.Background(), cfg, gridPoints(frame, "11000", 0, 0, 400, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown build strategy")
}

func TestRunDeterministic(t *testing.T) {
	frame := proj.NewFrame(14.4, 50.05)
	pts := testPoints(frame)

	first, err := Run(context.Background(), testBuildConfig(), pts)
	require.NoError(t, err)

	for range 3 {
		res, err := Run(context.Background(), testBuildConfig(), pts)
		require.NoError(t, err)
		require.Len(t, res.Regions, len(first.Regions))
		for i, r := range res.Regions {
			assert.Equal(t, first.Regions[i].Code, r.Code)
			assert.Equal(t, first.Regions[i].ColorIndex, r.ColorIndex)
			assert.Equal(t, first.Regions[i].Geom.FlatCoords(), r.Geom.FlatCoords())
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	frame := proj.NewFrame(14.4, 50.05)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testBuildConfig(), testPoints(frame))
	require.Error(t, err)
}
