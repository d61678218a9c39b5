package region

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/psc-mapa/psc-cli/internal/pointset"
	"github.com/psc-mapa/psc-cli/internal/proj"
)

// Method records how a region's geometry was constructed.
type Method string

const (
	MethodBuffer             Method = "buffer"
	MethodConvexHull         Method = "convex_hull"
	MethodConvexHullFallback Method = "convex_hull_fallback"
	MethodConcaveHull        Method = "concave_hull"
	MethodVoronoiCell        Method = "voronoi_cell"
)

// Region is the synthesized boundary for one postal code. Immutable after
// construction except for ColorIndex, which the coloring stage attaches.
type Region struct {
	Code       string
	Geom       *geom.MultiPolygon // WGS84
	Planar     Geometry           // metric frame, reused for adjacency tests
	PointCount int
	AreaKm2    float64
	Method     Method
	ColorIndex int
}

// Params are the construction knobs shared by both strategies.
type Params struct {
	BufferRadiusM         float64
	AlphaMinM             float64
	AlphaMaxM             float64
	AlphaDensityThreshold float64 // points per km² above which alpha clamps to min
	ClipBufferM           float64
	SimplifyToleranceM    float64
}

// Builder turns one code's point group into exactly one Region. The two
// tessellation strategies implement it behind the same contract; which one
// runs is a configuration choice made once, not a runtime branch.
type Builder interface {
	Build(group *pointset.Group) (*Region, error)
}

// ConcaveBuilder constructs regions with a density-adaptive alpha shape.
// Invocations are independent across codes and safe to run concurrently.
type ConcaveBuilder struct {
	params Params
	frame  *proj.Frame
}

// NewConcaveBuilder creates the adaptive concave-hull strategy.
func NewConcaveBuilder(params Params, frame *proj.Frame) *ConcaveBuilder {
	return &ConcaveBuilder{params: params, frame: frame}
}

// Build implements Builder.
func (b *ConcaveBuilder) Build(group *pointset.Group) (*Region, error) {
	pts, err := projectGroup(b.frame, group)
	if err != nil {
		return nil, err
	}

	if len(group.Points) <= 3 {
		return buildSmall(b.frame, group, pts, b.params.BufferRadiusM)
	}

	g, method, err := b.alphaShape(group.Code, pts)
	if err != nil {
		return nil, err
	}
	return finalize(b.frame, group, g, method)
}

// alphaShape keeps Delaunay triangles with circumradius below the adaptive
// alpha and extracts the outline of their union. Falls back to the convex
// hull when the filter leaves nothing usable.
func (b *ConcaveBuilder) alphaShape(code string, pts []Point) (Geometry, Method, error) {
	tri, err := Triangulate(pts)
	if err != nil {
		// Collinear or near-degenerate group.
		return fallbackHull(code, pts, b.params.BufferRadiusM)
	}

	alpha := adaptiveAlpha(b.params, tri.Pts)
	alpha2 := alpha * alpha

	bag := newEdgeBag()
	kept := 0
	for i, tv := range tri.Tris {
		if tri.radii2[i] > alpha2 {
			continue
		}
		kept++
		bag.addRing(Ring{tri.Pts[tv[0]], tri.Pts[tv[1]], tri.Pts[tv[2]]})
	}
	if kept == 0 {
		return fallbackHull(code, pts, b.params.BufferRadiusM)
	}

	g, err := Repair(code, bag.rings())
	if err != nil {
		return fallbackHull(code, pts, b.params.BufferRadiusM)
	}
	return g, MethodConcaveHull, nil
}

// fallbackHull is hullOrBuffer for the n>=4 strategies, where any hull use
// is itself a fallback and reported as such.
func fallbackHull(code string, pts []Point, radius float64) (Geometry, Method, error) {
	g, method, err := hullOrBuffer(code, pts, radius)
	if err != nil {
		return nil, "", err
	}
	if method == MethodConvexHull {
		method = MethodConvexHullFallback
	}
	return g, method, nil
}

// adaptiveAlpha maps local point density to a hull tightness: dense urban
// clusters get the minimum alpha, sparse rural ones the maximum, with a
// logarithmic ramp in between.
func adaptiveAlpha(p Params, pts []Point) float64 {
	const sparseFloor = 10.0 // points per km² below which alpha maxes out

	hull := ConvexHull(pts)
	areaKm2 := math.Abs(hull.SignedArea()) / 1e6
	if areaKm2 <= 0 {
		return p.AlphaMaxM
	}
	density := float64(len(pts)) / areaKm2

	switch {
	case density >= p.AlphaDensityThreshold:
		return p.AlphaMinM
	case density < sparseFloor:
		return p.AlphaMaxM
	default:
		ratio := math.Log10(density+1) / math.Log10(p.AlphaDensityThreshold)
		alpha := p.AlphaMaxM - ratio*(p.AlphaMaxM-p.AlphaMinM)
		return math.Max(p.AlphaMinM, math.Min(p.AlphaMaxM, alpha))
	}
}

// buildSmall handles the n<=3 cases shared by both strategies: a disc for a
// single point, a convex hull for two or three, and a centroid disc when the
// hull is degenerate.
func buildSmall(frame *proj.Frame, group *pointset.Group, pts []Point, radius float64) (*Region, error) {
	if len(pts) == 1 || len(dedupePoints(pts)) == 1 {
		g := Geometry{{Shell: discRing(pts[0], radius)}}
		return finalize(frame, group, g, MethodBuffer)
	}

	g, method, err := hullOrBuffer(group.Code, pts, radius)
	if err != nil {
		return nil, err
	}
	return finalize(frame, group, g, method)
}

// hullOrBuffer returns the convex hull, or a centroid disc when the points
// are collinear and the hull has no area.
func hullOrBuffer(code string, pts []Point, radius float64) (Geometry, Method, error) {
	hull := ConvexHull(pts)
	if len(hull) >= 3 && math.Abs(hull.SignedArea()) >= minRingArea {
		g, err := Repair(code, []Ring{hull})
		if err != nil {
			return nil, "", err
		}
		return g, MethodConvexHull, nil
	}
	return Geometry{{Shell: discRing(centroid(pts), radius)}}, MethodConvexHullFallback, nil
}

// discRing approximates a circle of the given radius as a 32-gon, CCW.
func discRing(center Point, radius float64) Ring {
	const segments = 32
	ring := make(Ring, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		ring[i] = Point{center.X + radius*math.Cos(a), center.Y + radius*math.Sin(a)}
	}
	return ring
}

// projectGroup maps a group's WGS84 points into the metric frame.
func projectGroup(frame *proj.Frame, group *pointset.Group) ([]Point, error) {
	if group == nil || len(group.Points) == 0 {
		return nil, eris.Wrap(&pointset.InputError{Reason: "empty point group"}, "region")
	}
	pts := make([]Point, len(group.Points))
	for i, p := range group.Points {
		x, y := frame.Project(p.Lon, p.Lat)
		pts[i] = Point{x, y}
	}
	return pts, nil
}

// finalize validates the planar geometry, measures it, and converts it to a
// WGS84 multipolygon.
func finalize(frame *proj.Frame, group *pointset.Group, g Geometry, method Method) (*Region, error) {
	if len(g) == 0 {
		return nil, &ConstructionError{Code: group.Code, Reason: "empty geometry"}
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for _, poly := range g {
		gp := geom.NewPolygon(geom.XY)
		if err := gp.Push(toLinearRing(frame, poly.Shell)); err != nil {
			return nil, eris.Wrapf(err, "region: code %s: shell", group.Code)
		}
		for _, h := range poly.Holes {
			if err := gp.Push(toLinearRing(frame, h)); err != nil {
				return nil, eris.Wrapf(err, "region: code %s: hole", group.Code)
			}
		}
		if err := mp.Push(gp); err != nil {
			return nil, eris.Wrapf(err, "region: code %s: polygon", group.Code)
		}
	}

	return &Region{
		Code:       group.Code,
		Geom:       mp,
		Planar:     g,
		PointCount: len(group.Points),
		AreaKm2:    g.Area() / 1e6,
		Method:     method,
		ColorIndex: -1,
	}, nil
}

func toLinearRing(frame *proj.Frame, r Ring) *geom.LinearRing {
	flat := make([]float64, 0, (len(r)+1)*2)
	for _, p := range r {
		lon, lat := frame.Unproject(p.X, p.Y)
		flat = append(flat, lon, lat)
	}
	// Close the ring.
	lon, lat := frame.Unproject(r[0].X, r[0].Y)
	flat = append(flat, lon, lat)
	return geom.NewLinearRingFlat(geom.XY, flat)
}
