package region

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/pointset"
	"github.com/psc-mapa/psc-cli/internal/proj"
)

// VoronoiBuilder tessellates the whole point set once and dissolves the
// cells of each code into one region. Construction does the global,
// parallel-unsafe work; Build calls afterward only read the prepared cells
// and are safe to run concurrently.
type VoronoiBuilder struct {
	params Params
	frame  *proj.Frame
	// cells maps each code to its clipped CCW Voronoi cell outlines.
	cells map[string][]Ring
}

// NewVoronoiBuilder prepares the clipped Voronoi diagram of every point in
// the set. The snapshot is read-only input: the builder never mutates it.
func NewVoronoiBuilder(params Params, frame *proj.Frame, all []pointset.Point) (*VoronoiBuilder, error) {
	b := &VoronoiBuilder{params: params, frame: frame, cells: make(map[string][]Ring)}

	sites, owner := collapseSites(frame, all)
	if len(sites) < 3 {
		// Groups this small never reach the tessellation path; Build falls
		// back to hulls and buffers.
		return b, nil
	}

	hull := ConvexHull(sites)
	if len(hull) < 3 {
		zap.L().Warn("voronoi: global point set is collinear, falling back to hulls")
		return b, nil
	}
	clip := offsetConvex(hull, params.ClipBufferM)

	// Ghost sites far outside the clip area bound every real cell, so the
	// diagram needs no special handling for unbounded cells: the ghost-side
	// bisectors land beyond the clip polygon and are cut away.
	min, max := Ring(sites).BBox()
	diag := math.Hypot(max.X-min.X, max.Y-min.Y)
	radius := 4*diag + 4*params.ClipBufferM + 1e4
	cx, cy := (min.X+max.X)/2, (min.Y+max.Y)/2
	const ghosts = 16
	augmented := make([]Point, len(sites), len(sites)+ghosts)
	copy(augmented, sites)
	for i := 0; i < ghosts; i++ {
		a := 2 * math.Pi * float64(i) / ghosts
		augmented = append(augmented, Point{cx + radius*math.Cos(a), cy + radius*math.Sin(a)})
	}
	tri, err := Triangulate(augmented)
	if err != nil {
		return nil, err
	}

	// Incident triangles per site vertex.
	incident := make(map[Point][]int, len(tri.Pts))
	for i, tv := range tri.Tris {
		for _, v := range tv {
			p := tri.Pts[v]
			incident[p] = append(incident[p], i)
		}
	}

	for _, site := range sites {
		code := owner[site]
		cell := cellRing(site, incident[site], tri)
		if len(cell) < 3 {
			continue
		}
		clipped := clipConvex(cell, clip)
		if len(clipped) < 3 {
			continue
		}
		b.cells[code] = append(b.cells[code], clipped)
	}

	return b, nil
}

// Build implements Builder.
func (b *VoronoiBuilder) Build(group *pointset.Group) (*Region, error) {
	pts, err := projectGroup(b.frame, group)
	if err != nil {
		return nil, err
	}

	if len(group.Points) <= 3 {
		return buildSmall(b.frame, group, pts, b.params.BufferRadiusM)
	}

	rings := b.cells[group.Code]
	if len(rings) == 0 {
		g, method, ferr := fallbackHull(group.Code, pts, b.params.BufferRadiusM)
		if ferr != nil {
			return nil, ferr
		}
		return finalize(b.frame, group, g, method)
	}

	// Dissolve: edges shared by two same-code cells cancel, leaving the
	// outline of their union.
	bag := newEdgeBag()
	for _, r := range rings {
		bag.addRing(r)
	}
	raw := bag.rings()

	simplified := make([]Ring, 0, len(raw))
	for _, r := range raw {
		simplified = append(simplified, simplifyRing(r, b.params.SimplifyToleranceM))
	}

	g, err := Repair(group.Code, simplified)
	if err != nil {
		// Simplification can occasionally pinch a ring into invalidity;
		// retry with the unsimplified outline before giving up.
		g, err = Repair(group.Code, raw)
		if err != nil {
			return nil, err
		}
	}
	return finalize(b.frame, group, g, MethodVoronoiCell)
}

// collapseSites projects all points and collapses exact duplicates into
// single sites. Each site is owned by the code with the most points at that
// coordinate, ties broken by code ascending for determinism.
func collapseSites(frame *proj.Frame, all []pointset.Point) ([]Point, map[Point]string) {
	counts := make(map[Point]map[string]int)
	var sites []Point
	for _, p := range all {
		x, y := frame.Project(p.Lon, p.Lat)
		pt := Point{x, y}
		if counts[pt] == nil {
			counts[pt] = make(map[string]int)
			sites = append(sites, pt)
		}
		counts[pt][p.Code]++
	}

	owner := make(map[Point]string, len(sites))
	for pt, byCode := range counts {
		best := ""
		bestN := -1
		codes := make([]string, 0, len(byCode))
		for c := range byCode {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			if byCode[c] > bestN {
				best = c
				bestN = byCode[c]
			}
		}
		owner[pt] = best
	}
	return sites, owner
}

// cellRing orders the circumcenters of the site's incident triangles
// angularly around the site. With ghost sites present every real cell is
// bounded and convex, so the angular order is the boundary order.
func cellRing(site Point, tris []int, t *Triangulation) Ring {
	if len(tris) < 3 {
		return nil
	}
	centers := make([]Point, 0, len(tris))
	for _, ti := range tris {
		centers = append(centers, t.Circumcenter(ti))
	}
	sort.Slice(centers, func(i, j int) bool {
		ai := math.Atan2(centers[i].Y-site.Y, centers[i].X-site.X)
		aj := math.Atan2(centers[j].Y-site.Y, centers[j].X-site.X)
		return ai < aj
	})

	// Cocircular triangles share a circumcenter; drop the duplicates.
	ring := make(Ring, 0, len(centers))
	for _, c := range centers {
		if len(ring) > 0 && quantize(c) == quantize(ring[len(ring)-1]) {
			continue
		}
		ring = append(ring, c)
	}
	if len(ring) > 1 && quantize(ring[0]) == quantize(ring[len(ring)-1]) {
		ring = ring[:len(ring)-1]
	}
	return ring
}

// clipConvex clips a subject ring against a convex CCW clip ring
// (Sutherland–Hodgman).
func clipConvex(subject, clip Ring) Ring {
	out := subject
	n := len(clip)
	for i := 0; i < n && len(out) > 0; i++ {
		a, b := clip[i], clip[(i+1)%n]
		in := out
		out = nil
		for j := range in {
			cur := in[j]
			prev := in[(j+len(in)-1)%len(in)]
			curIn := cross(a, b, cur) >= 0
			prevIn := cross(a, b, prev) >= 0
			switch {
			case curIn && prevIn:
				out = append(out, cur)
			case curIn && !prevIn:
				out = append(out, lineCut(a, b, prev, cur), cur)
			case !curIn && prevIn:
				out = append(out, lineCut(a, b, prev, cur))
			}
		}
	}
	return out
}

// lineCut intersects the infinite line ab with segment pq. Callers only use
// it when p and q straddle the line.
func lineCut(a, b, p, q Point) Point {
	dp := cross(a, b, p)
	dq := cross(a, b, q)
	t := dp / (dp - dq)
	return Point{p.X + t*(q.X-p.X), p.Y + t*(q.Y-p.Y)}
}

// offsetConvex offsets a convex CCW ring outward by d meters using mitered
// joins: each edge line moves along its outward normal and adjacent offset
// lines are re-intersected.
func offsetConvex(r Ring, d float64) Ring {
	n := len(r)
	if n < 3 || d == 0 {
		return r
	}
	out := make(Ring, 0, n)
	for i := 0; i < n; i++ {
		p0 := r[(i+n-1)%n]
		p1 := r[i]
		p2 := r[(i+1)%n]

		o0 := offsetPoint(p0, p1, d)
		o1 := offsetPoint(p1, p2, d)
		pt, ok := lineLine(o0, Point{p1.X - p0.X, p1.Y - p0.Y}, o1, Point{p2.X - p1.X, p2.Y - p1.Y})
		if !ok {
			// Collinear vertices make the two offset lines coincide.
			pt = offsetPoint(p1, p2, d)
		}
		out = append(out, pt)
	}
	return out
}

// offsetPoint shifts a onto the outward-offset line of edge a→b.
func offsetPoint(a, b Point, d float64) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return a
	}
	// For a CCW ring the outward normal of a→b points right: (dy, -dx).
	return Point{a.X + d*dy/l, a.Y - d*dx/l}
}

// lineLine intersects lines p+t·u and q+s·v.
func lineLine(p, u, q, v Point) (Point, bool) {
	den := u.X*v.Y - u.Y*v.X
	if math.Abs(den) < 1e-12 {
		return Point{}, false
	}
	t := ((q.X-p.X)*v.Y - (q.Y-p.Y)*v.X) / den
	return Point{p.X + t*u.X, p.Y + t*u.Y}, true
}

// simplifyRing runs Douglas-Peucker on a ring, keeping it closed during the
// pass and open afterward. Tiny rings pass through untouched.
func simplifyRing(r Ring, tol float64) Ring {
	if tol <= 0 || len(r) <= 4 {
		return r
	}
	closed := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		closed = append(closed, orb.Point{p.X, p.Y})
	}
	closed = append(closed, closed[0])

	reduced, ok := simplify.DouglasPeucker(tol).Simplify(closed).(orb.Ring)
	if !ok || len(reduced) < 4 {
		return r
	}
	out := make(Ring, 0, len(reduced)-1)
	for _, p := range reduced[:len(reduced)-1] {
		out = append(out, Point{p[0], p[1]})
	}
	return out
}
