package region

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Triangulation is a Delaunay triangulation of a planar point set. Both
// tessellation strategies are built on it: the concave hull keeps triangles
// by circumradius, the Voronoi diagram is its dual.
type Triangulation struct {
	// Pts are the input points after duplicate removal, in insertion order.
	Pts []Point
	// Tris are alive triangles as CCW index triples into Pts.
	Tris [][3]int

	centers []Point   // circumcenter per triangle
	radii2  []float64 // squared circumradius per triangle
}

type dtri struct {
	v     [3]int
	cx    float64
	cy    float64
	r2    float64
	alive bool
}

type dedge struct{ a, b int }

func undirected(a, b int) dedge {
	if a < b {
		return dedge{a, b}
	}
	return dedge{b, a}
}

// Triangulate computes the Delaunay triangulation of pts. Exact duplicates
// are collapsed first. Fails when fewer than 3 distinct points remain or all
// points are collinear.
func Triangulate(pts []Point) (*Triangulation, error) {
	pts = dedupePoints(pts)
	if len(pts) < 3 {
		return nil, eris.New("delaunay: need at least 3 distinct points")
	}

	// Sorting improves walk locality during point location.
	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	d := &delaunator{pts: sorted}
	if err := d.run(); err != nil {
		return nil, err
	}

	t := &Triangulation{Pts: sorted}
	for _, tr := range d.tris {
		if !tr.alive {
			continue
		}
		// Drop triangles touching the super-triangle.
		if tr.v[0] >= len(sorted) || tr.v[1] >= len(sorted) || tr.v[2] >= len(sorted) {
			continue
		}
		t.Tris = append(t.Tris, tr.v)
		t.centers = append(t.centers, Point{tr.cx, tr.cy})
		t.radii2 = append(t.radii2, tr.r2)
	}
	if len(t.Tris) == 0 {
		return nil, eris.New("delaunay: degenerate input (collinear points)")
	}
	return t, nil
}

// Circumcenter returns the circumcircle center of triangle i.
func (t *Triangulation) Circumcenter(i int) Point {
	return t.centers[i]
}

// Circumradius returns the circumcircle radius of triangle i.
func (t *Triangulation) Circumradius(i int) float64 {
	return math.Sqrt(t.radii2[i])
}

type delaunator struct {
	pts   []Point // input points; super vertices indexed past the end
	super [3]Point
	tris  []dtri
	// edgeTris maps an undirected edge to alive triangles that use it (at
	// most two). Maintained incrementally for cavity search and walking.
	edgeTris map[dedge][]int
	lastTri  int
}

func (d *delaunator) point(i int) Point {
	if i < len(d.pts) {
		return d.pts[i]
	}
	return d.super[i-len(d.pts)]
}

func (d *delaunator) run() error {
	min, max := Ring(d.pts).BBox()
	dx := max.X - min.X
	dy := max.Y - min.Y
	diag := math.Max(math.Max(dx, dy), 1.0)
	cx := (min.X + max.X) / 2
	cy := (min.Y + max.Y) / 2

	// Super-triangle comfortably containing every point.
	m := 64 * diag
	d.super = [3]Point{
		{cx - 2*m, cy - m},
		{cx + 2*m, cy - m},
		{cx, cy + 2*m},
	}

	n := len(d.pts)
	d.edgeTris = make(map[dedge][]int, 6*n)
	d.addTriangle(n, n+1, n+2)

	for i := range d.pts {
		if err := d.insert(i); err != nil {
			return err
		}
	}
	return nil
}

func (d *delaunator) addTriangle(a, b, c int) int {
	pa, pb, pc := d.point(a), d.point(b), d.point(c)
	if cross(pa, pb, pc) < 0 {
		b, c = c, b
		pb, pc = pc, pb
	}
	ccx, ccy, r2 := circumcircle(pa, pb, pc)
	idx := len(d.tris)
	d.tris = append(d.tris, dtri{v: [3]int{a, b, c}, cx: ccx, cy: ccy, r2: r2, alive: true})
	for _, e := range [3]dedge{undirected(a, b), undirected(b, c), undirected(c, a)} {
		d.edgeTris[e] = append(d.edgeTris[e], idx)
	}
	d.lastTri = idx
	return idx
}

func (d *delaunator) removeTriangle(idx int) {
	tr := &d.tris[idx]
	tr.alive = false
	v := tr.v
	for _, e := range [3]dedge{undirected(v[0], v[1]), undirected(v[1], v[2]), undirected(v[2], v[0])} {
		list := d.edgeTris[e]
		for i, ti := range list {
			if ti == idx {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(d.edgeTris, e)
		} else {
			d.edgeTris[e] = list
		}
	}
}

// neighbor returns the alive triangle sharing edge (a,b) other than self.
func (d *delaunator) neighbor(a, b, self int) int {
	for _, ti := range d.edgeTris[undirected(a, b)] {
		if ti != self && d.tris[ti].alive {
			return ti
		}
	}
	return -1
}

func (d *delaunator) inCircum(idx int, p Point) bool {
	tr := &d.tris[idx]
	dx := p.X - tr.cx
	dy := p.Y - tr.cy
	// Small slack keeps cocircular configurations inside the cavity rather
	// than leaving slivers behind.
	return dx*dx+dy*dy <= tr.r2*(1+1e-12)
}

// locate walks from the last created triangle toward p and returns a
// triangle containing it. Falls back to a linear scan if the walk stalls.
func (d *delaunator) locate(p Point) int {
	idx := d.lastTri
	if idx < 0 || idx >= len(d.tris) || !d.tris[idx].alive {
		idx = -1
		for i := len(d.tris) - 1; i >= 0; i-- {
			if d.tris[i].alive {
				idx = i
				break
			}
		}
	}

	maxSteps := 4*len(d.tris) + 16
	for steps := 0; idx >= 0 && steps < maxSteps; steps++ {
		tr := &d.tris[idx]
		next := -1
		for e := 0; e < 3; e++ {
			a := tr.v[e]
			b := tr.v[(e+1)%3]
			if cross(d.point(a), d.point(b), p) < 0 {
				next = d.neighbor(a, b, idx)
				break
			}
		}
		if next < 0 {
			return idx
		}
		idx = next
	}

	// Walk failed (numeric degeneracy); scan everything.
	for i, tr := range d.tris {
		if tr.alive && d.inCircum(i, p) {
			return i
		}
	}
	return -1
}

func (d *delaunator) insert(pi int) error {
	p := d.pts[pi]

	seed := d.locate(p)
	if seed < 0 || !d.inCircum(seed, p) {
		// The containing triangle always violates the circumcircle
		// condition, so a miss means the walk went numerically astray.
		// Scan before giving up.
		seed = -1
		for i := range d.tris {
			if d.tris[i].alive && d.inCircum(i, p) {
				seed = i
				break
			}
		}
		if seed < 0 {
			return eris.Errorf("delaunay: failed to locate cavity for point (%g, %g)", p.X, p.Y)
		}
	}

	// Grow the cavity of circumcircle-violating triangles from the seed.
	bad := map[int]bool{seed: true}
	queue := []int{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		v := d.tris[cur].v
		for e := 0; e < 3; e++ {
			nb := d.neighbor(v[e], v[(e+1)%3], cur)
			if nb < 0 || bad[nb] {
				continue
			}
			if d.inCircum(nb, p) {
				bad[nb] = true
				queue = append(queue, nb)
			}
		}
	}

	// Boundary edges of the cavity keep their direction from the dead
	// triangle, which makes each new triangle CCW.
	type bedge struct{ a, b int }
	var boundary []bedge
	for idx := range bad {
		v := d.tris[idx].v
		for e := 0; e < 3; e++ {
			a, b := v[e], v[(e+1)%3]
			nb := d.neighbor(a, b, idx)
			if nb < 0 || !bad[nb] {
				boundary = append(boundary, bedge{a, b})
			}
		}
	}

	for idx := range bad {
		d.removeTriangle(idx)
	}
	for _, e := range boundary {
		d.addTriangle(e.a, e.b, pi)
	}
	return nil
}

// circumcircle returns the center and squared radius of the circle through
// a, b, c.
func circumcircle(a, b, c Point) (cx, cy, r2 float64) {
	ax, ay := b.X-a.X, b.Y-a.Y
	bx, by := c.X-a.X, c.Y-a.Y
	den := 2 * (ax*by - ay*bx)
	if den == 0 {
		// Collinear; push the center to infinity so every point falls
		// inside and the degenerate triangle is always recycled.
		return math.Inf(1), math.Inf(1), math.Inf(1)
	}
	d := ax*ax + ay*ay
	e := bx*bx + by*by
	ux := (by*d - ay*e) / den
	uy := (ax*e - bx*d) / den
	return a.X + ux, a.Y + uy, ux*ux + uy*uy
}
