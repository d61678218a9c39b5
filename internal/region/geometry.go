// Package region converts per-code point groups into validated polygons.
// All geometry in this package lives in a local metric frame (meters); the
// builders unproject to WGS84 only when finalizing a Region.
package region

import "math"

// Point is a planar coordinate in meters.
type Point struct {
	X, Y float64
}

// Ring is an open sequence of vertices (the closing segment is implicit).
// Shells wind counter-clockwise, holes clockwise.
type Ring []Point

// Polygon is a shell with zero or more holes.
type Polygon struct {
	Shell Ring
	Holes []Ring
}

// Geometry is a multipolygon: zero or more disjoint polygons.
type Geometry []Polygon

// SignedArea returns the shoelace area of the ring: positive for
// counter-clockwise winding.
func (r Ring) SignedArea() float64 {
	if len(r) < 3 {
		return 0
	}
	var sum float64
	for i := range r {
		j := (i + 1) % len(r)
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return sum / 2
}

// Reverse flips the winding order in place.
func (r Ring) Reverse() {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}

// Contains reports whether p is inside the ring (even-odd rule). Points on
// the boundary may land on either side; callers needing boundary semantics
// combine this with a distance test.
func (r Ring) Contains(p Point) bool {
	inside := false
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		a, b := r[j], r[i]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// BBox returns the axis-aligned bounds of the ring.
func (r Ring) BBox() (min, max Point) {
	min = Point{math.Inf(1), math.Inf(1)}
	max = Point{math.Inf(-1), math.Inf(-1)}
	for _, p := range r {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// IsSimple reports whether no two non-adjacent ring segments cross.
// Quadratic, but rings here are short post-simplification.
func (r Ring) IsSimple() bool {
	n := len(r)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1 := r[i]
		a2 := r[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip segments sharing a vertex with segment i.
			if j == i || (j+1)%n == i || j == (i+1)%n {
				continue
			}
			b1 := r[j]
			b2 := r[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

// Area returns the total geometry area in square meters (holes subtracted).
func (g Geometry) Area() float64 {
	var sum float64
	for _, poly := range g {
		sum += math.Abs(poly.Shell.SignedArea())
		for _, h := range poly.Holes {
			sum -= math.Abs(h.SignedArea())
		}
	}
	return sum
}

// Contains reports whether p lies inside any polygon of the geometry
// (inside a shell and outside that shell's holes).
func (g Geometry) Contains(p Point) bool {
	for _, poly := range g {
		if !poly.Shell.Contains(p) {
			continue
		}
		inHole := false
		for _, h := range poly.Holes {
			if h.Contains(p) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// BBox returns the bounds of the whole geometry.
func (g Geometry) BBox() (min, max Point) {
	min = Point{math.Inf(1), math.Inf(1)}
	max = Point{math.Inf(-1), math.Inf(-1)}
	for _, poly := range g {
		lo, hi := poly.Shell.BBox()
		min.X = math.Min(min.X, lo.X)
		min.Y = math.Min(min.Y, lo.Y)
		max.X = math.Max(max.X, hi.X)
		max.Y = math.Max(max.Y, hi.Y)
	}
	return min, max
}

// Rings returns every ring of the geometry, shells and holes.
func (g Geometry) Rings() []Ring {
	var out []Ring
	for _, poly := range g {
		out = append(out, poly.Shell)
		out = append(out, poly.Holes...)
	}
	return out
}

// cross returns the z-component of (b-a) x (c-a).
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// segmentsCross reports proper intersection of segments a1a2 and b1b2.
func segmentsCross(a1, a2, b1, b2 Point) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// SegmentDistance returns the minimum distance between two segments.
func SegmentDistance(a1, a2, b1, b2 Point) float64 {
	if segmentsCross(a1, a2, b1, b2) {
		return 0
	}
	d := pointSegmentDistance(a1, b1, b2)
	d = math.Min(d, pointSegmentDistance(a2, b1, b2))
	d = math.Min(d, pointSegmentDistance(b1, a1, a2))
	d = math.Min(d, pointSegmentDistance(b2, a1, a2))
	return d
}

// pointSegmentDistance returns the distance from p to segment ab.
func pointSegmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
