package region

import "sort"

// ConvexHull computes the convex hull of the points using the monotone chain
// algorithm. The result winds counter-clockwise without a closing vertex.
// Returns fewer than 3 vertices for degenerate (collinear or tiny) input.
func ConvexHull(pts []Point) Ring {
	pts = dedupePoints(pts)
	n := len(pts)
	if n < 3 {
		return Ring(pts)
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make([]Point, 0, 2*n)

	// Lower chain.
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Upper chain.
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// The last point repeats the first.
	return Ring(hull[:len(hull)-1])
}

// dedupePoints removes exact coordinate duplicates, preserving first
// occurrence order. Duplicate address points are common in the source data
// and carry no geometric information.
func dedupePoints(pts []Point) []Point {
	seen := make(map[Point]struct{}, len(pts))
	out := make([]Point, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// centroid returns the mean coordinate of the points.
func centroid(pts []Point) Point {
	var c Point
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(pts))
	c.Y /= float64(len(pts))
	return c
}
