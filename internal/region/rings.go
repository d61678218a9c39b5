package region

import "math"

// Vertices are snapped to a 0.1 mm grid when building the boundary graph so
// that shared edges computed independently by both owning faces cancel
// despite floating-point noise.
const quantum = 1e-4

type qpoint struct{ x, y int64 }

func quantize(p Point) qpoint {
	return qpoint{int64(math.Round(p.X / quantum)), int64(math.Round(p.Y / quantum))}
}

func (q qpoint) point() Point {
	return Point{float64(q.x) * quantum, float64(q.y) * quantum}
}

type qedge struct{ a, b qpoint }

// edgeBag accumulates directed boundary segments. Adding a segment whose
// reverse is already present cancels both: interior edges shared by two
// faces of a tessellation vanish, leaving only the outline. Shells come out
// counter-clockwise and holes clockwise because the input faces are CCW.
type edgeBag struct {
	edges map[qedge]int
}

func newEdgeBag() *edgeBag {
	return &edgeBag{edges: make(map[qedge]int)}
}

// addRing adds every segment of a CCW face outline.
func (b *edgeBag) addRing(r Ring) {
	for i := range r {
		b.add(r[i], r[(i+1)%len(r)])
	}
}

func (b *edgeBag) add(p1, p2 Point) {
	a, c := quantize(p1), quantize(p2)
	if a == c {
		return
	}
	rev := qedge{c, a}
	if n := b.edges[rev]; n > 0 {
		if n == 1 {
			delete(b.edges, rev)
		} else {
			b.edges[rev] = n - 1
		}
		return
	}
	b.edges[qedge{a, c}]++
}

// rings chains the surviving segments into closed rings. Chains that cannot
// be closed (noise from quantization near-misses) are dropped; repair deals
// with pinched figure-eight rings later.
func (b *edgeBag) rings() []Ring {
	next := make(map[qpoint][]qpoint, len(b.edges))
	for e, n := range b.edges {
		for i := 0; i < n; i++ {
			next[e.a] = append(next[e.a], e.b)
		}
	}

	var out []Ring
	for start := range next {
		for len(next[start]) > 0 {
			var chain []qpoint
			cur := start
			for {
				outs := next[cur]
				if len(outs) == 0 {
					chain = nil // dead end, discard
					break
				}
				to := outs[len(outs)-1]
				if len(outs) == 1 {
					delete(next, cur)
				} else {
					next[cur] = outs[:len(outs)-1]
				}
				chain = append(chain, cur)
				cur = to
				if cur == start {
					break
				}
			}
			if len(chain) >= 3 {
				ring := make(Ring, len(chain))
				for i, q := range chain {
					ring[i] = q.point()
				}
				out = append(out, ring)
			}
		}
	}
	return out
}

// assemble nests a flat set of rings into polygons. Containment parity
// decides the role of each ring: even depth makes a shell, odd depth a hole
// of its innermost containing shell. Orientation is normalized accordingly.
func assemble(rings []Ring) Geometry {
	type node struct {
		ring  Ring
		area  float64
		depth int
	}
	nodes := make([]node, 0, len(rings))
	for _, r := range rings {
		nodes = append(nodes, node{ring: r, area: math.Abs(r.SignedArea())})
	}

	parent := make([]int, len(nodes))
	for i := range nodes {
		parent[i] = -1
		best := math.Inf(1)
		probe := nodes[i].ring[0]
		for j := range nodes {
			if i == j || nodes[j].area <= nodes[i].area {
				continue
			}
			if nodes[j].ring.Contains(probe) {
				nodes[i].depth++
				if nodes[j].area < best {
					best = nodes[j].area
					parent[i] = j
				}
			}
		}
	}

	polyIdx := make(map[int]int)
	var g Geometry
	for i := range nodes {
		if nodes[i].depth%2 != 0 {
			continue
		}
		if nodes[i].ring.SignedArea() < 0 {
			nodes[i].ring.Reverse()
		}
		polyIdx[i] = len(g)
		g = append(g, Polygon{Shell: nodes[i].ring})
	}
	for i := range nodes {
		if nodes[i].depth%2 == 0 {
			continue
		}
		if nodes[i].ring.SignedArea() > 0 {
			nodes[i].ring.Reverse()
		}
		if pi, ok := polyIdx[parent[i]]; ok {
			g[pi].Holes = append(g[pi].Holes, nodes[i].ring)
		}
	}
	return g
}
