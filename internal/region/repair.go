package region

import "math"

// Rings smaller than this are numerical debris from quantization and
// simplification, not geometry worth keeping.
const minRingArea = 1.0 // m²

// ConstructionError reports that region construction produced no valid
// non-empty geometry for a code. Repair never silently drops a region; this
// error surfaces instead.
type ConstructionError struct {
	Code   string
	Reason string
}

func (e *ConstructionError) Error() string {
	return "region: code " + e.Code + ": " + e.Reason
}

// Repair normalizes a raw ring set into a valid simple multipolygon:
// consecutive duplicate vertices are removed, self-touching rings are split
// at their pinch points, sliver rings are dropped, and the survivors are
// re-nested with normalized winding. Returns a ConstructionError when
// nothing valid remains.
func Repair(code string, rings []Ring) (Geometry, error) {
	var clean []Ring
	for _, r := range rings {
		for _, part := range splitPinches(dedupeRing(r)) {
			if len(part) < 3 {
				continue
			}
			if math.Abs(part.SignedArea()) < minRingArea {
				continue
			}
			clean = append(clean, part)
		}
	}
	if len(clean) == 0 {
		return nil, &ConstructionError{Code: code, Reason: "no valid ring survived repair"}
	}

	g := assemble(clean)
	if len(g) == 0 {
		return nil, &ConstructionError{Code: code, Reason: "ring nesting produced no polygon"}
	}

	for _, r := range g.Rings() {
		if !r.IsSimple() {
			return nil, &ConstructionError{Code: code, Reason: "self-intersecting ring survived repair"}
		}
	}
	return g, nil
}

// dedupeRing removes consecutive vertices that quantize to the same grid
// cell, including the wrap-around pair.
func dedupeRing(r Ring) Ring {
	if len(r) == 0 {
		return r
	}
	out := make(Ring, 0, len(r))
	var lastQ qpoint
	for i, p := range r {
		q := quantize(p)
		if i > 0 && q == lastQ {
			continue
		}
		out = append(out, p)
		lastQ = q
	}
	for len(out) > 1 && quantize(out[0]) == quantize(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// splitPinches splits a ring that revisits a vertex into separate loops.
// A figure-eight becomes two rings; a ring touching itself at a point
// becomes a shell plus a nested ring that assemble classifies later.
func splitPinches(r Ring) []Ring {
	if len(r) < 3 {
		return []Ring{r}
	}
	seen := make(map[qpoint]int, len(r))
	for i, p := range r {
		q := quantize(p)
		if j, ok := seen[q]; ok {
			// Loop from j to i forms one ring; the remainder another.
			inner := make(Ring, i-j)
			copy(inner, r[j:i])
			outer := make(Ring, 0, len(r)-(i-j))
			outer = append(outer, r[:j]...)
			outer = append(outer, r[i:]...)
			return append(splitPinches(inner), splitPinches(outer)...)
		}
		seen[q] = i
	}
	return []Ring{r}
}
