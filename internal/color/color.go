// Package color assigns map colors to regions so that no two adjacent
// regions share one, using the Welsh-Powell greedy heuristic.
package color

import (
	"sort"

	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/adjacency"
)

// Assignment maps each region code to its palette index.
type Assignment map[string]int

// Assign colors the graph. Codes are visited by descending degree, ties
// broken by code ascending, and each takes the smallest palette index unused
// by its already-colored neighbors. When all palette entries are taken the
// index that conflicts with the fewest neighbors wins; such overflows are
// counted and logged but never fail the run.
func Assign(g *adjacency.Graph, paletteSize int) Assignment {
	if paletteSize < 1 {
		paletteSize = 1
	}

	order := append([]string(nil), g.Codes()...)
	sort.SliceStable(order, func(i, j int) bool {
		di, dj := g.Degree(order[i]), g.Degree(order[j])
		if di != dj {
			return di > dj
		}
		return order[i] < order[j]
	})

	assigned := make(Assignment, len(order))
	conflicts := 0
	for _, code := range order {
		used := make([]int, paletteSize)
		for _, n := range g.Neighbors(code) {
			if c, ok := assigned[n]; ok && c < paletteSize {
				used[c]++
			}
		}

		idx := -1
		for i, cnt := range used {
			if cnt == 0 {
				idx = i
				break
			}
		}
		if idx < 0 {
			// Palette exhausted around this node: minimize visible clashes.
			idx = 0
			for i := 1; i < paletteSize; i++ {
				if used[i] < used[idx] {
					idx = i
				}
			}
			conflicts++
		}
		assigned[code] = idx
	}

	if conflicts > 0 {
		zap.L().Warn("palette exhausted for some regions",
			zap.Int("palette_size", paletteSize),
			zap.Int("regions_with_conflicts", conflicts))
	}
	return assigned
}

// Conflicts returns the adjacent pairs that ended up with the same color.
// Empty for any graph the palette is large enough for.
func Conflicts(g *adjacency.Graph, a Assignment) []adjacency.Edge {
	var out []adjacency.Edge
	for _, e := range g.Edges() {
		if a[e.A] == a[e.B] {
			out = append(out, e)
		}
	}
	return out
}
