// Package adjacency derives the neighbor graph of a region set: two postal
// code regions are adjacent when their boundaries touch, come within the
// configured tolerance, or overlap.
package adjacency

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/psc-mapa/psc-cli/internal/region"
	"github.com/psc-mapa/psc-cli/internal/spatial"
)

// Edge is an adjacency between two codes, stored with A < B.
type Edge struct {
	A, B string
}

// Graph is the undirected adjacency graph over region codes. Immutable once
// built; all accessors return deterministic, sorted views.
type Graph struct {
	codes     []string
	neighbors map[string][]string
	edges     []Edge
}

// Build computes the adjacency graph. Candidate pairs come from the padded
// R-tree; each pair is then confirmed with an exact boundary-distance test.
// Pair testing fans out over the worker pool.
func Build(ctx context.Context, regions []*region.Region, toleranceM float64, workers int) (*Graph, error) {
	if workers < 1 {
		workers = 1
	}

	index, err := spatial.NewIndex(regions, toleranceM)
	if err != nil {
		return nil, eris.Wrap(err, "adjacency")
	}

	var (
		mu    sync.Mutex
		edges []Edge
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, r := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates, err := index.Candidates(r)
			if err != nil {
				return err
			}

			var local []Edge
			for _, c := range candidates {
				// Each unordered pair is confirmed once, by its lower code.
				if c.Code <= r.Code {
					continue
				}
				if touches(r, c, toleranceM) {
					local = append(local, Edge{A: r.Code, B: c.Code})
				}
			}
			if len(local) > 0 {
				mu.Lock()
				edges = append(edges, local...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "adjacency")
	}

	graph := assemble(regions, edges)
	zap.L().Info("adjacency graph built",
		zap.Int("regions", len(regions)),
		zap.Int("edges", len(graph.edges)),
		zap.Float64("tolerance_m", toleranceM))
	return graph, nil
}

func assemble(regions []*region.Region, edges []Edge) *Graph {
	codes := make([]string, 0, len(regions))
	for _, r := range regions {
		codes = append(codes, r.Code)
	}
	return New(codes, edges)
}

// New builds a graph from explicit nodes and edges. Each edge must satisfy
// A < B. Build is the usual entry point; New exists for callers that already
// have the topology.
func New(codes []string, edges []Edge) *Graph {
	codes = append([]string(nil), codes...)
	neighbors := make(map[string][]string, len(codes))
	for _, c := range codes {
		neighbors[c] = nil
	}
	sort.Strings(codes)

	edges = append([]Edge(nil), edges...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	for _, e := range edges {
		neighbors[e.A] = append(neighbors[e.A], e.B)
		neighbors[e.B] = append(neighbors[e.B], e.A)
	}
	for c := range neighbors {
		sort.Strings(neighbors[c])
	}
	return &Graph{codes: codes, neighbors: neighbors, edges: edges}
}

// touches reports whether the boundaries of a and b come within tol meters
// of each other, or one region lies inside the other.
func touches(a, b *region.Region, tol float64) bool {
	ra := a.Planar.Rings()
	rb := b.Planar.Rings()
	for _, r1 := range ra {
		n1 := len(r1)
		for i := 0; i < n1; i++ {
			p1, q1 := r1[i], r1[(i+1)%n1]
			for _, r2 := range rb {
				n2 := len(r2)
				for j := 0; j < n2; j++ {
					if region.SegmentDistance(p1, q1, r2[j], r2[(j+1)%n2]) <= tol {
						return true
					}
				}
			}
		}
	}

	// Boundaries never approach each other, but one region can still sit
	// fully inside the other.
	if len(ra) > 0 && b.Planar.Contains(ra[0][0]) {
		return true
	}
	if len(rb) > 0 && a.Planar.Contains(rb[0][0]) {
		return true
	}
	return false
}

// Codes returns all region codes, sorted.
func (g *Graph) Codes() []string {
	return g.codes
}

// Neighbors returns the sorted neighbor codes of a region.
func (g *Graph) Neighbors(code string) []string {
	return g.neighbors[code]
}

// Degree returns the neighbor count of a region.
func (g *Graph) Degree(code string) int {
	return len(g.neighbors[code])
}

// Edges returns all adjacencies sorted by (A, B), each with A < B.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Len returns the node count.
func (g *Graph) Len() int {
	return len(g.codes)
}
