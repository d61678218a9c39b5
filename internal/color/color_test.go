package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psc-mapa/psc-cli/internal/adjacency"
)

func graph(codes []string, pairs [][2]string) *adjacency.Graph {
	edges := make([]adjacency.Edge, 0, len(pairs))
	for _, p := range pairs {
		edges = append(edges, adjacency.Edge{A: p[0], B: p[1]})
	}
	return adjacency.New(codes, edges)
}

func TestAssignTriangle(t *testing.T) {
	g := graph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}})

	a := Assign(g, 6)
	assert.NotEqual(t, a["a"], a["b"])
	assert.NotEqual(t, a["a"], a["c"])
	assert.NotEqual(t, a["b"], a["c"])
	assert.Empty(t, Conflicts(g, a))
}

func TestAssignStaysInPalette(t *testing.T) {
	g := graph(
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"a", "d"}, {"a", "e"}, {"b", "c"}, {"d", "e"}},
	)

	a := Assign(g, 3)
	require.Len(t, a, 5)
	for code, idx := range a {
		assert.GreaterOrEqual(t, idx, 0, code)
		assert.Less(t, idx, 3, code)
	}
	assert.Empty(t, Conflicts(g, a))
}

func TestAssignHighestDegreeFirst(t *testing.T) {
	// A star center has the highest degree, so it is colored first and gets
	// index 0; the leaves all get 1.
	g := graph(
		[]string{"center", "l1", "l2", "l3"},
		[][2]string{{"center", "l1"}, {"center", "l2"}, {"center", "l3"}},
	)

	a := Assign(g, 6)
	assert.Equal(t, 0, a["center"])
	assert.Equal(t, 1, a["l1"])
	assert.Equal(t, 1, a["l2"])
	assert.Equal(t, 1, a["l3"])
}

func TestAssignOverflowMinimizesConflicts(t *testing.T) {
	// K4 with a 3-color palette: exactly one edge must clash.
	g := graph(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"a", "d"}, {"b", "c"}, {"b", "d"}, {"c", "d"}},
	)

	a := Assign(g, 3)
	for _, idx := range a {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 3)
	}
	assert.Len(t, Conflicts(g, a), 1)
}

func TestAssignDeterministic(t *testing.T) {
	g := graph(
		[]string{"10000", "11000", "12000", "13000"},
		[][2]string{{"10000", "11000"}, {"11000", "12000"}, {"12000", "13000"}},
	)

	first := Assign(g, 6)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Assign(g, 6))
	}
}

func TestAssignIsolatedNodes(t *testing.T) {
	g := graph([]string{"a", "b", "c"}, nil)
	a := Assign(g, 6)
	assert.Equal(t, Assignment{"a": 0, "b": 0, "c": 0}, a)
}
