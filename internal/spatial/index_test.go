package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psc-mapa/psc-cli/internal/region"
)

func squareRegion(code string, x, y, side float64) *region.Region {
	shell := region.Ring{{X: x, Y: y}, {X: x + side, Y: y}, {X: x + side, Y: y + side}, {X: x, Y: y + side}}
	return &region.Region{Code: code, Planar: region.Geometry{{Shell: shell}}}
}

func TestCandidatesFindsNeighbors(t *testing.T) {
	a := squareRegion("11000", 0, 0, 1000)
	b := squareRegion("12000", 1010, 0, 1000)  // 10 m gap, within tolerance
	c := squareRegion("13000", 5000, 0, 1000)  // far away
	d := squareRegion("14000", 0, 1030, 1000)  // 30 m gap, padded boxes still meet

	ix, err := NewIndex([]*region.Region{a, b, c, d}, 25)
	require.NoError(t, err)
	assert.Equal(t, 4, ix.Len())

	got, err := ix.Candidates(a)
	require.NoError(t, err)

	codes := make([]string, 0, len(got))
	for _, r := range got {
		codes = append(codes, r.Code)
	}
	assert.ElementsMatch(t, []string{"12000", "14000"}, codes)
}

func TestCandidatesExcludesSelf(t *testing.T) {
	a := squareRegion("11000", 0, 0, 100)
	ix, err := NewIndex([]*region.Region{a}, 25)
	require.NoError(t, err)

	got, err := ix.Candidates(a)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCandidatesZeroTolerance(t *testing.T) {
	a := squareRegion("11000", 0, 0, 100)
	b := squareRegion("12000", 100, 0, 100) // shared edge
	c := squareRegion("13000", 201, 0, 100) // 1 m gap

	ix, err := NewIndex([]*region.Region{a, b, c}, 0)
	require.NoError(t, err)

	got, err := ix.Candidates(b)
	require.NoError(t, err)

	codes := make([]string, 0, len(got))
	for _, r := range got {
		codes = append(codes, r.Code)
	}
	assert.ElementsMatch(t, []string{"11000"}, codes)
}
