package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHullSquareWithInterior(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5}, {3, 7}}
	hull := ConvexHull(pts)

	require.Len(t, hull, 4)
	assert.Greater(t, hull.SignedArea(), 0.0, "hull should be CCW")
	assert.InDelta(t, 100.0, hull.SignedArea(), 1e-9)
}

func TestConvexHullCollinear(t *testing.T) {
	pts := []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	hull := ConvexHull(pts)
	assert.Less(t, len(hull), 3)
}

func TestConvexHullDuplicates(t *testing.T) {
	pts := []Point{{0, 0}, {0, 0}, {10, 0}, {10, 0}, {5, 8}}
	hull := ConvexHull(pts)
	require.Len(t, hull, 3)
	assert.InDelta(t, 40.0, hull.SignedArea(), 1e-9)
}
