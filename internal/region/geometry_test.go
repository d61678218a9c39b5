package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func square(x, y, side float64) Ring {
	return Ring{{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}}
}

func TestSignedArea(t *testing.T) {
	r := square(0, 0, 10)
	assert.InDelta(t, 100.0, r.SignedArea(), 1e-9)

	r.Reverse()
	assert.InDelta(t, -100.0, r.SignedArea(), 1e-9)
}

func TestRingContains(t *testing.T) {
	r := square(0, 0, 10)
	assert.True(t, r.Contains(Point{5, 5}))
	assert.False(t, r.Contains(Point{15, 5}))
	assert.False(t, r.Contains(Point{-1, -1}))
}

func TestGeometryContainsRespectsHoles(t *testing.T) {
	g := Geometry{{
		Shell: square(0, 0, 10),
		Holes: []Ring{square(4, 4, 2)},
	}}
	assert.True(t, g.Contains(Point{1, 1}))
	assert.False(t, g.Contains(Point{5, 5}))
	assert.InDelta(t, 96.0, g.Area(), 1e-9)
}

func TestIsSimple(t *testing.T) {
	assert.True(t, square(0, 0, 10).IsSimple())

	bowtie := Ring{{0, 0}, {10, 10}, {10, 0}, {0, 10}}
	assert.False(t, bowtie.IsSimple())
}

func TestSegmentDistance(t *testing.T) {
	// Parallel horizontal segments 3 apart.
	d := SegmentDistance(Point{0, 0}, Point{10, 0}, Point{2, 3}, Point{8, 3})
	assert.InDelta(t, 3.0, d, 1e-9)

	// Crossing segments.
	d = SegmentDistance(Point{0, 0}, Point{10, 10}, Point{0, 10}, Point{10, 0})
	assert.InDelta(t, 0.0, d, 1e-9)
}

func TestBBox(t *testing.T) {
	min, max := square(2, 3, 5).BBox()
	assert.Equal(t, Point{2, 3}, min)
	assert.Equal(t, Point{7, 8}, max)
}
