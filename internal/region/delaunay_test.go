package region

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangulateSquare(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	tri, err := Triangulate(pts)
	require.NoError(t, err)
	assert.Len(t, tri.Tris, 2)

	var area float64
	for i, tv := range tri.Tris {
		a, b, c := tri.Pts[tv[0]], tri.Pts[tv[1]], tri.Pts[tv[2]]
		area += cross(a, b, c) / 2
		assert.Greater(t, cross(a, b, c), 0.0, "triangle %d should be CCW", i)
	}
	assert.InDelta(t, 100.0, area, 1e-9)
}

func TestTriangulateDelaunayProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pts := make([]Point, 0, 80)
	for i := 0; i < 80; i++ {
		pts = append(pts, Point{rng.Float64() * 1000, rng.Float64() * 1000})
	}

	tri, err := Triangulate(pts)
	require.NoError(t, err)
	require.NotEmpty(t, tri.Tris)

	for i := range tri.Tris {
		cc := tri.Circumcenter(i)
		r := tri.Circumradius(i)
		for j, p := range tri.Pts {
			if j == tri.Tris[i][0] || j == tri.Tris[i][1] || j == tri.Tris[i][2] {
				continue
			}
			d := math.Hypot(p.X-cc.X, p.Y-cc.Y)
			assert.GreaterOrEqual(t, d, r*(1-1e-9),
				"point %d inside circumcircle of triangle %d", j, i)
		}
	}
}

func TestTriangulateCoversConvexHull(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pts := make([]Point, 0, 40)
	for i := 0; i < 40; i++ {
		pts = append(pts, Point{rng.Float64() * 500, rng.Float64() * 500})
	}

	tri, err := Triangulate(pts)
	require.NoError(t, err)

	var triArea float64
	for _, tv := range tri.Tris {
		triArea += cross(tri.Pts[tv[0]], tri.Pts[tv[1]], tri.Pts[tv[2]]) / 2
	}
	hullArea := ConvexHull(pts).SignedArea()
	assert.InDelta(t, hullArea, triArea, hullArea*1e-9)
}

func TestTriangulateDegenerate(t *testing.T) {
	_, err := Triangulate([]Point{{0, 0}, {1, 1}})
	assert.Error(t, err)

	_, err = Triangulate([]Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	assert.Error(t, err, "collinear input has no triangulation")

	_, err = Triangulate([]Point{{5, 5}, {5, 5}, {5, 5}, {5, 5}})
	assert.Error(t, err, "fewer than three distinct points")
}
