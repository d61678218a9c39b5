package ingest

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePointShapefile(t *testing.T, points []shp.Point, codes []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("PSC", 10)}))

	for i := range points {
		n := w.Write(&points[i])
		require.NoError(t, w.WriteAttribute(int(n), 0, codes[i]))
	}
	w.Close()
	return path
}

func TestShapefile(t *testing.T) {
	path := writePointShapefile(t,
		[]shp.Point{
			{X: 14.42, Y: 50.08},
			{X: 16.60, Y: 49.19},
			{X: 14.40, Y: 50.00},
		},
		[]string{"11000", "60200", "bad"},
	)

	res, err := Shapefile(path, "PSC")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, "11000", res.Points[0].Code)
	assert.Equal(t, "shp-1", res.Points[0].SourceID)
	assert.InDelta(t, 14.42, res.Points[0].Lon, 1e-9)
}

func TestShapefileFieldLookupIsCaseInsensitive(t *testing.T) {
	path := writePointShapefile(t, []shp.Point{{X: 14.42, Y: 50.08}}, []string{"11000"})

	res, err := Shapefile(path, "psc")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
}

func TestShapefileMissingField(t *testing.T) {
	path := writePointShapefile(t, []shp.Point{{X: 14.42, Y: 50.08}}, []string{"11000"})

	_, err := Shapefile(path, "ZIPCODE")
	assert.Error(t, err)
}

func TestShapefileMissingFile(t *testing.T) {
	_, err := Shapefile("/no/such/file.shp", "PSC")
	assert.Error(t, err)
}
