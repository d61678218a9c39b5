// Package output renders finished regions to GeoJSON, Postgres, and the
// YAML run report.
package output

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/region"
)

// WriteGeoJSON writes one FeatureCollection with a feature per region.
// Geometry is WGS84; styling attributes ride along as properties.
func WriteGeoJSON(path string, regions []*region.Region) error {
	fc := geojson.FeatureCollection{}
	for _, r := range regions {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       r.Code,
			Geometry: r.Geom,
			Properties: map[string]any{
				"code":        r.Code,
				"point_count": r.PointCount,
				"area_km2":    r.AreaKm2,
				"method":      string(r.Method),
				"color_index": r.ColorIndex,
			},
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrap(err, "output: marshal geojson")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "output: create output dir")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "output: write %s", path)
	}

	zap.L().Info("geojson written",
		zap.String("path", path),
		zap.Int("features", len(fc.Features)))
	return nil
}
