package output

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/db"
	"github.com/psc-mapa/psc-cli/internal/region"
)

const (
	regionSchema = "psc"
	regionTable  = "regions"
)

var regionColumns = []string{"code", "point_count", "area_km2", "method", "color_index", "geom"}

const createRegionsSQL = `
CREATE TABLE IF NOT EXISTS psc.regions (
	code        TEXT PRIMARY KEY,
	point_count INTEGER NOT NULL,
	area_km2    DOUBLE PRECISION NOT NULL,
	method      TEXT NOT NULL,
	color_index INTEGER NOT NULL,
	geom        GEOMETRY(MultiPolygon, 4326) NOT NULL
)`

// EnsureSchema creates the psc schema and regions table if missing.
func EnsureSchema(ctx context.Context, pool db.Pool) error {
	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+regionSchema); err != nil {
		return eris.Wrap(err, "output: create schema")
	}
	if _, err := pool.Exec(ctx, createRegionsSQL); err != nil {
		return eris.Wrap(err, "output: create regions table")
	}
	return nil
}

// WriteRegions replaces the contents of psc.regions with the given set.
// Geometries go over the wire as EWKB, which PostGIS accepts natively
// in binary COPY.
func WriteRegions(ctx context.Context, pool db.Pool, regions []*region.Region) (int64, error) {
	if err := EnsureSchema(ctx, pool); err != nil {
		return 0, err
	}
	if _, err := pool.Exec(ctx, "DELETE FROM psc.regions"); err != nil {
		return 0, eris.Wrap(err, "output: clear regions table")
	}

	rows := make([][]any, 0, len(regions))
	for _, r := range regions {
		wkb, err := ewkb.Marshal(r.Geom, ewkb.NDR)
		if err != nil {
			return 0, eris.Wrapf(err, "output: encode geometry for %s", r.Code)
		}
		rows = append(rows, []any{
			r.Code, r.PointCount, r.AreaKm2, string(r.Method), r.ColorIndex, wkb,
		})
	}

	n, err := db.CopyFromSchema(ctx, pool, regionSchema, regionTable, regionColumns, rows)
	if err != nil {
		return 0, err
	}
	zap.L().Info("regions loaded into postgres", zap.Int64("rows", n))
	return n, nil
}
