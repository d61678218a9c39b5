package ingest

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Shapefile parses an ESRI point shapefile already in WGS84. The postal code
// comes from the named attribute field (case-insensitive, default PSC).
func Shapefile(path, codeField string) (*Result, error) {
	if codeField == "" {
		codeField = "PSC"
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, codeField) {
			fieldIdx = i
			break
		}
	}
	if fieldIdx < 0 {
		return nil, eris.Errorf("ingest: shapefile has no %q field", codeField)
	}

	res := &Result{}
	rowNum := 0
	for reader.Next() {
		rowNum++
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			res.Rejected++
			continue
		}

		raw := strings.TrimSpace(strings.TrimRight(reader.Attribute(fieldIdx), "\x00"))
		res.addShapePoint(raw, pt.X, pt.Y, "shp-"+strconv.Itoa(rowNum))
	}

	zap.L().Info("shapefile parsed",
		zap.String("path", path),
		zap.Int("accepted", res.Accepted),
		zap.Int("rejected", res.Rejected))
	return res, nil
}
