// Package ingest parses RÚIAN address dumps into validated WGS84 points.
package ingest

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/fetcher"
	"github.com/psc-mapa/psc-cli/internal/pointset"
	"github.com/psc-mapa/psc-cli/internal/proj"
)

// Options configures CSV parsing. Zero values fall back to the RÚIAN dump
// conventions.
type Options struct {
	Encoding  string // default windows-1250
	Delimiter rune   // default ';'
}

// Result carries the parsed points and running counts of what was dropped.
// ProjectionFailures is a subset of Rejected: rows whose coordinates parsed
// but could not be transformed.
type Result struct {
	Points             []pointset.Point
	Accepted           int
	Rejected           int
	OutOfBounds        int
	ProjectionFailures int
}

var codePattern = regexp.MustCompile(`^\d{5}$`)

// Czech Republic sanity bounds. Points outside are logged and kept: the
// transform is trusted more than the bound.
const (
	boundsLonMin = 12.0
	boundsLonMax = 19.0
	boundsLatMin = 48.0
	boundsLatMax = 52.0
)

// Positional fallbacks for the RÚIAN CSV layout when the header does not
// match any known pattern.
const (
	fallbackIDCol  = 0
	fallbackPSCCol = 15
	fallbackYCol   = 16
	fallbackXCol   = 17
)

type columns struct {
	id, psc, y, x int
}

// sniffColumns finds the ID, PSČ and S-JTSK coordinate columns from the
// header row, falling back to the fixed RÚIAN positions.
func sniffColumns(header []string) columns {
	cols := columns{id: -1, psc: -1, y: -1, x: -1}
	for i, h := range header {
		switch name := strings.ToLower(strings.TrimSpace(h)); {
		case name == "psč" || name == "psc":
			cols.psc = i
		case strings.Contains(name, "souřadnice y") || strings.Contains(name, "souradnice y"):
			cols.y = i
		case strings.Contains(name, "souřadnice x") || strings.Contains(name, "souradnice x"):
			cols.x = i
		case strings.Contains(name, "kód adm") || strings.Contains(name, "kod adm"):
			cols.id = i
		}
	}

	if cols.psc < 0 || cols.y < 0 || cols.x < 0 {
		zap.L().Warn("header columns not recognized, using positional fallback",
			zap.Strings("header", header))
		cols = columns{id: fallbackIDCol, psc: fallbackPSCCol, y: fallbackYCol, x: fallbackXCol}
	}
	if cols.id < 0 {
		cols.id = fallbackIDCol
	}
	return cols
}

// normalizeCode strips inner spaces and validates the 5-digit form.
func normalizeCode(raw string) (string, bool) {
	code := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	return code, codePattern.MatchString(code)
}

// CSV parses a RÚIAN address CSV stream.
func CSV(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	if opts.Encoding == "" {
		opts.Encoding = "windows-1250"
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		Delimiter: opts.Delimiter,
		Encoding:  opts.Encoding,
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	res := &Result{}
	var cols columns
	sniffed := false
	rowNum := 0

	for row := range rowCh {
		rowNum++
		if !sniffed {
			cols = sniffColumns(<-headerCh)
			sniffed = true
		}
		res.addRow(row, cols, rowNum)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "ingest")
	}

	zap.L().Info("csv parsed",
		zap.Int("accepted", res.Accepted),
		zap.Int("rejected", res.Rejected),
		zap.Int("projection_failures", res.ProjectionFailures),
		zap.Int("out_of_bounds", res.OutOfBounds))
	return res, nil
}

func (res *Result) addRow(row []string, cols columns, rowNum int) {
	maxCol := cols.psc
	if cols.y > maxCol {
		maxCol = cols.y
	}
	if cols.x > maxCol {
		maxCol = cols.x
	}
	if len(row) <= maxCol {
		res.Rejected++
		return
	}

	code, ok := normalizeCode(row[cols.psc])
	if !ok {
		res.Rejected++
		return
	}

	y, errY := strconv.ParseFloat(strings.TrimSpace(row[cols.y]), 64)
	x, errX := strconv.ParseFloat(strings.TrimSpace(row[cols.x]), 64)
	if errY != nil || errX != nil || y == 0 || x == 0 {
		res.Rejected++
		return
	}

	// RÚIAN stores S-JTSK magnitudes; EPSG:5514 axes are negative, so accept
	// either sign and transform the magnitude.
	if y < 0 {
		y = -y
	}
	if x < 0 {
		x = -x
	}

	lon, lat, err := proj.SJTSKToWGS84(y, x)
	if err != nil {
		res.Rejected++
		res.ProjectionFailures++
		zap.L().Debug("projection failed", zap.Int("row", rowNum), zap.Error(err))
		return
	}

	if lon < boundsLonMin || lon > boundsLonMax || lat < boundsLatMin || lat > boundsLatMax {
		res.OutOfBounds++
		zap.L().Warn("point outside expected bounds, keeping",
			zap.String("code", code),
			zap.Float64("lon", lon),
			zap.Float64("lat", lat))
	}

	sourceID := ""
	if cols.id < len(row) {
		sourceID = strings.TrimSpace(row[cols.id])
	}
	if sourceID == "" {
		sourceID = "row-" + strconv.Itoa(rowNum)
	}

	res.Points = append(res.Points, pointset.Point{
		Code:     code,
		Lon:      lon,
		Lat:      lat,
		SourceID: sourceID,
	})
	res.Accepted++
}

// addShapePoint validates an already-WGS84 point from the shapefile path.
func (res *Result) addShapePoint(rawCode string, lon, lat float64, sourceID string) {
	code, ok := normalizeCode(rawCode)
	if !ok {
		res.Rejected++
		return
	}
	if lon == 0 || lat == 0 {
		res.Rejected++
		return
	}

	if lon < boundsLonMin || lon > boundsLonMax || lat < boundsLatMin || lat > boundsLatMax {
		res.OutOfBounds++
		zap.L().Warn("point outside expected bounds, keeping",
			zap.String("code", code),
			zap.Float64("lon", lon),
			zap.Float64("lat", lat))
	}

	res.Points = append(res.Points, pointset.Point{
		Code:     code,
		Lon:      lon,
		Lat:      lat,
		SourceID: sourceID,
	})
	res.Accepted++
}
