package proj

import "math"

// Mean Earth radius in meters, adequate for the country-scale local frame.
const earthRadiusM = 6371008.8

// Frame is a local equirectangular projection centered on a reference
// coordinate. All hull, buffer, adjacency, and area computation runs in this
// frame so tolerances and radii can be expressed in meters; results are
// unprojected back to WGS84 for output.
type Frame struct {
	lon0   float64
	lat0   float64
	cosLat float64
}

// NewFrame creates a metric frame centered on the given WGS84 coordinate.
func NewFrame(lon0, lat0 float64) *Frame {
	return &Frame{
		lon0:   lon0,
		lat0:   lat0,
		cosLat: math.Cos(lat0 * math.Pi / 180),
	}
}

// FrameFor centers a frame on the mean coordinate of the given points.
// Falls back to the frame origin 0,0 for an empty slice.
func FrameFor(lons, lats []float64) *Frame {
	if len(lons) == 0 {
		return NewFrame(0, 0)
	}
	var sumLon, sumLat float64
	for i := range lons {
		sumLon += lons[i]
		sumLat += lats[i]
	}
	n := float64(len(lons))
	return NewFrame(sumLon/n, sumLat/n)
}

// Project converts a WGS84 coordinate to meters east/north of the frame origin.
func (f *Frame) Project(lon, lat float64) (x, y float64) {
	x = (lon - f.lon0) * math.Pi / 180 * earthRadiusM * f.cosLat
	y = (lat - f.lat0) * math.Pi / 180 * earthRadiusM
	return x, y
}

// Unproject converts frame meters back to WGS84 degrees.
func (f *Frame) Unproject(x, y float64) (lon, lat float64) {
	lon = f.lon0 + x/(earthRadiusM*f.cosLat)*180/math.Pi
	lat = f.lat0 + y/earthRadiusM*180/math.Pi
	return lon, lat
}
