// Package proj implements the coordinate transforms the pipeline depends on:
// the Křovák projection used by the Czech S-JTSK grid (EPSG:5514) and a local
// equirectangular metric frame for hull, buffer, and area computation.
package proj

import (
	"math"

	"github.com/rotisserie/eris"
)

// ProjectionError reports a coordinate transform failure. Downstream area and
// adjacency computation depend on a consistent metric projection, so callers
// treat it as fatal.
type ProjectionError struct {
	Reason string
}

func (e *ProjectionError) Error() string {
	return "projection: " + e.Reason
}

// Křovák oblique conformal conic on the Bessel 1841 ellipsoid (EPSG method 9819).
// Longitudes are referenced to Greenwich; the historical Ferro offset cancels
// out of the V term because both the origin and the point carry it.
const (
	besselA  = 6377397.155
	besselF  = 1.0 / 299.1528128
	latC     = 49.5 * math.Pi / 180       // latitude of projection centre
	lonO     = (24.0 + 50.0/60.0) * math.Pi / 180 // 24°50' E Greenwich
	azimuthC = (30.0 + 17.0/60 + 17.30311/3600) * math.Pi / 180
	latP     = 78.5 * math.Pi / 180 // pseudo standard parallel
	scaleP   = 0.9999
)

// S-JTSK sits on the Bessel datum; WGS84 positions need the Czech 7-parameter
// Helmert shift (EPSG transformation 1623, position vector convention), about
// 130 m horizontally. WGS84 ellipsoid constants for the geocentric legs.
const (
	wgs84A  = 6378137.0
	wgs84F  = 1.0 / 298.257223563
	arcSec  = math.Pi / 180 / 3600
	helmDX  = 570.8
	helmDY  = 85.7
	helmDZ  = 462.8
	helmRX  = 4.998 * arcSec
	helmRY  = 1.587 * arcSec
	helmRZ  = 5.261 * arcSec
	helmPPM = 3.56e-6
)

var (
	e2 = 2*besselF - besselF*besselF
	e1 = math.Sqrt(e2)

	wgsE2 = 2*wgs84F - wgs84F*wgs84F

	kA     = besselA * math.Sqrt(1-e2) / (1 - e2*math.Pow(math.Sin(latC), 2))
	kB     = math.Sqrt(1 + e2*math.Pow(math.Cos(latC), 4)/(1-e2))
	gamma0 = math.Asin(math.Sin(latC) / kB)
	kT0    = math.Tan(math.Pi/4+gamma0/2) *
		math.Pow((1+e1*math.Sin(latC))/(1-e1*math.Sin(latC)), e1*kB/2) /
		math.Pow(math.Tan(math.Pi/4+latC/2), kB)
	kN  = math.Sin(latP)
	kR0 = scaleP * kA / math.Tan(latP)
)

// SJTSKToWGS84 converts positive RÚIAN plane coordinates to WGS84 degrees.
// RÚIAN publishes S-JTSK values with positive sign; in Křovák terms
// "Souřadnice Y" is the westing and "Souřadnice X" the southing.
func SJTSKToWGS84(westing, southing float64) (lon, lat float64, err error) {
	if !isFinite(westing) || !isFinite(southing) {
		return 0, 0, eris.Wrap(&ProjectionError{Reason: "non-finite S-JTSK coordinate"}, "proj")
	}
	if westing <= 0 || southing <= 0 {
		return 0, 0, eris.Wrap(&ProjectionError{Reason: "S-JTSK coordinates must be positive westing/southing"}, "proj")
	}

	lonB, latB := krovakInverse(westing, southing)
	lonW, latW := besselToWGS84(lonB, latB)

	lon = lonW * 180 / math.Pi
	lat = latW * 180 / math.Pi
	if !isFinite(lon) || !isFinite(lat) {
		return 0, 0, eris.Wrap(&ProjectionError{Reason: "Křovák inverse produced non-finite result"}, "proj")
	}
	return lon, lat, nil
}

// WGS84ToSJTSK is the forward transform, returning positive westing/southing.
// It exists to validate the inverse.
func WGS84ToSJTSK(lon, lat float64) (westing, southing float64, err error) {
	if !isFinite(lon) || !isFinite(lat) {
		return 0, 0, eris.Wrap(&ProjectionError{Reason: "non-finite geographic coordinate"}, "proj")
	}

	lonB, latB := wgs84ToBessel(lon*math.Pi/180, lat*math.Pi/180)
	westing, southing = krovakForward(lonB, latB)
	if !isFinite(southing) || !isFinite(westing) {
		return 0, 0, eris.Wrap(&ProjectionError{Reason: "Křovák forward produced non-finite result"}, "proj")
	}
	return westing, southing, nil
}

// krovakInverse maps positive grid coordinates to Bessel geographic radians.
func krovakInverse(westing, southing float64) (lonRad, latRad float64) {
	r := math.Hypot(westing, southing)
	theta := math.Atan2(westing, southing)

	d := theta / kN
	tPrime := 2 * (math.Atan(math.Pow(kR0/r, 1/kN)*math.Tan(math.Pi/4+latP/2)) - math.Pi/4)
	u := math.Asin(math.Cos(azimuthC)*math.Sin(tPrime) - math.Sin(azimuthC)*math.Cos(tPrime)*math.Cos(d))
	v := math.Asin(math.Cos(tPrime) * math.Sin(d) / math.Cos(u))

	lonRad = lonO - v/kB

	// Latitude converges in a handful of iterations at double precision.
	phi := u
	for i := 0; i < 16; i++ {
		next := 2 * (math.Atan(math.Pow(kT0, -1/kB)*
			math.Pow(math.Tan(u/2+math.Pi/4), 1/kB)*
			math.Pow((1+e1*math.Sin(phi))/(1-e1*math.Sin(phi)), e1/2)) - math.Pi/4)
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}
	return lonRad, phi
}

// krovakForward maps Bessel geographic radians to positive grid coordinates.
func krovakForward(lonRad, latRad float64) (westing, southing float64) {
	u := 2 * (math.Atan(kT0*math.Pow(math.Tan(latRad/2+math.Pi/4), kB)/
		math.Pow((1+e1*math.Sin(latRad))/(1-e1*math.Sin(latRad)), e1*kB/2)) - math.Pi/4)
	v := kB * (lonO - lonRad)
	tt := math.Asin(math.Cos(azimuthC)*math.Sin(u) + math.Sin(azimuthC)*math.Cos(u)*math.Cos(v))
	d := math.Asin(math.Cos(u) * math.Sin(v) / math.Cos(tt))
	theta := kN * d
	r := kR0 * math.Pow(math.Tan(math.Pi/4+latP/2), kN) / math.Pow(math.Tan(tt/2+math.Pi/4), kN)

	return r * math.Sin(theta), r * math.Cos(theta)
}

// besselToWGS84 applies the Czech datum shift to Bessel geographic radians.
// Ellipsoidal height is taken as zero; its contribution to the horizontal
// result is below a millimeter.
func besselToWGS84(lonRad, latRad float64) (lonW, latW float64) {
	x, y, z := geodeticToGeocentric(besselA, e2, lonRad, latRad)

	m := 1 + helmPPM
	xw := helmDX + m*(x-helmRZ*y+helmRY*z)
	yw := helmDY + m*(helmRZ*x+y-helmRX*z)
	zw := helmDZ + m*(-helmRY*x+helmRX*y+z)

	return geocentricToGeodetic(wgs84A, wgsE2, xw, yw, zw)
}

// wgs84ToBessel is the inverse datum shift. The rotations are small enough
// that the transpose is the exact-to-double inverse rotation.
func wgs84ToBessel(lonRad, latRad float64) (lonB, latB float64) {
	x, y, z := geodeticToGeocentric(wgs84A, wgsE2, lonRad, latRad)

	x, y, z = x-helmDX, y-helmDY, z-helmDZ
	m := 1 / (1 + helmPPM)
	xb := m * (x + helmRZ*y - helmRY*z)
	yb := m * (-helmRZ*x + y + helmRX*z)
	zb := m * (helmRY*x - helmRX*y + z)

	return geocentricToGeodetic(besselA, e2, xb, yb, zb)
}

func geodeticToGeocentric(a, esq, lonRad, latRad float64) (x, y, z float64) {
	sinLat := math.Sin(latRad)
	n := a / math.Sqrt(1-esq*sinLat*sinLat)
	x = n * math.Cos(latRad) * math.Cos(lonRad)
	y = n * math.Cos(latRad) * math.Sin(lonRad)
	z = n * (1 - esq) * sinLat
	return x, y, z
}

func geocentricToGeodetic(a, esq, x, y, z float64) (lonRad, latRad float64) {
	lonRad = math.Atan2(y, x)
	p := math.Hypot(x, y)

	latRad = math.Atan2(z, p*(1-esq))
	for i := 0; i < 16; i++ {
		sinLat := math.Sin(latRad)
		n := a / math.Sqrt(1-esq*sinLat*sinLat)
		h := p/math.Cos(latRad) - n
		next := math.Atan2(z, p*(1-esq*n/(n+h)))
		if math.Abs(next-latRad) < 1e-14 {
			latRad = next
			break
		}
		latRad = next
	}
	return lonRad, latRad
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
