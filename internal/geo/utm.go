package geo

import "math"

// Reference ellipsoid and projection constants (WGS84 / SIRGAS 2000, UTM).
const (
	semiMajorAxis = 6378137.0
	eccentricity  = 0.081819191
	e1sq          = 0.006739497 // second eccentricity squared
	scaleFactor   = 0.9996

	falseEasting  = 500000.0
	falseNorthing = 10000000.0
)

// ProjectedPoint is a position in UTM grid coordinates (meters).
type ProjectedPoint struct {
	Easting  float64 `json:"easting" yaml:"easting"`
	Northing float64 `json:"northing" yaml:"northing"`
	Zone     int     `json:"zone" yaml:"zone"`
	Southern bool    `json:"southern" yaml:"southern"`
}

// GeoPoint is a geographic position in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the point is finite and inside the geographic range.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) ||
		math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return false
	}

	return math.Abs(p.Latitude) <= 90 && math.Abs(p.Longitude) <= 180
}

// CentralMeridian returns the longitude in degrees of the zone's central meridian.
func CentralMeridian(zone int) float64 {
	return float64(zone*6 - 183)
}

// ToGeographic converts UTM grid coordinates to latitude/longitude using the
// inverse transverse Mercator series.
//
// The result is not rounded. Points far outside the zone yield meaningless
// values and pathological input may produce NaN or Inf; use GeoPoint.Valid
// before trusting the output.
func ToGeographic(p ProjectedPoint) GeoPoint {
	const (
		a  = semiMajorAxis
		e  = eccentricity
		k0 = scaleFactor
	)

	x := p.Easting - falseEasting
	y := p.Northing
	if p.Southern {
		y -= falseNorthing
	}

	e2 := e * e
	e4 := e2 * e2
	e6 := e4 * e2

	// footpoint latitude from the meridional arc
	m := y / k0
	mu := m / (a * (1.0 - e2/4.0 - 3*e4/64.0 - 5*e6/256.0))

	sq := math.Sqrt(1 - e2)
	e1 := (1 - sq) / (1 + sq)
	j1 := 3*e1/2 - 27*math.Pow(e1, 3)/32.0
	j2 := 21*math.Pow(e1, 2)/16 - 55*math.Pow(e1, 4)/32.0
	j3 := 151 * math.Pow(e1, 3) / 96.0
	j4 := 1097 * math.Pow(e1, 4) / 512.0

	fp := mu + j1*math.Sin(2*mu) + j2*math.Sin(4*mu) + j3*math.Sin(6*mu) + j4*math.Sin(8*mu)

	sinFp := math.Sin(fp)
	cosFp := math.Cos(fp)
	tanFp := math.Tan(fp)

	c1 := e1sq * cosFp * cosFp
	t1 := tanFp * tanFp
	w := 1 - (e*sinFp)*(e*sinFp)
	r1 := a * (1 - e2) / math.Pow(w, 1.5)
	n1 := a / math.Sqrt(w)

	d := x / (n1 * k0)
	d2 := d * d
	d3 := d2 * d
	d4 := d2 * d2
	d5 := d4 * d
	d6 := d4 * d2

	lat := fp - (n1*tanFp/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*e1sq)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*e1sq-3*c1*c1)*d6/720)

	lon := (d -
		(1+2*t1+c1)*d3/6 +
		(5-2*c1+28*t1-3*c1*c1+8*e1sq+24*t1*t1)*d5/120) / cosFp

	return GeoPoint{
		Latitude:  lat * (180.0 / math.Pi),
		Longitude: lon*(180.0/math.Pi) + CentralMeridian(p.Zone),
	}
}
