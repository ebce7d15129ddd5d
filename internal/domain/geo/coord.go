package geo

import "math"

// EarthRadiusMiles is the radius used for great-circle distances.
const EarthRadiusMiles = 3959.0

// Coord is a latitude/longitude pair in decimal degrees
type Coord struct {
	Lat float64
	Lng float64
}

// IsZero reports whether the coordinate is the unset (0, 0) value
func (c Coord) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// HaversineMiles returns the great-circle distance between two coordinates in miles
func HaversineMiles(a, b Coord) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BearingDegrees returns the initial compass bearing from one coordinate to
// another, normalized to [0, 360)
func BearingDegrees(from, to Coord) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// BearingDeltaDegrees returns the absolute angular difference between two
// bearings, folded into [0, 180]
func BearingDeltaDegrees(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
