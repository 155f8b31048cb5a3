package geo

import (
	"math"

	orbgeo "github.com/paulmach/orb/geo"
)

// EarthRadiusKm is the mean Earth radius used for all distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance between a and b.
// Spherical model, no ellipsoid correction.
func DistanceKm(a, b Point) float64 {
	lat1 := deg2rad(a.Lat)
	lat2 := deg2rad(b.Lat)
	dLat := lat2 - lat1
	dLon := deg2rad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h a hair outside [0,1] for near-antipodal pairs
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial great-circle bearing from -> to in [0, 360).
func Bearing(from, to Point) float64 {
	b := orbgeo.Bearing(from.Orb(), to.Orb())
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b -= 360
	}
	return b
}

// UnitVector maps p onto the unit sphere (x toward 0°E, z toward the north pole).
// Euclidean distance between unit vectors is monotonic in great-circle distance.
func UnitVector(p Point) [3]float64 {
	lat := deg2rad(p.Lat)
	lon := deg2rad(p.Lon)
	return [3]float64{
		math.Cos(lat) * math.Cos(lon),
		math.Cos(lat) * math.Sin(lon),
		math.Sin(lat),
	}
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180
}
