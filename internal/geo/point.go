// Package geo provides Maidenhead locator conversion and great-circle
// helpers shared by every ADIF analysis.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Point is a position in decimal degrees, north and east positive.
type Point struct {
	Lat float64
	Lon float64
}

// String formats the point as "lat,lon" with four decimals.
func (p Point) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
}

// Orb returns the point in orb's [lon, lat] order.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb point back.
func FromOrb(o orb.Point) Point {
	return Point{Lat: o.Lat(), Lon: o.Lon()}
}

// Valid reports whether the point is inside the lat/lon domain.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// =============================================================================
// Symmetric points
// =============================================================================

// normalizeLon wraps a longitude into [-180, 180).
func normalizeLon(lon float64) float64 {
	return math.Mod(math.Mod(lon+180, 360)+360, 360) - 180
}

// Antipode is the point diametrically opposite p.
func Antipode(p Point) Point {
	return Point{Lat: -p.Lat, Lon: normalizeLon(p.Lon + 180)}
}

// Antecoic mirrors p across the equator (same meridian).
func Antecoic(p Point) Point {
	return Point{Lat: -p.Lat, Lon: p.Lon}
}

// Periecoic is on the same parallel, half a turn away in longitude.
func Periecoic(p Point) Point {
	return Point{Lat: p.Lat, Lon: normalizeLon(p.Lon + 180)}
}
