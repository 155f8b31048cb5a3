package geo

import (
	"math"
	"strings"
)

// locator.go - Maidenhead grid locator <-> lat/lon
//
// Layout (per pair, lon first):
//   field     A-R   20° x 10°
//   square    0-9    2° x  1°
//   subsquare A-X    5' x 2.5'
//
// Decoded points are cell centers. Subsquares are centered with half a
// subsquare (1/24° lon, 0.5/24° lat).

const (
	fieldLonDeg = 20.0
	fieldLatDeg = 10.0
	squareLon   = 2.0
	squareLat   = 1.0
	subPerSq    = 24.0

	// PrecisionField, PrecisionSquare and PrecisionSubsquare are the
	// supported ToLocator precisions.
	PrecisionField     = 2
	PrecisionSquare    = 4
	PrecisionSubsquare = 6
)

// ToPoint decodes a 4 or 6 character locator into the center of its cell.
// Input is case-insensitive and trimmed; characters past the sixth are
// ignored and a 5 character locator decodes at square precision.
// ok is false when the locator is shorter than 4 characters or any
// character is out of range.
func ToPoint(locator string) (p Point, ok bool) {
	loc := strings.ToUpper(strings.TrimSpace(locator))
	if len(loc) < 4 {
		return Point{}, false
	}

	f0, f1 := loc[0], loc[1]
	d0, d1 := loc[2], loc[3]
	if !isFieldLetter(f0) || !isFieldLetter(f1) || !isDigit(d0) || !isDigit(d1) {
		return Point{}, false
	}

	lon := float64(f0-'A')*fieldLonDeg - 180 + float64(d0-'0')*squareLon
	lat := float64(f1-'A')*fieldLatDeg - 90 + float64(d1-'0')*squareLat

	if len(loc) >= 6 {
		s0, s1 := loc[4], loc[5]
		if !isSubsquareLetter(s0) || !isSubsquareLetter(s1) {
			return Point{}, false
		}
		lon += float64(s0-'A')*(squareLon/subPerSq) + squareLon/subPerSq/2
		lat += float64(s1-'A')*(squareLat/subPerSq) + squareLat/subPerSq/2
	} else {
		lon += squareLon / 2
		lat += squareLat / 2
	}

	return Point{Lat: lat, Lon: lon}, true
}

// ToLocator quantizes p to a locator of the given precision (2, 4 or 6).
// Precision 3 and 5 round down to the coarser level, anything above 6 is
// treated as 6. Out of range coordinates are clamped to the grid edges.
func ToLocator(p Point, precision int) string {
	lon := clamp(p.Lon+180, 0, 360)
	lat := clamp(p.Lat+90, 0, 180)

	buf := make([]byte, 0, PrecisionSubsquare)

	fLon := clampIndex(int(lon/fieldLonDeg), 17)
	fLat := clampIndex(int(lat/fieldLatDeg), 17)
	buf = append(buf, byte('A'+fLon), byte('A'+fLat))
	if precision < PrecisionSquare {
		return string(buf)
	}

	lon -= float64(fLon) * fieldLonDeg
	lat -= float64(fLat) * fieldLatDeg
	sLon := clampIndex(int(lon/squareLon), 9)
	sLat := clampIndex(int(lat/squareLat), 9)
	buf = append(buf, byte('0'+sLon), byte('0'+sLat))
	if precision < PrecisionSubsquare {
		return string(buf)
	}

	lon -= float64(sLon) * squareLon
	lat -= float64(sLat) * squareLat
	ssLon := clampIndex(int(lon*subPerSq/squareLon), 23)
	ssLat := clampIndex(int(lat*subPerSq/squareLat), 23)
	buf = append(buf, byte('A'+ssLon), byte('A'+ssLat))

	return string(buf)
}

// ValidLocator reports whether ToPoint would accept the locator.
func ValidLocator(locator string) bool {
	_, ok := ToPoint(locator)
	return ok
}

func isFieldLetter(c byte) bool     { return c >= 'A' && c <= 'R' }
func isSubsquareLetter(c byte) bool { return c >= 'A' && c <= 'X' }
func isDigit(c byte) bool           { return c >= '0' && c <= '9' }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
