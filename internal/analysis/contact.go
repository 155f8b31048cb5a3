// Package analysis enriches ADIF records with geodesy, band and country
// data and aggregates them into the log reports.
package analysis

import (
	"time"

	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
)

// Unknown is the country label when neither the record nor cty.dat names one.
const Unknown = "Unknown"

// Country sources
const (
	FromTag = "tag"
	FromCty = "cty"
)

// Contact is one enriched log record. The Has* flags mark which optional
// values were present and parseable; analyses skip contacts lacking what
// they need.
type Contact struct {
	Call    string
	Mode    string
	Grid    string
	FreqMHz float64
	Band    string
	BandID  int32

	Point      geo.Point
	DistanceKm float64
	BearingDeg float64

	Time time.Time // QSO_DATE + TIME_ON
	Date time.Time // QSO_DATE at 00:00 UTC
	Hour int

	SNR float64

	Country     string
	CountryFrom string // FromTag, FromCty or ""
	Continent   string
	CQZone      int

	IsDX     bool // distance >= the engine's DX threshold
	Greyline bool // IsDX and inside a twilight window

	HasCall     bool
	HasMode     bool
	HasFreq     bool
	HasLocation bool
	HasTime     bool
	HasDate     bool
	HasHour     bool
	HasSNR      bool
}

// SquarePoint is the center of the contact's 4-character square.
func (c Contact) SquarePoint() (geo.Point, bool) {
	if !c.HasLocation || len(c.Grid) < 4 {
		return geo.Point{}, false
	}
	return geo.ToPoint(c.Grid[:4])
}
