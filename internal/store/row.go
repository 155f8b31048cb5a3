// Package store persists enriched contacts: Parquet files for export and
// ClickHouse for ingest and summary queries.
package store

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/KI7MT/ki7mt-adif-lab/internal/analysis"
)

// Row is the flat, storable form of an analysis.Contact. The same shape
// is used for Parquet files and the ClickHouse table.
type Row struct {
	RunID       string  `parquet:"run_id"`
	Source      string  `parquet:"source"`
	QSOTime     int64   `parquet:"qso_time"` // unix seconds, 0 when unknown
	Call        string  `parquet:"call"`
	Mode        string  `parquet:"mode"`
	Grid        string  `parquet:"grid"`
	FreqHz      uint64  `parquet:"freq_hz"`
	Band        string  `parquet:"band"`
	BandID      int32   `parquet:"band_id"`
	Lat         float64 `parquet:"lat"`
	Lon         float64 `parquet:"lon"`
	HasLocation bool    `parquet:"has_location"`
	DistanceKm  float64 `parquet:"distance_km"`
	Bearing     float64 `parquet:"bearing"`
	SNR         int16   `parquet:"snr"`
	HasSNR      bool    `parquet:"has_snr"`
	Country     string  `parquet:"country"`
	Continent   string  `parquet:"continent"`
	CQZone      uint8   `parquet:"cq_zone"`
	IsDX        bool    `parquet:"is_dx"`
	Greyline    bool    `parquet:"greyline"`
}

// Column limits matching the ClickHouse schema
const (
	maxCallLen = 16
	maxGridLen = 8
	maxModeLen = 16
)

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

// FromContact flattens a contact for one ingest run.
func FromContact(c analysis.Contact, runID uuid.UUID, source string) Row {
	r := Row{
		RunID:       runID.String(),
		Source:      source,
		Call:        truncateString(c.Call, maxCallLen),
		Mode:        truncateString(c.Mode, maxModeLen),
		Grid:        truncateString(strings.ToUpper(c.Grid), maxGridLen),
		Band:        c.Band,
		BandID:      c.BandID,
		HasLocation: c.HasLocation,
		Country:     c.Country,
		Continent:   c.Continent,
		IsDX:        c.IsDX,
		Greyline:    c.Greyline,
	}

	switch {
	case c.HasTime:
		r.QSOTime = c.Time.Unix()
	case c.HasDate:
		r.QSOTime = c.Date.Unix()
	}
	if c.HasFreq {
		r.FreqHz = uint64(math.Round(c.FreqMHz * 1_000_000))
	}
	if c.HasLocation {
		r.Lat = c.Point.Lat
		r.Lon = c.Point.Lon
		r.DistanceKm = c.DistanceKm
		r.Bearing = c.BearingDeg
	}
	if c.HasSNR {
		r.SNR = int16(max(math.MinInt16, min(math.MaxInt16, math.Round(c.SNR))))
		r.HasSNR = true
	}
	if c.CQZone > 0 && c.CQZone <= math.MaxUint8 {
		r.CQZone = uint8(c.CQZone)
	}
	return r
}

// FromContacts flattens a slice of contacts.
func FromContacts(contacts []analysis.Contact, runID uuid.UUID, source string) []Row {
	rows := make([]Row, len(contacts))
	for i := range contacts {
		rows[i] = FromContact(contacts[i], runID, source)
	}
	return rows
}
