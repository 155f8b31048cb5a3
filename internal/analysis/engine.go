package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KI7MT/ki7mt-adif-lab/internal/adif"
	"github.com/KI7MT/ki7mt-adif-lab/internal/bands"
	"github.com/KI7MT/ki7mt-adif-lab/internal/cty"
	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
	"github.com/KI7MT/ki7mt-adif-lab/internal/solar"
)

// ErrStationLocator is returned when the station locator cannot be decoded.
var ErrStationLocator = errors.New("invalid station locator")

// Options are the tunables of an analysis run.
type Options struct {
	Station        string        // station Maidenhead locator
	Window         time.Duration // greyline half-width
	MinDXKm        float64       // DX threshold for the greyline report
	TopN           int           // rows in the top DX report
	MinSNRContacts int           // minimum group size in the SNR report
	Workers        int           // enrichment goroutines, 0 = NumCPU
}

// DefaultOptions mirror the stock configuration.
func DefaultOptions() Options {
	return Options{
		Station:        "JN33",
		Window:         solar.DefaultWindow,
		MinDXKm:        3500,
		TopN:           1000,
		MinSNRContacts: 10,
	}
}

// Engine enriches records for one station. Immutable after NewEngine and
// safe for concurrent Enrich calls.
type Engine struct {
	opts    Options
	station geo.Point
	table   *cty.Table
	calls   *adif.CallCleaner
	log     *zap.SugaredLogger
}

// NewEngine validates opts and decodes the station locator.
// table may be nil, in which case countries come from COUNTRY tags only.
func NewEngine(opts Options, table *cty.Table, log *zap.SugaredLogger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	station, ok := geo.ToPoint(opts.Station)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStationLocator, opts.Station)
	}
	if opts.Window < 0 {
		return nil, fmt.Errorf("negative greyline window %v", opts.Window)
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultOptions().TopN
	}
	opts.Station = strings.ToUpper(strings.TrimSpace(opts.Station))

	return &Engine{opts: opts, station: station, table: table, calls: adif.NewCallCleaner(log), log: log}, nil
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Station returns the decoded station point.
func (e *Engine) Station() geo.Point { return e.station }

// CallCounts returns how many callsigns were enriched and how many were repaired.
func (e *Engine) CallCounts() (seen, repaired int64) { return e.calls.Counts() }

// HasCountryTable reports whether a cty.dat table was supplied.
func (e *Engine) HasCountryTable() bool { return e.table != nil }

// Enrich derives a Contact from one record. It never fails: fields that are
// missing or unparseable only leave the matching Has* flag unset.
func (e *Engine) Enrich(f adif.Fields) Contact {
	var c Contact

	if call := f.Get(adif.FieldCall); call != "" {
		c.Call = e.calls.Clean(call)
		c.HasCall = adif.PlausibleCall(c.Call)
	}
	if mode := f.Mode(); mode != "" {
		c.Mode = mode
		c.HasMode = true
	}

	c.Band = bands.Other
	if freq, ok := f.FreqMHz(); ok {
		c.FreqMHz = freq
		c.HasFreq = true
		c.Band = bands.BandOf(freq)
		c.BandID = bands.ID(c.Band)
	}

	if grid := f.Grid(); grid != "" {
		if p, ok := geo.ToPoint(grid); ok {
			c.Grid = grid
			c.Point = p
			c.HasLocation = true
			c.DistanceKm = geo.DistanceKm(e.station, p)
			c.BearingDeg = geo.Bearing(e.station, p)
			c.IsDX = c.DistanceKm >= e.opts.MinDXKm
		}
	}

	if d, ok := f.Date(); ok {
		c.Date = d
		c.HasDate = true
	}
	if h, ok := f.Hour(); ok {
		c.Hour = h
		c.HasHour = true
	}
	if ts, ok := f.Timestamp(); ok {
		c.Time = ts
		c.HasTime = true
	}

	if snr, ok := f.SNR(); ok {
		c.SNR = snr
		c.HasSNR = true
	}

	e.resolveCountry(&c, f.Get(adif.FieldCountry))

	if c.IsDX && c.HasTime {
		c.Greyline = e.InGreyline(c.Time, c.Point)
	}

	return c
}

// resolveCountry applies COUNTRY tag, then cty.dat, then Unknown.
func (e *Engine) resolveCountry(c *Contact, tag string) {
	var entry cty.Entry
	found := false
	if c.HasCall {
		entry, found = e.table.Resolve(c.Call)
	}
	if found {
		c.Continent = entry.Continent
		c.CQZone = entry.CQZone
	}

	switch {
	case strings.TrimSpace(tag) != "":
		c.Country = TitleCase(tag)
		c.CountryFrom = FromTag
	case found:
		c.Country = entry.Name
		c.CountryFrom = FromCty
	default:
		c.Country = Unknown
	}
}

// InGreyline tests ts against sunrise/sunset at the station and at remote
// on the UTC date of ts.
func (e *Engine) InGreyline(ts time.Time, remote geo.Point) bool {
	local := solar.Events(e.station, ts)
	far := solar.Events(remote, ts)
	return solar.InWindow(ts, e.opts.Window, local, far)
}

// TitleCase normalizes a free-text country name ("UNITED STATES" -> "United States").
func TitleCase(s string) string {
	// cases.Caser is stateful, one per call
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}
