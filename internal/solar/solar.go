// Package solar computes sunrise/sunset instants and tests timestamps
// against the twilight (greyline) window around them.
package solar

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
)

// DefaultWindow is the half-width of the greyline window.
const DefaultWindow = 30 * time.Minute

// Event holds the sunrise and sunset of one location on one UTC date.
// A zero time means the sun does not rise (or set) that day.
type Event struct {
	Sunrise time.Time
	Sunset  time.Time
}

// HasSunrise reports whether the sun rises on that date.
func (e Event) HasSunrise() bool { return !e.Sunrise.IsZero() }

// HasSunset reports whether the sun sets on that date.
func (e Event) HasSunset() bool { return !e.Sunset.IsZero() }

// Events returns sunrise/sunset at p for the UTC calendar date of date.
//
// go-sunrise works on the local solar day, so far from Greenwich one of its
// events lands on the neighbouring UTC date. Each event is taken from
// whichever of the surrounding solar days puts it on the requested date.
func Events(p geo.Point, date time.Time) Event {
	d := date.UTC()
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	var ev Event
	for _, offset := range [...]int{0, 1, -1} {
		t := day.AddDate(0, 0, offset)
		rise, set := sunrise.SunriseSunset(p.Lat, p.Lon, t.Year(), t.Month(), t.Day())
		if !ev.HasSunrise() && onDate(rise, day) {
			ev.Sunrise = rise.UTC()
		}
		if !ev.HasSunset() && onDate(set, day) {
			ev.Sunset = set.UTC()
		}
		if ev.HasSunrise() && ev.HasSunset() {
			break
		}
	}
	return ev
}

func onDate(t, day time.Time) bool {
	if t.IsZero() {
		return false
	}
	t = t.UTC()
	return !t.Before(day) && t.Before(day.AddDate(0, 0, 1))
}

// Instants flattens events into their non-missing sunrise/sunset times.
func Instants(events ...Event) []time.Time {
	out := make([]time.Time, 0, 2*len(events))
	for _, e := range events {
		if e.HasSunrise() {
			out = append(out, e.Sunrise)
		}
		if e.HasSunset() {
			out = append(out, e.Sunset)
		}
	}
	return out
}

// InWindow reports whether ts lies in [t-window, t+window] for any
// sunrise or sunset among events. Missing events are skipped.
func InWindow(ts time.Time, window time.Duration, events ...Event) bool {
	for _, t := range Instants(events...) {
		if !ts.Before(t.Add(-window)) && !ts.After(t.Add(window)) {
			return true
		}
	}
	return false
}
