package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 3, 20, h, m, s, 0, time.UTC)
}

func TestInWindowInclusive(t *testing.T) {
	ev := Event{Sunrise: at(6, 0, 0)}

	assert.True(t, InWindow(at(6, 29, 59), DefaultWindow, ev))
	assert.True(t, InWindow(at(6, 30, 0), DefaultWindow, ev))
	assert.True(t, InWindow(at(5, 30, 0), DefaultWindow, ev))
	assert.False(t, InWindow(at(6, 30, 1), DefaultWindow, ev))
	assert.False(t, InWindow(at(5, 29, 59), DefaultWindow, ev))
}

func TestInWindowAnyOfFour(t *testing.T) {
	local := Event{Sunrise: at(6, 0, 0), Sunset: at(18, 0, 0)}
	remote := Event{Sunrise: at(11, 0, 0), Sunset: at(23, 0, 0)}

	assert.True(t, InWindow(at(17, 45, 0), DefaultWindow, local, remote))
	assert.True(t, InWindow(at(11, 10, 0), DefaultWindow, local, remote))
	assert.True(t, InWindow(at(22, 31, 0), DefaultWindow, local, remote))
	assert.False(t, InWindow(at(14, 0, 0), DefaultWindow, local, remote))
}

func TestInWindowSkipsMissing(t *testing.T) {
	polar := Event{}
	assert.False(t, InWindow(time.Time{}, DefaultWindow, polar))
	assert.False(t, InWindow(at(0, 0, 0), time.Hour, polar))
	assert.Empty(t, Instants(polar))

	half := Event{Sunset: at(15, 0, 0)}
	assert.Len(t, Instants(half, polar), 1)
	assert.True(t, InWindow(at(15, 20, 0), DefaultWindow, half, polar))
}

func TestEventsMidLatitude(t *testing.T) {
	p, ok := geo.ToPoint("JN33")
	require.True(t, ok)

	ev := Events(p, time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC))
	require.True(t, ev.HasSunrise())
	require.True(t, ev.HasSunset())
	assert.True(t, ev.Sunrise.Before(ev.Sunset))

	// roughly 04:00 and 19:20 UTC at 7°E around the solstice
	assert.Equal(t, 2024, ev.Sunrise.Year())
	assert.InDelta(t, 4, ev.Sunrise.Hour(), 1)
	assert.InDelta(t, 19, ev.Sunset.Hour(), 1)
	assert.Equal(t, time.UTC, ev.Sunrise.Location())
}

func TestEventsEquinoxEquator(t *testing.T) {
	ev := Events(geo.Point{}, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	require.True(t, ev.HasSunrise())
	require.True(t, ev.HasSunset())

	sixAM := time.Date(2024, 3, 20, 6, 0, 0, 0, time.UTC)
	sixPM := time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC)
	assert.WithinDuration(t, sixAM, ev.Sunrise, 20*time.Minute)
	assert.WithinDuration(t, sixPM, ev.Sunset, 20*time.Minute)
}

func TestEventsPolarNight(t *testing.T) {
	ev := Events(geo.Point{Lat: 85, Lon: 0}, time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC))
	assert.False(t, ev.HasSunrise())
	assert.False(t, ev.HasSunset())
	assert.False(t, InWindow(time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC), 24*time.Hour, ev))
}

func TestEventsFarEastStayOnDate(t *testing.T) {
	// RE78: local noon is near 00:30 UTC, sunrise falls the UTC evening before
	p, ok := geo.ToPoint("RE78")
	require.True(t, ok)

	date := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	ev := Events(p, date)
	require.True(t, ev.HasSunrise())
	require.True(t, ev.HasSunset())

	assert.Equal(t, 20, ev.Sunrise.Day())
	assert.Equal(t, 20, ev.Sunset.Day())
	assert.WithinDuration(t, time.Date(2024, 3, 20, 18, 23, 30, 0, time.UTC), ev.Sunrise, 10*time.Minute)
	assert.InDelta(t, 6, ev.Sunset.Hour(), 1)
	assert.True(t, ev.Sunset.Before(ev.Sunrise))

	qso := time.Date(2024, 3, 20, 18, 20, 0, 0, time.UTC)
	assert.True(t, InWindow(qso, DefaultWindow, Events(p, qso)))
}

func TestEventsFarWestStayOnDate(t *testing.T) {
	// CM87: local noon is near 20:20 UTC, sunset falls after UTC midnight
	p, ok := geo.ToPoint("CM87")
	require.True(t, ok)

	ev := Events(p, time.Date(2024, 3, 20, 23, 59, 0, 0, time.UTC))
	require.True(t, ev.HasSunrise())
	require.True(t, ev.HasSunset())

	assert.Equal(t, 20, ev.Sunrise.Day())
	assert.Equal(t, 20, ev.Sunset.Day())
	assert.InDelta(t, 14, ev.Sunrise.Hour(), 1)
	assert.InDelta(t, 2, ev.Sunset.Hour(), 1)
	assert.True(t, ev.Sunset.Before(ev.Sunrise))

	qso := time.Date(2024, 3, 20, 2, 20, 0, 0, time.UTC)
	assert.True(t, InWindow(qso, DefaultWindow, Events(p, qso)))
}

func TestEventsAlwaysOnRequestedDate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, lon := range []float64{-179, -150, -120, -60, -45, 0, 45, 60, 120, 150, 179} {
		p := geo.Point{Lat: 35, Lon: lon}
		for day := 0; day < 366; day += 13 {
			d := start.AddDate(0, 0, day)
			ev := Events(p, d)
			require.True(t, ev.HasSunrise(), "sunrise lon=%v %s", lon, d.Format("2006-01-02"))
			require.True(t, ev.HasSunset(), "sunset lon=%v %s", lon, d.Format("2006-01-02"))
			assert.Equal(t, d.YearDay(), ev.Sunrise.YearDay(), "sunrise lon=%v", lon)
			assert.Equal(t, d.YearDay(), ev.Sunset.YearDay(), "sunset lon=%v", lon)
		}
	}
}
