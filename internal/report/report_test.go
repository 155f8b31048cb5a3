package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-adif-lab/internal/analysis"
	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
)

func TestMatrix(t *testing.T) {
	m := analysis.Matrix{
		RowHeader: "Band",
		Rows:      []string{"20m", "40m"},
		Cols:      []string{"Monday", "Tuesday"},
		Cells:     [][]int{{3, 1}, {0, 7}},
		RowTotals: []int{4, 7},
		ColTotals: []int{3, 8},
		Total:     11,
	}

	var buf bytes.Buffer
	require.NoError(t, Matrix(&buf, "Weekly traffic", m))
	out := buf.String()

	assert.Contains(t, out, "Weekly traffic")
	assert.Contains(t, out, "Tuesday")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "11")
	assert.Equal(t, 1, strings.Count(out, "40m"))
}

func TestMatrixEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Matrix(&buf, "Hourly bands", analysis.Matrix{}))
	assert.Contains(t, buf.String(), "no qualifying contacts")
}

func TestGroupStats(t *testing.T) {
	stats := []analysis.GroupStat{
		{Band: "40m", Mode: "CW", Count: 2, Average: 12345.67, Max: 18000},
		{Band: "20m", Mode: "FT8", Count: 9, Average: 800, Max: 1600},
	}
	var buf bytes.Buffer
	require.NoError(t, GroupStats(&buf, "DX performance", "km", stats))
	out := buf.String()

	assert.Contains(t, out, "Avg km")
	assert.Contains(t, out, "12345.7")
	assert.Less(t, strings.Index(out, "CW"), strings.Index(out, "FT8"))
}

func TestTopDX(t *testing.T) {
	contacts := []analysis.Contact{
		{Call: "ZL1ABC", Grid: "RE78", Band: "40m", Mode: "CW", DistanceKm: 18712.4, Country: "New Zealand",
			Date: time.Date(2024, 3, 24, 0, 0, 0, 0, time.UTC), HasDate: true},
	}
	var buf bytes.Buffer
	require.NoError(t, TopDX(&buf, contacts))
	out := buf.String()

	assert.Contains(t, out, "Top 1 DX contacts")
	assert.Contains(t, out, "ZL1ABC")
	assert.Contains(t, out, "18712")
	assert.Contains(t, out, "2024-03-24")
}

func TestGreyline(t *testing.T) {
	var buf bytes.Buffer
	s := analysis.GreylineSummary{DXContacts: 4, GreylineContacts: 1}
	require.NoError(t, Greyline(&buf, s, 30*time.Minute, 3500))
	out := buf.String()

	assert.Contains(t, out, "3500 km")
	assert.Contains(t, out, "30m0s")
	assert.Contains(t, out, "25.0%")
}

func TestProximity(t *testing.T) {
	results := []analysis.Proximity{
		{Name: analysis.PointAntipode, Call: "ZL1ABC", Grid: "RE78", DistanceKm: 1234, Found: true},
		{Name: analysis.PointAntecoic},
	}
	var buf bytes.Buffer
	require.NoError(t, Proximity(&buf, geo.Point{Lat: 43.5, Lon: 7}, results))
	out := buf.String()

	assert.Contains(t, out, "ZL1ABC")
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, analysis.PointAntecoic)
}

func TestSectors(t *testing.T) {
	var counts [analysis.SectorCount]int
	counts[0] = 4
	counts[8] = 2

	var buf bytes.Buffer
	require.NoError(t, Sectors(&buf, counts))
	out := buf.String()

	assert.Contains(t, out, "NNW")
	assert.Contains(t, out, strings.Repeat("█", 40))
	assert.Contains(t, out, strings.Repeat("█", 20))
	assert.NotContains(t, out, strings.Repeat("█", 41))
}

func TestLocator(t *testing.T) {
	p, ok := geo.ToPoint("JN33")
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, Locator(&buf, "JN33", p))
	out := buf.String()

	assert.Contains(t, out, "43.5000,7.0000")
	assert.Contains(t, out, "JN33MM")
	assert.Contains(t, out, analysis.PointPeriecoic)
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, "Bands", []string{"Band", "Contacts"}, [][]string{{"20m", "42"}}))
	assert.Contains(t, buf.String(), "42")

	buf.Reset()
	require.NoError(t, Table(&buf, "Bands", []string{"Band"}, nil))
	assert.Contains(t, buf.String(), "no rows")
}
