package store

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-adif-lab/internal/analysis"
	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
)

var testRun = uuid.MustParse("6f1c0a52-4d7e-4b39-9a55-2f0d1c3e8b10")

func dxContact() analysis.Contact {
	return analysis.Contact{
		Call:        "W1AW",
		Mode:        "FT8",
		Grid:        "fn31pr",
		FreqMHz:     14.074,
		Band:        "20m",
		BandID:      107,
		Point:       geo.Point{Lat: 41.729167, Lon: -72.708333},
		DistanceKm:  6262.5,
		BearingDeg:  292.1,
		Time:        time.Date(2024, 3, 20, 6, 30, 0, 0, time.UTC),
		SNR:         -12.4,
		Country:     "United States",
		Continent:   "NA",
		CQZone:      5,
		IsDX:        true,
		HasCall:     true,
		HasMode:     true,
		HasFreq:     true,
		HasLocation: true,
		HasTime:     true,
		HasSNR:      true,
	}
}

func TestFromContact(t *testing.T) {
	r := FromContact(dxContact(), testRun, "log.adi")

	assert.Equal(t, testRun.String(), r.RunID)
	assert.Equal(t, "log.adi", r.Source)
	assert.Equal(t, "FN31PR", r.Grid)
	assert.Equal(t, uint64(14_074_000), r.FreqHz)
	assert.Equal(t, int64(1710916200), r.QSOTime)
	assert.Equal(t, int16(-12), r.SNR)
	assert.True(t, r.HasSNR)
	assert.Equal(t, uint8(5), r.CQZone)
	assert.InDelta(t, 41.729167, r.Lat, 1e-9)
	assert.True(t, r.IsDX)
}

func TestFromContactSparse(t *testing.T) {
	c := analysis.Contact{
		Call:    "VERYLONGCALLSIGN/MM/QRP",
		Date:    time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
		HasDate: true,
		SNR:     400,
		Country: analysis.Unknown,
	}
	r := FromContact(c, uuid.Nil, "x")

	assert.Len(t, r.Call, maxCallLen)
	assert.Equal(t, int64(1710892800), r.QSOTime)
	assert.Zero(t, r.FreqHz)
	assert.Zero(t, r.SNR)
	assert.False(t, r.HasSNR)
	assert.False(t, r.HasLocation)
	assert.Zero(t, r.Lat)
}

func TestFromContactClampsSNR(t *testing.T) {
	c := dxContact()
	c.SNR = 1e6
	assert.Equal(t, int16(32767), FromContact(c, testRun, "").SNR)
}

func TestContactBatch(t *testing.T) {
	b := NewContactBatch()
	rows := FromContacts([]analysis.Contact{dxContact(), dxContact()}, testRun, "log.adi")
	rows[1].RunID = "not-a-uuid"
	for _, r := range rows {
		b.Append(r)
	}

	require.Equal(t, 2, b.Len())
	for _, col := range b.Input() {
		assert.Equal(t, 2, col.Data.Rows(), col.Name)
	}
	assert.Equal(t, "W1AW", b.Call.Row(0))
	assert.Equal(t, testRun, (*b.RunID)[0])
	assert.Equal(t, uuid.Nil, (*b.RunID)[1])
	assert.Equal(t, int16(-12), (*b.SNR)[0])
	assert.True(t, b.QSOTime.Row(0).Equal(time.Date(2024, 3, 20, 6, 30, 0, 0, time.UTC)))

	b.Reset()
	assert.Zero(t, b.Len())
	for _, col := range b.Input() {
		assert.Zero(t, col.Data.Rows(), col.Name)
	}
}

func TestSQL(t *testing.T) {
	ddl := CreateTableSQL("hamlog.contacts")
	insert := InsertSQL("hamlog.contacts")

	assert.True(t, strings.HasPrefix(insert, "INSERT INTO hamlog.contacts (run_id, source, qso_time,"))
	assert.True(t, strings.HasSuffix(insert, ") VALUES"))
	for _, col := range NewContactBatch().Input() {
		assert.Contains(t, ddl, "\n    "+col.Name+" ", col.Name)
	}

	assert.Contains(t, bandSummarySQL("db.t"), "FROM db.t")
	assert.Contains(t, countrySummarySQL("db.t"), "LIMIT ?")
	assert.Contains(t, runsSQL("db.t"), "GROUP BY run_id")
	assert.Equal(t, "db.t", Options{Database: "db", Table: "t"}.FQN())
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `'log.adi'`, quoteString("log.adi"))
	assert.Equal(t, `'o\'hara\\x'`, quoteString(`o'hara\x`))
}

func TestParquet(t *testing.T) {
	rows := make([]Row, 2500)
	for i := range rows {
		c := dxContact()
		c.Call = fmt.Sprintf("K%dXYZ", i)
		c.DistanceKm = float64(i)
		rows[i] = FromContact(c, testRun, "log.adi")
	}

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, rows))

	var chunks int
	var got []Row
	n, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()), func(chunk []Row) error {
		chunks++
		got = append(got, chunk...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(rows), n)
	assert.GreaterOrEqual(t, chunks, 3)
	require.Len(t, got, len(rows))
	assert.Equal(t, rows[0], got[0])
	assert.Equal(t, "K2499XYZ", got[2499].Call)
	assert.Equal(t, 2499.0, got[2499].DistanceKm)
}

func TestParquetCallbackError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, FromContacts([]analysis.Contact{dxContact()}, testRun, "")))

	stop := fmt.Errorf("stop")
	_, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()), func([]Row) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestParquetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.parquet")
	rows := FromContacts([]analysis.Contact{dxContact()}, testRun, "log.adi")

	require.NoError(t, WriteParquetFile(path, rows))
	got, err := ReadParquetFile(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	_, err = ReadParquetFile(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}
