package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-adif-lab/internal/store"
)

func TestPrintSummaries(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, printBands(&buf, []store.BandRow{
		{Band: "20m", Contacts: 120, DXContacts: 14, AvgKm: 1830.4, MaxKm: 9120.9},
	}))
	require.NoError(t, printCountries(&buf, []store.CountryRow{
		{Country: "Germany", Contacts: 40, Bands: 5},
	}))
	id := uuid.MustParse("6f1c0a52-4d7e-4b39-9a55-2f0d1c3e8b10")
	require.NoError(t, printRuns(&buf, []store.RunRow{{
		RunID:    id,
		Source:   "log.adi",
		Contacts: 160,
		First:    time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
		Last:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}}))

	out := buf.String()
	assert.Contains(t, out, "9121")
	assert.Contains(t, out, "Germany")
	assert.Contains(t, out, id.String())
	assert.Contains(t, out, "2024-01-02 03:04")
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRuns(&buf, nil))
	assert.Contains(t, buf.String(), "no rows")
}
