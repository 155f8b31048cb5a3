package cty

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `France:                   14:  27:  EU:   46.00:    -2.00:    -1.0:  F:
    F,HW,HX,HY,TH,TM,TO(27),TP,TQ,TV,TW,TX,=TM5FI;
Corsica:                  15:  28:  EU:   42.00:    -9.00:    -1.0:  TK:
    TK,=TO5C;
United States:            05:  08:  NA:   37.53:    91.67:     5.0:  K:
    AA,AB,AC,K,N,W,=W1AW(5)[8],
    =K1ABC{x}, =N0CALL~note~;
`

func parseSample(t *testing.T, data string) *Table {
	t.Helper()
	tbl, err := Parse(strings.NewReader(data))
	require.NoError(t, err)
	return tbl
}

func TestParseHeader(t *testing.T) {
	tbl := parseSample(t, sample)

	e, ok := tbl.ByName("united states")
	require.True(t, ok)
	assert.Equal(t, "United States", e.Name)
	assert.Equal(t, 5, e.CQZone)
	assert.Equal(t, 8, e.ITUZone)
	assert.Equal(t, "NA", e.Continent)
	assert.InDelta(t, 37.53, e.Point.Lat, 1e-9)
	assert.InDelta(t, -91.67, e.Point.Lon, 1e-9)
	assert.InDelta(t, -5.0, e.UTCOffset, 1e-9)
	assert.Equal(t, "K", e.PrimaryPrefix)

	assert.Equal(t, []string{"Corsica", "France", "United States"}, tbl.Countries())
}

func TestResolveLongestPrefix(t *testing.T) {
	data := `Alpha:  1:  1:  EU:  10.00:  -10.00:  -1.0:  F:
    F;
Bravo:  2:  2:  EU:  20.00:  -20.00:  -1.0:  F4:
    F4;
`
	tbl := parseSample(t, data)

	for call, want := range map[string]string{
		"F":     "Alpha",
		"F1AAA": "Alpha",
		"F4":    "Bravo",
		"F4LNO": "Bravo",
		"f4lno": "Bravo",
	} {
		e, ok := tbl.Resolve(call)
		require.True(t, ok, call)
		assert.Equal(t, want, e.Name, call)
	}

	_, ok := tbl.Resolve("G4ABC")
	assert.False(t, ok)
	assert.Equal(t, 2, tbl.MaxPrefixLen())
}

func TestResolveExactWins(t *testing.T) {
	tbl := parseSample(t, sample)

	e, ok := tbl.Resolve("TM5FI")
	require.True(t, ok)
	assert.Equal(t, "France", e.Name)

	e, ok = tbl.Resolve("TO5C")
	require.True(t, ok)
	assert.Equal(t, "Corsica", e.Name)

	// TO is a French prefix, only the exact call is Corsican
	e, ok = tbl.Resolve("TO5D")
	require.True(t, ok)
	assert.Equal(t, "France", e.Name)

	e, ok = tbl.Resolve("TK5XN")
	require.True(t, ok)
	assert.Equal(t, "Corsica", e.Name)
}

func TestSuffixesStripped(t *testing.T) {
	tbl := parseSample(t, sample)

	for _, call := range []string{"W1AW", "K1ABC", "N0CALL"} {
		e, ok := tbl.Resolve(call)
		require.True(t, ok, call)
		assert.Equal(t, "United States", e.Name, call)
	}
	prefixes, exact := tbl.Len()
	assert.Equal(t, 19, prefixes)
	assert.Equal(t, 5, exact)
}

func TestDuplicateKeepsFirst(t *testing.T) {
	data := `One:  1:  1:  EU:  1.00:  -1.00:  0.0:  X:
    X,=X1Y;
Two:  2:  2:  EU:  2.00:  -2.00:  0.0:  X:
    X,=X1Y;
`
	tbl := parseSample(t, data)

	e, _ := tbl.Resolve("X9ZZ")
	assert.Equal(t, "One", e.Name)
	e, _ = tbl.Resolve("X1Y")
	assert.Equal(t, "One", e.Name)
}

func TestMalformedHeader(t *testing.T) {
	for name, data := range map[string]string{
		"no colon":     "France  14  27  EU\n    F;\n",
		"seven fields": "France: 14: 27: EU: 46.00: -2.00: -1.0:\n    F;\n",
		"nine fields":  "France: 14: 27: EU: 46.00: -2.00: -1.0: F: X:\n    F;\n",
	} {
		_, err := Parse(strings.NewReader(data))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrFormat), name)
	}
}

func TestNonNumericHeaderFieldsReadAsZero(t *testing.T) {
	data := `France:  xx:  27:  EU:  north:  -2.00:  ?:  F:
    F,TM;
Spain:  14:  37:  EU:  40.32:  3.43:  -1.0:  EA:
    EA;
`
	tbl := parseSample(t, data)

	e, ok := tbl.Resolve("F4LNO")
	require.True(t, ok)
	assert.Equal(t, "France", e.Name)
	assert.Zero(t, e.CQZone)
	assert.Equal(t, 27, e.ITUZone)
	assert.Zero(t, e.Point.Lat)
	assert.Equal(t, 2.0, e.Point.Lon)
	assert.Zero(t, e.UTCOffset)

	e, ok = tbl.Resolve("EA4XYZ")
	require.True(t, ok)
	assert.Equal(t, 14, e.CQZone)
	assert.InDelta(t, -3.43, e.Point.Lon, 1e-9)
}

func TestInvalidUTF8Dropped(t *testing.T) {
	data := "R\xe9union:  39:  53:  AF:  -21.12:  -55.60:  -4.0:  FR:\n    FR;\n"
	tbl := parseSample(t, data)

	e, ok := tbl.Resolve("FR5DX")
	require.True(t, ok)
	assert.Equal(t, "Runion", e.Name)
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	_, ok := tbl.Resolve("F4LNO")
	assert.False(t, ok)
	_, ok = tbl.ByName("France")
	assert.False(t, ok)
	assert.Nil(t, tbl.Countries())
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	assert.Nil(t, LoadOptional("", nil))
	assert.Nil(t, LoadOptional(filepath.Join(dir, "missing.dat"), nil))

	bad := filepath.Join(dir, "bad.dat")
	require.NoError(t, os.WriteFile(bad, []byte("garbage line\n"), 0o644))
	assert.Nil(t, LoadOptional(bad, nil))

	good := filepath.Join(dir, "cty.dat")
	require.NoError(t, os.WriteFile(good, []byte(sample), 0o644))
	tbl := LoadOptional(good, nil)
	require.NotNil(t, tbl)
	e, ok := tbl.Resolve("F4LNO")
	require.True(t, ok)
	assert.Equal(t, "France", e.Name)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.dat"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
