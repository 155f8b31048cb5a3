// Package adif extracts contact records from ADIF (.adi) logs.
//
// One extractor serves every analysis: records are split on <EOR>,
// the optional header up to <EOH> is dropped, and each
// <NAME:LEN[:TYPE]>value tag is read by its declared length.
package adif

import (
	"strconv"
	"strings"
	"time"
)

// Field names used by the analyses.
const (
	FieldCall       = "CALL"
	FieldMode       = "MODE"
	FieldFreq       = "FREQ"
	FieldBand       = "BAND"
	FieldGrid       = "GRIDSQUARE"
	FieldQSODate    = "QSO_DATE"
	FieldTimeOn     = "TIME_ON"
	FieldCountry    = "COUNTRY"
	FieldPSKRepSNR  = "APP_PSKREP_SNR"
	FieldRSTRcvd    = "RST_RCVD"
	FieldStationLoc = "MY_GRIDSQUARE"
)

// Fields maps upper-case field names to trimmed values for one record.
type Fields map[string]string

// Get returns the value of name (any case), or "".
func (f Fields) Get(name string) string {
	return f[strings.ToUpper(name)]
}

// Has reports whether name is present with a non-empty value.
func (f Fields) Has(name string) bool {
	return f.Get(name) != ""
}

// Call returns the sanitized, upper-case CALL.
func (f Fields) Call() string {
	return CleanCall(f[FieldCall])
}

// Mode returns the upper-case MODE.
func (f Fields) Mode() string {
	return strings.ToUpper(f[FieldMode])
}

// Grid returns the upper-case GRIDSQUARE.
func (f Fields) Grid() string {
	return strings.ToUpper(f[FieldGrid])
}

// FreqMHz parses FREQ.
func (f Fields) FreqMHz() (float64, bool) {
	v := f[FieldFreq]
	if v == "" {
		return 0, false
	}
	freq, err := strconv.ParseFloat(v, 64)
	if err != nil || freq <= 0 {
		return 0, false
	}
	return freq, true
}

// Date parses QSO_DATE (YYYYMMDD) as a UTC midnight.
func (f Fields) Date() (time.Time, bool) {
	v := f[FieldQSODate]
	if len(v) != 8 {
		return time.Time{}, false
	}
	d, err := time.Parse("20060102", v)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Clock parses TIME_ON (HHMM or HHMMSS) into hour, minute and second.
func (f Fields) Clock() (h, m, s int, ok bool) {
	v := f[FieldTimeOn]
	if len(v) != 4 && len(v) != 6 {
		return 0, 0, 0, false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, 0, 0, false
		}
	}
	h, _ = strconv.Atoi(v[0:2])
	m, _ = strconv.Atoi(v[2:4])
	if len(v) == 6 {
		s, _ = strconv.Atoi(v[4:6])
	}
	if h > 23 || m > 59 || s > 59 {
		return 0, 0, 0, false
	}
	return h, m, s, true
}

// Hour returns the UTC hour of TIME_ON.
func (f Fields) Hour() (int, bool) {
	h, _, _, ok := f.Clock()
	return h, ok
}

// Timestamp combines QSO_DATE and TIME_ON into a UTC instant.
func (f Fields) Timestamp() (time.Time, bool) {
	d, ok := f.Date()
	if !ok {
		return time.Time{}, false
	}
	h, m, s, ok := f.Clock()
	if !ok {
		return time.Time{}, false
	}
	return d.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second), true
}

// SNR returns APP_PSKREP_SNR, falling back to a signed RST_RCVD
// (WSJT-X style "-12" or "+05"). Plain RST reports like "59" are not SNR.
func (f Fields) SNR() (float64, bool) {
	if v := f[FieldPSKRepSNR]; v != "" {
		if snr, err := strconv.ParseFloat(v, 64); err == nil {
			return snr, true
		}
	}
	if v := f[FieldRSTRcvd]; len(v) > 1 && (v[0] == '-' || v[0] == '+') {
		if snr, err := strconv.Atoi(v); err == nil {
			return float64(snr), true
		}
	}
	return 0, false
}
