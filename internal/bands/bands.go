// Package bands maps frequencies to amateur band labels.
package bands

// bands.go - Amateur band classification for ADIF log analysis
//
// Implementation: half-open [Min, Max) table, binary search
// Thread-safety: No shared mutable state, fully reentrant
// Anything outside the table is reported as Other.

// ADIF band IDs (stored as 'band' in ClickHouse)
const (
	BandOther int32 = 0

	// HF
	Band160m int32 = 102
	Band80m  int32 = 103
	Band40m  int32 = 105
	Band30m  int32 = 106
	Band20m  int32 = 107
	Band17m  int32 = 108
	Band15m  int32 = 109
	Band12m  int32 = 110
	Band10m  int32 = 111

	// VHF
	Band6m int32 = 200
	Band4m int32 = 201
	Band2m int32 = 202

	// UHF
	Band70cm int32 = 300
)

// Other is the catch-all label for frequencies outside every band.
const Other = "Other"

// Info describes one band row.
type Info struct {
	ID             int32   // ADIF band identifier
	Name           string  // Label used in reports ("20m")
	FrequencyClass string  // HF, VHF, UHF
	MinFreqMHz     float64 // inclusive
	MaxFreqMHz     float64 // exclusive
}

// Contains reports whether freq falls inside [MinFreqMHz, MaxFreqMHz).
func (b Info) Contains(freq float64) bool {
	return freq >= b.MinFreqMHz && freq < b.MaxFreqMHz
}

// Sorted by MinFreqMHz, non-overlapping.
var table = []Info{
	{ID: Band160m, Name: "160m", FrequencyClass: "HF", MinFreqMHz: 1.8, MaxFreqMHz: 2},
	{ID: Band80m, Name: "80m", FrequencyClass: "HF", MinFreqMHz: 3.5, MaxFreqMHz: 4},
	{ID: Band40m, Name: "40m", FrequencyClass: "HF", MinFreqMHz: 7, MaxFreqMHz: 8},
	{ID: Band30m, Name: "30m", FrequencyClass: "HF", MinFreqMHz: 10, MaxFreqMHz: 11},
	{ID: Band20m, Name: "20m", FrequencyClass: "HF", MinFreqMHz: 14, MaxFreqMHz: 15},
	{ID: Band17m, Name: "17m", FrequencyClass: "HF", MinFreqMHz: 18, MaxFreqMHz: 19},
	{ID: Band15m, Name: "15m", FrequencyClass: "HF", MinFreqMHz: 21, MaxFreqMHz: 22},
	{ID: Band12m, Name: "12m", FrequencyClass: "HF", MinFreqMHz: 24, MaxFreqMHz: 25},
	{ID: Band10m, Name: "10m", FrequencyClass: "HF", MinFreqMHz: 28, MaxFreqMHz: 30},
	{ID: Band6m, Name: "6m", FrequencyClass: "VHF", MinFreqMHz: 50, MaxFreqMHz: 54},
	{ID: Band4m, Name: "4m", FrequencyClass: "VHF", MinFreqMHz: 70, MaxFreqMHz: 72},
	{ID: Band2m, Name: "2m", FrequencyClass: "VHF", MinFreqMHz: 144, MaxFreqMHz: 148},
	{ID: Band70cm, Name: "70cm", FrequencyClass: "UHF", MinFreqMHz: 430, MaxFreqMHz: 440},
}

// Display is the column order used by the band x something tables.
var Display = []string{"160m", "80m", "40m", "30m", "20m", "17m", "15m", "12m", "10m", "6m"}

// BandOf returns the band label for a frequency in MHz, or Other.
func BandOf(freqMHz float64) string {
	if b, ok := Lookup(freqMHz); ok {
		return b.Name
	}
	return Other
}

// Lookup returns the table row containing freqMHz.
func Lookup(freqMHz float64) (Info, bool) {
	left, right := 0, len(table)-1

	for left <= right {
		mid := (left + right) / 2
		b := &table[mid]

		if b.Contains(freqMHz) {
			return *b, true
		}

		if freqMHz < b.MinFreqMHz {
			right = mid - 1
		} else {
			left = mid + 1
		}
	}

	return Info{}, false
}

// ID returns the ADIF band id for a label (BandOther if unknown).
func ID(name string) int32 {
	for _, b := range table {
		if b.Name == name {
			return b.ID
		}
	}
	return BandOther
}

// Order returns the sort rank of a label: table order, Other last.
func Order(name string) int {
	for i, b := range table {
		if b.Name == name {
			return i
		}
	}
	return len(table)
}

// All returns a copy of the band table.
func All() []Info {
	out := make([]Info, len(table))
	copy(out, table)
	return out
}
