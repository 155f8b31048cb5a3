package analysis

import (
	"math"
	"sort"

	"github.com/KI7MT/ki7mt-adif-lab/internal/bands"
)

// GroupStat aggregates one (band, mode) combination.
type GroupStat struct {
	Band    string
	Mode    string
	Count   int
	Average float64 // km for DX performance, dB for SNR
	Max     float64
}

type groupKey struct{ band, mode string }

type groupAcc struct {
	sum, max float64
	count    int
}

func collectGroups(acc map[groupKey]*groupAcc, minCount int) []GroupStat {
	out := make([]GroupStat, 0, len(acc))
	for k, a := range acc {
		if a.count < minCount || a.count == 0 {
			continue
		}
		out = append(out, GroupStat{
			Band:    k.band,
			Mode:    k.mode,
			Count:   a.count,
			Average: a.sum / float64(a.count),
			Max:     a.max,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		if out[i].Band != out[j].Band {
			return bands.Order(out[i].Band) < bands.Order(out[j].Band)
		}
		return out[i].Mode < out[j].Mode
	})
	return out
}

func accumulate(acc map[groupKey]*groupAcc, k groupKey, v float64) {
	a := acc[k]
	if a == nil {
		a = &groupAcc{max: math.Inf(-1)}
		acc[k] = a
	}
	a.sum += v
	a.count++
	if v > a.max {
		a.max = v
	}
}

// DXPerformance averages distance per (band, mode), best first.
// Needs MODE, FREQ and a valid GRIDSQUARE.
func DXPerformance(contacts []Contact) []GroupStat {
	acc := make(map[groupKey]*groupAcc)
	for i := range contacts {
		c := &contacts[i]
		if !c.HasMode || !c.HasFreq || !c.HasLocation {
			continue
		}
		accumulate(acc, groupKey{c.Band, c.Mode}, c.DistanceKm)
	}
	return collectGroups(acc, 1)
}

// SNRPerformance averages SNR per (band, mode) over groups with at least
// minContacts entries, best first. Needs MODE, FREQ and an SNR.
func SNRPerformance(contacts []Contact, minContacts int) []GroupStat {
	acc := make(map[groupKey]*groupAcc)
	for i := range contacts {
		c := &contacts[i]
		if !c.HasMode || !c.HasFreq || !c.HasSNR {
			continue
		}
		accumulate(acc, groupKey{c.Band, c.Mode}, c.SNR)
	}
	return collectGroups(acc, minContacts)
}

// TopDX returns the n most distant contacts having CALL, MODE, FREQ and a grid.
func TopDX(contacts []Contact, n int) []Contact {
	out := make([]Contact, 0, len(contacts))
	for i := range contacts {
		c := &contacts[i]
		if c.HasCall && c.HasMode && c.HasFreq && c.HasLocation {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm > out[j].DistanceKm })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// =============================================================================
// Greyline
// =============================================================================

// GreylineSummary is the share of DX contacts made in a twilight window.
type GreylineSummary struct {
	DXContacts       int
	GreylineContacts int
}

// Percent of DX contacts inside a window; 0 when there is no DX.
func (g GreylineSummary) Percent() float64 {
	if g.DXContacts == 0 {
		return 0
	}
	return float64(g.GreylineContacts) / float64(g.DXContacts) * 100
}

// Greyline counts DX contacts (distance at or above the engine threshold)
// with CALL, grid, date and time, and how many fell in a greyline window.
func Greyline(contacts []Contact) GreylineSummary {
	var s GreylineSummary
	for i := range contacts {
		c := &contacts[i]
		if !c.IsDX || !c.HasTime || !c.HasCall {
			continue
		}
		s.DXContacts++
		if c.Greyline {
			s.GreylineContacts++
		}
	}
	return s
}

// =============================================================================
// Bearing sectors
// =============================================================================

// SectorCount is the number of compass sectors (22.5° each).
const SectorCount = 16

// SectorNames labels sectors clockwise from north.
var SectorNames = [SectorCount]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Sector maps a bearing to its sector index; sector 0 is centered on north.
func Sector(bearing float64) int {
	b := math.Mod(math.Mod(bearing+11.25, 360)+360, 360)
	return int(b/22.5) % SectorCount
}

// BearingSectors counts contacts with a grid per compass sector.
func BearingSectors(contacts []Contact) [SectorCount]int {
	var out [SectorCount]int
	for i := range contacts {
		c := &contacts[i]
		if !c.HasLocation || c.DistanceKm == 0 {
			continue
		}
		out[Sector(c.BearingDeg)]++
	}
	return out
}
