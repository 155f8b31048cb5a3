package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/KI7MT/ki7mt-adif-lab/internal/bands"
)

// Matrix is a labelled count table. RowTotals include contacts whose
// column is not displayed (e.g. bands outside bands.Display), ColTotals
// only cover displayed cells.
type Matrix struct {
	RowHeader string
	Rows      []string
	Cols      []string
	Cells     [][]int
	RowTotals []int
	ColTotals []int
	Total     int
}

// Cell returns the count at (row, col) labels, 0 if absent.
func (m Matrix) Cell(row, col string) int {
	r, c := indexOf(m.Rows, row), indexOf(m.Cols, col)
	if r < 0 || c < 0 {
		return 0
	}
	return m.Cells[r][c]
}

// RowTotal returns the total for a row label.
func (m Matrix) RowTotal(row string) int {
	if r := indexOf(m.Rows, row); r >= 0 {
		return m.RowTotals[r]
	}
	return 0
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

type counter struct {
	cells map[string]map[string]int
	rows  map[string]int
	total int
}

func newCounter() *counter {
	return &counter{cells: make(map[string]map[string]int), rows: make(map[string]int)}
}

func (c *counter) add(row, col string) {
	if c.cells[row] == nil {
		c.cells[row] = make(map[string]int)
	}
	c.cells[row][col]++
	c.rows[row]++
	c.total++
}

func (c *counter) rowLabels() []string {
	out := make([]string, 0, len(c.rows))
	for r := range c.rows {
		out = append(out, r)
	}
	return out
}

func (c *counter) matrix(header string, rows, cols []string) Matrix {
	m := Matrix{
		RowHeader: header,
		Rows:      rows,
		Cols:      cols,
		Cells:     make([][]int, len(rows)),
		RowTotals: make([]int, len(rows)),
		ColTotals: make([]int, len(cols)),
		Total:     c.total,
	}
	for i, r := range rows {
		m.Cells[i] = make([]int, len(cols))
		m.RowTotals[i] = c.rows[r]
		for j, col := range cols {
			n := c.cells[r][col]
			m.Cells[i][j] = n
			m.ColTotals[j] += n
		}
	}
	return m
}

func hourLabels() []string {
	out := make([]string, 24)
	for h := range out {
		out[h] = fmt.Sprintf("%02d", h)
	}
	return out
}

// =============================================================================
// Reports
// =============================================================================

// HourlyBands counts contacts per UTC hour and band. Needs FREQ and TIME_ON.
func HourlyBands(contacts []Contact) Matrix {
	c := newCounter()
	for i := range contacts {
		ct := &contacts[i]
		if !ct.HasFreq || !ct.HasHour {
			continue
		}
		c.add(fmt.Sprintf("%02d", ct.Hour), ct.Band)
	}
	return c.matrix("UTC", hourLabels(), bands.Display)
}

// HourlyModes counts contacts per UTC hour and mode. Needs MODE and TIME_ON.
// NIL is counted in the row totals but not shown as a column.
func HourlyModes(contacts []Contact) Matrix {
	c := newCounter()
	modes := make(map[string]bool)
	for i := range contacts {
		ct := &contacts[i]
		if !ct.HasMode || !ct.HasHour {
			continue
		}
		c.add(fmt.Sprintf("%02d", ct.Hour), ct.Mode)
		if ct.Mode != "NIL" {
			modes[ct.Mode] = true
		}
	}

	cols := make([]string, 0, len(modes))
	for m := range modes {
		cols = append(cols, m)
	}
	sort.Strings(cols)

	return c.matrix("UTC", hourLabels(), cols)
}

// Weekdays in report order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func weekdayLabel(d time.Time) string {
	return Weekdays[(int(d.Weekday())+6)%7]
}

// WeeklyTraffic counts contacts per band and weekday. Needs QSO_DATE and FREQ.
// Rows are the bands seen, in band order with Other last.
func WeeklyTraffic(contacts []Contact) Matrix {
	c := newCounter()
	for i := range contacts {
		ct := &contacts[i]
		if !ct.HasDate || !ct.HasFreq {
			continue
		}
		c.add(ct.Band, weekdayLabel(ct.Date))
	}

	rows := c.rowLabels()
	sort.Slice(rows, func(i, j int) bool { return bands.Order(rows[i]) < bands.Order(rows[j]) })

	return c.matrix("Band", rows, Weekdays)
}

// ByCountry counts contacts per country and band. A contact needs CALL and
// FREQ, plus either a usable grid or a country table.
func ByCountry(contacts []Contact, haveTable bool) Matrix {
	c := newCounter()
	for i := range contacts {
		ct := &contacts[i]
		if !ct.HasCall || !ct.HasFreq {
			continue
		}
		if !ct.HasLocation && !haveTable {
			continue
		}
		c.add(ct.Country, ct.Band)
	}

	rows := c.rowLabels()
	sort.Strings(rows)

	return c.matrix("Country", rows, bands.Display)
}
