// Package report renders analysis results as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/KI7MT/ki7mt-adif-lab/internal/analysis"
	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD")).
			Padding(0, 1)

	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C")).
			Padding(0, 1)

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))
)

// Title writes a section heading.
func Title(w io.Writer, title string) error {
	_, err := fmt.Fprintln(w, titleStyle.Render(title))
	return err
}

// Note writes a dimmed line, used for skipped sections.
func Note(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf(format, args...)))
	return err
}

// newTable builds a bordered table. When lastIsTotal is set the final
// row is styled as a totals row.
func newTable(headers []string, rows [][]string, lastIsTotal bool) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case lastIsTotal && row == len(rows)-1:
				return totalStyle
			default:
				return cellStyle.Align(alignFor(col))
			}
		})
}

func alignFor(col int) lipgloss.Position {
	if col == 0 {
		return lipgloss.Left
	}
	return lipgloss.Right
}

func render(w io.Writer, t *table.Table) error {
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Table renders arbitrary rows under a title.
func Table(w io.Writer, title string, headers []string, rows [][]string) error {
	if err := Title(w, title); err != nil {
		return err
	}
	if len(rows) == 0 {
		return Note(w, "no rows")
	}
	return render(w, newTable(headers, rows, false))
}

func km(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// =============================================================================
// Reports
// =============================================================================

// Matrix renders a count table with a Total column and a Total row.
func Matrix(w io.Writer, title string, m analysis.Matrix) error {
	if err := Title(w, title); err != nil {
		return err
	}
	if len(m.Rows) == 0 {
		return Note(w, "no qualifying contacts")
	}

	headers := make([]string, 0, len(m.Cols)+2)
	headers = append(headers, m.RowHeader)
	headers = append(headers, m.Cols...)
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(m.Rows)+1)
	for i, label := range m.Rows {
		row := make([]string, 0, len(headers))
		row = append(row, label)
		for _, n := range m.Cells[i] {
			row = append(row, strconv.Itoa(n))
		}
		row = append(row, strconv.Itoa(m.RowTotals[i]))
		rows = append(rows, row)
	}

	total := make([]string, 0, len(headers))
	total = append(total, "Total")
	for _, n := range m.ColTotals {
		total = append(total, strconv.Itoa(n))
	}
	total = append(total, strconv.Itoa(m.Total))
	rows = append(rows, total)

	return render(w, newTable(headers, rows, true))
}

// GroupStats renders per (band, mode) averages. unit labels the value columns.
func GroupStats(w io.Writer, title, unit string, stats []analysis.GroupStat) error {
	if err := Title(w, title); err != nil {
		return err
	}
	if len(stats) == 0 {
		return Note(w, "no qualifying contacts")
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Band,
			s.Mode,
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.Average, 'f', 1, 64),
			strconv.FormatFloat(s.Max, 'f', 1, 64),
		})
	}
	headers := []string{"Band", "Mode", "Contacts", "Avg " + unit, "Max " + unit}
	return render(w, newTable(headers, rows, false))
}

// TopDX renders the most distant contacts, rank first.
func TopDX(w io.Writer, contacts []analysis.Contact) error {
	if err := Title(w, fmt.Sprintf("Top %d DX contacts", len(contacts))); err != nil {
		return err
	}
	if len(contacts) == 0 {
		return Note(w, "no qualifying contacts")
	}

	rows := make([][]string, 0, len(contacts))
	for i := range contacts {
		c := &contacts[i]
		date := ""
		if c.HasDate {
			date = c.Date.Format("2006-01-02")
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Call,
			c.Grid,
			c.Band,
			c.Mode,
			km(c.DistanceKm),
			c.Country,
			date,
		})
	}
	headers := []string{"#", "Call", "Grid", "Band", "Mode", "km", "Country", "Date"}
	return render(w, newTable(headers, rows, false))
}

// Greyline renders the twilight share of DX contacts.
func Greyline(w io.Writer, s analysis.GreylineSummary, window time.Duration, minDXKm float64) error {
	if err := Title(w, "Greyline propagation"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "DX contacts (>= %s km): %s\n", km(minDXKm), statStyle.Render(strconv.Itoa(s.DXContacts)))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Within ±%v of sunrise/sunset: %s (%.1f%%)\n",
		window, statStyle.Render(strconv.Itoa(s.GreylineContacts)), s.Percent())
	return err
}

// Proximity renders the nearest contact to each symmetric point.
func Proximity(w io.Writer, station geo.Point, results []analysis.Proximity) error {
	if err := Title(w, "Antipode proximity from "+station.String()); err != nil {
		return err
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if !r.Found {
			rows = append(rows, []string{r.Name, r.Target.String(), "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{r.Name, r.Target.String(), r.Call, r.Grid, km(r.DistanceKm)})
	}
	headers := []string{"Point", "Target", "Call", "Grid", "km"}
	return render(w, newTable(headers, rows, false))
}

// Sectors renders compass sector counts with a bar.
func Sectors(w io.Writer, counts [analysis.SectorCount]int) error {
	if err := Title(w, "Bearing sectors"); err != nil {
		return err
	}

	peak := 0
	for _, n := range counts {
		peak = max(peak, n)
	}

	const barWidth = 40
	rows := make([][]string, 0, analysis.SectorCount)
	for i, n := range counts {
		bar := 0
		if peak > 0 {
			bar = n * barWidth / peak
		}
		rows = append(rows, []string{analysis.SectorNames[i], strconv.Itoa(n), strings.Repeat("█", bar)})
	}
	return render(w, newTable([]string{"Sector", "Contacts", ""}, rows, false))
}

// Locator renders a decoded locator and its symmetric points.
func Locator(w io.Writer, locator string, p geo.Point) error {
	if err := Title(w, "Locator "+locator); err != nil {
		return err
	}
	rows := [][]string{
		{"Center", p.String(), geo.ToLocator(p, geo.PrecisionSubsquare)},
		{analysis.PointAntipode, geo.Antipode(p).String(), geo.ToLocator(geo.Antipode(p), geo.PrecisionSubsquare)},
		{analysis.PointAntecoic, geo.Antecoic(p).String(), geo.ToLocator(geo.Antecoic(p), geo.PrecisionSubsquare)},
		{analysis.PointPeriecoic, geo.Periecoic(p).String(), geo.ToLocator(geo.Periecoic(p), geo.PrecisionSubsquare)},
	}
	return render(w, newTable([]string{"Point", "Lat/Lon", "Locator"}, rows, false))
}
