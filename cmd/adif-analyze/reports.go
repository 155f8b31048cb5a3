package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KI7MT/ki7mt-adif-lab/internal/analysis"
	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
	"github.com/KI7MT/ki7mt-adif-lab/internal/report"
)

// reportFunc prints one report for an enriched log.
type reportFunc func(w io.Writer, s *session) error

type reportDef struct {
	name  string
	short string
	run   reportFunc
}

// reports in the order "all" prints them
var reports = []reportDef{
	{"schedule", "Contacts per UTC hour and band", runSchedule},
	{"modes", "Contacts per UTC hour and mode", runModes},
	{"weekly", "Contacts per band and weekday", runWeekly},
	{"country", "Contacts per country and band", runCountry},
	{"dx", "Average distance per band and mode", runDX},
	{"snr", "Average SNR per band and mode", runSNR},
	{"top", "Most distant contacts", runTop},
	{"greyline", "Share of DX contacts made at sunrise or sunset", runGreyline},
	{"antipode", "Contacts closest to the antipode, antecoic and periecoic points", runAntipode},
	{"radar", "Contacts per compass sector", runRadar},
}

func reportCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(reports)+1)
	for _, r := range reports {
		cmds = append(cmds, &cobra.Command{
			Use:   r.name,
			Short: r.short,
			Args:  cobra.NoArgs,
			RunE:  runReports(r.run),
		})
	}

	all := make([]reportFunc, 0, len(reports))
	for _, r := range reports {
		all = append(all, r.run)
	}
	cmds = append(cmds, &cobra.Command{
		Use:   "all",
		Short: "Print every report",
		Args:  cobra.NoArgs,
		RunE:  runReports(all...),
	})
	return cmds
}

func runReports(fns ...reportFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := load(cmd.Context(), v)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, fn := range fns {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if err := fn(out, s); err != nil {
				return err
			}
		}

		s.stats.LogSummary(s.log)
		return nil
	}
}

// =============================================================================
// Reports
// =============================================================================

func runSchedule(w io.Writer, s *session) error {
	return report.Matrix(w, "Hourly band schedule (UTC)", analysis.HourlyBands(s.res.Contacts))
}

func runModes(w io.Writer, s *session) error {
	return report.Matrix(w, "Hourly modes (UTC)", analysis.HourlyModes(s.res.Contacts))
}

func runWeekly(w io.Writer, s *session) error {
	return report.Matrix(w, "Weekly traffic", analysis.WeeklyTraffic(s.res.Contacts))
}

func runCountry(w io.Writer, s *session) error {
	if !s.res.Engine.HasCountryTable() {
		s.log.Warnf("No country table: contacts without a grid are left out")
	}
	m := analysis.ByCountry(s.res.Contacts, s.res.Engine.HasCountryTable())
	return report.Matrix(w, "Contacts by country", m)
}

func runDX(w io.Writer, s *session) error {
	return report.GroupStats(w, "DX performance", "km", analysis.DXPerformance(s.res.Contacts))
}

func runSNR(w io.Writer, s *session) error {
	minContacts := s.res.Engine.Options().MinSNRContacts
	title := fmt.Sprintf("SNR performance (>= %d contacts)", minContacts)
	return report.GroupStats(w, title, "dB", analysis.SNRPerformance(s.res.Contacts, minContacts))
}

func runTop(w io.Writer, s *session) error {
	return report.TopDX(w, analysis.TopDX(s.res.Contacts, s.res.Engine.Options().TopN))
}

func runGreyline(w io.Writer, s *session) error {
	opts := s.res.Engine.Options()
	return report.Greyline(w, analysis.Greyline(s.res.Contacts), opts.Window, opts.MinDXKm)
}

func runAntipode(w io.Writer, s *session) error {
	station := s.res.Engine.Station()
	return report.Proximity(w, station, analysis.AntipodeProximity(station, s.res.Contacts))
}

func runRadar(w io.Writer, s *session) error {
	return report.Sectors(w, analysis.BearingSectors(s.res.Contacts))
}

// =============================================================================
// Locator conversion
// =============================================================================

var locatorCmd = &cobra.Command{
	Use:   "locator <LOCATOR|lat,lon>",
	Short: "Convert between a Maidenhead locator and latitude/longitude",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, p, err := parseLocatorArg(args[0])
		if err != nil {
			return err
		}
		return report.Locator(cmd.OutOrStdout(), loc, p)
	},
}

// parseLocatorArg accepts "JN33xx" or "lat,lon".
func parseLocatorArg(arg string) (string, geo.Point, error) {
	arg = strings.TrimSpace(arg)
	if lat, lon, ok := strings.Cut(arg, ","); ok {
		la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		lo, err2 := strconv.ParseFloat(strings.TrimSpace(lon), 64)
		if err1 != nil || err2 != nil {
			return "", geo.Point{}, fmt.Errorf("invalid coordinates %q", arg)
		}
		p := geo.Point{Lat: la, Lon: lo}
		if !p.Valid() {
			return "", geo.Point{}, fmt.Errorf("coordinates out of range: %q", arg)
		}
		return geo.ToLocator(p, geo.PrecisionSubsquare), p, nil
	}

	p, ok := geo.ToPoint(arg)
	if !ok {
		return "", geo.Point{}, fmt.Errorf("invalid locator %q", arg)
	}
	return strings.ToUpper(arg), p, nil
}
