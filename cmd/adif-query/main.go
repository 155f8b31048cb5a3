// adif-query - Summaries of ingested contacts from ClickHouse
//
// Prints per-band and per-country summaries and the list of ingest runs
// stored by adif-ingest, using clickhouse-go.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/adif-query ./cmd/adif-query

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KI7MT/ki7mt-adif-lab/internal/common"
	"github.com/KI7MT/ki7mt-adif-lab/internal/report"
	"github.com/KI7MT/ki7mt-adif-lab/internal/store"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

var (
	v            = common.NewViper()
	configFile   string
	countryLimit int
)

var rootCmd = &cobra.Command{
	Use:           "adif-query",
	Short:         "Summarize contacts stored in ClickHouse",
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var flagKeys = map[string]string{
	"ch-host":     "clickhouse.host",
	"ch-db":       "clickhouse.database",
	"ch-table":    "clickhouse.table",
	"ch-user":     "clickhouse.user",
	"ch-password": "clickhouse.password",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "Config file (default ./adiflab.yaml if present)")
	f.String("ch-host", "127.0.0.1:9000", "ClickHouse native address")
	f.String("ch-db", "hamlog", "ClickHouse database")
	f.String("ch-table", "contacts", "ClickHouse table")
	f.String("ch-user", "default", "ClickHouse user")
	f.String("ch-password", "", "ClickHouse password")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "console", "Log format: console or json")
	f.IntVarP(&countryLimit, "countries", "n", 25, "Countries to list")

	if err := common.BindFlags(v, f, flagKeys); err != nil {
		panic(err)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := common.Load(v, configFile)
	if err != nil {
		return err
	}
	log, err := common.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	opts := cfg.ClickHouse.StoreOptions()

	common.Banner(log, fmt.Sprintf("ADIF Query v%s", Version))
	log.Infof("Connecting to ClickHouse at %s...", opts.Host)
	log.Infof("Table: %s", opts.FQN())

	r, err := store.OpenReader(ctx, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	out := cmd.OutOrStdout()

	bandRows, err := r.BandSummary(ctx)
	if err != nil {
		return err
	}
	if err := printBands(out, bandRows); err != nil {
		return err
	}

	countryRows, err := r.CountrySummary(ctx, countryLimit)
	if err != nil {
		return err
	}
	if err := printCountries(out, countryRows); err != nil {
		return err
	}

	runs, err := r.Runs(ctx)
	if err != nil {
		return err
	}
	return printRuns(out, runs)
}

func printBands(w io.Writer, rows []store.BandRow) error {
	out := make([][]string, 0, len(rows))
	for _, b := range rows {
		out = append(out, []string{
			b.Band,
			strconv.FormatUint(b.Contacts, 10),
			strconv.FormatUint(b.DXContacts, 10),
			strconv.FormatFloat(b.AvgKm, 'f', 0, 64),
			strconv.FormatFloat(b.MaxKm, 'f', 0, 64),
		})
	}
	return report.Table(w, "Stored contacts by band", []string{"Band", "Contacts", "DX", "Avg km", "Max km"}, out)
}

func printCountries(w io.Writer, rows []store.CountryRow) error {
	out := make([][]string, 0, len(rows))
	for _, c := range rows {
		out = append(out, []string{c.Country, strconv.FormatUint(c.Contacts, 10), strconv.FormatUint(c.Bands, 10)})
	}
	return report.Table(w, "Stored contacts by country", []string{"Country", "Contacts", "Bands"}, out)
}

func printRuns(w io.Writer, rows []store.RunRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.RunID.String(),
			r.Source,
			strconv.FormatUint(r.Contacts, 10),
			r.First.UTC().Format("2006-01-02 15:04"),
			r.Last.UTC().Format("2006-01-02 15:04"),
		})
	}
	return report.Table(w, "Ingest runs", []string{"Run", "Source", "Contacts", "First QSO", "Last QSO"}, out)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutdown requested...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "adif-query: %v\n", err)
		os.Exit(1)
	}
}
