// adif-export - Enriched ADIF contacts to Parquet
//
// Parses and enriches an ADIF log and writes one Parquet row per contact.
// The file can be loaded later with adif-ingest or any Parquet reader.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/adif-export ./cmd/adif-export

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/KI7MT/ki7mt-adif-lab/internal/common"
	"github.com/KI7MT/ki7mt-adif-lab/internal/pipeline"
	"github.com/KI7MT/ki7mt-adif-lab/internal/store"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

var (
	v          = common.NewViper()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "adif-export [flags] [file]",
	Short:         "Write enriched ADIF contacts to a Parquet file",
	Version:       Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var flagKeys = map[string]string{
	"adif":       "input.adif",
	"cty":        "input.cty",
	"station":    "station.locator",
	"window":     "analysis.greyline_window_minutes",
	"min-dx":     "analysis.min_dx_km",
	"workers":    "analysis.workers",
	"out":        "export.parquet",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "Config file (default ./adiflab.yaml if present)")
	f.StringP("adif", "f", "log.adi", "ADIF log (.adi, .adi.gz, .adi.zst)")
	f.String("cty", "cty.dat", "cty.dat country file (optional)")
	f.StringP("station", "s", "JN33", "Station Maidenhead locator")
	f.Int("window", 30, "Greyline window in minutes either side of sunrise/sunset")
	f.Float64("min-dx", 3500, "DX threshold in km")
	f.IntP("workers", "w", 0, "Enrichment workers (0 = NumCPU)")
	f.StringP("out", "o", "contacts.parquet", "Parquet output file")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "console", "Log format: console or json")

	if err := common.BindFlags(v, f, flagKeys); err != nil {
		panic(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		v.Set("input.adif", args[0])
	}

	cfg, err := common.Load(v, configFile)
	if err != nil {
		return err
	}
	log, err := common.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	common.Banner(log, fmt.Sprintf("ADIF Export v%s", Version))
	log.Infof("Input:  %s", cfg.Input.ADIF)
	log.Infof("Output: %s", cfg.Export.Parquet)

	stats := common.NewStats()
	res, err := pipeline.Run(cmd.Context(), cfg, log, stats)
	if err != nil {
		return err
	}

	runID := uuid.New()
	rows := store.FromContacts(res.Contacts, runID, filepath.Base(cfg.Input.ADIF))

	start := time.Now()
	if err := store.WriteParquetFile(cfg.Export.Parquet, rows); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Export.Parquet, err)
	}
	log.Infof("Wrote %d rows (run %s) in %v", len(rows), runID, time.Since(start).Round(time.Millisecond))

	stats.LogSummary(log)
	return nil
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
		fmt.Fprintf(os.Stderr, "adif-export: %v\n", err)
		os.Exit(1)
	}
}
