// adif-ingest - Enriched ADIF contacts into ClickHouse
//
// Parses and enriches an ADIF log (or reads a Parquet file written by
// adif-export) and inserts the contacts via the ch-go native protocol.
// Rows from an earlier ingest of the same source file are replaced.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/adif-ingest ./cmd/adif-ingest

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-adif-lab/internal/common"
	"github.com/KI7MT/ki7mt-adif-lab/internal/pipeline"
	"github.com/KI7MT/ki7mt-adif-lab/internal/store"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

var (
	v          = common.NewViper()
	configFile string
	appendRows bool
	batchSize  int
)

var rootCmd = &cobra.Command{
	Use:           "adif-ingest [flags] [file]",
	Short:         "Insert enriched ADIF contacts into ClickHouse",
	Version:       Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var flagKeys = map[string]string{
	"adif":        "input.adif",
	"cty":         "input.cty",
	"station":     "station.locator",
	"workers":     "analysis.workers",
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
	f.StringP("adif", "f", "log.adi", "ADIF log or .parquet export")
	f.String("cty", "cty.dat", "cty.dat country file (optional)")
	f.StringP("station", "s", "JN33", "Station Maidenhead locator")
	f.IntP("workers", "w", 0, "Enrichment workers (0 = NumCPU)")
	f.String("ch-host", "127.0.0.1:9000", "ClickHouse native address")
	f.String("ch-db", "hamlog", "ClickHouse database")
	f.String("ch-table", "contacts", "ClickHouse table")
	f.String("ch-user", "default", "ClickHouse user")
	f.String("ch-password", "", "ClickHouse password")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "console", "Log format: console or json")
	f.BoolVar(&appendRows, "append", false, "Keep rows from earlier ingests of the same file")
	f.IntVar(&batchSize, "batch-size", store.DefaultBatchSize, "Rows per native insert")

	if err := common.BindFlags(v, f, flagKeys); err != nil {
		panic(err)
	}
}

func isParquet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".parquet")
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

	ctx := cmd.Context()
	runID := uuid.New()
	source := filepath.Base(cfg.Input.ADIF)

	common.Banner(log, fmt.Sprintf("ADIF Ingest v%s", Version))
	log.Infof("Input:  %s", cfg.Input.ADIF)
	log.Infof("Run ID: %s", runID)

	opts := cfg.ClickHouse.StoreOptions()
	opts.BatchSize = batchSize
	log.Infof("Connecting to ClickHouse at %s...", opts.Host)
	w, err := store.Dial(ctx, opts, log)
	if err != nil {
		return err
	}

	stats := common.NewStats()
	err = ingest(ctx, cfg, w, stats, runID, source, log)
	if cerr := w.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	log.Infof("Inserted %d rows into %s", w.Inserted(), opts.FQN())
	stats.LogSummary(log)
	return nil
}

func ingest(ctx context.Context, cfg *common.Config, w *store.Writer, stats *common.Stats, runID uuid.UUID, source string, log *zap.SugaredLogger) error {
	if err := w.EnsureTable(ctx); err != nil {
		return err
	}

	dropped := make(map[string]bool)
	replace := func(src string) {
		if appendRows || dropped[src] {
			return
		}
		dropped[src] = true
		log.Infof("Replacing earlier rows from %s", src)
		if err := w.DropSource(ctx, src); err != nil {
			log.Warnf("Replace warning: %v", err)
		}
	}

	if isParquet(cfg.Input.ADIF) {
		return ingestParquet(ctx, cfg.Input.ADIF, w, stats, runID, source, replace)
	}

	res, err := pipeline.Run(ctx, cfg, log, stats)
	if err != nil {
		return err
	}
	replace(source)
	return w.Write(ctx, store.FromContacts(res.Contacts, runID, source))
}

// ingestParquet streams an export back in. Rows keep the run id and source
// they were exported with; replace is called once per source seen.
func ingestParquet(ctx context.Context, path string, w *store.Writer, stats *common.Stats, runID uuid.UUID, source string, replace func(string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	stats.AddBytes(uint64(info.Size()))

	stats.StartReporter()
	defer stats.StopReporter()

	_, err = store.ReadParquet(f, info.Size(), func(rows []store.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range rows {
			if rows[i].RunID == "" {
				rows[i].RunID = runID.String()
			}
			if rows[i].Source == "" {
				rows[i].Source = source
			}
			replace(rows[i].Source)
		}
		stats.AddRead(uint64(len(rows)))
		if err := w.Write(ctx, rows); err != nil {
			return err
		}
		stats.AddEnriched(uint64(len(rows)))
		stats.SetBatchLatency(w.LastFlush())
		return nil
	})
	return err
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
		fmt.Fprintf(os.Stderr, "adif-ingest: %v\n", err)
		os.Exit(1)
	}
}
