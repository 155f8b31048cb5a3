// adif-analyze - ADIF log analysis reports
//
// Reads an ADIF log, enriches every contact with band, distance, bearing,
// country and greyline data for the configured station, and prints:
//   - hourly band and mode schedules, weekly traffic, contacts by country
//   - DX and SNR performance per band/mode, top DX list
//   - greyline share, antipode proximity, bearing sectors
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/adif-analyze ./cmd/adif-analyze

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-adif-lab/internal/common"
	"github.com/KI7MT/ki7mt-adif-lab/internal/pipeline"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

var (
	v          = common.NewViper()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "adif-analyze",
	Short:         "Analyze an ADIF contact log",
	Long:          `Enrich an ADIF log with band, geodesy, country and solar data and print propagation reports.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// persistent flag name -> config key
var flagKeys = map[string]string{
	"adif":       "input.adif",
	"cty":        "input.cty",
	"station":    "station.locator",
	"window":     "analysis.greyline_window_minutes",
	"min-dx":     "analysis.min_dx_km",
	"top":        "analysis.top_n",
	"min-snr":    "analysis.min_snr_contacts",
	"workers":    "analysis.workers",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Config file (default ./adiflab.yaml if present)")
	pf.StringP("adif", "f", "log.adi", "ADIF log (.adi, .adi.gz, .adi.zst)")
	pf.String("cty", "cty.dat", "cty.dat country file (optional)")
	pf.StringP("station", "s", "JN33", "Station Maidenhead locator")
	pf.Int("window", 30, "Greyline window in minutes either side of sunrise/sunset")
	pf.Float64("min-dx", 3500, "DX threshold in km")
	pf.IntP("top", "n", 1000, "Rows in the top DX report")
	pf.Int("min-snr", 10, "Minimum contacts per band/mode in the SNR report")
	pf.IntP("workers", "w", 0, "Enrichment workers (0 = NumCPU)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console or json")

	if err := common.BindFlags(v, pf, flagKeys); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(reportCommands()...)
	rootCmd.AddCommand(locatorCmd)
}

// session is what every report command works from.
type session struct {
	cfg   *common.Config
	log   *zap.SugaredLogger
	stats *common.Stats
	res   *pipeline.Result
}

// load runs config, logging and the enrichment pipeline.
func load(ctx context.Context, vp *viper.Viper) (*session, error) {
	cfg, err := common.Load(vp, configFile)
	if err != nil {
		return nil, err
	}

	log, err := common.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	common.Banner(log, fmt.Sprintf("ADIF Analyze v%s", Version))
	log.Infof("Log:     %s", cfg.Input.ADIF)
	log.Infof("cty.dat: %s", cfg.Input.Cty)

	stats := common.NewStats()
	res, err := pipeline.Run(ctx, cfg, log, stats)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, stats: stats, res: res}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nShutdown requested...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func main() {
	ctx, cancel := signalContext()
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "adif-analyze: %v\n", err)
		os.Exit(1)
	}
}
