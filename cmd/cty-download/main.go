// cty-download - Download the cty.dat country files
//
// Data sources:
//   - country-files.com cty.dat (CT format, used by most loggers)
//   - country-files.com cty_wt_mod.dat (with exact-call overrides)
//
// Each file is parsed before it replaces the previous copy, so a truncated
// or malformed download never reaches the analysis tools.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/cty-download ./cmd/cty-download

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KI7MT/ki7mt-adif-lab/internal/common"
	"github.com/KI7MT/ki7mt-adif-lab/internal/cty"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// DataSource is one downloadable country file
type DataSource struct {
	Name     string
	URL      string
	Filename string
	Desc     string
}

var sources = []DataSource{
	{
		Name:     "cty",
		URL:      "https://www.country-files.com/cty/cty.dat",
		Filename: "cty.dat",
		Desc:     "CT country file (prefixes, zones, coordinates)",
	},
	{
		Name:     "cty_wt_mod",
		URL:      "https://www.country-files.com/cty/cty_wt_mod.dat",
		Filename: "cty_wt_mod.dat",
		Desc:     "Country file with exact-call overrides",
	},
}

var (
	destDir     string
	timeout     time.Duration
	listSources bool
	source      string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:           "cty-download",
	Short:         "Download and validate cty.dat country files",
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&destDir, "dest", "d", ".", "Destination directory")
	f.DurationVar(&timeout, "timeout", 60*time.Second, "HTTP timeout per download")
	f.BoolVar(&listSources, "list", false, "List available sources")
	f.StringVar(&source, "source", "cty", "Source to download (or 'all')")
	f.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// downloadFile fetches url, checks it parses as cty.dat and renames it
// into destPath. Returns the entity count of the new table.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string) (int, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, 0, fmt.Errorf("create file failed: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, n, fmt.Errorf("download failed: %w", err)
	}

	t, err := cty.Load(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return 0, n, fmt.Errorf("validate: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, n, fmt.Errorf("rename failed: %w", err)
	}
	return len(t.Countries()), n, nil
}

func selected() []DataSource {
	if source == "all" {
		return sources
	}
	for _, s := range sources {
		if s.Name == source {
			return []DataSource{s}
		}
	}
	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if listSources {
		fmt.Fprintf(out, "Available country file sources:\n\n")
		for _, s := range sources {
			fmt.Fprintf(out, "  %-12s %s\n", s.Name, s.Desc)
			fmt.Fprintf(out, "               URL:  %s\n", s.URL)
			fmt.Fprintf(out, "               File: %s\n\n", s.Filename)
		}
		return nil
	}

	todo := selected()
	if len(todo) == 0 {
		return fmt.Errorf("unknown source %q (see --list)", source)
	}

	log, err := common.NewLogger(logLevel, "console")
	if err != nil {
		return err
	}
	defer log.Sync()

	common.Banner(log, fmt.Sprintf("cty Download v%s", Version))
	log.Infof("Destination: %s", destDir)
	log.Infof("Timeout:     %v", timeout)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	downloaded, failed := fetchAll(cmd.Context(), &http.Client{Timeout: timeout}, todo, log)

	log.Info("")
	common.Banner(log, "Download Summary")
	log.Infof("Downloaded: %d files", downloaded)
	log.Infof("Failed:     %d files", failed)

	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}

func fetchAll(ctx context.Context, client *http.Client, todo []DataSource, log *zap.SugaredLogger) (downloaded, failed int) {
	for _, src := range todo {
		destPath := filepath.Join(destDir, src.Filename)
		log.Infof("[%s] Downloading from %s...", src.Name, src.URL)

		entities, n, err := downloadFile(ctx, client, src.URL, destPath)
		if err != nil {
			log.Errorf("[%s] %v", src.Name, err)
			failed++
			continue
		}
		log.Infof("[%s] %s: %d bytes, %d entities", src.Name, filepath.Base(destPath), n, entities)
		downloaded++
	}
	return downloaded, failed
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "cty-download: %v\n", err)
		os.Exit(1)
	}
}
