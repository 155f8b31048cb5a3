package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "JN33", cfg.Station.Locator)
	assert.Equal(t, "log.adi", cfg.Input.ADIF)
	assert.Equal(t, "cty.dat", cfg.Input.Cty)
	assert.Equal(t, 30, cfg.Analysis.GreylineWindowMinutes)
	assert.Equal(t, 3500.0, cfg.Analysis.MinDXKm)
	assert.Equal(t, 1000, cfg.Analysis.TopN)
	assert.Equal(t, 10, cfg.Analysis.MinSNRContacts)
	assert.Equal(t, "hamlog", cfg.ClickHouse.Database)

	opts := cfg.AnalysisOptions()
	assert.Equal(t, 30*time.Minute, opts.Window)
	assert.Equal(t, "JN33", opts.Station)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := "station:\n  locator: FN31pr\nanalysis:\n  top_n: 50\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName+".yaml"), []byte(yaml), 0o644))
	t.Setenv("ADIFLAB_ANALYSIS_MIN_DX_KM", "5000")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "FN31pr", cfg.Station.Locator)
	assert.Equal(t, 50, cfg.Analysis.TopN)
	assert.Equal(t, 5000.0, cfg.Analysis.MinDXKm)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateCollectsErrors(t *testing.T) {
	chdir(t, t.TempDir())

	v := NewViper()
	v.Set("station.locator", "ZZ99")
	v.Set("analysis.top_n", 0)
	v.Set("log.format", "xml")

	_, err := Load(v, "")
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "config validation failed:"))
	assert.Contains(t, msg, "station.locator")
	assert.Contains(t, msg, "analysis.top_n")
	assert.Contains(t, msg, "log.format")
}

func TestBindFlags(t *testing.T) {
	chdir(t, t.TempDir())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("station", "JN33", "")
	fs.Int("top", 1000, "")

	v := NewViper()
	require.NoError(t, BindFlags(v, fs, map[string]string{"station": "station.locator", "top": "analysis.top_n"}))
	require.NoError(t, fs.Parse([]string{"--station", "IO91wm", "--top", "25"}))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "IO91wm", cfg.Station.Locator)
	assert.Equal(t, 25, cfg.Analysis.TopN)
	assert.Equal(t, "hamlog.contacts", cfg.ClickHouse.StoreOptions().FQN())

	assert.Error(t, BindFlags(v, fs, map[string]string{"nope": "x.y"}))
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		log, err := NewLogger("debug", format)
		require.NoError(t, err, format)
		require.NotNil(t, log)
	}

	_, err := NewLogger("loud", "console")
	assert.Error(t, err)
	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	s.AddRead(10)
	s.AddRead(5)
	s.AddEnriched(14)
	s.AddSkipped(1)
	s.AddBytes(2048)

	assert.Equal(t, uint64(15), s.Read())
	assert.Equal(t, uint64(14), s.Enriched())
	assert.Equal(t, uint64(1), s.Skipped())
	assert.Equal(t, uint64(2048), s.Bytes())

	s.Reset()
	assert.Zero(t, s.Read())
	assert.Zero(t, s.Bytes())
}

func TestStatsProgressLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewStats()
	s.SetOutput(&buf)
	s.lastTime = time.Now().Add(-time.Second)
	s.AddRead(1000)
	s.SetBatchLatency(3 * time.Millisecond)

	s.printStatus(time.Now())
	out := buf.String()
	assert.Contains(t, out, "[Progress]")
	assert.Contains(t, out, "Total: 1000 records")
	assert.Contains(t, out, "Batch: 3.00 ms")
}

func TestStatsReporterStartStop(t *testing.T) {
	s := NewStats()
	s.SetOutput(nil)
	s.StartReporter()
	s.StartReporter()
	s.StopReporter()
	s.StopReporter()
	// restartable
	s.StartReporter()
	s.StopReporter()
}

func TestLogSummary(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core).Sugar()

	s := NewStats()
	s.AddRead(3)
	s.AddEnriched(2)
	s.LogSummary(log)

	var lines []string
	for _, e := range logs.All() {
		lines = append(lines, e.Message)
	}
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Final Statistics")
	assert.Contains(t, joined, "Records read:     3")
	assert.Contains(t, joined, "Contacts:         2")
}
