// Package common provides configuration, logging and run statistics shared
// by the ADIF lab tools.
package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/KI7MT/ki7mt-adif-lab/internal/analysis"
	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
	"github.com/KI7MT/ki7mt-adif-lab/internal/store"
)

// EnvPrefix maps ADIFLAB_STATION_LOCATOR to station.locator.
const EnvPrefix = "ADIFLAB"

// ConfigName is the optional config file looked up in . and ./configs.
const ConfigName = "adiflab"

// Config holds the configuration of every tool.
type Config struct {
	Station    StationConfig    `mapstructure:"station"`
	Input      InputConfig      `mapstructure:"input"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Log        LogConfig        `mapstructure:"log"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Export     ExportConfig     `mapstructure:"export"`
}

type StationConfig struct {
	Locator string `mapstructure:"locator"`
}

type InputConfig struct {
	ADIF string `mapstructure:"adif"`
	Cty  string `mapstructure:"cty"`
}

type AnalysisConfig struct {
	GreylineWindowMinutes int     `mapstructure:"greyline_window_minutes"`
	MinDXKm               float64 `mapstructure:"min_dx_km"`
	TopN                  int     `mapstructure:"top_n"`
	MinSNRContacts        int     `mapstructure:"min_snr_contacts"`
	Workers               int     `mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ClickHouseConfig struct {
	Host     string `mapstructure:"host"`
	Database string `mapstructure:"database"`
	Table    string `mapstructure:"table"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type ExportConfig struct {
	Parquet string `mapstructure:"parquet"`
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers bind command-line flags into it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("station.locator", "JN33")
	v.SetDefault("input.adif", "log.adi")
	v.SetDefault("input.cty", "cty.dat")
	v.SetDefault("analysis.greyline_window_minutes", 30)
	v.SetDefault("analysis.min_dx_km", 3500.0)
	v.SetDefault("analysis.top_n", 1000)
	v.SetDefault("analysis.min_snr_contacts", 10)
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("clickhouse.host", "127.0.0.1:9000")
	v.SetDefault("clickhouse.database", "hamlog")
	v.SetDefault("clickhouse.table", "contacts")
	v.SetDefault("clickhouse.user", "default")
	v.SetDefault("clickhouse.password", "")
	v.SetDefault("export.parquet", "contacts.parquet")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file (explicit path, or optional adiflab.yaml),
// unmarshals and validates. Precedence: flags, env, file, defaults.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if !geo.ValidLocator(c.Station.Locator) {
		errs = append(errs, fmt.Sprintf("station.locator %q is not a Maidenhead locator", c.Station.Locator))
	}
	if c.Analysis.GreylineWindowMinutes < 0 {
		errs = append(errs, "analysis.greyline_window_minutes must not be negative")
	}
	if c.Analysis.MinDXKm < 0 {
		errs = append(errs, "analysis.min_dx_km must not be negative")
	}
	if c.Analysis.TopN <= 0 {
		errs = append(errs, fmt.Sprintf("analysis.top_n must be positive, got %d", c.Analysis.TopN))
	}
	if c.Analysis.MinSNRContacts < 1 {
		errs = append(errs, fmt.Sprintf("analysis.min_snr_contacts must be at least 1, got %d", c.Analysis.MinSNRContacts))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, "analysis.workers must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.ClickHouse.Host == "" {
		errs = append(errs, "clickhouse.host is required")
	}
	if c.ClickHouse.Database == "" {
		errs = append(errs, "clickhouse.database is required")
	}
	if c.ClickHouse.Table == "" {
		errs = append(errs, "clickhouse.table is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// AnalysisOptions converts the config into engine options.
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		Station:        c.Station.Locator,
		Window:         time.Duration(c.Analysis.GreylineWindowMinutes) * time.Minute,
		MinDXKm:        c.Analysis.MinDXKm,
		TopN:           c.Analysis.TopN,
		MinSNRContacts: c.Analysis.MinSNRContacts,
		Workers:        c.Analysis.Workers,
	}
}

// StoreOptions converts the ClickHouse section for the store package.
func (c ClickHouseConfig) StoreOptions() store.Options {
	return store.Options{
		Host:     c.Host,
		Database: c.Database,
		Table:    c.Table,
		User:     c.User,
		Password: c.Password,
	}
}

// BindFlags binds each named flag to its config key so an explicitly set
// flag wins over env and file values.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind %s: no flag --%s", key, name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}
