package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/atikulmunna/towerscan/internal/aggregator"
	"github.com/atikulmunna/towerscan/internal/detector"
)

type Config struct {
	Detector DetectorConfig `mapstructure:"detector"`
	Input    InputConfig    `mapstructure:"input"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

type DetectorConfig struct {
	TimeWindowSeconds float64 `mapstructure:"time_window_seconds"`
	MinConfidence     float64 `mapstructure:"min_confidence"`
	SpeedCeilingKmh   float64 `mapstructure:"speed_ceiling_kmh"`
	PairMode          string  `mapstructure:"pair_mode"`
}

type InputConfig struct {
	Format            string  `mapstructure:"format"`
	DefaultConfidence float64 `mapstructure:"default_confidence"`
	FillStates        bool    `mapstructure:"fill_states"`
	StatePrecision    int     `mapstructure:"state_precision"`
	Sort              bool    `mapstructure:"sort"`
}

type ReportConfig struct {
	Output        string  `mapstructure:"output"` // text, json, csv
	MinStateShare float64 `mapstructure:"min_state_share"`
	OnlyFlagged   bool    `mapstructure:"only_flagged"`
	PreviewRows   int     `mapstructure:"preview_rows"`
	File          string  `mapstructure:"file"`
	FindingsFile  string  `mapstructure:"findings_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// SetDefaults registers every key so environment overrides are picked up
// by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := detector.DefaultConfig()
	v.SetDefault("detector.time_window_seconds", d.TimeWindow.Seconds())
	v.SetDefault("detector.min_confidence", d.MinConfidence)
	v.SetDefault("detector.speed_ceiling_kmh", d.SpeedCeilingKmh)
	v.SetDefault("detector.pair_mode", d.PairMode.String())

	v.SetDefault("input.format", "auto")
	v.SetDefault("input.default_confidence", 1.0)
	v.SetDefault("input.fill_states", true)
	v.SetDefault("input.state_precision", 3)
	v.SetDefault("input.sort", false)

	v.SetDefault("report.output", "text")
	v.SetDefault("report.min_state_share", aggregator.DefaultMinStateShare)
	v.SetDefault("report.only_flagged", false)
	v.SetDefault("report.preview_rows", 5)
	v.SetDefault("report.file", "")
	v.SetDefault("report.findings_file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.port", "8080")
	v.SetDefault("watch.debounce", 500*time.Millisecond)
}

// Load applies defaults, reads environment overrides (TOWERSCAN_DETECTOR_MIN_CONFIDENCE
// and so on) and validates the result.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("TOWERSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise only fail mid-run.
func (c Config) Validate() error {
	if _, err := c.DetectorConfig(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Input.StatePrecision < 0 || c.Input.StatePrecision > 10 {
		return fmt.Errorf("config: %w", &detector.ConfigurationError{
			Field: "input.state_precision", Value: c.Input.StatePrecision, Reason: "must be between 0 and 10",
		})
	}
	if c.Report.MinStateShare < 0 || c.Report.MinStateShare > 1 {
		return fmt.Errorf("config: %w", &detector.ConfigurationError{
			Field: "report.min_state_share", Value: c.Report.MinStateShare, Reason: "must be between 0 and 1",
		})
	}
	switch strings.ToLower(c.Report.Output) {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("config: %w", &detector.ConfigurationError{
			Field: "report.output", Value: c.Report.Output, Reason: "must be text, json or csv",
		})
	}
	return nil
}

// DetectorConfig converts the detector section to a detector.Config.
func (c Config) DetectorConfig() (detector.Config, error) {
	mode, err := detector.ParsePairMode(c.Detector.PairMode)
	if err != nil {
		return detector.Config{}, err
	}
	cfg := detector.Config{
		TimeWindow:      time.Duration(c.Detector.TimeWindowSeconds * float64(time.Second)),
		MinConfidence:   c.Detector.MinConfidence,
		SpeedCeilingKmh: c.Detector.SpeedCeilingKmh,
		PairMode:        mode,
	}
	return cfg, cfg.Validate()
}
