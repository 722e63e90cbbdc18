package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/towerscan/internal/detector"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 300.0, cfg.Detector.TimeWindowSeconds)
	assert.Equal(t, 0.0, cfg.Detector.MinConfidence)
	assert.Equal(t, detector.DefaultSpeedCeilingKmh, cfg.Detector.SpeedCeilingKmh)
	assert.Equal(t, "adjacent", cfg.Detector.PairMode)
	assert.Equal(t, 1.0, cfg.Input.DefaultConfidence)
	assert.True(t, cfg.Input.FillStates)
	assert.Equal(t, 0.6, cfg.Report.MinStateShare)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)

	dc, err := cfg.DetectorConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, dc.TimeWindow)
	assert.Equal(t, detector.PairAdjacent, dc.PairMode)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TOWERSCAN_DETECTOR_MIN_CONFIDENCE", "0.5")
	t.Setenv("TOWERSCAN_DETECTOR_PAIR_MODE", "exhaustive")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Detector.MinConfidence)

	dc, err := cfg.DetectorConfig()
	require.NoError(t, err)
	assert.Equal(t, detector.PairExhaustive, dc.PairMode)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "towerscan.yaml")
	yaml := []byte("detector:\n  time_window_seconds: 120\n  speed_ceiling_kmh: 900\nreport:\n  output: json\n")
	require.NoError(t, os.WriteFile(path, yaml, 0644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.Detector.TimeWindowSeconds)
	assert.Equal(t, 900.0, cfg.Detector.SpeedCeilingKmh)
	assert.Equal(t, "json", cfg.Report.Output)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"detector.time_window_seconds", 0},
		{"detector.time_window_seconds", -10},
		{"detector.speed_ceiling_kmh", 0},
		{"detector.pair_mode", "random"},
		{"input.state_precision", -1},
		{"report.min_state_share", 1.5},
		{"report.output", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, detector.ErrConfiguration)
		})
	}
}
