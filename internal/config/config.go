// Package config defines the estimator configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and SURFELO_ env vars.
// - Validation errors wrap ErrInvalidConfig and name the offending key.
package config

import (
	"fmt"
	"math"
	"runtime"
	"strings"
)

// NumMatrixEntries is the number of entries of the surface matrix, row-major.
const NumMatrixEntries = 9

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// DataDir holds one match file per season.
	DataDir string `koanf:"data_dir"`

	// FilePattern names a season file; it must contain one %d verb.
	FilePattern string `koanf:"file_pattern"`

	// StartSeason and EndSeason bound the seasons loaded, inclusive.
	StartSeason int `koanf:"start_season"`
	EndSeason   int `koanf:"end_season"`

	// EvalSeason is the first season whose matches are scored.
	EvalSeason int `koanf:"eval_season"`

	// Candidates is the number of random matrices evaluated.
	Candidates int `koanf:"candidates"`

	// Seed makes the candidate bank reproducible.
	Seed int64 `koanf:"seed"`

	// KA, KB and KC shape K(n) = a / (b + n)^c.
	KA float64 `koanf:"k_a"`
	KB float64 `koanf:"k_b"`
	KC float64 `koanf:"k_c"`

	// LowerBounds and UpperBounds bound each matrix entry, row-major.
	LowerBounds []float64 `koanf:"lower_bounds"`
	UpperBounds []float64 `koanf:"upper_bounds"`

	// SelectedMatrix is the hand-picked matrix evaluated on its own.
	SelectedMatrix []float64 `koanf:"selected_matrix"`

	// Metric sorts the statistics table: log_loss, win_pct or brier.
	Metric string `koanf:"metric"`

	// Top is the number of rows printed in the summary.
	Top int `koanf:"top"`

	// Workers sets how many candidate shards run in parallel.
	Workers int `koanf:"workers"`

	// Output is the statistics CSV path; empty disables it.
	Output string `koanf:"output"`

	// MetricsTextfile is the prometheus textfile path; empty disables it.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// LeaderboardSize is the number of players listed per surface.
	LeaderboardSize int `koanf:"leaderboard_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		DataDir:         "data",
		FilePattern:     "atp_matches_%d.csv",
		StartSeason:     2000,
		EndSeason:       2019,
		EvalSeason:      2015,
		Candidates:      1000,
		Seed:            42,
		KA:              0.4789,
		KB:              4.0214,
		KC:              0.2523,
		LowerBounds:     repeat(0),
		UpperBounds:     repeat(1.5),
		SelectedMatrix:  []float64{1, 0.5, 0.5, 0.5, 1, 0.5, 0.5, 0.5, 1},
		Metric:          "log_loss",
		Top:             10,
		Workers:         runtime.NumCPU(),
		Output:          "results.csv",
		LeaderboardSize: 10,
	}
}

func repeat(v float64) []float64 {
	out := make([]float64, NumMatrixEntries)
	for i := range out {
		out[i] = v
	}
	return out
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Candidates < 1:
		return invalid("candidates", "must be at least 1, got %d", c.Candidates)
	case c.StartSeason > c.EndSeason:
		return invalid("start_season", "%d is after end_season %d", c.StartSeason, c.EndSeason)
	case c.Workers < 1:
		return invalid("workers", "must be at least 1, got %d", c.Workers)
	case c.Top < 0:
		return invalid("top", "must not be negative, got %d", c.Top)
	case c.LeaderboardSize < 0:
		return invalid("leaderboard_size", "must not be negative, got %d", c.LeaderboardSize)
	case !(c.KB > 0) || math.IsInf(c.KB, 0):
		return invalid("k_b", "must be positive, got %v", c.KB)
	case !strings.Contains(c.FilePattern, "%d"):
		return invalid("file_pattern", "must contain %%d, got %q", c.FilePattern)
	}

	switch strings.ToLower(c.Metric) {
	case "log_loss", "win_pct", "brier":
	default:
		return invalid("metric", "unknown metric %q", c.Metric)
	}

	for _, f := range []struct {
		key string
		v   []float64
	}{
		{"lower_bounds", c.LowerBounds},
		{"upper_bounds", c.UpperBounds},
		{"selected_matrix", c.SelectedMatrix},
	} {
		if len(f.v) != NumMatrixEntries {
			return invalid(f.key, "needs %d entries, got %d", NumMatrixEntries, len(f.v))
		}
	}
	for i := range c.LowerBounds {
		if c.LowerBounds[i] > c.UpperBounds[i] {
			return invalid("lower_bounds", "entry %d: %v > %v", i, c.LowerBounds[i], c.UpperBounds[i])
		}
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}
