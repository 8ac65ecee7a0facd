// Package config holds the runtime configuration for the soma analysis
// tool. Settings come from the environment (with flag overrides applied by
// the caller) and are carried in an explicit struct that is constructed once
// at startup and passed into the analyzer and renderer.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/hivelab-data/soma.report/internal/fsutil"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultOutputDir         = "results"
	DefaultPlotFormat        = "svg"
	DefaultMaxSamplesDisplay = 50
	DefaultChartWidth        = 12.0
	DefaultChartHeight       = 8.0
	DefaultSheetName         = "Neuron Reconstructions"
	DefaultSnapshotPath      = "sheet_snapshots.db"
	DefaultListen            = ":8080"
)

// Config is the explicit runtime configuration.
type Config struct {
	// Smartsheet API settings.
	AccessToken string
	SheetID     string
	SheetName   string

	// Output settings.
	OutputDir  string
	PlotFormat string

	// Analysis settings.
	MaxSamplesDisplay int

	// Chart geometry in inches.
	ChartWidth  float64
	ChartHeight float64

	// Local snapshot cache for offline runs.
	SnapshotPath string

	// HTTP API listen address.
	Listen string
}

// FromEnv builds a Config from the environment, applying defaults for unset
// values. Call Validate before using the result.
func FromEnv() *Config {
	return &Config{
		AccessToken:       os.Getenv("SMARTSHEET_ACCESS_TOKEN"),
		SheetID:           os.Getenv("DEFAULT_SHEET_ID"),
		SheetName:         envOr("DEFAULT_SHEET_NAME", DefaultSheetName),
		OutputDir:         envOr("OUTPUT_DIR", DefaultOutputDir),
		PlotFormat:        envOr("PLOT_FORMAT", DefaultPlotFormat),
		MaxSamplesDisplay: envInt("MAX_SAMPLES_DISPLAY", DefaultMaxSamplesDisplay),
		ChartWidth:        envFloat("CHART_WIDTH", DefaultChartWidth),
		ChartHeight:       envFloat("CHART_HEIGHT", DefaultChartHeight),
		SnapshotPath:      envOr("SNAPSHOT_PATH", DefaultSnapshotPath),
		Listen:            envOr("LISTEN", DefaultListen),
	}
}

// Validate checks the configuration and reports every problem at once.
// requireToken should be true whenever the run will talk to the Smartsheet
// API (it is false for offline snapshot runs).
func (c *Config) Validate(requireToken bool) error {
	var errs []error
	if requireToken && c.AccessToken == "" {
		errs = append(errs, errors.New("SMARTSHEET_ACCESS_TOKEN is required"))
	}
	if c.MaxSamplesDisplay <= 0 {
		errs = append(errs, fmt.Errorf("MAX_SAMPLES_DISPLAY must be positive, got %d", c.MaxSamplesDisplay))
	}
	if c.ChartWidth <= 0 {
		errs = append(errs, fmt.Errorf("CHART_WIDTH must be positive, got %g", c.ChartWidth))
	}
	if c.ChartHeight <= 0 {
		errs = append(errs, fmt.Errorf("CHART_HEIGHT must be positive, got %g", c.ChartHeight))
	}
	switch c.PlotFormat {
	case "svg", "png", "html":
	default:
		errs = append(errs, fmt.Errorf("PLOT_FORMAT must be svg, png or html, got %q", c.PlotFormat))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("OUTPUT_DIR must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// EnsureOutputDir creates the output directory if needed.
func (c *Config) EnsureOutputDir() error {
	return fsutil.EnsureDir(c.OutputDir)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
