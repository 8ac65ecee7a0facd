package config

import (
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SMARTSHEET_ACCESS_TOKEN", "DEFAULT_SHEET_ID", "DEFAULT_SHEET_NAME",
		"OUTPUT_DIR", "PLOT_FORMAT", "MAX_SAMPLES_DISPLAY",
		"CHART_WIDTH", "CHART_HEIGHT", "SNAPSHOT_PATH", "LISTEN",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg := FromEnv()

	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.PlotFormat != DefaultPlotFormat {
		t.Errorf("PlotFormat = %q", cfg.PlotFormat)
	}
	if cfg.MaxSamplesDisplay != DefaultMaxSamplesDisplay {
		t.Errorf("MaxSamplesDisplay = %d", cfg.MaxSamplesDisplay)
	}
	if cfg.ChartWidth != DefaultChartWidth || cfg.ChartHeight != DefaultChartHeight {
		t.Errorf("chart geometry = %gx%g", cfg.ChartWidth, cfg.ChartHeight)
	}
	if cfg.SheetName != DefaultSheetName {
		t.Errorf("SheetName = %q", cfg.SheetName)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMARTSHEET_ACCESS_TOKEN", "tok")
	t.Setenv("PLOT_FORMAT", "html")
	t.Setenv("MAX_SAMPLES_DISPLAY", "25")
	t.Setenv("CHART_WIDTH", "16.5")

	cfg := FromEnv()
	if cfg.AccessToken != "tok" {
		t.Errorf("AccessToken = %q", cfg.AccessToken)
	}
	if cfg.PlotFormat != "html" {
		t.Errorf("PlotFormat = %q", cfg.PlotFormat)
	}
	if cfg.MaxSamplesDisplay != 25 {
		t.Errorf("MaxSamplesDisplay = %d", cfg.MaxSamplesDisplay)
	}
	if cfg.ChartWidth != 16.5 {
		t.Errorf("ChartWidth = %g", cfg.ChartWidth)
	}
}

func TestFromEnvUnparseableFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_SAMPLES_DISPLAY", "many")
	t.Setenv("CHART_HEIGHT", "tall")

	cfg := FromEnv()
	if cfg.MaxSamplesDisplay != DefaultMaxSamplesDisplay {
		t.Errorf("MaxSamplesDisplay = %d", cfg.MaxSamplesDisplay)
	}
	if cfg.ChartHeight != DefaultChartHeight {
		t.Errorf("ChartHeight = %g", cfg.ChartHeight)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := &Config{
		PlotFormat:        "pdf",
		MaxSamplesDisplay: 0,
		ChartWidth:        -1,
		ChartHeight:       8,
		OutputDir:         "",
	}
	err := cfg.Validate(true)
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	for _, want := range []string{
		"SMARTSHEET_ACCESS_TOKEN",
		"MAX_SAMPLES_DISPLAY",
		"CHART_WIDTH",
		"PLOT_FORMAT",
		"OUTPUT_DIR",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestValidateOfflineSkipsToken(t *testing.T) {
	cfg := &Config{
		PlotFormat:        "svg",
		MaxSamplesDisplay: 50,
		ChartWidth:        12,
		ChartHeight:       8,
		OutputDir:         "results",
	}
	if err := cfg.Validate(false); err != nil {
		t.Errorf("offline validation failed: %v", err)
	}
	if err := cfg.Validate(true); err == nil {
		t.Error("expected missing token to fail online validation")
	}
}
