// Package chart renders summary tables as stacked bar charts. Two backends
// share one contract: gonum/plot produces SVG and PNG files, go-echarts
// produces self-contained HTML. Rendering is buffered in memory and written
// atomically, so a failed render never leaves a partial file behind.
package chart

import (
	"fmt"
	"path/filepath"

	"github.com/hivelab-data/soma.report/internal/fsutil"
	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/security"
)

// Format selects the chart output format and, implicitly, the backend.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// ParseFormat maps a user-supplied format string to a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatSVG, FormatPNG, FormatHTML:
		return Format(s), true
	}
	return "", false
}

// Normalize returns the format to actually render. Unsupported formats fall
// back to PNG with a warning rather than failing the analysis.
func Normalize(s string) Format {
	if f, ok := ParseFormat(s); ok {
		return f
	}
	monitoring.Warnf("chart: unsupported format %q, falling back to %s", s, FormatPNG)
	return FormatPNG
}

// Series is one stacked segment across all bars: a name, a fixed color and
// one value per bar label.
type Series struct {
	Name   string
	Color  string // hex, e.g. "#2E8B57"
	Values []float64
}

// StackedBarData is the renderer input: bar labels on the x-axis plus the
// stacked series in their fixed stacking order.
type StackedBarData struct {
	Title    string
	Subtitle string
	XLabel   string
	YLabel   string
	Labels   []string
	Series   []Series
}

// Truncate limits the data to the first max bars, keeping label order.
// Reports whether anything was cut. A max of zero or less means no cap.
func (d StackedBarData) Truncate(max int) (StackedBarData, bool) {
	if max <= 0 || len(d.Labels) <= max {
		return d, false
	}
	out := d
	out.Labels = d.Labels[:max]
	out.Series = make([]Series, len(d.Series))
	for i, s := range d.Series {
		out.Series[i] = s
		if len(s.Values) > max {
			out.Series[i].Values = s.Values[:max]
		}
	}
	return out, true
}

// Renderer writes stacked bar charts into an output directory.
type Renderer struct {
	OutputDir string
	// MaxBars caps how many bars are drawn. Charts with more bars are
	// truncated with a warning; the data the chart was built from is never
	// truncated.
	MaxBars      int
	WidthInches  float64
	HeightInches float64
}

// NewRenderer creates a Renderer. Zero geometry falls back to 12x8 inches.
func NewRenderer(outputDir string, maxBars int, widthInches, heightInches float64) *Renderer {
	if widthInches <= 0 {
		widthInches = 12
	}
	if heightInches <= 0 {
		heightInches = 8
	}
	return &Renderer{
		OutputDir:    outputDir,
		MaxBars:      maxBars,
		WidthInches:  widthInches,
		HeightInches: heightInches,
	}
}

// RenderStackedBar draws the chart and writes it to OutputDir as
// baseName.<format>. The final path is returned. All backend state is local
// to the call; nothing is retained between renders.
func (r *Renderer) RenderStackedBar(d StackedBarData, baseName string, format Format) (string, error) {
	if len(d.Labels) == 0 {
		return "", fmt.Errorf("chart: no bars to render")
	}

	draw, truncated := d.Truncate(r.MaxBars)
	if truncated {
		monitoring.Warnf("chart: too many bars (%d), showing first %d", len(d.Labels), r.MaxBars)
		draw.Subtitle = appendNote(draw.Subtitle, fmt.Sprintf("showing first %d of %d samples", r.MaxBars, len(d.Labels)))
	}

	var (
		payload []byte
		err     error
	)
	switch format {
	case FormatHTML:
		payload, err = r.renderECharts(draw)
	case FormatSVG, FormatPNG:
		payload, err = r.renderGonum(draw, format)
	default:
		return "", fmt.Errorf("chart: unsupported format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("chart: render %s: %w", format, err)
	}

	if err := fsutil.EnsureDir(r.OutputDir); err != nil {
		return "", err
	}
	path := filepath.Join(r.OutputDir, baseName+"."+string(format))
	if err := security.ValidatePathWithinDirectory(path, r.OutputDir); err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(path, payload, 0644); err != nil {
		return "", fmt.Errorf("chart: save %s: %w", path, err)
	}
	return path, nil
}

// HTML renders the chart as a self-contained HTML page without touching the
// filesystem. Used by the HTTP API to stream charts inline. The display cap
// applies here too.
func (r *Renderer) HTML(d StackedBarData) ([]byte, error) {
	draw, truncated := d.Truncate(r.MaxBars)
	if truncated {
		monitoring.Warnf("chart: too many bars (%d), showing first %d", len(d.Labels), r.MaxBars)
		draw.Subtitle = appendNote(draw.Subtitle, fmt.Sprintf("showing first %d of %d samples", r.MaxBars, len(d.Labels)))
	}
	return r.renderECharts(draw)
}

func appendNote(subtitle, note string) string {
	if subtitle == "" {
		return note
	}
	return subtitle + " | " + note
}
