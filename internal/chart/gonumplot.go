package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// renderGonum draws the stacked bar chart with gonum/plot and returns the
// encoded SVG or PNG bytes. The plot is a local value, so there is no
// backend state to release afterwards.
func (r *Renderer) renderGonum(d StackedBarData, format Format) ([]byte, error) {
	p := plot.New()
	p.Title.Text = d.Title
	if d.Subtitle != "" {
		p.Title.Text = d.Title + "\n" + d.Subtitle
	}
	p.X.Label.Text = d.XLabel
	p.Y.Label.Text = d.YLabel
	p.Legend.Top = true
	p.Legend.Left = false

	barWidth := vg.Points(20)
	var prev *plotter.BarChart
	for _, s := range d.Series {
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth)
		if err != nil {
			return nil, fmt.Errorf("bar series %q: %w", s.Name, err)
		}
		bars.Color = parseHexColor(s.Color)
		bars.LineStyle.Width = vg.Points(0.5)
		bars.LineStyle.Color = color.White
		if prev != nil {
			bars.StackOn(prev)
		}
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
		prev = bars
	}
	p.NominalX(d.Labels...)
	if len(d.Labels) > 10 {
		p.X.Tick.Label.Rotation = -0.785 // 45 degrees
		p.X.Tick.Label.XAlign = -1
		p.X.Tick.Label.YAlign = -0.5
	}

	wt, err := p.WriterTo(vg.Length(r.WidthInches)*vg.Inch, vg.Length(r.HeightInches)*vg.Inch, string(format))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseHexColor converts "#RRGGBB" to a color. Unparseable strings map to a
// neutral grey rather than failing the render.
func parseHexColor(s string) color.Color {
	var r, g, b uint8
	if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil || n != 3 {
		return color.RGBA{R: 0xB0, G: 0xB0, B: 0xB0, A: 0xFF}
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
