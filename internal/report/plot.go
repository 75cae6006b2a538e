package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrEmptyTrace is returned when there is nothing to plot.
var ErrEmptyTrace = errors.New("trace has no series")

var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
}

// PlotOptions controls WritePlot.
type PlotOptions struct {
	Title  string
	YLabel string
	Width  vg.Length
	Height vg.Length
	// Names restricts the plot to these series. Empty plots every series.
	Names []string
}

// DefaultPlotOptions returns options for a wide angle trace.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{
		Title:  "Joint angles",
		YLabel: "Angle (deg)",
		Width:  12 * vg.Inch,
		Height: 5 * vg.Inch,
	}
}

// WritePlot renders the trace as a PNG line plot, one line per series.
func WritePlot(w io.Writer, t *Trace, o PlotOptions) error {
	names := o.Names
	if len(names) == 0 {
		names = t.Names()
	}
	if len(names) == 0 {
		return ErrEmptyTrace
	}

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = o.YLabel
	p.Legend.Top = true
	p.Legend.Left = false

	for i, name := range names {
		s, ok := t.Series(name)
		if !ok {
			return fmt.Errorf("no series %q", name)
		}
		pts := make(plotter.XYs, len(s.Values))
		for j := range s.Values {
			pts[j] = plotter.XY{X: float64(s.Frames[j]), Y: s.Values[j]}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", name, err)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	wt, err := p.WriterTo(o.Width, o.Height, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}
