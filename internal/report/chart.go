package report

import (
	"fmt"
	"io"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ayusman/repcoach/internal/stats"
)

// ChartData is everything shown on a session chart page.
type ChartData struct {
	Title    string
	Subtitle string
	Trace    *Trace
	Angles   stats.Statistics
	Distance stats.Statistics
}

// RenderChart writes an HTML page with a line chart of every series and a
// bar chart of the final extrema.
func RenderChart(w io.Writer, d ChartData) error {
	if d.Trace == nil || d.Trace.Len() == 0 {
		return ErrEmptyTrace
	}

	page := components.NewPage()
	page.PageTitle = d.Title
	page.AddCharts(traceChart(d), extremaChart("Angle extrema", d.Angles))
	if len(d.Distance) > 0 {
		page.AddCharts(extremaChart("Distance extrema", d.Distance))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func traceChart(d ChartData) *charts.Line {
	last := 0
	for _, s := range d.Trace.All() {
		if n := len(s.Frames); n > 0 {
			last = max(last, s.Frames[n-1])
		}
	}
	frames := make([]int, last+1)
	for i := range frames {
		frames[i] = i
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: d.Title, Subtitle: d.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
	)
	line.SetXAxis(frames)

	for _, s := range d.Trace.All() {
		// gaps are frames without a reading
		data := make([]opts.LineData, len(frames))
		for i := range data {
			data[i] = opts.LineData{Value: "-"}
		}
		for i, f := range s.Frames {
			data[f] = opts.LineData{Value: s.Values[i]}
		}
		line.AddSeries(s.Name, data)
	}
	return line
}

func extremaChart(title string, st stats.Statistics) *charts.Bar {
	names := make([]string, 0, len(st))
	for name := range st {
		names = append(names, name)
	}
	slices.Sort(names)

	maxes := make([]opts.BarData, len(names))
	mins := make([]opts.BarData, len(names))
	for i, name := range names {
		maxes[i] = opts.BarData{Value: st[name].Max}
		mins[i] = opts.BarData{Value: st[name].Min}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("max", maxes).
		AddSeries("min", mins)
	return bar
}
