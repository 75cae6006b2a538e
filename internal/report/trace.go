// Package report turns session results into per-frame traces, summary
// statistics, PNG plots and HTML charts.
package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/repcoach/internal/session"
)

// Series is the per-frame values of one joint angle or distance.
type Series struct {
	Name   string    `json:"name"`
	Frames []int     `json:"frames"`
	Values []float64 `json:"values"`
}

// Trace collects series from session results. Frames without a value for a
// name (pose misses, degenerate geometry) leave a gap in that series.
type Trace struct {
	series map[string]*Series
	order  []string
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{series: make(map[string]*Series)}
}

// Add appends a value for name at frame.
func (t *Trace) Add(name string, frame int, v float64) {
	s, ok := t.series[name]
	if !ok {
		s = &Series{Name: name}
		t.series[name] = s
		t.order = append(t.order, name)
	}
	s.Frames = append(s.Frames, frame)
	s.Values = append(s.Values, v)
}

// Observe records the angles and distances of a result.
func (t *Trace) Observe(res *session.Result) {
	if res == nil || !res.PoseDetected {
		return
	}
	// map order is random; keep series creation deterministic per frame
	for _, name := range sortedKeys(res.Angles) {
		t.Add(name, res.Index, res.Angles[name])
	}
	for _, name := range sortedKeys(res.Distances) {
		t.Add(name, res.Index, res.Distances[name])
	}
}

// Series returns the series for name.
func (t *Trace) Series(name string) (*Series, bool) {
	s, ok := t.series[name]
	return s, ok
}

// Names returns the series names in creation order.
func (t *Trace) Names() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of series.
func (t *Trace) Len() int {
	return len(t.order)
}

// FromSeries rebuilds a trace from stored series.
func FromSeries(series []Series) *Trace {
	t := NewTrace()
	for _, s := range series {
		for i := range s.Values {
			t.Add(s.Name, s.Frames[i], s.Values[i])
		}
	}
	return t
}

// All returns copies of every series in creation order.
func (t *Trace) All() []Series {
	out := make([]Series, 0, len(t.order))
	for _, name := range t.order {
		s := t.series[name]
		out = append(out, Series{
			Name:   s.Name,
			Frames: append([]int(nil), s.Frames...),
			Values: append([]float64(nil), s.Values...),
		})
	}
	return out
}

// SeriesSummary describes the distribution of one series.
type SeriesSummary struct {
	Name    string  `json:"name"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Summarize returns one summary per series in creation order. The standard
// deviation of a single sample is 0.
func (t *Trace) Summarize() []SeriesSummary {
	out := make([]SeriesSummary, 0, len(t.order))
	for _, name := range t.order {
		v := t.series[name].Values
		sum := SeriesSummary{
			Name:    name,
			Samples: len(v),
			Min:     floats.Min(v),
			Max:     floats.Max(v),
		}
		if len(v) > 1 {
			sum.Mean, sum.StdDev = stat.MeanStdDev(v, nil)
		} else {
			sum.Mean = v[0]
		}
		out = append(out, sum)
	}
	return out
}
