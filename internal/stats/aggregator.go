// Package stats accumulates per-session extrema of joint angles and distances.
package stats

import "math"

// Extrema holds the running maximum and minimum of a named value.
type Extrema struct {
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Statistics maps a joint or distance name to its extrema.
type Statistics map[string]Extrema

// Aggregator tracks extrema for named values. A name appears only after its
// first observation. It is not safe for concurrent use.
type Aggregator struct {
	values map[string]Extrema
	order  []string
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{values: make(map[string]Extrema)}
}

// Observe tightens the extrema of name with value. NaN values are ignored.
func (a *Aggregator) Observe(name string, value float64) {
	if math.IsNaN(value) {
		return
	}

	e, ok := a.values[name]
	if !ok {
		e = Extrema{Max: math.Inf(-1), Min: math.Inf(1)}
		a.order = append(a.order, name)
	}
	e.Max = math.Max(e.Max, value)
	e.Min = math.Min(e.Min, value)
	a.values[name] = e
}

// Get returns the extrema for name and whether it was observed.
func (a *Aggregator) Get(name string) (Extrema, bool) {
	e, ok := a.values[name]
	return e, ok
}

// Names returns observed names in first-observation order.
func (a *Aggregator) Names() []string {
	return append([]string(nil), a.order...)
}

// Snapshot returns a copy of the current statistics.
func (a *Aggregator) Snapshot() Statistics {
	s := make(Statistics, len(a.values))
	for k, v := range a.values {
		s[k] = v
	}
	return s
}

// Len returns the number of observed names.
func (a *Aggregator) Len() int {
	return len(a.values)
}
