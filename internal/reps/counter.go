// Package reps counts exercise repetitions from a joint angle stream.
package reps

import (
	"errors"
	"fmt"
)

// ErrThresholds is returned when the zone thresholds are not ordered
// 0 <= lower < upper <= 100.
var ErrThresholds = errors.New("thresholds must satisfy 0 <= lower < upper <= 100")

// Direction records which zone the last counted crossing entered.
type Direction int

const (
	// Down means the last crossing entered the bottom zone. Counting starts here.
	Down Direction = 0
	// Up means the last crossing entered the top zone.
	Up Direction = 1
)

// Zone is the band the current percentage falls into.
type Zone int

const (
	Neutral Zone = iota
	Top
	Bottom
)

func (z Zone) String() string {
	switch z {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return "neutral"
	}
}

// State is the counter state after an update.
type State struct {
	Direction Direction `json:"direction"`
	Count     float64   `json:"count"`
}

// Update is the outcome of feeding one percentage to the counter.
type Update struct {
	State
	Zone Zone `json:"zone"`
}

// Counter is a hysteresis counter. Each entry into the top or bottom zone
// coming from the opposite one adds half a repetition, so one full
// bottom-top-bottom cycle counts 1.0. Percentages between the thresholds
// never change the state.
type Counter struct {
	upper float64
	lower float64
	state State
}

// NewCounter creates a counter with the given zone thresholds in percent.
func NewCounter(upper, lower float64) (*Counter, error) {
	if lower < 0 || upper > 100 || lower >= upper {
		return nil, fmt.Errorf("upper=%v lower=%v: %w", upper, lower, ErrThresholds)
	}
	return &Counter{upper: upper, lower: lower}, nil
}

// Update feeds one percentage sample and returns the resulting state.
func (c *Counter) Update(percentage float64) Update {
	zone := Neutral

	switch {
	case percentage >= c.upper:
		zone = Top
		if c.state.Direction == Down {
			c.state.Count += 0.5
			c.state.Direction = Up
		}
	case percentage <= c.lower:
		zone = Bottom
		if c.state.Direction == Up {
			c.state.Count += 0.5
			c.state.Direction = Down
		}
	}

	return Update{State: c.state, Zone: zone}
}

// State returns the current state without changing it.
func (c *Counter) State() State {
	return c.state
}

// Thresholds returns the configured upper and lower thresholds.
func (c *Counter) Thresholds() (upper, lower float64) {
	return c.upper, c.lower
}

// Percentage remaps an angle linearly onto [0, 100]: minAngle maps to 100
// and maxAngle to 0. Angles outside the range are clamped to the ends.
func Percentage(angle, minAngle, maxAngle float64) float64 {
	return Interp(angle, minAngle, maxAngle, 100, 0)
}

// Interp maps x from [x0, x1] onto [y0, y1] and clamps to the endpoints.
// x0 must be less than x1; equal bounds return y0.
func Interp(x, x0, x1, y0, y1 float64) float64 {
	if x1 <= x0 || x <= x0 {
		return y0
	}
	if x >= x1 {
		return y1
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
