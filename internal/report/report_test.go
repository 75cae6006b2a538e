package report

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/stats"
)

func sampleTrace() *Trace {
	t := NewTrace()
	results := []*session.Result{
		{Index: 0, PoseDetected: true, Angles: map[string]float64{"LEFT_ELBOW": 160, "LEFT_KNEE": 175}},
		{Index: 1},
		{Index: 2, PoseDetected: true, Angles: map[string]float64{"LEFT_ELBOW": 40, "LEFT_KNEE": 170}},
		{Index: 3, PoseDetected: true, Angles: map[string]float64{"LEFT_ELBOW": 100}, Distances: map[string]float64{"HIP_WIDTH": 80}},
	}
	for _, r := range results {
		t.Observe(r)
	}
	return t
}

func TestTrace_Observe(t *testing.T) {
	tr := sampleTrace()

	assert.Equal(t, []string{"LEFT_ELBOW", "LEFT_KNEE", "HIP_WIDTH"}, tr.Names())

	elbow, ok := tr.Series("LEFT_ELBOW")
	require.True(t, ok)
	want := &Series{Name: "LEFT_ELBOW", Frames: []int{0, 2, 3}, Values: []float64{160, 40, 100}}
	if diff := cmp.Diff(want, elbow); diff != "" {
		t.Errorf("elbow series mismatch (-want +got):\n%s", diff)
	}
}

func TestTrace_Summarize(t *testing.T) {
	sums := sampleTrace().Summarize()
	require.Len(t, sums, 3)

	elbow := sums[0]
	assert.Equal(t, 3, elbow.Samples)
	assert.InDelta(t, 100, elbow.Mean, 1e-9)
	assert.InDelta(t, 60, elbow.StdDev, 1e-9)
	assert.Equal(t, 40.0, elbow.Min)
	assert.Equal(t, 160.0, elbow.Max)

	hip := sums[2]
	assert.Equal(t, 1, hip.Samples)
	assert.Equal(t, 80.0, hip.Mean)
	assert.Equal(t, 0.0, hip.StdDev)
	assert.False(t, math.IsNaN(hip.StdDev))
}

func TestFromSeries_RoundTrip(t *testing.T) {
	tr := sampleTrace()
	back := FromSeries(tr.All())
	if diff := cmp.Diff(tr.All(), back.All()); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePlot(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultPlotOptions()
	opts.Names = []string{"LEFT_ELBOW", "LEFT_KNEE"}
	require.NoError(t, WritePlot(&buf, sampleTrace(), opts))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestWritePlot_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WritePlot(&buf, NewTrace(), DefaultPlotOptions()), ErrEmptyTrace)

	opts := DefaultPlotOptions()
	opts.Names = []string{"RIGHT_HIP"}
	assert.Error(t, WritePlot(&buf, sampleTrace(), opts))
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, ChartData{
		Title:    "Session 42",
		Trace:    sampleTrace(),
		Angles:   stats.Statistics{"LEFT_ELBOW": {Max: 160, Min: 40}},
		Distance: stats.Statistics{"HIP_WIDTH": {Max: 80, Min: 80}},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.True(t, strings.Contains(html, "LEFT_ELBOW"))
	assert.True(t, strings.Contains(html, "Distance extrema"))
}

func TestRenderChart_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderChart(&buf, ChartData{Title: "x"}), ErrEmptyTrace)
}
