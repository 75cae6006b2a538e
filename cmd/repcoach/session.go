package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/report"
	"github.com/ayusman/repcoach/internal/session"
)

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

func runSession(mode string, args []string) error {
	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	var c common
	c.register(fs)

	var (
		configPath string
		joints     listFlag
		distances  listFlag
		camera     int
		duration   int
		reference  string
		show       bool
		chartPath  string
		plotPath   string
	)
	fs.StringVar(&configPath, "config", "", "session config JSON file")
	fs.Var(&joints, "joints", "comma separated joint angles to measure")
	fs.Var(&distances, "distances", "comma separated distances to measure")
	fs.IntVar(&camera, "camera", 0, "webcam device id")
	fs.IntVar(&duration, "duration", 0, "live session length in seconds")
	fs.StringVar(&reference, "reference", "", "reference keypoints file (compare)")
	fs.BoolVar(&show, "show", false, "show the annotated frames in a window")
	fs.StringVar(&chartPath, "chart", "", "write an HTML chart of the session")
	fs.StringVar(&plotPath, "plot", "", "write a PNG plot of the session")
	fs.Parse(args)

	cfg := config.Session{Mode: config.Mode(mode)}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
		if cfg.Mode != config.Mode(mode) {
			return fmt.Errorf("%s is a %s session config", configPath, cfg.Mode)
		}
	}
	if len(joints) > 0 {
		cfg.Joints = joints
	}
	if len(distances) > 0 {
		cfg.Distances = distances
	}
	if camera != 0 {
		cfg.CameraID = camera
	}
	if duration != 0 {
		cfg.DurationSeconds = duration
	}
	if fs.NArg() > 0 {
		switch mode {
		case "analyze":
			cfg.Input = fs.Arg(0)
		case "compare":
			// the keypoints default to the file next to the new video
			cfg.ReferenceVideo = fs.Arg(0)
			cfg.Reference = ""
		}
	}
	if reference != "" {
		cfg.Reference = reference
	}

	a, st, err := c.open()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()

	var onResult app.ResultFunc
	if show {
		window := gocv.NewWindow("RepCoach")
		defer window.Close()
		onResult = func(res *session.Result) bool {
			return showFrame(window, res)
		}
	}

	rec, err := a.RunSession(ctx, cfg, onResult)
	if err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			return fmt.Errorf("invalid session config: %w", err)
		}
		return err
	}

	printRecord(rec)

	trace := report.FromSeries(rec.Trace)
	if chartPath != "" {
		if err := writeChart(chartPath, rec, trace); err != nil {
			return err
		}
	}
	if plotPath != "" {
		if err := writePlot(plotPath, rec, trace); err != nil {
			return err
		}
	}
	return nil
}

// showFrame displays one annotated frame. Escape or q stops the session.
func showFrame(window *gocv.Window, res *session.Result) bool {
	if len(res.Frame) == 0 {
		return true
	}
	img, err := gocv.IMDecode(res.Frame, gocv.IMReadColor)
	if err != nil {
		return true
	}
	defer img.Close()

	window.IMShow(img)
	switch window.WaitKey(1) {
	case 27, 'q':
		return false
	}
	return true
}

func printRecord(rec *app.Record) {
	fmt.Printf("Session %s (%s)\n", rec.ID, rec.Mode)
	fmt.Printf("  source:   %s\n", rec.Source)
	fmt.Printf("  duration: %s\n", rec.EndedAt.Sub(rec.StartedAt).Round(time.Second/10))
	fmt.Printf("  frames:   %d (%d with a pose)\n", rec.Frames, rec.Detected)
	switch rec.Mode {
	case config.ModeLive:
		fmt.Printf("  reps:     %g\n", rec.Reps)
	case config.ModeCompare:
		fmt.Printf("  match:    %.0f%%\n", rec.MeanMatch*100)
	}
	for _, name := range sortedNames(rec.AngleStats) {
		e := rec.AngleStats[name]
		fmt.Printf("  %-18s min %6.1f  max %6.1f\n", name, e.Min, e.Max)
	}
	for _, name := range sortedNames(rec.DistanceStats) {
		e := rec.DistanceStats[name]
		fmt.Printf("  %-18s min %6.1f  max %6.1f\n", name, e.Min, e.Max)
	}
}

func writeChart(path string, rec *app.Record, trace *report.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	err = report.RenderChart(f, report.ChartData{
		Title:    fmt.Sprintf("%s session", rec.Mode),
		Subtitle: rec.Source,
		Trace:    trace,
		Angles:   rec.AngleStats,
		Distance: rec.DistanceStats,
	})
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	fmt.Printf("Chart written to %s\n", path)
	return nil
}

func writePlot(path string, rec *app.Record, trace *report.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := report.DefaultPlotOptions()
	opts.Title = fmt.Sprintf("%s session", rec.Mode)
	if err := report.WritePlot(f, trace, opts); err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	fmt.Printf("Plot written to %s\n", path)
	return nil
}
