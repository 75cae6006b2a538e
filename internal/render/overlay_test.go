package render

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/reps"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/similarity"
	"github.com/ayusman/repcoach/internal/stats"
)

func blank(w, h int) gocv.Mat {
	return gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
}

func painted(t *testing.T, m gocv.Mat) int {
	t.Helper()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(m, &gray, gocv.ColorBGRToGray)
	return gocv.CountNonZero(gray)
}

func armOverlay(mode config.Mode, w, h int) *session.Overlay {
	px := detector.ArmCurlPose(90).Scale(float64(w), float64(h))
	return &session.Overlay{
		Mode: mode,
		Pose: px,
		Joints: []session.JointReading{{
			Name:   "LEFT_ELBOW",
			Angle:  90,
			Points: [3]pose.Landmark{px[pose.LeftShoulder], px[pose.LeftElbow], px[pose.LeftWrist]},
		}},
	}
}

func TestAnnotate_EmptyFrame(t *testing.T) {
	r := New(DefaultStyle())
	m := gocv.NewMat()
	defer m.Close()

	if err := r.Annotate(&m, &session.Overlay{Mode: config.ModeLive}); err != ErrEmptyFrame {
		t.Errorf("Annotate() error = %v, want ErrEmptyFrame", err)
	}
}

func TestAnnotate_Modes(t *testing.T) {
	const w, h = 640, 480

	tests := []struct {
		name     string
		overlay  func() *session.Overlay
		wantSize image.Point
	}{
		{
			name: "live with reps",
			overlay: func() *session.Overlay {
				o := armOverlay(config.ModeLive, w, h)
				o.Reps = &session.RepsReading{
					Update:     reps.Update{State: reps.State{Direction: reps.Up, Count: 3.5}, Zone: reps.Top},
					Angle:      40,
					Percentage: 95,
				}
				return o
			},
			wantSize: image.Pt(w, h),
		},
		{
			name: "analyze table",
			overlay: func() *session.Overlay {
				o := armOverlay(config.ModeAnalyze, w, h)
				o.AngleNames = []string{"LEFT_ELBOW"}
				o.AngleStats = stats.Statistics{"LEFT_ELBOW": {Max: 170, Min: 35}}
				return o
			},
			wantSize: image.Pt(w, h),
		},
		{
			name: "compare without reference adds status bar",
			overlay: func() *session.Overlay {
				o := armOverlay(config.ModeCompare, w, h)
				o.Match = &session.MatchReading{
					Result:  similarity.Result{Ratio: 0.8, OnPose: true},
					Message: similarity.OnPoseMessage,
				}
				return o
			},
			wantSize: image.Pt(w, h+DefaultStyle().StatusBarHeight),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := blank(w, h)
			defer frame.Close()

			if err := New(DefaultStyle()).Annotate(&frame, tt.overlay()); err != nil {
				t.Fatalf("Annotate() error = %v", err)
			}
			if got := image.Pt(frame.Cols(), frame.Rows()); got != tt.wantSize {
				t.Errorf("frame size = %v, want %v", got, tt.wantSize)
			}
			if painted(t, frame) == 0 {
				t.Error("nothing was drawn")
			}
		})
	}
}

func TestAnnotate_CompareSideBySide(t *testing.T) {
	const w, h = 320, 240
	frame := blank(w, h)
	defer frame.Close()
	ref := blank(640, 480)
	defer ref.Close()

	o := armOverlay(config.ModeCompare, w, h)
	o.Reference = &ref

	if err := New(DefaultStyle()).Annotate(&frame, o); err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}

	bar := DefaultStyle().StatusBarHeight
	if frame.Cols() != 2*w || frame.Rows() != h+bar {
		t.Errorf("combined size = %dx%d, want %dx%d", frame.Cols(), frame.Rows(), 2*w, h+bar)
	}
}

func TestSideBySide_PadsShorterImage(t *testing.T) {
	left := blank(100, 50)
	defer left.Close()
	right := blank(60, 80)
	defer right.Close()

	out, err := SideBySide(left, right)
	if err != nil {
		t.Fatalf("SideBySide() error = %v", err)
	}
	defer out.Close()

	if out.Cols() != 160 || out.Rows() != 80 {
		t.Errorf("size = %dx%d, want 160x80", out.Cols(), out.Rows())
	}
}

func TestZoneColor(t *testing.T) {
	if ZoneColor(reps.Top) != Green || ZoneColor(reps.Bottom) != Red || ZoneColor(reps.Neutral) != White {
		t.Error("unexpected zone colours")
	}
}
