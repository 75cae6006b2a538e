package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/server"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
	"github.com/ayusman/repcoach/testdata"
)

// newApp returns an App reading square blank frames and detecting poses in
// order, one per frame.
func newApp(t *testing.T, cfg app.Config, poses []pose.Pose) *app.App {
	t.Helper()

	frames := testdata.BlankFrames(len(poses), 160, 160)
	t.Cleanup(func() { testdata.CloseFrames(frames) })

	a := app.New(cfg)
	a.SetDetectorFactory(func() (detector.Detector, error) {
		det := detector.NewMockDetector()
		det.SetSequence(poses)
		return det, nil
	})
	a.SetSourceFactory(func(config.Session) (session.Sources, error) {
		return session.Sources{Live: capture.NewMockCamera(frames, false)}, nil
	})
	return a
}

func curls(angles ...float64) []pose.Pose {
	poses := make([]pose.Pose, len(angles))
	for i, a := range angles {
		poses[i] = detector.ArmCurlPose(a)
	}
	return poses
}

func TestE2E_LiveRepsToDashboard(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	application := newApp(t, app.Config{
		Store:     s,
		PluginDir: filepath.Join(tmpDir, "plugins"),
	}, curls(170, 30, 170, 30, 170))

	cfg := config.Session{
		Mode:   config.ModeLive,
		Joints: []string{"LEFT_ELBOW"},
		Reps: &config.Reps{
			Joint:          "LEFT_ELBOW",
			MinAngle:       30,
			MaxAngle:       160,
			UpperThreshold: 90,
			LowerThreshold: 10,
		},
	}

	var counts []float64
	rec, err := application.RunSession(context.Background(), cfg, func(res *session.Result) bool {
		if res.Reps != nil {
			counts = append(counts, res.Reps.Count)
		}
		return true
	})
	if err != nil {
		t.Fatalf("RunSession() error = %v", err)
	}

	if want := []float64{0, 0.5, 1, 1.5, 2}; !slices.Equal(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}
	if rec.Reps != 2 {
		t.Errorf("record reps = %v, want 2", rec.Reps)
	}

	srv := server.New(server.Config{Store: s, App: application})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	t.Run("SessionListed", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions?mode=live")
		if err != nil {
			t.Fatalf("list sessions error = %v", err)
		}
		defer resp.Body.Close()

		var listed struct {
			Sessions []struct {
				ID   string  `json:"id"`
				Reps float64 `json:"reps"`
			} `json:"sessions"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)
		if len(listed.Sessions) != 1 || listed.Sessions[0].ID != rec.ID || listed.Sessions[0].Reps != 2 {
			t.Errorf("sessions = %+v", listed.Sessions)
		}
	})

	t.Run("ChartRendered", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/" + rec.ID + "/chart")
		if err != nil {
			t.Fatalf("chart error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("chart status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})
}

func TestE2E_CompareAgainstReference(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	ref, err := testdata.Reference("squat")
	if err != nil {
		t.Fatalf("load reference: %v", err)
	}
	raw, _ := testdata.ReferenceBytes("squat")

	tmpDir := t.TempDir()
	refPath := filepath.Join(tmpDir, "squat.json")
	if err := os.WriteFile(refPath, raw, 0644); err != nil {
		t.Fatal(err)
	}

	// the performer copies the reference exactly, twice over
	poses := append(append([]pose.Pose{}, ref...), ref...)
	application := newApp(t, app.Config{PluginDir: filepath.Join(tmpDir, "plugins")}, poses)

	var indices []int
	rec, err := application.RunSession(context.Background(), config.Session{
		Mode:      config.ModeCompare,
		Input:     "performer.mp4",
		Reference: refPath,
	}, func(res *session.Result) bool {
		if res.Match == nil {
			t.Fatalf("frame %d has no match reading", res.Index)
		}
		indices = append(indices, res.Match.Index)
		if res.Match.Alert {
			t.Errorf("frame %d: unexpected alert %q", res.Index, res.Match.Message)
		}
		return true
	})
	if err != nil {
		t.Fatalf("RunSession() error = %v", err)
	}

	for i, idx := range indices {
		if idx != i%len(ref) {
			t.Errorf("frame %d compared with reference %d, want %d", i, idx, i%len(ref))
		}
	}
	if rec.MeanMatch != 1 {
		t.Errorf("mean match = %v, want 1", rec.MeanMatch)
	}
}

func TestE2E_SessionHookRunsPlugin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin on Windows")
	}

	tmpDir := t.TempDir()
	pluginDir := filepath.Join(tmpDir, "plugins", "recorder")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(tmpDir, "hook.json")
	script := "#!/bin/sh\ncat > '" + out + "'\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","events":["session.finished"]}`
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	application := newApp(t, app.Config{PluginDir: filepath.Join(tmpDir, "plugins")}, curls(90, 90))
	if err := application.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}

	rec, err := application.RunSession(context.Background(), config.Session{
		Mode:   config.ModeAnalyze,
		Input:  "clip.mp4",
		Joints: []string{"RIGHT_ELBOW"},
	}, nil)
	if err != nil {
		t.Fatalf("RunSession() error = %v", err)
	}

	var req struct {
		Event     string `json:"event"`
		SessionID string `json:"session_id"`
		Payload   struct {
			Mode   string `json:"mode"`
			Frames int    `json:"frames"`
			Source string `json:"source"`
		} `json:"payload"`
	}

	deadline := time.Now().Add(5 * time.Second)
	var data []byte
	for {
		data, err = os.ReadFile(out)
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("hook output missing: %v", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("hook received invalid JSON %s: %v", data, err)
	}

	if req.Event != "session.finished" || req.SessionID != rec.ID {
		t.Errorf("request = %+v, want session.finished for %s", req, rec.ID)
	}
	if req.Payload.Mode != "analyze" || req.Payload.Frames != 2 || req.Payload.Source != "clip.mp4" {
		t.Errorf("payload = %+v", req.Payload)
	}
}
