package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

// newTestApp returns an App whose sessions read n blank frames and detect an
// arm curl in each of them.
func newTestApp(t *testing.T, s *store.Store, n int) *app.App {
	t.Helper()

	frames := make([]*gocv.Mat, n)
	poses := make([]pose.Pose, n)
	for i := range frames {
		m := gocv.NewMatWithSize(120, 120, gocv.MatTypeCV8UC3)
		frames[i] = &m
		poses[i] = detector.ArmCurlPose(40 + float64(i)*30)
	}
	t.Cleanup(func() {
		for _, m := range frames {
			m.Close()
		}
	})

	a := app.New(app.Config{Store: s, PluginDir: t.TempDir(), LibraryDir: t.TempDir()})
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

func TestAPI_LiveSessionWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	srv := New(Config{Store: s, App: newTestApp(t, s, 3)})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	// 1. Subscribe to session updates
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().clientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// 2. Start a session
	body := `{"mode":"analyze","input":"curls.mp4","joints":["LEFT_ELBOW"]}`
	resp, err := client.Post(ts.URL+"/api/live", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /api/live error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST /api/live status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	// 3. Read results until the session finishes
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var results int
	var record *app.Record
	for record == nil {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("websocket read error = %v", err)
		}
		switch msg.Type {
		case MessageResult:
			results++
			if _, ok := msg.Result.Angles["LEFT_ELBOW"]; !ok {
				t.Errorf("result %d has no LEFT_ELBOW angle", msg.Result.Index)
			}
		case MessageFinished:
			record = msg.Record
		case MessageError:
			t.Fatalf("session error: %s", msg.Error)
		}
	}
	if results != 3 || record.Frames != 3 {
		t.Errorf("got %d results and %d recorded frames, want 3", results, record.Frames)
	}

	// 4. The session is in the history
	resp, _ = client.Get(ts.URL + "/api/sessions")
	var listed struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != record.ID {
		t.Fatalf("sessions = %+v, want only %s", listed.Sessions, record.ID)
	}

	// 5. Its trace is available
	resp, _ = client.Get(ts.URL + "/api/sessions/" + record.ID + "/trace")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET trace status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 6. Delete it
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+record.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()
}

func TestAPI_LiveRejectsInvalidConfig(t *testing.T) {
	srv := New(Config{App: newTestApp(t, nil, 1)})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"unknown joint", `{"mode":"live","joints":["LEFT_TOE"]}`, http.StatusBadRequest},
		{"analyze without input", `{"mode":"analyze"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/live", bytes.NewBufferString(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/live", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("DELETE without a session: status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestStreamHandler_ServesLatestFrame(t *testing.T) {
	hub := NewHub(app.New(app.Config{}))
	hub.publish(&session.Result{Frame: []byte("jpeg-bytes")})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	NewStreamHandler(hub).ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %s", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: 10\r\n\r\njpeg-bytes\r\n") {
		t.Errorf("unexpected stream body %q", body)
	}
}
