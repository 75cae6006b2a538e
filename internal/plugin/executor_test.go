package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin and returns it.
func scriptPlugin(t *testing.T, name, script string, events ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Events:     events,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := scriptPlugin(t, "ok", `echo '{"success":true,"data":{"message":"logged"}}'`+"\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{
		Event:   EventSessionFinished,
		Payload: json.RawMessage(`{"reps":12}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("unexpected response: %+v", resp)
	}

	var data map[string]any
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "logged" {
		t.Errorf("expected message 'logged', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// echo the request back inside data
	p := scriptPlugin(t, "echo", "input=$(cat)\nprintf '{\"success\":true,\"data\":%s}' \"$input\"\n")
	p.Manifest.Config = json.RawMessage(`{"file":"log.csv"}`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{
		Event:     EventSessionFinished,
		SessionID: "abc",
		Payload:   json.RawMessage(`{"reps":3}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to decode echoed request: %v", err)
	}
	if got.Event != EventSessionFinished || got.SessionID != "abc" {
		t.Errorf("echoed request = %+v", got)
	}
	if string(got.Config) != `{"file":"log.csv"}` {
		t.Errorf("manifest config not forwarded, got %s", got.Config)
	}
	if string(got.Payload) != `{"reps":3}` {
		t.Errorf("payload = %s", got.Payload)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := scriptPlugin(t, "slow", "sleep 5\n")

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), p, &Request{Event: "x"})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("plugin was not killed at the timeout")
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{"invalid json", "echo 'not json'\n", "failed to parse plugin response"},
		{"non-zero exit", "echo 'boom' >&2\nexit 3\n", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, "fail", tt.script)
			_, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Event: "x"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	p := scriptPlugin(t, "refuse", `echo '{"success":false,"error":"disk full"}'`+"\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Event: "x"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Success || resp.Error != "disk full" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
