// Package main provides a session hook that appends every finished session
// to a CSV workout log.
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Config    json.RawMessage `json:"config"`
	Payload   json.RawMessage `json:"payload"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is read from the manifest.
type Config struct {
	// File is the CSV path, relative to the plugin directory.
	File string `json:"file"`
}

// Summary holds the session fields written to the log.
type Summary struct {
	Mode      string    `json:"mode"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Frames    int       `json:"frames"`
	Reps      float64   `json:"reps"`
	MeanMatch float64   `json:"mean_match"`
}

var header = []string{"session_id", "mode", "source", "started_at", "seconds", "frames", "reps", "mean_match"}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "session.finished" {
		writeErrorResponse(fmt.Sprintf("unsupported event: %s", req.Event))
		return
	}

	cfg := Config{File: "workouts.csv"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	var s Summary
	if err := json.Unmarshal(req.Payload, &s); err != nil {
		writeErrorResponse(fmt.Sprintf("invalid payload: %v", err))
		return
	}

	if err := appendRow(cfg.File, record(req.SessionID, s)); err != nil {
		writeErrorResponse(fmt.Sprintf("write log: %v", err))
		return
	}

	writeSuccessResponse()
}

func record(id string, s Summary) []string {
	return []string{
		id,
		s.Mode,
		s.Source,
		s.StartedAt.Format(time.RFC3339),
		strconv.FormatFloat(s.EndedAt.Sub(s.StartedAt).Seconds(), 'f', 1, 64),
		strconv.Itoa(s.Frames),
		strconv.FormatFloat(s.Reps, 'f', 1, 64),
		strconv.FormatFloat(s.MeanMatch, 'f', 3, 64),
	}
}

// appendRow writes row to path, adding the header when the file is new.
func appendRow(path string, row []string) error {
	_, err := os.Stat(path)
	isNew := errors.Is(err, os.ErrNotExist)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
