// Package main provides a session hook that shows a desktop notification
// with the result of a finished session. It uses AppleScript on macOS and
// notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
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

type sessionPayload struct {
	Mode      string  `json:"mode"`
	Frames    int     `json:"frames"`
	Reps      float64 `json:"reps"`
	MeanMatch float64 `json:"mean_match"`
}

type extractPayload struct {
	Video  string `json:"video"`
	Output string `json:"output"`
	Frames int    `json:"frames"`
}

// eventHandlers maps events to functions building the notification text.
var eventHandlers = map[string]func(json.RawMessage) (string, error){
	"session.finished":    sessionMessage,
	"reference.extracted": extractMessage,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := eventHandlers[req.Event]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}

	msg, err := handler(req.Payload)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("event %s failed: %v", req.Event, err))
		return
	}

	if err := notify("repcoach", msg); err != nil {
		writeErrorResponse(fmt.Sprintf("notify failed: %v", err))
		return
	}

	writeSuccessResponse()
}

func sessionMessage(raw json.RawMessage) (string, error) {
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", err
	}
	switch p.Mode {
	case "live":
		return fmt.Sprintf("Workout done: %d reps", int(p.Reps)), nil
	case "compare":
		return fmt.Sprintf("Follow-along done: %d%% match", int(p.MeanMatch*100)), nil
	default:
		return fmt.Sprintf("Analysis done: %d frames", p.Frames), nil
	}
}

func extractMessage(raw json.RawMessage) (string, error) {
	var p extractPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", err
	}
	return fmt.Sprintf("Reference ready: %s (%d frames)", p.Output, p.Frames), nil
}

func notify(title, msg string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %s with title %s", strconv.Quote(msg), strconv.Quote(title))
		cmd = exec.Command("osascript", "-e", script)
	} else {
		cmd = exec.Command("notify-send", title, msg)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
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
