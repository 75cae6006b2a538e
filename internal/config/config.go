// Package config defines session configuration and its validation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/ayusman/repcoach/internal/keypoints"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/reps"
	"github.com/ayusman/repcoach/internal/similarity"
)

// Error is a configuration problem detected at session start. It is fatal
// for the session and never retried.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Field: field, Err: fmt.Errorf(format, args...)}
}

// IsConfigError reports whether err is or wraps a *Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Mode selects what a session does with each frame.
type Mode string

const (
	// ModeLive tracks angles, distances and repetitions on a webcam.
	ModeLive Mode = "live"
	// ModeCompare scores the performer against a reference sequence.
	ModeCompare Mode = "compare"
	// ModeAnalyze collects angle and distance extrema from a video file.
	ModeAnalyze Mode = "analyze"
)

// Reps configures repetition counting on one joint.
type Reps struct {
	Joint          string  `json:"joint"`
	MinAngle       float64 `json:"min_angle"`
	MaxAngle       float64 `json:"max_angle"`
	UpperThreshold float64 `json:"upper_threshold"`
	LowerThreshold float64 `json:"lower_threshold"`
}

// Session is the full configuration of one session.
type Session struct {
	Mode      Mode     `json:"mode"`
	Joints    []string `json:"joints,omitempty"`
	Distances []string `json:"distances,omitempty"`
	Reps      *Reps    `json:"reps,omitempty"`

	// DurationSeconds bounds a live session by wall-clock time.
	DurationSeconds int `json:"duration_seconds,omitempty"`

	// Input is the performer's video. Empty means the webcam CameraID.
	Input    string `json:"input,omitempty"`
	CameraID int    `json:"camera_id,omitempty"`

	// ReferenceVideo is played next to the performer in compare mode.
	ReferenceVideo string `json:"reference_video,omitempty"`
	// Reference is the keypoints file. Defaults to the file next to
	// ReferenceVideo.
	Reference string `json:"reference,omitempty"`

	MaxDistance float64 `json:"max_distance,omitempty"`
	// MatchThreshold is the ratio at or above which the performer is on
	// pose. nil means the default; 0 accepts every scored frame.
	MatchThreshold *float64 `json:"match_threshold,omitempty"`

	// Mirror flips frames horizontally before detection. Defaults to true
	// for the webcam in live mode and false otherwise. In compare mode a
	// mirrored pose is flipped back before scoring.
	Mirror *bool `json:"mirror,omitempty"`
	// Orientation picks the catalog side. Defaults to flipped when
	// mirrored and original otherwise.
	Orientation pose.Orientation `json:"orientation,omitempty"`

	// MotionThreshold enables the motion gate when positive: frames with
	// fewer changed pixels (percent) skip detection.
	MotionThreshold float64 `json:"motion_threshold,omitempty"`
}

// DefaultSession returns a session for mode with the defaults applied.
func DefaultSession(mode Mode) Session {
	s := Session{Mode: mode}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills unset optional fields.
func (s *Session) ApplyDefaults() {
	d := similarity.DefaultConfig()
	if s.MaxDistance == 0 {
		s.MaxDistance = d.MaxDistance
	}
	if s.MatchThreshold == nil {
		s.MatchThreshold = Float(d.MatchThreshold)
	}
	if s.Mode == ModeLive && s.DurationSeconds == 0 {
		s.DurationSeconds = 30
	}
	if s.Mirror == nil {
		mirror := s.Input == "" && s.Mode != ModeCompare
		s.Mirror = &mirror
	}
	if s.Orientation == "" {
		if *s.Mirror {
			s.Orientation = pose.Flipped
		} else {
			s.Orientation = pose.Original
		}
	}
	if s.Reference == "" && s.ReferenceVideo != "" {
		s.Reference = keypoints.PathFor(s.ReferenceVideo)
	}
	// The smaller angle is always the 100% end of the movement.
	if r := s.Reps; r != nil && r.MinAngle > r.MaxAngle {
		r.MinAngle, r.MaxAngle = r.MaxAngle, r.MinAngle
	}
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}

// Mirrored reports whether frames are flipped before detection.
func (s *Session) Mirrored() bool {
	return s.Mirror != nil && *s.Mirror
}

// Duration returns the wall-clock limit, or 0 for none.
func (s *Session) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// Similarity returns the scorer calibration.
func (s *Session) Similarity() similarity.Config {
	c := similarity.Config{MaxDistance: s.MaxDistance}
	if s.MatchThreshold != nil {
		c.MatchThreshold = *s.MatchThreshold
	}
	return c
}

// Validate checks the session against a catalog. The returned error, when
// not nil, is a *Error naming the offending field.
func (s *Session) Validate(cat *pose.Catalog) error {
	switch s.Mode {
	case ModeLive, ModeCompare, ModeAnalyze:
	default:
		return invalid("mode", "unknown mode %q", s.Mode)
	}

	if _, err := pose.ParseOrientation(string(s.Orientation)); err != nil {
		return &Error{Field: "orientation", Err: err}
	}

	for _, name := range s.Joints {
		if _, ok := cat.Joint(name, pose.Original); !ok {
			return invalid("joints", "unknown joint %q", name)
		}
	}
	for _, name := range s.Distances {
		if _, ok := cat.Segment(name, pose.Original); !ok {
			return invalid("distances", "unknown distance %q", name)
		}
	}

	if s.Reps != nil {
		if err := s.validateReps(); err != nil {
			return err
		}
	}

	switch s.Mode {
	case ModeLive:
		if s.DurationSeconds <= 0 {
			return invalid("duration_seconds", "must be positive, got %d", s.DurationSeconds)
		}
	case ModeAnalyze:
		if s.Input == "" {
			return invalid("input", "analyze mode needs a video file")
		}
	case ModeCompare:
		if s.Reference == "" {
			return invalid("reference", "compare mode needs a reference keypoints file or video")
		}
		if s.MaxDistance <= 0 {
			return invalid("max_distance", "must be positive, got %v", s.MaxDistance)
		}
		if t := s.MatchThreshold; t != nil && (*t < 0 || *t > 1) {
			return invalid("match_threshold", "must be within [0,1], got %v", *t)
		}
	}

	return nil
}

func (s *Session) validateReps() error {
	r := s.Reps
	if s.Mode != ModeLive {
		return invalid("reps", "repetition counting is only available in live mode")
	}
	if !slices.Contains(s.Joints, r.Joint) {
		return invalid("reps.joint", "%q must be one of the selected joints", r.Joint)
	}
	if r.MinAngle == r.MaxAngle {
		return invalid("reps.min_angle", "must differ from max_angle (both %v)", r.MinAngle)
	}
	if _, err := reps.NewCounter(r.UpperThreshold, r.LowerThreshold); err != nil {
		return &Error{Field: "reps.upper_threshold", Err: err}
	}
	return nil
}

// Load reads a session from a JSON file, applies defaults and validates it
// against the default catalog.
func Load(path string) (*Session, error) {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".json" {
		return nil, invalid("path", "session file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(clean)
	if err != nil {
		return nil, &Error{Field: "path", Err: err}
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return nil, invalid("path", "session file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, &Error{Field: "path", Err: err}
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &Error{Field: "path", Err: fmt.Errorf("parse session JSON: %w", err)}
	}

	s.ApplyDefaults()
	if err := s.Validate(pose.Default); err != nil {
		return nil, err
	}
	return &s, nil
}
