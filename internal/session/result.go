package session

import (
	"time"

	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/reps"
	"github.com/ayusman/repcoach/internal/similarity"
	"github.com/ayusman/repcoach/internal/stats"
)

// JointReading is one joint measured on the current frame, in pixels.
type JointReading struct {
	Name   string
	Angle  float64
	Points [3]pose.Landmark
}

// RepsReading is the counter output for the reps joint on the current frame.
type RepsReading struct {
	reps.Update
	Angle      float64 `json:"angle"`
	Percentage float64 `json:"percentage"`
}

// MatchReading is the similarity outcome for the current frame.
type MatchReading struct {
	similarity.Result
	Message string `json:"message"`
	Alert   bool   `json:"alert"`
}

// Result is what a pipeline produces for one frame.
type Result struct {
	Index        int           `json:"index"`
	Elapsed      time.Duration `json:"elapsed"`
	PoseDetected bool          `json:"pose_detected"`

	// Frame is the encoded annotated image, nil when no encoder is set.
	Frame []byte `json:"-"`

	// Angles holds this frame's joint angles by name.
	Angles    map[string]float64 `json:"angles,omitempty"`
	Distances map[string]float64 `json:"distances,omitempty"`

	AngleStats    stats.Statistics `json:"angle_stats"`
	DistanceStats stats.Statistics `json:"distance_stats"`

	Reps  *RepsReading  `json:"reps,omitempty"`
	Match *MatchReading `json:"match,omitempty"`
}

// Summary describes a finished or interrupted session.
type Summary struct {
	Mode          config.Mode      `json:"mode"`
	StartedAt     time.Time        `json:"started_at"`
	EndedAt       time.Time        `json:"ended_at"`
	Frames        int              `json:"frames"`
	Detected      int              `json:"detected"`
	Reps          float64          `json:"reps"`
	MeanMatch     float64          `json:"mean_match"`
	AngleStats    stats.Statistics `json:"angle_stats"`
	DistanceStats stats.Statistics `json:"distance_stats"`
}
