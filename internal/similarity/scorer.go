// Package similarity scores a live pose against a recorded reference
// sequence that loops in step with its video.
package similarity

import (
	"errors"
	"fmt"

	"github.com/ayusman/repcoach/internal/pose"
)

// ErrEmptySequence is returned when a reference sequence has no frames.
var ErrEmptySequence = errors.New("reference sequence is empty")

// ErrNoPose is returned when no frame of a reference sequence has a person.
var ErrNoPose = errors.New("reference sequence has no detected pose")

// Config holds scoring calibration.
type Config struct {
	// MaxDistance is the average landmark distance, in normalized units,
	// at which the ratio reaches 0.
	MaxDistance float64

	// MatchThreshold is the ratio below which the performer is off-pose.
	MatchThreshold float64
}

// DefaultConfig returns the calibration used for normalized MediaPipe poses.
func DefaultConfig() Config {
	return Config{
		MaxDistance:    0.5,
		MatchThreshold: 0.1,
	}
}

// Sequence is an ordered list of detected poses, one per reference video frame.
type Sequence []pose.Pose

// Validate checks that the sequence is non-empty and every frame is either
// a full skeleton or empty. An empty frame is a video frame without a person
// and keeps later frames at their video index. At least one frame must hold a
// skeleton.
func (s Sequence) Validate() error {
	if len(s) == 0 {
		return ErrEmptySequence
	}
	detected := 0
	for i, p := range s {
		switch {
		case p.Detected():
			detected++
		case len(p) != 0:
			return fmt.Errorf("frame %d has %d landmarks, expected 0 or %d", i, len(p), pose.NumLandmarks)
		}
	}
	if detected == 0 {
		return ErrNoPose
	}
	return nil
}

// Result is the outcome of scoring one live frame.
type Result struct {
	// Index is the reference frame the live pose was compared with.
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
	Ratio    float64 `json:"ratio"`
	OnPose   bool    `json:"on_pose"`
	// Scored is false when the reference frame had no person. The cursor
	// still advanced and the other fields are zero.
	Scored bool `json:"scored"`
}

// Scorer compares live poses against a reference sequence with a cyclic
// cursor. By default the cursor wraps to 0 after the last frame. When a
// reference video is played alongside, call SetWrap(false) and Reset on every
// video rewind so the video alone decides where the loop restarts. It is not
// safe for concurrent use.
type Scorer struct {
	cfg    Config
	ref    Sequence
	cursor int
	wrap   bool
}

// NewScorer validates the sequence and the calibration and returns a Scorer
// positioned at frame 0.
func NewScorer(ref Sequence, cfg Config) (*Scorer, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxDistance <= 0 {
		return nil, fmt.Errorf("max distance must be positive, got %v", cfg.MaxDistance)
	}
	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 1 {
		return nil, fmt.Errorf("match threshold must be within [0,1], got %v", cfg.MatchThreshold)
	}
	return &Scorer{cfg: cfg, ref: ref, wrap: true}, nil
}

// Score compares live with the reference frame under the cursor and advances
// the cursor.
func (s *Scorer) Score(live pose.Pose) (Result, error) {
	if !live.Detected() {
		return Result{}, fmt.Errorf("live pose has %d landmarks, expected %d", len(live), pose.NumLandmarks)
	}

	index := s.next()
	if index >= len(s.ref) || !s.ref[index].Detected() {
		return Result{Index: index}, nil
	}

	dist := AverageDistance(live, s.ref[index])
	ratio := Ratio(dist, s.cfg.MaxDistance)

	return Result{
		Index:    index,
		Distance: dist,
		Ratio:    ratio,
		OnPose:   ratio >= s.cfg.MatchThreshold,
		Scored:   true,
	}, nil
}

// Skip advances the cursor without scoring. Used for frames without a
// detected pose so the cursor keeps pace with the reference video.
func (s *Scorer) Skip() int {
	return s.next()
}

// next returns the index to use and advances. Without wrapping the index
// keeps growing past the last frame until Reset; such frames are not scored.
func (s *Scorer) next() int {
	if s.wrap && s.cursor >= len(s.ref) {
		s.cursor = 0
	}
	index := s.cursor
	s.cursor++
	return index
}

// SetWrap controls whether the cursor returns to 0 by itself after the last
// frame.
func (s *Scorer) SetWrap(wrap bool) {
	s.wrap = wrap
}

// Reset rewinds the cursor to the first reference frame.
func (s *Scorer) Reset() {
	s.cursor = 0
}

// Cursor returns the reference index the next Score call will use.
func (s *Scorer) Cursor() int {
	if s.wrap && s.cursor >= len(s.ref) {
		return 0
	}
	return s.cursor
}

// Len returns the reference sequence length.
func (s *Scorer) Len() int {
	return len(s.ref)
}

// Config returns the scorer calibration.
func (s *Scorer) Config() Config {
	return s.cfg
}

// AverageDistance returns the mean 3D distance between corresponding
// landmarks. Both poses must have the same length.
func AverageDistance(a, b pose.Pose) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		total += pose.Distance3D(a[i], b[i])
	}
	return total / float64(n)
}

// Ratio converts an average distance into a match ratio in [0, 1].
func Ratio(distance, maxDistance float64) float64 {
	r := 1 - distance/maxDistance
	return max(0, min(1, r))
}
