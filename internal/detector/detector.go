// Package detector turns video frames into body poses.
package detector

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/pose"
)

// Detector defines the interface for pose detection backends.
type Detector interface {
	// Detect analyzes a video frame and returns the detected pose, or an
	// empty pose when nobody is in view.
	Detect(frame *gocv.Mat) (pose.Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Backend names accepted by New.
const (
	BackendMediaPipe = "mediapipe"
	BackendONNX      = "onnx"
)

// Config holds configuration options for pose detection.
type Config struct {
	// Backend selects the implementation (default: mediapipe).
	Backend string

	// MinConfidence is the minimum pose presence score (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence passed to MediaPipe.
	MinTrackingConf float64

	// ModelComplexity is the MediaPipe pose model complexity (0, 1 or 2).
	ModelComplexity int

	// ModelPath is the BlazePose landmark ONNX model for the onnx backend.
	ModelPath string

	// SharedLibraryPath points at the onnxruntime shared library. Empty uses
	// the platform default search path.
	SharedLibraryPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendMediaPipe,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		ModelComplexity: 1,
		ModelPath:       "models/pose_landmark_full.onnx",
	}
}

// New creates the detector selected by cfg.Backend.
func New(cfg Config) (Detector, error) {
	switch cfg.Backend {
	case BackendMediaPipe, "":
		return NewMediaPipeDetector(cfg)
	case BackendONNX:
		return NewONNXDetector(cfg)
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}
