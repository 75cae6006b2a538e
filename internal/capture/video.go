package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// VideoFile reads frames from a video on disk.
type VideoFile struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
}

// NewVideoFile creates a VideoFile for path. The file is not touched until Open.
func NewVideoFile(path string) *VideoFile {
	return &VideoFile{path: path}
}

// Path returns the video path.
func (v *VideoFile) Path() string {
	return v.path
}

// Open opens the file for reading.
func (v *VideoFile) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture != nil {
		return nil
	}

	vc, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", v.path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open video %s: cannot decode", v.path)
	}

	v.capture = vc
	return nil
}

// Close releases the file.
func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil
	}
	err := v.capture.Close()
	v.capture = nil
	return err
}

// ReadFrame returns the next frame or ErrStreamEnd after the last one.
func (v *VideoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil, ErrNotOpen
	}
	return readMat(v.capture)
}

// Rewind seeks back to the first frame.
func (v *VideoFile) Rewind() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return ErrNotOpen
	}
	v.capture.Set(gocv.VideoCapturePosFrames, 0)
	return nil
}

// FrameCount returns the number of frames reported by the container, or 0
// when the file is not open or the container does not say.
func (v *VideoFile) FrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return 0
	}
	return int(v.capture.Get(gocv.VideoCaptureFrameCount))
}

// FPS returns the frame rate stored in the file.
func (v *VideoFile) FPS() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return 0
	}
	return v.capture.Get(gocv.VideoCaptureFPS)
}

// IsOpen reports whether the file is open.
func (v *VideoFile) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.capture != nil
}
