// Package capture reads frames from webcams and video files using GoCV.
package capture

import (
	"errors"

	"gocv.io/x/gocv"
)

// Default webcam settings.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrNotOpen is returned when reading from a source that is not open.
	ErrNotOpen = errors.New("capture source is not open")

	// ErrStreamEnd is returned by ReadFrame when the source has no more
	// frames. It is the normal end of a video file or a closed webcam.
	ErrStreamEnd = errors.New("end of stream")
)

// Source is a frame producer.
type Source interface {
	Open() error
	Close() error

	// ReadFrame returns the next frame. The caller owns the returned Mat and
	// must close it. ErrStreamEnd signals exhaustion.
	ReadFrame() (*gocv.Mat, error)

	IsOpen() bool
}

// Rewinder is a Source that can restart from its first frame, such as a
// reference video that loops.
type Rewinder interface {
	Source
	Rewind() error
}

// readMat reads one frame, mapping a failed or empty read to ErrStreamEnd.
func readMat(vc *gocv.VideoCapture) (*gocv.Mat, error) {
	mat := gocv.NewMat()
	if ok := vc.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrStreamEnd
	}
	return &mat, nil
}
