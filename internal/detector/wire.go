package detector

import (
	"fmt"

	"github.com/ayusman/repcoach/internal/pose"
)

// response is one JSON line written by the pose service.
type response struct {
	Landmarks []wireLandmark `json:"landmarks"`
	Error     string         `json:"error,omitempty"`
}

type wireLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// toPose converts a service response. A partial skeleton is a protocol
// error since the model either finds the full body or nothing.
func (r response) toPose() (pose.Pose, error) {
	if r.Error != "" {
		return nil, fmt.Errorf("pose service: %s", r.Error)
	}
	if len(r.Landmarks) == 0 {
		return nil, nil
	}

	points := make([]pose.Landmark, len(r.Landmarks))
	for i, lm := range r.Landmarks {
		points[i] = pose.Landmark{X: lm.X, Y: lm.Y, Z: lm.Z, Visibility: lm.Visibility}
	}
	return pose.NewPose(points)
}
