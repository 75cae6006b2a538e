package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	poses  []pose.Pose
	next   int
	err    error
	calls  int
	closed int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose makes every Detect call return p.
func (m *MockDetector) SetPose(p pose.Pose) {
	m.SetSequence([]pose.Pose{p})
}

// SetSequence makes Detect return the poses in order, repeating from the
// start after the last one. A nil entry is a frame without a person.
func (m *MockDetector) SetSequence(poses []pose.Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (pose.Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.poses) == 0 {
		return nil, nil
	}

	p := m.poses[m.next%len(m.poses)]
	m.next++
	return p, nil
}

// Close counts calls so tests can check resources are released once.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Calls returns the number of Detect calls.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// CloseCount returns the number of Close calls.
func (m *MockDetector) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// StandingPose returns a front-facing upright body with straight arms
// hanging down and straight legs.
func StandingPose() pose.Pose {
	return ArmCurlPose(180)
}

// ArmCurlPose returns a standing body whose elbows are both bent to the
// given angle in degrees, measured between upper arm and forearm in
// normalized coordinates. 180 is a straight arm hanging down.
func ArmCurlPose(elbowAngle float64) pose.Pose {
	p := make(pose.Pose, pose.NumLandmarks)

	side := func(sign float64, shoulder, elbow, wrist, pinky, index, thumb, hip, knee, ankle, heel, foot int) {
		x := func(v float64) float64 { return 0.5 + sign*v }

		p[shoulder] = pose.Landmark{X: x(0.1), Y: 0.30, Visibility: 0.99}
		p[elbow] = pose.Landmark{X: x(0.1), Y: 0.45, Visibility: 0.99}

		rad := elbowAngle * math.Pi / 180
		wx := 0.1 + 0.15*math.Sin(rad)
		wy := 0.45 - 0.15*math.Cos(rad)
		p[wrist] = pose.Landmark{X: x(wx), Y: wy, Visibility: 0.95}
		p[pinky] = pose.Landmark{X: x(wx + 0.01), Y: wy + 0.02, Visibility: 0.9}
		p[index] = pose.Landmark{X: x(wx), Y: wy + 0.03, Visibility: 0.9}
		p[thumb] = pose.Landmark{X: x(wx - 0.01), Y: wy + 0.02, Visibility: 0.9}

		p[hip] = pose.Landmark{X: x(0.07), Y: 0.60, Visibility: 0.99}
		p[knee] = pose.Landmark{X: x(0.07), Y: 0.75, Visibility: 0.98}
		p[ankle] = pose.Landmark{X: x(0.07), Y: 0.90, Visibility: 0.97}
		p[heel] = pose.Landmark{X: x(0.06), Y: 0.92, Visibility: 0.9}
		p[foot] = pose.Landmark{X: x(0.08), Y: 0.95, Visibility: 0.9}
	}

	// The performer's left side appears on the right of the image.
	side(1, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftPinky, pose.LeftIndex,
		pose.LeftThumb, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, pose.LeftHeel, pose.LeftFootIndex)
	side(-1, pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightPinky, pose.RightIndex,
		pose.RightThumb, pose.RightHip, pose.RightKnee, pose.RightAnkle, pose.RightHeel, pose.RightFootIndex)

	face := []struct {
		index int
		dx, y float64
	}{
		{pose.Nose, 0, 0.15},
		{pose.LeftEyeInner, 0.01, 0.13}, {pose.LeftEye, 0.02, 0.13}, {pose.LeftEyeOuter, 0.03, 0.13},
		{pose.RightEyeInner, -0.01, 0.13}, {pose.RightEye, -0.02, 0.13}, {pose.RightEyeOuter, -0.03, 0.13},
		{pose.LeftEar, 0.05, 0.14}, {pose.RightEar, -0.05, 0.14},
		{pose.MouthLeft, 0.015, 0.18}, {pose.MouthRight, -0.015, 0.18},
	}
	for _, f := range face {
		p[f.index] = pose.Landmark{X: 0.5 + f.dx, Y: f.y, Visibility: 0.99}
	}

	return p
}
