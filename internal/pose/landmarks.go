// Package pose provides body landmark types, joint geometry and the joint and
// distance catalogs used for exercise tracking.
package pose

import "fmt"

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark is a single body point. X and Y are normalized to the frame
// width and height; Z is relative depth with the hips as origin.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Pose is the skeleton detected in one frame. It is either empty (no person
// detected) or holds exactly NumLandmarks points indexed by the constants above.
type Pose []Landmark

// NewPose validates the landmark count and returns a Pose.
func NewPose(points []Landmark) (Pose, error) {
	if len(points) != 0 && len(points) != NumLandmarks {
		return nil, fmt.Errorf("pose has %d landmarks, expected 0 or %d", len(points), NumLandmarks)
	}
	return Pose(points), nil
}

// Detected reports whether the pose holds a full skeleton.
func (p Pose) Detected() bool {
	return len(p) == NumLandmarks
}

// Scale returns a copy of the pose with X and Y multiplied by the frame
// width and height. Z is scaled by the width, matching MediaPipe's convention
// that depth uses roughly the same scale as x.
func (p Pose) Scale(width, height float64) Pose {
	if len(p) == 0 {
		return nil
	}
	scaled := make(Pose, len(p))
	for i, lm := range p {
		scaled[i] = Landmark{
			X:          lm.X * width,
			Y:          lm.Y * height,
			Z:          lm.Z * width,
			Visibility: lm.Visibility,
		}
	}
	return scaled
}

// Flip mirrors the pose horizontally in normalized coordinates and swaps
// every left landmark with its right counterpart, producing the pose that a
// mirrored camera would have reported.
func (p Pose) Flip() Pose {
	if len(p) == 0 {
		return nil
	}
	flipped := make(Pose, len(p))
	for i, lm := range p {
		flipped[Mirror(i)] = Landmark{
			X:          1 - lm.X,
			Y:          lm.Y,
			Z:          lm.Z,
			Visibility: lm.Visibility,
		}
	}
	return flipped
}

// mirrorPairs lists left/right landmark pairs. The nose has no counterpart.
var mirrorPairs = [][2]int{
	{LeftEyeInner, RightEyeInner},
	{LeftEye, RightEye},
	{LeftEyeOuter, RightEyeOuter},
	{LeftEar, RightEar},
	{MouthLeft, MouthRight},
	{LeftShoulder, RightShoulder},
	{LeftElbow, RightElbow},
	{LeftWrist, RightWrist},
	{LeftPinky, RightPinky},
	{LeftIndex, RightIndex},
	{LeftThumb, RightThumb},
	{LeftHip, RightHip},
	{LeftKnee, RightKnee},
	{LeftAnkle, RightAnkle},
	{LeftHeel, RightHeel},
	{LeftFootIndex, RightFootIndex},
}

var mirrorIndex = func() [NumLandmarks]int {
	var m [NumLandmarks]int
	for i := range m {
		m[i] = i
	}
	for _, pair := range mirrorPairs {
		m[pair[0]] = pair[1]
		m[pair[1]] = pair[0]
	}
	return m
}()

// Mirror returns the landmark index on the opposite side of the body.
// Indices outside the landmark range are returned unchanged.
func Mirror(index int) int {
	if index < 0 || index >= NumLandmarks {
		return index
	}
	return mirrorIndex[index]
}

// Connections are the skeleton edges drawn between landmarks.
var Connections = [][2]int{
	{Nose, LeftEyeInner}, {LeftEyeInner, LeftEye}, {LeftEye, LeftEyeOuter}, {LeftEyeOuter, LeftEar},
	{Nose, RightEyeInner}, {RightEyeInner, RightEye}, {RightEye, RightEyeOuter}, {RightEyeOuter, RightEar},
	{MouthLeft, MouthRight},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow}, {LeftElbow, LeftWrist},
	{LeftWrist, LeftPinky}, {LeftWrist, LeftIndex}, {LeftWrist, LeftThumb}, {LeftPinky, LeftIndex},
	{RightShoulder, RightElbow}, {RightElbow, RightWrist},
	{RightWrist, RightPinky}, {RightWrist, RightIndex}, {RightWrist, RightThumb}, {RightPinky, RightIndex},
	{LeftShoulder, LeftHip}, {RightShoulder, RightHip}, {LeftHip, RightHip},
	{LeftHip, LeftKnee}, {LeftKnee, LeftAnkle}, {LeftAnkle, LeftHeel}, {LeftHeel, LeftFootIndex}, {LeftAnkle, LeftFootIndex},
	{RightHip, RightKnee}, {RightKnee, RightAnkle}, {RightAnkle, RightHeel}, {RightHeel, RightFootIndex}, {RightAnkle, RightFootIndex},
}
