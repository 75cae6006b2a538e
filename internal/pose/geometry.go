package pose

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerate is returned by AngleChecked when the vertex coincides with
// one of the endpoints, leaving one ray without a direction.
var ErrDegenerate = errors.New("degenerate angle: vertex coincides with an endpoint")

// coincident is the tolerance below which two points are treated as equal.
const coincident = 1e-12

// Angle returns the angle at p2 between the rays p2->p1 and p2->p3 in
// degrees, always within [0, 180]. Degenerate input returns 0.
func Angle(p1, p2, p3 Landmark) float64 {
	angle, _ := AngleChecked(p1, p2, p3)
	return angle
}

// AngleChecked is Angle with degenerate input reported as ErrDegenerate.
// The returned angle is 0 in that case.
func AngleChecked(p1, p2, p3 Landmark) (float64, error) {
	if Distance(p1, p2) < coincident || Distance(p3, p2) < coincident {
		return 0, ErrDegenerate
	}

	rad := math.Atan2(p3.Y-p2.Y, p3.X-p2.X) - math.Atan2(p1.Y-p2.Y, p1.X-p2.X)
	deg := math.Abs(rad * 180 / math.Pi)
	if deg > 180 {
		deg = 360 - deg
	}
	return deg, nil
}

// Distance returns the 2D Euclidean distance between two landmarks.
func Distance(a, b Landmark) float64 {
	return r2.Norm(r2.Sub(r2.Vec{X: a.X, Y: a.Y}, r2.Vec{X: b.X, Y: b.Y}))
}

// Distance3D returns the 3D Euclidean distance between two landmarks.
func Distance3D(a, b Landmark) float64 {
	return r3.Norm(r3.Sub(r3.Vec{X: a.X, Y: a.Y, Z: a.Z}, r3.Vec{X: b.X, Y: b.Y, Z: b.Z}))
}

// JointAngle computes the angle of a catalog joint on a detected pose.
func JointAngle(p Pose, j Joint) (float64, error) {
	if !p.Detected() {
		return 0, errors.New("pose not detected")
	}
	return AngleChecked(p[j.A], p[j.B], p[j.C])
}

// SegmentLength computes the length of a catalog distance on a detected pose.
func SegmentLength(p Pose, s Segment) (float64, error) {
	if !p.Detected() {
		return 0, errors.New("pose not detected")
	}
	return Distance(p[s.A], p[s.B]), nil
}
