package pose

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

const epsilon = 1e-9

func randomLandmark(r *rand.Rand) Landmark {
	return Landmark{X: r.Float64(), Y: r.Float64(), Z: r.Float64() - 0.5}
}

func TestAngle_Symmetric(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 1000; i++ {
		p1, p2, p3 := randomLandmark(r), randomLandmark(r), randomLandmark(r)

		forward := Angle(p1, p2, p3)
		backward := Angle(p3, p2, p1)

		if math.Abs(forward-backward) > epsilon {
			t.Fatalf("angle(%v,%v,%v) = %f, reversed = %f", p1, p2, p3, forward, backward)
		}
	}
}

func TestAngle_Range(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 1000; i++ {
		// Scale up so points can land far apart and in every quadrant.
		p1 := Landmark{X: (r.Float64() - 0.5) * 1000, Y: (r.Float64() - 0.5) * 1000}
		p2 := Landmark{X: (r.Float64() - 0.5) * 1000, Y: (r.Float64() - 0.5) * 1000}
		p3 := Landmark{X: (r.Float64() - 0.5) * 1000, Y: (r.Float64() - 0.5) * 1000}

		angle := Angle(p1, p2, p3)
		if angle < 0 || angle > 180 {
			t.Fatalf("angle %f out of [0,180]", angle)
		}
	}
}

func TestAngle_KnownValues(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 Landmark
		want       float64
	}{
		{
			name: "right angle",
			p1:   Landmark{X: 1, Y: 0},
			p2:   Landmark{X: 0, Y: 0},
			p3:   Landmark{X: 0, Y: 1},
			want: 90,
		},
		{
			name: "straight line",
			p1:   Landmark{X: -1, Y: 0},
			p2:   Landmark{X: 0, Y: 0},
			p3:   Landmark{X: 1, Y: 0},
			want: 180,
		},
		{
			name: "reflex angle folds back under 180",
			p1:   Landmark{X: -1, Y: -1},
			p2:   Landmark{X: 0, Y: 0},
			p3:   Landmark{X: -1, Y: 1},
			want: 90,
		},
		{
			name: "overlapping rays",
			p1:   Landmark{X: 2, Y: 2},
			p2:   Landmark{X: 0, Y: 0},
			p3:   Landmark{X: 1, Y: 1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.p1, tt.p2, tt.p3)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Angle() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAngleChecked_Degenerate(t *testing.T) {
	p := Landmark{X: 0.3, Y: 0.4}
	q := Landmark{X: 0.5, Y: 0.5}

	tests := []struct {
		name       string
		p1, p2, p3 Landmark
	}{
		{name: "vertex equals first point", p1: p, p2: p, p3: q},
		{name: "vertex equals last point", p1: q, p2: p, p3: p},
		{name: "all points equal", p1: p, p2: p, p3: p},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			angle, err := AngleChecked(tt.p1, tt.p2, tt.p3)
			if !errors.Is(err, ErrDegenerate) {
				t.Errorf("expected ErrDegenerate, got %v", err)
			}
			if angle != 0 {
				t.Errorf("expected fallback angle 0, got %f", angle)
			}
			if got := Angle(tt.p1, tt.p2, tt.p3); got != 0 {
				t.Errorf("Angle() = %f, want 0", got)
			}
		})
	}

	t.Run("coincident endpoints are not degenerate", func(t *testing.T) {
		angle, err := AngleChecked(q, p, q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if angle != 0 {
			t.Errorf("expected 0, got %f", angle)
		}
	})
}

func TestDistance(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))

	t.Run("symmetric and non-negative", func(t *testing.T) {
		for i := 0; i < 500; i++ {
			a, b := randomLandmark(r), randomLandmark(r)
			ab, ba := Distance(a, b), Distance(b, a)
			if ab < 0 {
				t.Fatalf("negative distance %f", ab)
			}
			if math.Abs(ab-ba) > epsilon {
				t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
			}
		}
	})

	t.Run("zero for identical points", func(t *testing.T) {
		p := randomLandmark(r)
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(p,p) = %f, want 0", d)
		}
	})

	t.Run("ignores depth", func(t *testing.T) {
		a := Landmark{X: 0, Y: 0, Z: 5}
		b := Landmark{X: 3, Y: 4, Z: -5}
		if d := Distance(a, b); math.Abs(d-5) > epsilon {
			t.Errorf("Distance() = %f, want 5", d)
		}
	})

	t.Run("3D includes depth", func(t *testing.T) {
		a := Landmark{X: 0, Y: 0, Z: 0}
		b := Landmark{X: 2, Y: 3, Z: 6}
		if d := Distance3D(a, b); math.Abs(d-7) > epsilon {
			t.Errorf("Distance3D() = %f, want 7", d)
		}
	})
}

// skeleton returns a detected pose with every landmark at the frame centre,
// overridden by the given points.
func skeleton(points map[int]Landmark) Pose {
	p := make(Pose, NumLandmarks)
	for i := range p {
		p[i] = Landmark{X: 0.5, Y: 0.5}
	}
	for i, lm := range points {
		p[i] = lm
	}
	return p
}

func TestJointAngle_LeftElbow(t *testing.T) {
	joint, ok := Default.Joint("LEFT_ELBOW", Original)
	if !ok {
		t.Fatal("LEFT_ELBOW missing from catalog")
	}
	if joint.A != 11 || joint.B != 13 || joint.C != 15 {
		t.Fatalf("LEFT_ELBOW = (%d,%d,%d), want (11,13,15)", joint.A, joint.B, joint.C)
	}

	t.Run("colinear and opposite", func(t *testing.T) {
		p := skeleton(map[int]Landmark{
			LeftShoulder: {X: 0.2, Y: 0.5},
			LeftElbow:    {X: 0.4, Y: 0.5},
			LeftWrist:    {X: 0.6, Y: 0.5},
		})
		angle, err := JointAngle(p, joint)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(angle-180) > epsilon {
			t.Errorf("angle = %f, want 180", angle)
		}
	})

	t.Run("overlapping", func(t *testing.T) {
		p := skeleton(map[int]Landmark{
			LeftShoulder: {X: 0.6, Y: 0.5},
			LeftElbow:    {X: 0.4, Y: 0.5},
			LeftWrist:    {X: 0.5, Y: 0.5},
		})
		angle, err := JointAngle(p, joint)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(angle) > epsilon {
			t.Errorf("angle = %f, want 0", angle)
		}
	})

	t.Run("empty pose", func(t *testing.T) {
		if _, err := JointAngle(nil, joint); err == nil {
			t.Error("expected error for empty pose")
		}
	})
}

func TestNewPose(t *testing.T) {
	if _, err := NewPose(nil); err != nil {
		t.Errorf("empty pose should be valid, got %v", err)
	}
	if _, err := NewPose(make([]Landmark, NumLandmarks)); err != nil {
		t.Errorf("full pose should be valid, got %v", err)
	}
	if _, err := NewPose(make([]Landmark, 17)); err == nil {
		t.Error("partial pose should be rejected")
	}
}

func TestPose_Scale(t *testing.T) {
	p := skeleton(map[int]Landmark{Nose: {X: 0.25, Y: 0.75, Z: 0.1}})

	scaled := p.Scale(640, 480)

	if scaled[Nose].X != 160 || scaled[Nose].Y != 360 {
		t.Errorf("scaled nose = (%f,%f), want (160,360)", scaled[Nose].X, scaled[Nose].Y)
	}
	if p[Nose].X != 0.25 {
		t.Error("Scale must not modify the receiver")
	}
	if Pose(nil).Scale(1, 1) != nil {
		t.Error("scaling an empty pose should return nil")
	}
}

func TestPose_Flip(t *testing.T) {
	p := skeleton(map[int]Landmark{
		LeftWrist:  {X: 0.2, Y: 0.3},
		RightWrist: {X: 0.7, Y: 0.4},
	})

	flipped := p.Flip()

	if math.Abs(flipped[RightWrist].X-0.8) > epsilon || flipped[RightWrist].Y != 0.3 {
		t.Errorf("flipped right wrist = %+v, want mirrored left wrist", flipped[RightWrist])
	}
	if math.Abs(flipped[LeftWrist].X-0.3) > epsilon || flipped[LeftWrist].Y != 0.4 {
		t.Errorf("flipped left wrist = %+v, want mirrored right wrist", flipped[LeftWrist])
	}

	twice := flipped.Flip()
	for i := range p {
		if math.Abs(twice[i].X-p[i].X) > epsilon || twice[i].Y != p[i].Y {
			t.Fatalf("double flip changed landmark %d: %+v vs %+v", i, twice[i], p[i])
		}
	}
}

func TestMirror(t *testing.T) {
	if Mirror(Nose) != Nose {
		t.Error("nose should mirror to itself")
	}
	for i := 0; i < NumLandmarks; i++ {
		if Mirror(Mirror(i)) != i {
			t.Errorf("Mirror is not an involution at %d", i)
		}
	}
	if Mirror(LeftKnee) != RightKnee {
		t.Errorf("Mirror(LeftKnee) = %d, want %d", Mirror(LeftKnee), RightKnee)
	}
	if Mirror(99) != 99 {
		t.Error("out of range index should be returned unchanged")
	}
}
