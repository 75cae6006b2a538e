package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestMotionGate_FirstFrameAllowed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if ok, _ := g.Allow(&frame); !ok {
		t.Error("first frame should be allowed")
	}
	if ok, changed := g.Allow(&frame); ok {
		t.Errorf("identical frame should be gated, changed = %f", changed)
	}

	g.Reset()
	if ok, _ := g.Allow(&frame); !ok {
		t.Error("first frame after Reset should be allowed")
	}
}

func TestMotionGate_Motion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	g.Allow(&black)
	ok, changed := g.Allow(&white)
	if !ok {
		t.Errorf("black to white should pass the gate, changed = %f", changed)
	}
	if changed < 50 {
		t.Errorf("changed = %f, expected > 50", changed)
	}
}

func TestMotionGate_NilFrame(t *testing.T) {
	g := NewMotionGate(1.0)
	defer g.Close()

	if ok, _ := g.Allow(nil); ok {
		t.Error("nil frame should not be allowed")
	}
}

func TestMotionGate_CloseTwice(t *testing.T) {
	g := NewMotionGate(1.0)
	g.Close()
	g.Close()
}
