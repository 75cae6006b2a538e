package pose

import "testing"

func TestCatalog_FlippedMirrorsOriginal(t *testing.T) {
	for _, name := range Default.JointNames() {
		orig, ok := Default.Joint(name, Original)
		if !ok {
			t.Fatalf("joint %s missing in original orientation", name)
		}
		flip, ok := Default.Joint(name, Flipped)
		if !ok {
			t.Fatalf("joint %s missing in flipped orientation", name)
		}

		if flip.A != Mirror(orig.A) || flip.B != Mirror(orig.B) || flip.C != Mirror(orig.C) {
			t.Errorf("%s: flipped (%d,%d,%d) is not the mirror of (%d,%d,%d)",
				name, flip.A, flip.B, flip.C, orig.A, orig.B, orig.C)
		}
	}

	for _, name := range Default.SegmentNames() {
		orig, _ := Default.Segment(name, Original)
		flip, ok := Default.Segment(name, Flipped)
		if !ok {
			t.Fatalf("segment %s missing in flipped orientation", name)
		}
		if flip.A != Mirror(orig.A) || flip.B != Mirror(orig.B) {
			t.Errorf("%s: flipped segment is not mirrored", name)
		}
	}
}

func TestCatalog_LeftElbow(t *testing.T) {
	tests := []struct {
		orientation Orientation
		want        [3]int
	}{
		{Original, [3]int{11, 13, 15}},
		{Flipped, [3]int{12, 14, 16}},
	}

	for _, tt := range tests {
		t.Run(string(tt.orientation), func(t *testing.T) {
			j, ok := Default.Joint("LEFT_ELBOW", tt.orientation)
			if !ok {
				t.Fatal("LEFT_ELBOW not found")
			}
			got := [3]int{j.A, j.B, j.C}
			if got != tt.want {
				t.Errorf("LEFT_ELBOW = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCatalog_Unknown(t *testing.T) {
	if _, ok := Default.Joint("TAIL", Original); ok {
		t.Error("unknown joint should not be found")
	}
	if _, ok := Default.Segment("LEFT_ELBOW", Original); ok {
		t.Error("joint names are not segment names")
	}
	if _, ok := Default.Joint("LEFT_ELBOW", Orientation("sideways")); ok {
		t.Error("unknown orientation should not match")
	}
}

func TestNewCatalog_Invalid(t *testing.T) {
	t.Run("index out of range", func(t *testing.T) {
		_, err := NewCatalog([]Joint{{Name: "BAD", A: 0, B: 1, C: 40}}, nil)
		if err == nil {
			t.Error("expected error for out of range index")
		}
	})

	t.Run("duplicate joint", func(t *testing.T) {
		j := Joint{Name: "DUP", A: 11, B: 13, C: 15}
		if _, err := NewCatalog([]Joint{j, j}, nil); err == nil {
			t.Error("expected error for duplicate joint")
		}
	})

	t.Run("duplicate segment", func(t *testing.T) {
		s := Segment{Name: "DUP", A: 11, B: 12}
		if _, err := NewCatalog(nil, []Segment{s, s}); err == nil {
			t.Error("expected error for duplicate segment")
		}
	})
}

func TestCatalog_NamesAreCopies(t *testing.T) {
	names := Default.JointNames()
	names[0] = "CHANGED"
	if Default.JointNames()[0] == "CHANGED" {
		t.Error("JointNames must return a copy")
	}
}

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		in      string
		want    Orientation
		wantErr bool
	}{
		{"original", Original, false},
		{"flipped", Flipped, false},
		{"", Original, false},
		{"upside-down", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOrientation(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOrientation(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOrientation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
