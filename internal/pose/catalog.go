package pose

import "fmt"

// Orientation selects which side of the body a catalog name refers to.
type Orientation string

const (
	// Original is used for forward-facing footage such as reference videos.
	Original Orientation = "original"
	// Flipped is used for a mirrored self-facing webcam, where the camera
	// swaps left and right.
	Flipped Orientation = "flipped"
)

// ParseOrientation converts a string to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(s) {
	case Original, Flipped:
		return Orientation(s), nil
	case "":
		return Original, nil
	}
	return "", fmt.Errorf("unknown orientation %q", s)
}

// Joint is a named landmark triple. B is the vertex of the measured angle.
type Joint struct {
	Name string `json:"name"`
	A    int    `json:"a"`
	B    int    `json:"b"`
	C    int    `json:"c"`
}

// Segment is a named landmark pair whose separation is tracked.
type Segment struct {
	Name string `json:"name"`
	A    int    `json:"a"`
	B    int    `json:"b"`
}

type catalogKey struct {
	name        string
	orientation Orientation
}

// Catalog is a lookup table of joints and segments keyed by name and
// orientation. Flipped entries are derived from the original ones through
// Mirror, so both orientations always describe the same exercise.
type Catalog struct {
	joints       map[catalogKey]Joint
	segments     map[catalogKey]Segment
	jointNames   []string
	segmentNames []string
}

// NewCatalog builds a catalog from original-orientation definitions.
func NewCatalog(joints []Joint, segments []Segment) (*Catalog, error) {
	c := &Catalog{
		joints:   make(map[catalogKey]Joint, len(joints)*2),
		segments: make(map[catalogKey]Segment, len(segments)*2),
	}

	for _, j := range joints {
		if err := checkIndices(j.Name, j.A, j.B, j.C); err != nil {
			return nil, err
		}
		if _, dup := c.joints[catalogKey{j.Name, Original}]; dup {
			return nil, fmt.Errorf("duplicate joint %q", j.Name)
		}
		c.joints[catalogKey{j.Name, Original}] = j
		c.joints[catalogKey{j.Name, Flipped}] = Joint{Name: j.Name, A: Mirror(j.A), B: Mirror(j.B), C: Mirror(j.C)}
		c.jointNames = append(c.jointNames, j.Name)
	}

	for _, s := range segments {
		if err := checkIndices(s.Name, s.A, s.B); err != nil {
			return nil, err
		}
		if _, dup := c.segments[catalogKey{s.Name, Original}]; dup {
			return nil, fmt.Errorf("duplicate segment %q", s.Name)
		}
		c.segments[catalogKey{s.Name, Original}] = s
		c.segments[catalogKey{s.Name, Flipped}] = Segment{Name: s.Name, A: Mirror(s.A), B: Mirror(s.B)}
		c.segmentNames = append(c.segmentNames, s.Name)
	}

	return c, nil
}

func checkIndices(name string, indices ...int) error {
	for _, i := range indices {
		if i < 0 || i >= NumLandmarks {
			return fmt.Errorf("%s: landmark index %d out of range", name, i)
		}
	}
	return nil
}

// Joint looks up a joint definition.
func (c *Catalog) Joint(name string, o Orientation) (Joint, bool) {
	j, ok := c.joints[catalogKey{name, o}]
	return j, ok
}

// Segment looks up a distance definition.
func (c *Catalog) Segment(name string, o Orientation) (Segment, bool) {
	s, ok := c.segments[catalogKey{name, o}]
	return s, ok
}

// JointNames returns joint names in definition order.
func (c *Catalog) JointNames() []string {
	return append([]string(nil), c.jointNames...)
}

// SegmentNames returns segment names in definition order.
func (c *Catalog) SegmentNames() []string {
	return append([]string(nil), c.segmentNames...)
}

// DefaultJoints are the exercise joints in original orientation.
var DefaultJoints = []Joint{
	{Name: "LEFT_ELBOW", A: LeftShoulder, B: LeftElbow, C: LeftWrist},
	{Name: "RIGHT_ELBOW", A: RightShoulder, B: RightElbow, C: RightWrist},
	{Name: "LEFT_SHOULDER", A: LeftElbow, B: LeftShoulder, C: LeftHip},
	{Name: "RIGHT_SHOULDER", A: RightElbow, B: RightShoulder, C: RightHip},
	{Name: "LEFT_HIP", A: LeftShoulder, B: LeftHip, C: LeftKnee},
	{Name: "RIGHT_HIP", A: RightShoulder, B: RightHip, C: RightKnee},
	{Name: "LEFT_KNEE", A: LeftHip, B: LeftKnee, C: LeftAnkle},
	{Name: "RIGHT_KNEE", A: RightHip, B: RightKnee, C: RightAnkle},
	{Name: "LEFT_ANKLE", A: LeftKnee, B: LeftAnkle, C: LeftFootIndex},
	{Name: "RIGHT_ANKLE", A: RightKnee, B: RightAnkle, C: RightFootIndex},
	{Name: "LEFT_WRIST", A: LeftElbow, B: LeftWrist, C: LeftIndex},
	{Name: "RIGHT_WRIST", A: RightElbow, B: RightWrist, C: RightIndex},
}

// DefaultSegments are the tracked distances in original orientation.
var DefaultSegments = []Segment{
	{Name: "SHOULDER_WIDTH", A: LeftShoulder, B: RightShoulder},
	{Name: "HIP_WIDTH", A: LeftHip, B: RightHip},
	{Name: "KNEE_GAP", A: LeftKnee, B: RightKnee},
	{Name: "ANKLE_GAP", A: LeftAnkle, B: RightAnkle},
	{Name: "WRIST_GAP", A: LeftWrist, B: RightWrist},
	{Name: "LEFT_HAND_TO_HIP", A: LeftWrist, B: LeftHip},
	{Name: "RIGHT_HAND_TO_HIP", A: RightWrist, B: RightHip},
	{Name: "LEFT_HAND_TO_FOOT", A: LeftWrist, B: LeftFootIndex},
	{Name: "RIGHT_HAND_TO_FOOT", A: RightWrist, B: RightFootIndex},
}

// Default is the catalog built from DefaultJoints and DefaultSegments.
var Default = mustCatalog(DefaultJoints, DefaultSegments)

func mustCatalog(joints []Joint, segments []Segment) *Catalog {
	c, err := NewCatalog(joints, segments)
	if err != nil {
		panic(err)
	}
	return c
}
