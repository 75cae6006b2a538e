package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/reps"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/similarity"
	"github.com/ayusman/repcoach/internal/stats"
)

// ErrEmptyFrame is returned when asked to annotate an empty Mat.
var ErrEmptyFrame = errors.New("empty frame")

// Renderer implements session.Annotator.
type Renderer struct {
	style Style
}

// New creates a renderer with the given style.
func New(style Style) *Renderer {
	return &Renderer{style: style}
}

// Style returns the renderer style.
func (r *Renderer) Style() Style {
	return r.style
}

// Annotate draws the overlay for o.Mode. In compare mode frame is replaced
// by a wider Mat holding the status bar and the reference frame.
func (r *Renderer) Annotate(frame *gocv.Mat, o *session.Overlay) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyFrame
	}

	if o.Pose != nil {
		Skeleton(frame, o.Pose, r.style)
	}
	for _, j := range o.Joints {
		Joint(frame, j, r.style)
	}

	switch o.Mode {
	case config.ModeLive:
		if o.Reps != nil {
			PercentageBar(frame, o.Reps.Percentage, o.Reps.Zone, r.style)
			CountCircle(frame, o.Reps.Count, r.style)
		}
	case config.ModeAnalyze:
		AngleTable(frame, o.AngleNames, o.AngleStats, r.style)
	case config.ModeCompare:
		return r.compare(frame, o)
	}
	return nil
}

func (r *Renderer) compare(frame *gocv.Mat, o *session.Overlay) error {
	width, height := frame.Cols(), frame.Rows()

	live := StatusBar(*frame, r.style.StatusBarHeight)
	if o.Pose != nil {
		var ratio float64
		msg, alert := similarity.OffPoseMessage, true
		if o.Match != nil {
			ratio, msg, alert = o.Match.Ratio, o.Match.Message, o.Match.Alert
		}
		center := image.Pt(r.style.ArcRadius+20, r.style.ArcRadius+20+r.style.StatusBarHeight)
		FeedbackArc(&live, center, ratio, r.style)
		StatusMessage(&live, msg, alert, r.style)
	}

	if o.Reference == nil || o.Reference.Empty() {
		replace(frame, live)
		return nil
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(*o.Reference, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	ref := StatusBar(resized, r.style.StatusBarHeight)
	defer ref.Close()

	combined, err := SideBySide(live, ref)
	live.Close()
	if err != nil {
		return err
	}
	replace(frame, combined)
	return nil
}

func replace(frame *gocv.Mat, m gocv.Mat) {
	frame.Close()
	*frame = m
}

func pt(lm pose.Landmark) image.Point {
	return image.Pt(int(lm.X), int(lm.Y))
}

// Skeleton draws the landmark connections of a pose in pixel coordinates.
func Skeleton(img *gocv.Mat, p pose.Pose, style Style) {
	visible := func(i int) bool {
		return i < len(p) && p[i].Visibility >= style.MinVisibility
	}

	for _, c := range pose.Connections {
		if !visible(c[0]) || !visible(c[1]) {
			continue
		}
		gocv.Line(img, pt(p[c[0]]), pt(p[c[1]]), style.LineColor, style.LineThickness)
	}
	for i := range p {
		if visible(i) {
			gocv.Circle(img, pt(p[i]), 3, style.JointRing, -1)
		}
	}
}

// Joint draws the two limbs of a measured joint, its three landmarks and the
// angle next to the vertex.
func Joint(img *gocv.Mat, j session.JointReading, style Style) {
	a, b, c := pt(j.Points[0]), pt(j.Points[1]), pt(j.Points[2])

	gocv.Line(img, a, b, style.LineColor, style.LineThickness+1)
	gocv.Line(img, c, b, style.LineColor, style.LineThickness+1)
	for _, p := range []image.Point{a, b, c} {
		gocv.Circle(img, p, style.JointRadius, style.JointColor, -1)
		gocv.Circle(img, p, style.JointRadius+4, style.JointRing, 2)
	}

	text := fmt.Sprintf("%d", int(j.Angle))
	size := gocv.GetTextSize(text, style.Numbers.Face, style.Numbers.Scale, style.Numbers.Thickness)
	// right-side labels go left of the vertex so they stay on the body
	offset := image.Pt(10, size.Y+20)
	if j.Points[0].X > j.Points[1].X {
		offset.X = -size.X - 10
	}
	putText(img, text, b.Add(offset), style.Numbers)
}

// ZoneColor returns the bar colour for a counter zone.
func ZoneColor(z reps.Zone) color.RGBA {
	switch z {
	case reps.Top:
		return Green
	case reps.Bottom:
		return Red
	default:
		return White
	}
}

// PercentageBar draws the repetition progress bar at the right edge. The bar
// fills upward as the percentage grows.
func PercentageBar(img *gocv.Mat, percentage float64, zone reps.Zone, style Style) {
	w, h := img.Cols(), img.Rows()
	top, bottom := h/5, h*9/10
	left := w - style.BarMargin - style.BarWidth
	right := left + style.BarWidth

	level := int(reps.Interp(percentage, 0, 100, float64(bottom), float64(top)))
	c := ZoneColor(zone)

	gocv.Rectangle(img, image.Rect(left, top, right, bottom), c, 2)
	gocv.Rectangle(img, image.Rect(left, level, right, bottom), c, -1)

	label := fmt.Sprintf("%d%%", int(percentage))
	putText(img, label, image.Pt(left-10, top-10), style.Numbers)
}

// CountCircle draws the repetition count in a filled circle at the top left.
// The circle darkens as the count grows.
func CountCircle(img *gocv.Mat, count float64, style Style) {
	r := style.CountRadius
	center := image.Pt(r+20, r+20)
	shade := uint8(255 - min(int(count)*3, 255))
	gocv.Circle(img, center, r, color.RGBA{G: shade, A: 255}, -1)

	text := fmt.Sprintf("%d", int(count))
	f := style.Numbers
	f.Scale *= 1.5
	f.Color = Blue
	size := gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
	putText(img, text, image.Pt(center.X-size.X/2, center.Y+size.Y/2), f)
}

// AngleTable lists the max and min angle of each joint in names on red
// labels down the left edge.
func AngleTable(img *gocv.Mat, names []string, st stats.Statistics, style Style) {
	f := style.Text
	pad := style.TablePadding
	x, y := 10+pad, 10

	for _, name := range names {
		e, ok := st[name]
		if !ok {
			continue
		}
		for _, line := range []string{
			fmt.Sprintf("Max %s: %d", name, int(e.Max)),
			fmt.Sprintf("Min %s: %d", name, int(e.Min)),
		} {
			size := gocv.GetTextSize(line, f.Face, f.Scale, f.Thickness)
			y += size.Y + 2*pad
			box := image.Rect(x-pad, y-size.Y-pad, x+size.X+pad, y+pad)
			gocv.Rectangle(img, box, style.TableBackground, -1)
			putText(img, line, image.Pt(x, y), f)
			y += pad
		}
		y += pad
	}
}

// FeedbackArc draws the similarity arc: a pie slice whose sweep and colour
// follow the match ratio, inside a white outline.
func FeedbackArc(img *gocv.Mat, center image.Point, ratio float64, style Style) {
	c, sweep := similarity.Feedback(ratio)
	r := style.ArcRadius
	if sweep > 0 {
		gocv.Ellipse(img, center, image.Pt(r, r), 0, 0, sweep, c, -1)
	}
	gocv.Circle(img, center, r, White, 2)
}

// StatusMessage writes msg into the status bar, red when alert is set and
// green otherwise.
func StatusMessage(img *gocv.Mat, msg string, alert bool, style Style) {
	f := style.Text
	f.Color = Green
	if alert {
		f.Color = Red
	}
	size := gocv.GetTextSize(msg, f.Face, f.Scale, f.Thickness)
	y := (style.StatusBarHeight + size.Y) / 2
	putText(img, msg, image.Pt(10, y), f)
}

// StatusBar returns a copy of src with a black band of height pixels on top.
func StatusBar(src gocv.Mat, height int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.CopyMakeBorder(src, &dst, height, 0, 0, 0, gocv.BorderConstant, Black)
	return dst
}

// SideBySide returns left and right concatenated horizontally. The shorter
// image is padded at the bottom.
func SideBySide(left, right gocv.Mat) (gocv.Mat, error) {
	if left.Empty() || right.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}
	if left.Type() != right.Type() {
		return gocv.NewMat(), fmt.Errorf("cannot join %v and %v frames", left.Type(), right.Type())
	}

	h := max(left.Rows(), right.Rows())
	l := padTo(left, h)
	defer l.Close()
	r := padTo(right, h)
	defer r.Close()

	dst := gocv.NewMat()
	gocv.Hconcat(l, r, &dst)
	return dst, nil
}

func padTo(src gocv.Mat, height int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.CopyMakeBorder(src, &dst, 0, height-src.Rows(), 0, 0, gocv.BorderConstant, Black)
	return dst
}

func putText(img *gocv.Mat, text string, org image.Point, f Font) {
	gocv.PutTextWithParams(img, text, org, f.Face, f.Scale, f.Color, f.Thickness, f.LineType, false)
}
