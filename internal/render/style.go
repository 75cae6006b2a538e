// Package render draws session overlays onto frames with gocv: the skeleton,
// measured joints, the repetition bar and counter, the extrema table and the
// similarity feedback for compare mode.
package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

var (
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black  = color.RGBA{A: 255}
	Red    = color.RGBA{R: 255, A: 255}
	Green  = color.RGBA{G: 255, A: 255}
	Blue   = color.RGBA{B: 255, A: 255}
	Cyan   = color.RGBA{G: 255, B: 255, A: 255}
	Orange = color.RGBA{R: 255, G: 165, A: 255}
)

// Font defines the parameters for rendering text.
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
}

// Style holds the sizes and colours of every overlay element. Sizes are in
// pixels and tuned for 640x480 frames.
type Style struct {
	// Text is used for labels and status messages.
	Text Font
	// Numbers is used for angle readings and the repetition count.
	Numbers Font

	LineColor     color.RGBA
	LineThickness int
	// MinVisibility hides skeleton landmarks the detector is unsure of.
	MinVisibility float64

	JointColor  color.RGBA
	JointRing   color.RGBA
	JointRadius int

	BarWidth int
	// BarMargin is the gap between the bar and the right edge.
	BarMargin int

	CountRadius int

	TableBackground color.RGBA
	TablePadding    int

	ArcRadius       int
	StatusBarHeight int
}

// DefaultStyle returns the standard overlay style.
func DefaultStyle() Style {
	return Style{
		Text: Font{
			Face:      gocv.FontHersheySimplex,
			Scale:     0.7,
			Color:     White,
			Thickness: 2,
			LineType:  gocv.LineAA,
		},
		Numbers: Font{
			Face:      gocv.FontHersheyPlain,
			Scale:     2.5,
			Color:     Cyan,
			Thickness: 2,
			LineType:  gocv.LineAA,
		},
		LineColor:       White,
		LineThickness:   2,
		MinVisibility:   0.5,
		JointColor:      Orange,
		JointRing:       Blue,
		JointRadius:     6,
		BarWidth:        40,
		BarMargin:       60,
		CountRadius:     50,
		TableBackground: Red,
		TablePadding:    6,
		ArcRadius:       60,
		StatusBarHeight: 40,
	}
}
