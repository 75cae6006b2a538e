package similarity

import "image/color"

// Status messages shown to the performer.
const (
	OffPoseMessage = "Please follow the video"
	OnPoseMessage  = "Great, keep doing!"
)

// Status returns the message for a result and whether it is an alert.
func Status(r Result) (message string, alert bool) {
	if !r.OnPose {
		return OffPoseMessage, true
	}
	return OnPoseMessage, false
}

// Feedback maps a ratio to the fill colour and sweep angle of the feedback
// arc. The colour moves from red through orange and yellow to green and the
// sweep is 360 degrees at a perfect match.
func Feedback(ratio float64) (color.RGBA, float64) {
	ratio = max(0, min(1, ratio))

	var red, green float64
	switch {
	case ratio < 0.33:
		red = 255
		green = 165 * ratio * 3
	case ratio < 0.66:
		red = 255
		green = 165 + (255-165)*(ratio-0.33)*3
	default:
		red = 255 * (1 - ratio) * 3
		green = 255
	}

	c := color.RGBA{
		R: uint8(min(255, red)),
		G: uint8(min(255, green)),
		A: 255,
	}
	return c, 360 * ratio
}
