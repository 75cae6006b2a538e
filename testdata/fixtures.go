// Package testdata provides fixtures shared by the end-to-end tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/keypoints"
	"github.com/ayusman/repcoach/internal/similarity"
)

//go:embed reference/*.json
var referenceFS embed.FS

// ReferenceBytes returns the raw keypoints file of a reference fixture.
func ReferenceBytes(name string) ([]byte, error) {
	data, err := referenceFS.ReadFile("reference/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load reference %s: %w", name, err)
	}
	return data, nil
}

// Reference loads a recorded reference sequence by name.
func Reference(name string) (similarity.Sequence, error) {
	data, err := ReferenceBytes(name)
	if err != nil {
		return nil, err
	}
	return keypoints.Decode(bytes.NewReader(data))
}

// BlankFrames returns n black BGR frames. Release them with CloseFrames.
func BlankFrames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames
}

// CloseFrames releases frames.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
