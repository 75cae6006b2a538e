package keypoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/similarity"
)

// ErrNoPoses is returned by Record when no frame contained a person.
var ErrNoPoses = errors.New("no pose detected in any frame")

// RecordStats describes a finished extraction.
type RecordStats struct {
	Frames  int
	Skipped int
}

// Record runs det over every frame of src and returns one pose per frame in
// order. Frames without a person yield an empty pose so indices stay aligned
// with the video. The source is opened and
// closed by Record. onFrame, if not nil, is called after each frame.
func Record(ctx context.Context, src capture.Source, det detector.Detector, onFrame func()) (similarity.Sequence, RecordStats, error) {
	var st RecordStats

	if err := src.Open(); err != nil {
		return nil, st, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	var seq similarity.Sequence
	for {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}

		frame, err := src.ReadFrame()
		if errors.Is(err, capture.ErrStreamEnd) {
			break
		}
		if err != nil {
			return nil, st, fmt.Errorf("read frame %d: %w", st.Frames, err)
		}

		p, err := det.Detect(frame)
		frame.Close()
		st.Frames++
		if onFrame != nil {
			onFrame()
		}
		if err != nil {
			return nil, st, fmt.Errorf("detect frame %d: %w", st.Frames-1, err)
		}
		if !p.Detected() {
			st.Skipped++
			p = pose.Pose{}
		}
		seq = append(seq, p)
	}

	if st.Skipped == st.Frames {
		return nil, st, ErrNoPoses
	}
	return seq, st, nil
}
