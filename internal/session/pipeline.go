// Package session runs one exercise session: it pulls frames from a capture
// source, detects the pose and feeds joint geometry to the repetition
// counter, the extrema aggregators and the similarity scorer.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/detector"
	"github.com/ayusman/repcoach/internal/keypoints"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/reps"
	"github.com/ayusman/repcoach/internal/similarity"
	"github.com/ayusman/repcoach/internal/stats"
)

// ErrDone is returned by Next once the session has ended: the stream was
// exhausted, the duration elapsed or the pipeline was closed.
var ErrDone = errors.New("session done")

// Overlay is everything an Annotator may draw on a frame.
type Overlay struct {
	Mode config.Mode

	// Pose is in pixel coordinates, nil when nobody was detected.
	Pose   pose.Pose
	Joints []JointReading

	Reps           *RepsReading
	UpperThreshold float64
	LowerThreshold float64

	Match *MatchReading

	AngleStats stats.Statistics
	AngleNames []string

	// Reference is the reference video frame in compare mode, or nil.
	Reference *gocv.Mat
}

// Annotator draws an Overlay onto a frame. It may replace *frame with a new
// Mat, in which case it must close the old one.
type Annotator interface {
	Annotate(frame *gocv.Mat, o *Overlay) error
}

// Encoder turns an annotated frame into bytes.
type Encoder func(frame gocv.Mat) ([]byte, error)

// JPEGEncoder encodes frames as JPEG.
func JPEGEncoder(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	return bytes.Clone(buf.GetBytes()), nil
}

// Sources are the frame producers of a session.
type Sources struct {
	// Live is the performer: a webcam or a video file.
	Live capture.Source
	// Reference is the reference video shown in compare mode. Optional.
	// When it implements capture.Rewinder the video drives the scorer
	// cursor: the cursor only returns to the first frame when the video
	// is rewound.
	Reference capture.Source
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAnnotator sets the overlay renderer.
func WithAnnotator(a Annotator) Option {
	return func(p *Pipeline) { p.annotator = a }
}

// WithEncoder sets the frame encoder. nil disables encoding.
func WithEncoder(e Encoder) Option {
	return func(p *Pipeline) { p.encoder = e }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithCatalog replaces pose.Default.
func WithCatalog(c *pose.Catalog) Option {
	return func(p *Pipeline) { p.catalog = c }
}

// WithReference supplies the reference sequence instead of loading
// cfg.Reference from disk.
func WithReference(seq similarity.Sequence) Option {
	return func(p *Pipeline) { p.refSeq = seq }
}

// Pipeline processes one session frame by frame. Frames are only read when
// the caller asks for the next result. It owns its sources and detector and
// releases them on Close. It is not safe for concurrent use.
type Pipeline struct {
	cfg     config.Session
	catalog *pose.Catalog
	live    capture.Source
	ref     capture.Source
	det     detector.Detector
	gate    *capture.MotionGate

	joints   []pose.Joint
	segments []pose.Segment

	counter   *reps.Counter
	angles    *stats.Aggregator
	distances *stats.Aggregator
	refSeq    similarity.Sequence
	scorer    *similarity.Scorer

	annotator Annotator
	encoder   Encoder
	now       func() time.Time

	started  time.Time
	ended    time.Time
	index    int
	detected int
	matchSum float64
	matchN   int
	done     bool

	closeOnce sync.Once
	closeErr  error
}

// New validates cfg, opens the sources and returns a pipeline ready to
// produce frames. Configuration problems are reported as *config.Error. The
// pipeline takes ownership of the sources and the detector even when New
// fails.
func New(cfg config.Session, src Sources, det detector.Detector, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:       cfg,
		catalog:   pose.Default,
		live:      src.Live,
		ref:       src.Reference,
		det:       det,
		angles:    stats.NewAggregator(),
		distances: stats.NewAggregator(),
		encoder:   JPEGEncoder,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.init(); err != nil {
		p.Close()
		return nil, err
	}

	p.started = p.now()
	return p, nil
}

func (p *Pipeline) init() error {
	if p.live == nil {
		return &config.Error{Field: "input", Err: errors.New("no live source")}
	}
	if p.det == nil {
		return errors.New("no detector")
	}

	p.cfg.ApplyDefaults()
	if err := p.cfg.Validate(p.catalog); err != nil {
		return err
	}

	for _, name := range p.cfg.Joints {
		j, _ := p.catalog.Joint(name, p.cfg.Orientation)
		p.joints = append(p.joints, j)
	}
	for _, name := range p.cfg.Distances {
		s, _ := p.catalog.Segment(name, p.cfg.Orientation)
		p.segments = append(p.segments, s)
	}

	if r := p.cfg.Reps; r != nil {
		c, err := reps.NewCounter(r.UpperThreshold, r.LowerThreshold)
		if err != nil {
			return &config.Error{Field: "reps", Err: err}
		}
		p.counter = c
	}

	if p.cfg.Mode == config.ModeCompare {
		if p.refSeq == nil {
			seq, err := keypoints.Load(p.cfg.Reference)
			if err != nil {
				return &config.Error{Field: "reference", Err: err}
			}
			p.refSeq = seq
		}
		scorer, err := similarity.NewScorer(p.refSeq, p.cfg.Similarity())
		if err != nil {
			return &config.Error{Field: "reference", Err: err}
		}
		p.scorer = scorer
	}

	if p.cfg.MotionThreshold > 0 {
		p.gate = capture.NewMotionGate(p.cfg.MotionThreshold)
	}

	if err := p.live.Open(); err != nil {
		return fmt.Errorf("open live source: %w", err)
	}
	if p.ref != nil && p.cfg.Mode == config.ModeCompare {
		if err := p.ref.Open(); err != nil {
			return fmt.Errorf("open reference video: %w", err)
		}
		if _, ok := p.ref.(capture.Rewinder); ok {
			p.scorer.SetWrap(false)
		}
	}
	return nil
}

// Next processes one frame and returns its result. It returns ErrDone when
// the session is over and ctx.Err() when ctx is cancelled. Pose misses and
// per-frame detector failures are not errors: the result simply has
// PoseDetected set to false.
func (p *Pipeline) Next(ctx context.Context) (*Result, error) {
	if p.done {
		return nil, ErrDone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elapsed := p.now().Sub(p.started)
	if d := p.cfg.Duration(); d > 0 && elapsed > d {
		p.finish()
		return nil, ErrDone
	}

	frame, err := p.live.ReadFrame()
	if errors.Is(err, capture.ErrStreamEnd) {
		p.finish()
		return nil, ErrDone
	}
	if err != nil {
		return nil, fmt.Errorf("read frame %d: %w", p.index, err)
	}
	defer func() { frame.Close() }()

	if p.cfg.Mirrored() {
		gocv.Flip(*frame, frame, 1)
	}

	refFrame := p.readReference()
	if refFrame != nil {
		defer refFrame.Close()
	}

	res := &Result{Index: p.index, Elapsed: elapsed}
	ov := &Overlay{Mode: p.cfg.Mode, Reference: refFrame}
	if p.counter != nil {
		ov.UpperThreshold, ov.LowerThreshold = p.counter.Thresholds()
	}

	if detected := p.detect(frame); detected.Detected() {
		res.PoseDetected = true
		p.detected++
		p.measure(detected, frame.Cols(), frame.Rows(), res, ov)
	} else if p.scorer != nil {
		p.scorer.Skip()
	}

	res.AngleStats = p.angles.Snapshot()
	res.DistanceStats = p.distances.Snapshot()
	ov.AngleStats = res.AngleStats
	ov.AngleNames = p.angles.Names()

	if p.annotator != nil {
		if err := p.annotator.Annotate(frame, ov); err != nil {
			Logf("[session] frame %d: annotate: %v", p.index, err)
		}
	}
	if p.encoder != nil {
		data, err := p.encoder(*frame)
		if err != nil {
			return nil, err
		}
		res.Frame = data
	}

	p.index++
	return res, nil
}

// readReference reads the next reference frame, looping the video and the
// scorer together when the video ends.
func (p *Pipeline) readReference() *gocv.Mat {
	if p.ref == nil || p.scorer == nil {
		return nil
	}

	frame, err := p.ref.ReadFrame()
	if errors.Is(err, capture.ErrStreamEnd) {
		rw, ok := p.ref.(capture.Rewinder)
		if !ok {
			return nil
		}
		if err := rw.Rewind(); err != nil {
			Logf("[session] rewind reference: %v", err)
			return nil
		}
		p.scorer.Reset()
		frame, err = p.ref.ReadFrame()
	}
	if err != nil {
		Logf("[session] read reference frame: %v", err)
		return nil
	}
	return frame
}

func (p *Pipeline) detect(frame *gocv.Mat) pose.Pose {
	if p.gate != nil {
		if ok, _ := p.gate.Allow(frame); !ok {
			return nil
		}
	}

	detected, err := p.det.Detect(frame)
	if err != nil {
		Logf("[session] frame %d: detect: %v", p.index, err)
		return nil
	}
	return detected
}

// measure runs the geometry on a detected pose. Angles and distances use
// pixel coordinates so the frame aspect ratio does not skew them; the
// similarity score uses the normalized pose like the recorded sequence.
func (p *Pipeline) measure(normalized pose.Pose, width, height int, res *Result, ov *Overlay) {
	px := normalized.Scale(float64(width), float64(height))
	ov.Pose = px

	if len(p.joints) > 0 {
		res.Angles = make(map[string]float64, len(p.joints))
	}
	for _, j := range p.joints {
		angle, err := pose.JointAngle(px, j)
		if err != nil {
			Logf("[session] frame %d: %s: %v", p.index, j.Name, err)
			continue
		}
		res.Angles[j.Name] = angle
		p.angles.Observe(j.Name, angle)
		ov.Joints = append(ov.Joints, JointReading{
			Name:   j.Name,
			Angle:  angle,
			Points: [3]pose.Landmark{px[j.A], px[j.B], px[j.C]},
		})

		if p.counter != nil && j.Name == p.cfg.Reps.Joint {
			pct := reps.Percentage(angle, p.cfg.Reps.MinAngle, p.cfg.Reps.MaxAngle)
			res.Reps = &RepsReading{Update: p.counter.Update(pct), Angle: angle, Percentage: pct}
			ov.Reps = res.Reps
		}
	}

	if len(p.segments) > 0 {
		res.Distances = make(map[string]float64, len(p.segments))
	}
	for _, s := range p.segments {
		d, err := pose.SegmentLength(px, s)
		if err != nil {
			continue
		}
		res.Distances[s.Name] = d
		p.distances.Observe(s.Name, d)
	}

	if p.scorer != nil {
		// The reference was recorded unmirrored.
		if p.cfg.Mirrored() {
			normalized = normalized.Flip()
		}
		m, err := p.scorer.Score(normalized)
		if err != nil {
			Logf("[session] frame %d: score: %v", p.index, err)
			p.scorer.Skip()
			return
		}
		if !m.Scored {
			return
		}
		msg, alert := similarity.Status(m)
		res.Match = &MatchReading{Result: m, Message: msg, Alert: alert}
		ov.Match = res.Match
		p.matchSum += m.Ratio
		p.matchN++
	}
}

// All returns an iterator over the remaining results. The pipeline is
// closed when the loop ends, including on break. A terminal error other
// than ErrDone is yielded once with a nil result.
func (p *Pipeline) All(ctx context.Context) iter.Seq2[*Result, error] {
	return func(yield func(*Result, error) bool) {
		defer p.Close()
		for {
			res, err := p.Next(ctx)
			if errors.Is(err, ErrDone) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

func (p *Pipeline) finish() {
	p.done = true
	p.Close()
}

// Close ends the session and releases the sources, the detector and the
// motion gate. It is safe to call more than once; only the first call
// releases anything.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.done = true
		p.ended = p.now()

		var errs []error
		if p.live != nil {
			errs = append(errs, p.live.Close())
		}
		if p.ref != nil {
			errs = append(errs, p.ref.Close())
		}
		if p.det != nil {
			errs = append(errs, p.det.Close())
		}
		if p.gate != nil {
			p.gate.Close()
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}

// Summary returns the session totals so far.
func (p *Pipeline) Summary() Summary {
	s := Summary{
		Mode:          p.cfg.Mode,
		StartedAt:     p.started,
		EndedAt:       p.ended,
		Frames:        p.index,
		Detected:      p.detected,
		AngleStats:    p.angles.Snapshot(),
		DistanceStats: p.distances.Snapshot(),
	}
	if s.EndedAt.IsZero() {
		s.EndedAt = p.now()
	}
	if p.counter != nil {
		s.Reps = p.counter.State().Count
	}
	if p.matchN > 0 {
		s.MeanMatch = p.matchSum / float64(p.matchN)
	}
	return s
}

// Config returns the effective session configuration.
func (p *Pipeline) Config() config.Session {
	return p.cfg
}
