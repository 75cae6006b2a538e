package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"

	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/plugin"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/report"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

// Record is a finished session as reported to callers and hooks.
type Record struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	session.Summary
	Trace []report.Series `json:"-"`
}

// ResultFunc receives every frame result. Returning false stops the session.
type ResultFunc func(res *session.Result) bool

// RunSession runs a session to completion and stores its record. When
// onResult is nil frames are neither annotated nor encoded. Stopping the
// session through onResult or ctx is not an error.
func (a *App) RunSession(ctx context.Context, cfg config.Session, onResult ResultFunc) (*Record, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer a.busy.Store(false)

	cfg.ApplyDefaults()
	if err := cfg.Validate(pose.Default); err != nil {
		return nil, err
	}

	src, err := a.newSources(cfg)
	if err != nil {
		return nil, fmt.Errorf("capture sources: %w", err)
	}
	det, err := a.newDetector()
	if err != nil {
		src.Live.Close()
		if src.Reference != nil {
			src.Reference.Close()
		}
		return nil, fmt.Errorf("start detector: %w", err)
	}

	opts := []session.Option{session.WithEncoder(nil)}
	if onResult != nil {
		opts = []session.Option{session.WithAnnotator(a.renderer)}
	}
	p, err := session.New(cfg, src, det, opts...)
	if err != nil {
		return nil, err
	}

	log.Printf("[app] %s session started (%s)", cfg.Mode, sourceName(cfg))

	trace := report.NewTrace()
	var runErr error
	for res, err := range p.All(ctx) {
		if err != nil {
			runErr = err
			break
		}
		trace.Observe(res)
		if onResult != nil && !onResult(res) {
			break
		}
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	rec := &Record{
		ID:      uuid.NewString(),
		Source:  sourceName(cfg),
		Summary: p.Summary(),
		Trace:   trace.All(),
	}
	log.Printf("[app] session %s finished: %d frames, %.1f reps", rec.ID, rec.Frames, rec.Reps)

	a.mu.Lock()
	a.last = rec
	a.mu.Unlock()

	if err := a.save(rec, cfg); err != nil {
		log.Printf("[app] failed to store session %s: %v", rec.ID, err)
	}

	hookCtx := context.WithoutCancel(ctx)
	if err := a.hooks.Notify(hookCtx, plugin.EventSessionFinished, rec.ID, rec); err != nil {
		log.Printf("[app] session hooks: %v", err)
	}

	return rec, runErr
}

func (a *App) save(rec *Record, cfg config.Session) error {
	s := a.config.Store
	if s == nil {
		return nil
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	err = s.Sessions().Create(&store.Session{
		ID:        rec.ID,
		Mode:      string(rec.Mode),
		Source:    rec.Source,
		StartedAt: rec.StartedAt,
		EndedAt:   rec.EndedAt,
		Frames:    rec.Frames,
		Detected:  rec.Detected,
		Reps:      rec.Reps,
		MeanMatch: rec.MeanMatch,
		Config:    cfgJSON,
	})
	if err != nil {
		return err
	}

	if err := s.Stats().Save(rec.ID, store.StatAngle, rec.AngleStats); err != nil {
		return err
	}
	if err := s.Stats().Save(rec.ID, store.StatDistance, rec.DistanceStats); err != nil {
		return err
	}
	return s.Traces().Save(rec.ID, rec.Trace)
}

func sourceName(cfg config.Session) string {
	if cfg.Input != "" {
		return cfg.Input
	}
	return "webcam:" + strconv.Itoa(cfg.CameraID)
}
