package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/keypoints"
	"github.com/ayusman/repcoach/internal/plugin"
)

// Video is a reference video in the library.
type Video struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Reference is the keypoints file compare mode will load.
	Reference    string `json:"reference"`
	HasReference bool   `json:"has_reference"`
}

// Library lists the videos in the library directory sorted by name. A
// missing directory is an empty library.
func (a *App) Library() ([]Video, error) {
	entries, err := os.ReadDir(a.config.LibraryDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var videos []Video
	for _, e := range entries {
		if e.IsDir() || !keypoints.IsVideo(e.Name()) {
			continue
		}
		path := filepath.Join(a.config.LibraryDir, e.Name())
		ref := keypoints.PathFor(path)
		_, statErr := os.Stat(ref)
		videos = append(videos, Video{
			Name:         strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path:         path,
			Reference:    ref,
			HasReference: statErr == nil,
		})
	}
	slices.SortFunc(videos, func(x, y Video) int { return strings.Compare(x.Name, y.Name) })
	return videos, nil
}

// Extraction describes a reference keypoints file written by Extract.
type Extraction struct {
	Video   string `json:"video"`
	Output  string `json:"output"`
	Frames  int    `json:"frames"`
	Skipped int    `json:"skipped"`
}

// ProgressFunc is told how many frames were processed out of total. total is
// 0 when the container does not report a frame count.
type ProgressFunc func(done, total int)

// Extract records the reference sequence of a video and writes it next to
// the video. Frames without a person are kept as empty poses so the file has
// one entry per video frame.
func (a *App) Extract(ctx context.Context, video string, progress ProgressFunc) (*Extraction, error) {
	if !keypoints.IsVideo(video) {
		return nil, fmt.Errorf("%s is not a supported video", video)
	}

	src := capture.NewVideoFile(video)
	if err := src.Open(); err != nil {
		return nil, err
	}
	total := src.FrameCount()

	det, err := a.newDetector()
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("start detector: %w", err)
	}
	defer det.Close()

	done := 0
	seq, st, err := keypoints.Record(ctx, src, det, func() {
		done++
		if progress != nil {
			progress(done, total)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", video, err)
	}

	out := keypoints.PathFor(video)
	if err := keypoints.Save(out, seq, filepath.Base(video)); err != nil {
		return nil, err
	}

	ex := &Extraction{Video: video, Output: out, Frames: st.Frames, Skipped: st.Skipped}
	log.Printf("[app] extracted %d frames from %s (%d without a person)", ex.Frames, video, ex.Skipped)

	if err := a.hooks.Notify(context.WithoutCancel(ctx), plugin.EventReferenceExtracted, "", ex); err != nil {
		log.Printf("[app] extraction hooks: %v", err)
	}
	return ex, nil
}
