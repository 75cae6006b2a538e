// Package keypoints reads and writes recorded reference pose sequences.
//
// A sequence file is JSON, optionally gzip-compressed when its name ends in
// .gz. Loading is all-or-nothing: a file with any malformed frame is
// rejected as a whole.
package keypoints

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/similarity"
)

// FormatVersion is written into every file.
const FormatVersion = 1

// VideoExtensions are the video containers the library recognises.
var VideoExtensions = []string{".mp4", ".avi"}

type file struct {
	Version int               `json:"version"`
	Source  string            `json:"source,omitempty"`
	Frames  [][]pose.Landmark `json:"frames"`
}

// PathFor returns the keypoints file that belongs to a reference video:
// the same path with the video extension replaced by .json.
func PathFor(video string) string {
	ext := filepath.Ext(video)
	for _, v := range VideoExtensions {
		if strings.EqualFold(ext, v) {
			return strings.TrimSuffix(video, ext) + ".json"
		}
	}
	return video + ".json"
}

// IsVideo reports whether name has a recognised video extension.
func IsVideo(name string) bool {
	ext := filepath.Ext(name)
	for _, v := range VideoExtensions {
		if strings.EqualFold(ext, v) {
			return true
		}
	}
	return false
}

// Load reads a sequence from path. Errors wrap the underlying cause, so a
// missing file satisfies errors.Is(err, fs.ErrNotExist).
func Load(path string) (similarity.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keypoints: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("decompress keypoints %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	return Decode(r)
}

// Decode reads a sequence from r.
func Decode(r io.Reader) (similarity.Sequence, error) {
	var doc file
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode keypoints: %w", err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported keypoints version %d", doc.Version)
	}

	seq := make(similarity.Sequence, len(doc.Frames))
	for i, frame := range doc.Frames {
		seq[i] = pose.Pose(frame)
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return seq, nil
}

// Save writes seq to path, replacing any existing file. The data is written
// to a temporary file first so readers never see a partial sequence.
func Save(path string, seq similarity.Sequence, source string) error {
	if err := seq.Validate(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".keypoints-*")
	if err != nil {
		return fmt.Errorf("create keypoints: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(tmp)
		w = gz
	}

	if err := Encode(w, seq, source); err != nil {
		tmp.Close()
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("compress keypoints: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write keypoints: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

// Encode writes seq to w.
func Encode(w io.Writer, seq similarity.Sequence, source string) error {
	doc := file{
		Version: FormatVersion,
		Source:  source,
		Frames:  make([][]pose.Landmark, len(seq)),
	}
	for i, p := range seq {
		if len(p) == 0 {
			doc.Frames[i] = []pose.Landmark{}
			continue
		}
		doc.Frames[i] = p
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode keypoints: %w", err)
	}
	return nil
}
