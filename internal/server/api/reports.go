package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayusman/repcoach/internal/report"
	"github.com/ayusman/repcoach/internal/store"
)

// ReportHandler renders the measurements of a stored session.
type ReportHandler struct {
	store *store.Store
}

// NewReportHandler creates a new ReportHandler with the given store.
func NewReportHandler(s *store.Store) *ReportHandler {
	return &ReportHandler{store: s}
}

// ServeHTTP handles GET /api/sessions/{id}/{trace|chart|plot.png}.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	sess, err := h.store.Sessions().GetByID(parts[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	series, err := h.store.Traces().Get(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get session trace")
		return
	}
	trace := report.FromSeries(series)

	switch parts[1] {
	case "trace":
		writeJSON(w, http.StatusOK, map[string]any{
			"series":  series,
			"summary": trace.Summarize(),
		})
	case "chart":
		h.chart(w, sess, trace)
	case "plot.png":
		h.plot(w, sess, trace)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *ReportHandler) chart(w http.ResponseWriter, sess *store.Session, trace *report.Trace) {
	angles, err := h.store.Stats().Get(sess.ID, store.StatAngle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get session statistics")
		return
	}
	distances, err := h.store.Stats().Get(sess.ID, store.StatDistance)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get session statistics")
		return
	}

	var buf bytes.Buffer
	err = report.RenderChart(&buf, report.ChartData{
		Title:    fmt.Sprintf("%s session", sess.Mode),
		Subtitle: fmt.Sprintf("%s, %s", sess.Source, sess.StartedAt.Format("2006-01-02 15:04")),
		Trace:    trace,
		Angles:   angles,
		Distance: distances,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (h *ReportHandler) plot(w http.ResponseWriter, sess *store.Session, trace *report.Trace) {
	opts := report.DefaultPlotOptions()
	opts.Title = fmt.Sprintf("%s session %s", sess.Mode, sess.StartedAt.Format("2006-01-02 15:04"))

	var buf bytes.Buffer
	if err := report.WritePlot(&buf, trace, opts); err != nil {
		if errors.Is(err, report.ErrEmptyTrace) {
			writeError(w, http.StatusNotFound, "Session has no measurements")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to render plot")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
