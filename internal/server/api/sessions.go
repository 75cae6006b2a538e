package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/repcoach/internal/stats"
	"github.com/ayusman/repcoach/internal/store"
)

// SessionHandler serves the session history.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes /api/sessions and /api/sessions/{id}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	id = strings.TrimPrefix(id, "/")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type sessionResponse struct {
	ID        string  `json:"id"`
	Mode      string  `json:"mode"`
	Source    string  `json:"source"`
	StartedAt string  `json:"started_at"`
	EndedAt   string  `json:"ended_at"`
	Seconds   float64 `json:"seconds"`
	Frames    int     `json:"frames"`
	Detected  int     `json:"detected"`
	Reps      float64 `json:"reps"`
	MeanMatch float64 `json:"mean_match"`
}

type sessionDetailResponse struct {
	sessionResponse
	Config        json.RawMessage  `json:"config"`
	AngleStats    stats.Statistics `json:"angle_stats"`
	DistanceStats stats.Statistics `json:"distance_stats"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func toResponse(s *store.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Mode:      s.Mode,
		Source:    s.Source,
		StartedAt: formatTime(s.StartedAt),
		EndedAt:   formatTime(s.EndedAt),
		Seconds:   s.Duration().Seconds(),
		Frames:    s.Frames,
		Detected:  s.Detected,
		Reps:      s.Reps,
		MeanMatch: s.MeanMatch,
	}
}

// list handles GET /api/sessions?mode=live&limit=10.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(r.URL.Query().Get("mode"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) get(w http.ResponseWriter, id string) {
	s, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	angles, err := h.store.Stats().Get(id, store.StatAngle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get session statistics")
		return
	}
	distances, err := h.store.Stats().Get(id, store.StatDistance)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get session statistics")
		return
	}

	writeJSON(w, http.StatusOK, sessionDetailResponse{
		sessionResponse: toResponse(s),
		Config:          s.Config,
		AngleStats:      angles,
		DistanceStats:   distances,
	})
}

func (h *SessionHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
