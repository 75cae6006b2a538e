package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/repcoach/internal/app"
)

// LibraryHandler lists reference videos and extracts their keypoints.
type LibraryHandler struct {
	app *app.App
}

// NewLibraryHandler creates a new LibraryHandler for a.
func NewLibraryHandler(a *app.App) *LibraryHandler {
	return &LibraryHandler{app: a}
}

// ServeHTTP handles GET /api/library and POST /api/library/extract.
func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/library")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "" && r.Method == http.MethodGet:
		h.list(w)
	case path == "extract" && r.Method == http.MethodPost:
		h.extract(w, r)
	case path == "" || path == "extract":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type extractRequest struct {
	Name string `json:"name"`
}

func (h *LibraryHandler) list(w http.ResponseWriter) {
	videos, err := h.app.Library()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list library")
		return
	}
	if videos == nil {
		videos = []app.Video{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": videos})
}

// extract runs to completion before answering. Only videos already in the
// library can be named.
func (h *LibraryHandler) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	videos, err := h.app.Library()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list library")
		return
	}

	var target *app.Video
	for i := range videos {
		if videos[i].Name == req.Name {
			target = &videos[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}

	ex, err := h.app.Extract(r.Context(), target.Path, nil)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ex)
}
