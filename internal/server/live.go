package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/config"
)

// LiveHandler starts and stops browser sessions.
//
//	GET    /api/live  status and the last finished session
//	POST   /api/live  start a session from a JSON session config
//	DELETE /api/live  stop the running session
type LiveHandler struct {
	hub *Hub
	app *app.App
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(hub *Hub, a *app.App) *LiveHandler {
	return &LiveHandler{hub: hub, app: a}
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"running": h.hub.Running(),
			"last":    h.app.LastRecord(),
		})
	case http.MethodPost:
		h.start(w, r)
	case http.MethodDelete:
		if !h.hub.Stop() {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "no session is running"})
			return
		}
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *LiveHandler) start(w http.ResponseWriter, r *http.Request) {
	var cfg config.Session
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	err := h.hub.Start(cfg)
	var cfgErr *config.Error
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]bool{"running": true})
	case errors.Is(err, app.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"field": cfgErr.Field, "error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
