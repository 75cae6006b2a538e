package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// writeWait bounds each WebSocket write so a client that stopped reading
// cannot hold up the session loop.
var writeWait = 2 * time.Second

// Message types sent to WebSocket clients.
const (
	MessageResult   = "result"
	MessageFinished = "finished"
	MessageError    = "error"
)

// Message is one WebSocket update.
type Message struct {
	Type   string          `json:"type"`
	Result *session.Result `json:"result,omitempty"`
	Record *app.Record     `json:"record,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Hub runs browser-started sessions and fans their results out to WebSocket
// clients and MJPEG viewers.
type Hub struct {
	app *app.App

	mu      sync.Mutex
	cancel  context.CancelFunc
	frame   []byte
	updated chan struct{}

	onFinished func(rec *app.Record)

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
}

// NewHub creates a Hub for a.
func NewHub(a *app.App) *Hub {
	return &Hub{
		app:     a,
		updated: make(chan struct{}),
		clients: make(map[*websocket.Conn]bool),
	}
}

// OnFinished sets a callback run after every hub session ends. rec is nil
// when the session could not start.
func (h *Hub) OnFinished(fn func(rec *app.Record)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFinished = fn
}

// Start validates cfg and runs the session in the background.
func (h *Hub) Start(cfg config.Session) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(pose.Default); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil || h.app.Running() {
		return app.ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.run(ctx, cfg)
	return nil
}

func (h *Hub) run(ctx context.Context, cfg config.Session) {
	rec, err := h.app.RunSession(ctx, cfg, h.publish)

	h.mu.Lock()
	h.cancel()
	h.cancel = nil
	onFinished := h.onFinished
	h.mu.Unlock()

	if onFinished != nil {
		onFinished(rec)
	}

	if err != nil {
		log.Printf("[server] session failed: %v", err)
		h.broadcast(Message{Type: MessageError, Error: err.Error()})
	}
	if rec != nil {
		h.broadcast(Message{Type: MessageFinished, Record: rec})
	}
}

// Stop cancels the running session. It reports false when none was running.
func (h *Hub) Stop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel == nil {
		return false
	}
	h.cancel()
	return true
}

// Running reports whether the hub has a session in progress.
func (h *Hub) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancel != nil
}

// Frame returns the latest annotated JPEG frame and a channel closed when a
// newer frame arrives.
func (h *Hub) Frame() ([]byte, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.updated
}

func (h *Hub) publish(res *session.Result) bool {
	if res.Frame != nil {
		h.mu.Lock()
		h.frame = res.Frame
		close(h.updated)
		h.updated = make(chan struct{})
		h.mu.Unlock()
	}

	h.broadcast(Message{Type: MessageResult, Result: res})
	return true
}

// broadcast sends msg to all connected clients. A client that cannot keep up
// is dropped.
func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[server] failed to encode %s message: %v", msg.Type, err)
		return
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[server] dropping websocket client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[server] websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.clientsMu.Lock()
	h.clients[conn] = true
	h.clientsMu.Unlock()

	defer func() {
		h.clientsMu.Lock()
		delete(h.clients, conn)
		h.clientsMu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				log.Printf("[server] websocket read: %v", err)
			}
			break
		}
	}
}

func (h *Hub) clientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}
