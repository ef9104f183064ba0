package serve

import (
	"fmt"
	"net/http"
	"sync"

	"docforge/internal/logging"
)

// ReloadHub fans a rebuild signal out to connected SSE clients. Each open
// preview page holds a GET /events stream and reloads itself on the "reload"
// event.
type ReloadHub struct {
	mu      sync.Mutex
	clients map[chan struct{}]bool
	closed  bool
}

func NewReloadHub() *ReloadHub {
	return &ReloadHub{clients: make(map[chan struct{}]bool)}
}

// Broadcast signals every connected client. Slow clients are skipped rather
// than blocked on; they reload on the next event.
func (h *ReloadHub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	logging.ServeDebug("reload broadcast to %d clients", len(h.clients))
}

// subscribe registers a client channel. A nil return means the hub is
// already shut down.
func (h *ReloadHub) subscribe() chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	ch := make(chan struct{}, 1)
	h.clients[ch] = true
	return ch
}

func (h *ReloadHub) unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
}

// Close disconnects all clients.
func (h *ReloadHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// ServeHTTP implements the SSE endpoint.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := h.subscribe()
	if ch == nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-ch:
			if !open {
				return
			}
			fmt.Fprint(w, "event: reload\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
