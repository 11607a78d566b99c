package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/a3tai/mcp-shiplabel/internal/session"
)

// Hub fans export notifications out to event-stream subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan session.Notification]string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan session.Notification]string)}
}

// Subscribe returns a channel receiving notifications for sessionID.
func (h *Hub) Subscribe(sessionID string) chan session.Notification {
	ch := make(chan session.Notification, 8)
	h.mu.Lock()
	h.subs[ch] = sessionID
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes ch from the hub.
func (h *Hub) Unsubscribe(ch chan session.Notification) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Publish delivers n to the subscribers of its session. Slow subscribers
// miss notifications rather than blocking the export.
func (h *Hub) Publish(n session.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, id := range h.subs {
		if id != n.SessionID {
			continue
		}
		select {
		case ch <- n:
		default:
		}
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch := s.hub.Subscribe(sess.ID())
	defer s.hub.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: connected\ndata: {\"session\": %q}\n\n", sess.ID())
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-ch:
			data, err := json.Marshal(n)
			if err != nil {
				s.log.Error("failed to marshal notification", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: exported\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
