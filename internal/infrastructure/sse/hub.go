// Package sse pushes regenerated reports and alert transitions to live
// clients over Server-Sent Events and WebSockets.
package sse

import (
	"sync"
	"time"
)

// Event types published by the watch loop.
const (
	TypeReport = "report.generated"
	TypeAlert  = "alert.transition"
)

// Event is one pushed message. Data is encoded as JSON.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Hub fans events out to subscribers. The most recent report is kept and
// replayed to new subscribers so a fresh client never starts empty.
type Hub struct {
	mu         sync.RWMutex
	clients    map[chan Event]struct{}
	lastReport *Event
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

// Publish delivers e to every subscriber. Slow clients drop events.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	if e.Type == TypeReport {
		h.lastReport = &e
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a buffered channel. The returned func unsubscribes
// and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	h.mu.Lock()
	if h.lastReport != nil {
		ch <- *h.lastReport
	}
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Clients returns the number of active subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
