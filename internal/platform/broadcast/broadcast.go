// Package broadcast fans change pings out to any number of listeners.
package broadcast

import "sync"

// Hub delivers empty pings to subscribers. A ping only says "something
// changed": listeners re-read whatever state they care about.
type Hub struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{listeners: make(map[chan struct{}]struct{})}
}

// Subscribe returns a channel that receives pings. Callers must Unsubscribe.
func (h *Hub) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.listeners[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (h *Hub) Unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	_, ok := h.listeners[ch]
	delete(h.listeners, ch)
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Broadcast pings every listener without blocking. A listener with a ping
// already pending does not get a second one.
func (h *Hub) Broadcast() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Len reports the number of listeners.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
