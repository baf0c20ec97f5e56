package notify

import (
	"context"
	"sync"

	"github.com/odyssey-erp/lead-insights/internal/platform/broadcast"
)

const defaultFeedSize = 100

// Feed keeps the most recent toasts in memory for the rendering boundary to
// pick up, pinging subscribers whenever one arrives.
type Feed struct {
	mu     sync.Mutex
	size   int
	toasts []Toast
	hub    *broadcast.Hub
}

// NewFeed creates a feed holding at most size toasts.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &Feed{size: size, hub: broadcast.New()}
}

// Notify stores toast, evicting the oldest when full.
func (f *Feed) Notify(_ context.Context, toast Toast) {
	f.mu.Lock()
	f.toasts = append(f.toasts, toast)
	if over := len(f.toasts) - f.size; over > 0 {
		f.toasts = append(f.toasts[:0:0], f.toasts[over:]...)
	}
	f.mu.Unlock()
	f.hub.Broadcast()
}

// Recent returns a copy of the stored toasts, oldest first.
func (f *Feed) Recent() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Toast, len(f.toasts))
	copy(out, f.toasts)
	return out
}

// Drain returns the stored toasts and empties the feed.
func (f *Feed) Drain() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.toasts
	f.toasts = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

// DrainFor removes and returns only the toasts raised by the view bound to
// entity, leaving the rest for their own readers. An empty view matches
// toasts raised outside any view.
func (f *Feed) DrainFor(view, entity string) []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Toast{}
	kept := f.toasts[:0]
	for _, t := range f.toasts {
		if t.View == view && t.Entity == entity {
			out = append(out, t)
			continue
		}
		kept = append(kept, t)
	}
	clear(f.toasts[len(kept):])
	f.toasts = kept
	return out
}

// Subscribe returns a channel pinged on every new toast.
func (f *Feed) Subscribe() chan struct{} {
	return f.hub.Subscribe()
}

// Unsubscribe releases a channel from Subscribe.
func (f *Feed) Unsubscribe(ch chan struct{}) {
	f.hub.Unsubscribe(ch)
}
