package loadctl

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SlotState is an immutable snapshot of one slot.
//
// Value survives failed refreshes so the last good data stays visible; Err
// holds the failure of the latest settlement and is cleared on success.
type SlotState[V any] struct {
	Status  Status
	Value   *V
	Err     error
	Settled time.Time
}

// HasValue reports whether a shaped value has ever been stored.
func (s SlotState[V]) HasValue() bool {
	return s.Value != nil
}

// Source is a slot the Controller can drive. Only *Slot implements it.
type Source interface {
	Name() string
	Passive() bool

	begin()
	run(ctx context.Context, c *Controller)
	summary() slotSummary
}

type slotSummary struct {
	status  Status
	err     error
	shaping bool
}

// SlotOption customises a slot.
type SlotOption func(*slotOptions)

type slotOptions struct {
	passive bool
}

// AsPassive marks a slot as supporting data: its failures are logged but
// never notified and it does not count toward the view status.
func AsPassive() SlotOption {
	return func(o *slotOptions) { o.passive = true }
}

// Slot fetches a payload of type P and shapes it into the stored value V.
type Slot[P, V any] struct {
	name    string
	message string
	passive bool
	fetch   func(context.Context) (P, error)
	shape   func(P) (V, error)

	mu       sync.RWMutex
	state    SlotState[V]
	inFlight int
	shaping  bool
}

// NewSlot builds a slot. message is what users see when the fetch fails;
// the underlying error is never shown to them.
func NewSlot[P, V any](name, message string, fetch func(context.Context) (P, error), shape func(P) (V, error), opts ...SlotOption) *Slot[P, V] {
	var o slotOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Slot[P, V]{
		name:    name,
		message: message,
		passive: o.passive,
		fetch:   fetch,
		shape:   shape,
	}
}

// Identity is a shape func that stores the payload unchanged.
func Identity[P any](p P) (P, error) {
	return p, nil
}

// Name returns the slot name.
func (s *Slot[P, V]) Name() string { return s.name }

// Passive reports whether the slot is supporting data.
func (s *Slot[P, V]) Passive() bool { return s.passive }

// State returns the current snapshot.
func (s *Slot[P, V]) State() SlotState[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Slot[P, V]) begin() {
	s.mu.Lock()
	s.inFlight++
	s.state.Status = Loading
	s.mu.Unlock()
}

func (s *Slot[P, V]) summary() slotSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slotSummary{status: s.state.Status, err: s.state.Err, shaping: s.shaping}
}

// settle swaps in the next snapshot. The slot stays loading until its last
// in-flight fetch settles; data from every settlement is applied in the order
// they arrive.
func (s *Slot[P, V]) settle(status Status, value *V, err error, shaping bool) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	next := SlotState[V]{Status: status, Value: s.state.Value, Err: err, Settled: time.Now()}
	if value != nil {
		next.Value = value
	}
	if s.inFlight > 0 {
		next.Status = Loading
	}
	s.state = next
	s.shaping = shaping
	return next.Status
}

func (s *Slot[P, V]) run(ctx context.Context, c *Controller) {
	start := time.Now()
	logger := c.logger.With(slog.String("slot", s.name))

	payload, err := s.fetch(ctx)
	if err != nil {
		s.settle(Failed, nil, err, false)
		c.metrics.observe(c.view, s.name, outcomeFetchError, time.Since(start))
		if s.passive {
			logger.Warn("supporting fetch failed", slog.Any("error", err))
			return
		}
		logger.Warn("fetch failed", slog.Any("error", err))
		c.notifyFailure(ctx, s.message)
		return
	}

	value, err := s.shape(payload)
	if err != nil {
		s.settle(Failed, nil, err, true)
		c.metrics.observe(c.view, s.name, outcomeShapeError, time.Since(start))
		logger.Error("shape payload", slog.Any("error", err))
		return
	}

	status := s.settle(Ready, &value, nil, false)
	c.metrics.observe(c.view, s.name, outcomeReady, time.Since(start))
	logger.Debug("slot settled", slog.String("status", status.String()), slog.Duration("duration", time.Since(start)))
}
