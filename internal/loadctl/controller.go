package loadctl

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/odyssey-erp/lead-insights/internal/notify"
	"github.com/odyssey-erp/lead-insights/internal/platform/broadcast"
	"github.com/odyssey-erp/lead-insights/internal/shared"
)

// ErrAlreadyInitialized is returned by a second Initialize call.
var ErrAlreadyInitialized = errors.New("loadctl: already initialized")

// Config carries the collaborators of a Controller. Every field is optional.
// Entity is the lead or territory id the view is bound to.
type Config struct {
	View     string
	Entity   string
	Notifier notify.Notifier
	Logger   *slog.Logger
	Metrics  *Metrics
}

// Controller runs load cycles over its slots. It is safe for concurrent use.
type Controller struct {
	view     string
	entity   string
	slots    []Source
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *Metrics
	hub      *broadcast.Hub

	initialized atomic.Bool
	cycles      atomic.Int64

	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

// New builds a controller over slots. Nil slots are skipped.
func New(cfg Config, slots ...Source) *Controller {
	c := &Controller{
		view:     cfg.View,
		entity:   cfg.Entity,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		hub:      broadcast.New(),
		idle:     make(chan struct{}),
	}
	close(c.idle)
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(slog.String("view", c.view))
	for _, s := range slots {
		if s != nil {
			c.slots = append(c.slots, s)
		}
	}
	return c
}

// Entity returns the id the view is bound to, or "".
func (c *Controller) Entity() string {
	return c.entity
}

// View returns the view name used for logs, metrics and toasts.
func (c *Controller) View() string {
	return c.view
}

// Slots lists the slot names in registration order.
func (c *Controller) Slots() []string {
	names := make([]string, len(c.slots))
	for i, s := range c.slots {
		names[i] = s.Name()
	}
	return names
}

// Initialized reports whether Initialize has run.
func (c *Controller) Initialized() bool {
	return c.initialized.Load()
}

// Initialize starts the first load cycle. It runs at most once.
func (c *Controller) Initialize(ctx context.Context) error {
	if !c.initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}
	c.start(ctx, "initialize")
	return nil
}

// Refresh starts a new load cycle from any state. Fetches still running from
// an earlier cycle are not cancelled; their results are applied when they
// settle.
func (c *Controller) Refresh(ctx context.Context) {
	c.start(ctx, "refresh")
}

func (c *Controller) start(ctx context.Context, trigger string) {
	// Fetches outlive the request that triggered them.
	ctx = context.WithoutCancel(ctx)
	cycle := c.cycles.Add(1)
	c.logger.Info("load cycle started", slog.String("trigger", trigger), slog.Int64("cycle", cycle), slog.Int("slots", len(c.slots)))

	for _, s := range c.slots {
		s.begin()
		c.track(1)
	}
	c.hub.Broadcast()

	for _, s := range c.slots {
		go func(s Source) {
			defer func() {
				c.track(-1)
				c.hub.Broadcast()
			}()
			s.run(ctx, c)
		}(s)
	}
}

func (c *Controller) track(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if delta > 0 && c.pending == 0 {
		c.idle = make(chan struct{})
	}
	c.pending += delta
	c.metrics.inFlight(c.view, delta)
	if c.pending == 0 {
		close(c.idle)
	}
}

// Settled returns a channel closed once no fetch is in flight. A later cycle
// gets a fresh channel.
func (c *Controller) Settled() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle
}

// Wait blocks until every in-flight fetch has settled or ctx ends. It
// returns the shaping failures currently recorded, joined, so contract
// violations surface to the caller instead of only the log.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.Settled():
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.ShapingErrors()
}

// ShapingErrors joins the shaping failures currently held by slots.
func (c *Controller) ShapingErrors() error {
	var errs []error
	for _, s := range c.slots {
		if sum := s.summary(); sum.shaping && sum.err != nil {
			errs = append(errs, sum.err)
		}
	}
	return errors.Join(errs...)
}

// Status merges the status of every active slot. A controller with only
// passive slots merges those instead.
func (c *Controller) Status() Status {
	var active, all []Status
	for _, s := range c.slots {
		st := s.summary().status
		all = append(all, st)
		if !s.Passive() {
			active = append(active, st)
		}
	}
	if len(active) == 0 {
		return Merge(all...)
	}
	return Merge(active...)
}

// Subscribe returns a channel pinged whenever any slot changes.
func (c *Controller) Subscribe() chan struct{} {
	return c.hub.Subscribe()
}

// Unsubscribe releases a channel from Subscribe.
func (c *Controller) Unsubscribe(ch chan struct{}) {
	c.hub.Unsubscribe(ch)
}

func (c *Controller) notifyFailure(ctx context.Context, message string) {
	toast := notify.NewToast(notify.ErrorTitle, message, shared.VariantError)
	toast.View = c.view
	toast.Entity = c.entity
	c.notifier.Notify(ctx, toast)
}
