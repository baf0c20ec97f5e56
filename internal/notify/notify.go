// Package notify delivers user facing toasts. Delivery is fire and forget:
// nothing a notifier does is reported back to the caller.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/lead-insights/internal/shared"
)

// ErrorTitle is the title of every failure toast.
const ErrorTitle = "Error"

// Toast is a single user facing notification.
type Toast struct {
	ID      uuid.UUID      `json:"id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Variant shared.Variant `json:"variant"`
	View    string         `json:"view,omitempty"`
	Entity  string         `json:"entity,omitempty"`
	At      time.Time      `json:"at"`
}

// NewToast stamps a toast with a fresh id and the current time.
func NewToast(title, message string, variant shared.Variant) Toast {
	if !variant.Valid() {
		variant = shared.VariantInfo
	}
	return Toast{
		ID:      uuid.New(),
		Title:   title,
		Message: message,
		Variant: variant,
		At:      time.Now().UTC(),
	}
}

// Notifier accepts toasts.
type Notifier interface {
	Notify(ctx context.Context, toast Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, toast Toast)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, toast Toast) {
	f(ctx, toast)
}

// Discard drops every toast.
var Discard Notifier = NotifierFunc(func(context.Context, Toast) {})

// Multi hands each toast to every notifier in order.
type Multi []Notifier

// Notify fans toast out.
func (m Multi) Notify(ctx context.Context, toast Toast) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, toast)
		}
	}
}
