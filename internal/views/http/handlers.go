package viewhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/lead-insights/internal/analytics"
	"github.com/odyssey-erp/lead-insights/internal/charts"
	"github.com/odyssey-erp/lead-insights/internal/loadctl"
	"github.com/odyssey-erp/lead-insights/internal/notify"
	"github.com/odyssey-erp/lead-insights/internal/platform/httpx"
	"github.com/odyssey-erp/lead-insights/internal/shared"
	"github.com/odyssey-erp/lead-insights/internal/views"
	"github.com/odyssey-erp/lead-insights/internal/views/export"
)

const requestTimeout = 2 * time.Second

// heartbeat keeps idle event streams open through proxies.
const heartbeat = 25 * time.Second

// Registry hands out live views.
type Registry interface {
	Scorecard(ctx context.Context, leadID string) *views.Scorecard
	Dashboard(ctx context.Context, territoryID string) *views.Dashboard
}

// ToastFeed is the notification store drained by clients, one view at a time.
type ToastFeed interface {
	DrainFor(view, entity string) []notify.Toast
	Subscribe() chan struct{}
	Unsubscribe(ch chan struct{})
}

// CacheBumper schedules an analytics cache invalidation.
type CacheBumper interface {
	EnqueueCacheBump(ctx context.Context) (string, error)
}

// Handler serves view models over HTTP.
type Handler struct {
	logger   *slog.Logger
	registry Registry
	feed     ToastFeed
	bumper   CacheBumper
	validate *validator.Validate
	csvPool  sync.Pool
}

// NewHandler constructs the view HTTP handler. feed and bumper may be nil.
func NewHandler(logger *slog.Logger, registry Registry, feed ToastFeed, bumper CacheBumper) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:   logger,
		registry: registry,
		feed:     feed,
		bumper:   bumper,
		validate: validator.New(),
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

type entityParam struct {
	ID string `validate:"required,alphanum,min=15,max=18"`
}

type validationError struct {
	field string
}

func (e validationError) Error() string {
	return fmt.Sprintf("%s is invalid", e.field)
}

func (e validationError) Unwrap() error {
	return shared.ErrValidation
}

func (h *Handler) entityID(r *http.Request, param string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, param))
	if err := h.validate.Struct(entityParam{ID: id}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return "", validationError{field: param}
		}
		return "", err
	}
	return id, nil
}

// territoryID is optional: the unscoped dashboard route has no parameter.
func (h *Handler) territoryID(r *http.Request) (string, error) {
	if strings.TrimSpace(chi.URLParam(r, "territoryID")) == "" {
		return "", nil
	}
	return h.entityID(r, "territoryID")
}

func (h *Handler) scorecard(w http.ResponseWriter, r *http.Request) (*views.Scorecard, bool) {
	leadID, err := h.entityID(r, "leadID")
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	return h.registry.Scorecard(r.Context(), leadID), true
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) (*views.Dashboard, bool) {
	territoryID, err := h.territoryID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	return h.registry.Dashboard(r.Context(), territoryID), true
}

func (h *Handler) handleScorecard(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scorecard(w, r)
	if !ok {
		return
	}
	h.maybeWait(r, sc.Controller())
	httpx.JSON(w, http.StatusOK, sc.Model())
}

func (h *Handler) handleScorecardRefresh(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scorecard(w, r)
	if !ok {
		return
	}
	sc.Controller().Refresh(analytics.WithoutCache(r.Context()))
	h.maybeWait(r, sc.Controller())
	httpx.JSON(w, http.StatusAccepted, sc.Model())
}

func (h *Handler) handleScorecardStream(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scorecard(w, r)
	if !ok {
		return
	}
	h.stream(w, r, sc.Controller(), func() any { return sc.Model() })
}

func (h *Handler) handleScorecardCSV(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scorecard(w, r)
	if !ok {
		return
	}
	h.waitSettled(r.Context(), sc.Controller())
	model := sc.Model()
	if !model.HasMetrics {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", views.MsgLeadMetrics)
		return
	}
	h.writeCSV(w, fmt.Sprintf("lead-scorecard-%s.csv", model.LeadID), func(buf *bytes.Buffer) error {
		return export.WriteScorecardCSV(buf, model)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboard(w, r)
	if !ok {
		return
	}
	h.maybeWait(r, d.Controller())
	httpx.JSON(w, http.StatusOK, d.Model())
}

func (h *Handler) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboard(w, r)
	if !ok {
		return
	}
	d.Controller().Refresh(analytics.WithoutCache(r.Context()))
	h.maybeWait(r, d.Controller())
	httpx.JSON(w, http.StatusAccepted, d.Model())
}

func (h *Handler) handleDashboardStream(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboard(w, r)
	if !ok {
		return
	}
	h.stream(w, r, d.Controller(), func() any { return d.Model() })
}

func (h *Handler) handleDashboardCSV(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboard(w, r)
	if !ok {
		return
	}
	h.waitSettled(r.Context(), d.Controller())
	model := d.Model()
	if !model.HasData {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", views.MsgDashboardData)
		return
	}
	name := "territory-dashboard.csv"
	if model.TerritoryID != "" {
		name = fmt.Sprintf("territory-dashboard-%s.csv", model.TerritoryID)
	}
	h.writeCSV(w, name, func(buf *bytes.Buffer) error {
		if err := export.WriteDashboardKPICSV(buf, model); err != nil {
			return err
		}
		sections := []struct {
			heading string
			series  *charts.Series
		}{
			{"Grade", model.LeadsByGrade},
			{"Stage", model.Funnel},
			{"Status", model.LeadsByStatus},
			{"Month", model.MonthlyTrend},
		}
		for _, section := range sections {
			if section.series == nil {
				continue
			}
			buf.WriteString("\n")
			if err := export.WriteSeriesCSV(buf, section.heading, *section.series); err != nil {
				return err
			}
		}
		return nil
	})
}

// toastScope reads the ?view=&id= pair naming whose toasts to drain. No view
// selects toasts raised outside any view.
func (h *Handler) toastScope(r *http.Request) (string, string, error) {
	query := r.URL.Query()
	view := strings.TrimSpace(query.Get("view"))
	id := strings.TrimSpace(query.Get("id"))
	switch views.Kind(view) {
	case "", views.KindScorecard, views.KindDashboard:
	default:
		return "", "", validationError{field: "view"}
	}
	if id == "" {
		return view, "", nil
	}
	if err := h.validate.Struct(entityParam{ID: id}); err != nil {
		return "", "", validationError{field: "id"}
	}
	return view, id, nil
}

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	view, entity, err := h.toastScope(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	toasts := []notify.Toast{}
	if h.feed != nil {
		toasts = h.feed.DrainFor(view, entity)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"toasts": toasts})
}

func (h *Handler) handleCacheBump(w http.ResponseWriter, r *http.Request) {
	if h.bumper == nil {
		httpx.RespondError(w, fmt.Errorf("cache bump: %w", shared.ErrUnavailable))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	id, err := h.bumper.EnqueueCacheBump(ctx)
	if err != nil {
		h.handleServerError(w, "enqueue cache bump", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued", "task": id})
}

// maybeWait holds the response until the view settles when the client asks
// with ?wait=1, bounded by requestTimeout.
func (h *Handler) maybeWait(r *http.Request, ctrl *loadctl.Controller) {
	switch r.URL.Query().Get("wait") {
	case "1", "true":
		h.waitSettled(r.Context(), ctrl)
	}
}

func (h *Handler) waitSettled(ctx context.Context, ctrl *loadctl.Controller) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := ctrl.Wait(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		h.logError("view shaping", err)
	}
}

// stream writes the model as a server-sent event on every view change until
// the client goes away. Toasts raised by the streamed view are sent as they
// arrive; other views' toasts stay in the feed.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, ctrl *loadctl.Controller, model func() any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "streaming unsupported")
		return
	}
	sub := ctrl.Subscribe()
	defer ctrl.Unsubscribe(sub)

	var toasts chan struct{}
	if h.feed != nil {
		toasts = h.feed.Subscribe()
		defer h.feed.Unsubscribe(toasts)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, payload any) bool {
		raw, err := json.Marshal(payload)
		if err != nil {
			h.logError("encode stream event", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	sendToasts := func() bool {
		pending := h.feed.DrainFor(ctrl.View(), ctrl.Entity())
		if len(pending) == 0 {
			return true
		}
		return send("toasts", pending)
	}

	if !send("model", model()) {
		return
	}
	if toasts != nil && !sendToasts() {
		return
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub:
			if !send("model", model()) {
				return
			}
		case <-toasts:
			if !sendToasts() {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()
	if err := write(buf); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logError(op, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
}
