package viewhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/lead-insights/internal/platform/httpx"
)

// clientHeader identifies a calling client for rate limiting.
const clientHeader = "X-Client-ID"

// MountRoutes registers scorecard, dashboard and notification endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
		}),
	)

	r.Get("/leads/{leadID}/scorecard", h.handleScorecard)
	r.Get("/leads/{leadID}/scorecard/stream", h.handleScorecardStream)
	r.Get("/territories/dashboard", h.handleDashboard)
	r.Get("/territories/dashboard/stream", h.handleDashboardStream)
	r.Get("/territories/{territoryID}/dashboard", h.handleDashboard)
	r.Get("/territories/{territoryID}/dashboard/stream", h.handleDashboardStream)
	r.Get("/notifications", h.handleNotifications)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/leads/{leadID}/scorecard/refresh", h.handleScorecardRefresh)
		gr.Get("/leads/{leadID}/scorecard/export.csv", h.handleScorecardCSV)
		gr.Post("/territories/dashboard/refresh", h.handleDashboardRefresh)
		gr.Get("/territories/dashboard/export.csv", h.handleDashboardCSV)
		gr.Post("/territories/{territoryID}/dashboard/refresh", h.handleDashboardRefresh)
		gr.Get("/territories/{territoryID}/dashboard/export.csv", h.handleDashboardCSV)
		gr.Post("/analytics/cache/bump", h.handleCacheBump)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if client := strings.TrimSpace(r.Header.Get(clientHeader)); client != "" {
		return "client:" + client, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
