package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lead-insights/internal/observability"
	_ "github.com/odyssey-erp/lead-insights/testing"
)

func TestLoadConfigRequiresAnalyticsToken(t *testing.T) {
	t.Setenv("ANALYTICS_TOKEN", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ANALYTICS_TOKEN", "secret")
	t.Setenv("WARMUP_TERRITORIES", "0MI000000000001,0MI000000000002")
	t.Setenv("ANALYTICS_CACHE_TTL", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 90*time.Second, cfg.AnalyticsCacheTTL)
	assert.Equal(t, 100, cfg.FeedSize)
	assert.Equal(t, "leadinsights.toasts", cfg.NotifyChannel)
	assert.Equal(t, []string{"0MI000000000001", "0MI000000000002"}, cfg.WarmupTerritories)
	assert.False(t, cfg.IsProduction())
}

func TestRouterHealthAndReadiness(t *testing.T) {
	router := NewRouter(RouterParams{
		Config:  &Config{AppEnv: "development", AppRequestTimeout: time.Second},
		Metrics: observability.NewMetrics(),
		Checks: map[string]Pinger{
			"redis":     PingFunc(func(context.Context) error { return nil }),
			"analytics": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var checks map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&checks))
	assert.Equal(t, "ok", checks["redis"])
	assert.Equal(t, "connection refused", checks["analytics"])

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "leadinsights_http_requests_total")
}

func TestIsStream(t *testing.T) {
	assert.True(t, isStream(httptest.NewRequest(http.MethodGet, "/leads/00Q000000000001/scorecard/stream", nil)))
	assert.False(t, isStream(httptest.NewRequest(http.MethodGet, "/leads/00Q000000000001/scorecard", nil)))
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())
	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
