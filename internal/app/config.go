package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"0s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// PGDSN is optional; without it scorecards skip the lead record.
	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	AnalyticsBaseURL  string        `envconfig:"ANALYTICS_BASE_URL" default:"http://127.0.0.1:9000/api"`
	AnalyticsToken    string        `envconfig:"ANALYTICS_TOKEN" required:"true"`
	AnalyticsTimeout  time.Duration `envconfig:"ANALYTICS_TIMEOUT" default:"10s"`
	AnalyticsCacheTTL time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"5m"`

	NotifyChannel string `envconfig:"NOTIFY_CHANNEL" default:"leadinsights.toasts"`
	FeedSize      int    `envconfig:"FEED_SIZE" default:"100"`
	MaxViews      int    `envconfig:"MAX_VIEWS" default:"512"`

	WarmupCron        string   `envconfig:"WARMUP_CRON" default:"*/10 * * * *"`
	WarmupTerritories []string `envconfig:"WARMUP_TERRITORIES"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.AnalyticsToken == "" {
		return nil, errors.New("analytics token must be provided")
	}
	if cfg.AnalyticsBaseURL == "" {
		return nil, errors.New("analytics base url must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
