package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel toasts are published on.
const DefaultChannel = "leadinsights.toasts"

// Publisher relays toasts to other processes over Redis pub/sub.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewPublisher wires a publisher. An empty channel uses DefaultChannel.
func NewPublisher(client *redis.Client, channel string, logger *slog.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, channel: channel, logger: logger}
}

// Notify publishes toast as JSON. Failures are logged and dropped.
func (p *Publisher) Notify(ctx context.Context, toast Toast) {
	if p == nil || p.client == nil {
		return
	}
	raw, err := json.Marshal(toast)
	if err != nil {
		p.logger.Error("encode toast", slog.Any("error", err))
		return
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.logger.Warn("publish toast", slog.String("channel", p.channel), slog.Any("error", err))
	}
}
