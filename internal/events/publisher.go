// Package events publishes scrape results to a Redis stream so
// downstream consumers (price trackers, indexers) see every product the
// service extracts.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/scrapiee/scrapiee/internal/models"
)

// EventTypeProductScraped marks a successful extraction event.
const EventTypeProductScraped = "PRODUCT_SCRAPED"

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Publisher appends product events to a Redis stream. A nil client
// disables publishing, so the service runs fine without Redis.
type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "events"),
	}
}

// Enabled reports whether events will actually be published.
func (p *Publisher) Enabled() bool {
	return p.redis != nil && p.stream != ""
}

// PublishProductScraped appends one PRODUCT_SCRAPED event. Failures are
// logged, not returned: event delivery is best-effort and must never
// fail the scrape that produced it.
func (p *Publisher) PublishProductScraped(ctx context.Context, record *models.ProductRecord) {
	if !p.Enabled() || record == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		p.logger.Error("failed to marshal product event", "url", record.URL, "error", err)
		return
	}

	eventID := uuid.New().String()
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"id":        eventID,
			"type":      EventTypeProductScraped,
			"timestamp": fmt.Sprintf("%d", time.Now().UnixNano()),
			"url":       record.URL,
			"data":      string(payload),
		},
	}

	if _, err := p.redis.XAdd(ctx, args).Result(); err != nil {
		p.logger.Error("failed to publish product event",
			"event_id", eventID,
			"stream", p.stream,
			"error", err)
		return
	}

	p.logger.Debug("product event published",
		"event_id", eventID,
		"stream", p.stream,
		"url", record.URL)
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	if p.redis == nil {
		return nil
	}
	return p.redis.Close()
}
