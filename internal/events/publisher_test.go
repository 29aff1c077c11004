package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scrapiee/scrapiee/internal/models"
)

// MockRedisClient is a mock for Redis client
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestPublishProductScraped(t *testing.T) {
	ctx := context.Background()
	mockRedis := new(MockRedisClient)

	record := &models.ProductRecord{
		Title:    "Test Product",
		Price:    "19.99",
		Currency: "GBP",
		URL:      "https://shop.example.co.uk/p/1",
	}

	mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
		if args.Stream != "scrapiee:products" {
			return false
		}
		values := args.Values.(map[string]interface{})
		if values["type"] != EventTypeProductScraped {
			return false
		}
		var got models.ProductRecord
		require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &got))
		return got == *record
	})).Return(nil)

	p := NewPublisher(mockRedis, "scrapiee:products", slog.New(slog.DiscardHandler))
	assert.True(t, p.Enabled())
	p.PublishProductScraped(ctx, record)

	mockRedis.AssertExpectations(t)
}

func TestPublishFailureDoesNotPanic(t *testing.T) {
	ctx := context.Background()
	mockRedis := new(MockRedisClient)
	mockRedis.On("XAdd", ctx, mock.Anything).Return(errors.New("redis down"))

	p := NewPublisher(mockRedis, "scrapiee:products", slog.New(slog.DiscardHandler))
	p.PublishProductScraped(ctx, &models.ProductRecord{URL: "https://example.com/p"})

	mockRedis.AssertExpectations(t)
}

func TestPublisherDisabledWithoutRedis(t *testing.T) {
	p := NewPublisher(nil, "scrapiee:products", slog.New(slog.DiscardHandler))
	assert.False(t, p.Enabled())

	// Must be a no-op, not a nil dereference.
	p.PublishProductScraped(context.Background(), &models.ProductRecord{URL: "https://example.com/p"})
	assert.NoError(t, p.Close())
}
