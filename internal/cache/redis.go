package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/reviews-service/internal/domain"
)

// DefaultTTL bounds how stale a cached aggregate may get.
const DefaultTTL = 60 * time.Second

// Redis is a RatingCache backed by a Redis instance.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis creates a Redis-backed rating cache.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func ratingKey(productID string) string {
	return "reviews:rating:" + productID
}

func (c *Redis) Get(ctx context.Context, productID string) (domain.ProductRating, bool) {
	raw, err := c.client.Get(ctx, ratingKey(productID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("rating cache read failed", slog.String("error", err.Error()))
		}
		return domain.ProductRating{}, false
	}

	var rating domain.ProductRating
	if err := json.Unmarshal(raw, &rating); err != nil {
		return domain.ProductRating{}, false
	}
	return rating, true
}

func (c *Redis) Set(ctx context.Context, rating domain.ProductRating) {
	raw, err := json.Marshal(rating)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, ratingKey(rating.ProductID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("rating cache write failed", slog.String("error", err.Error()))
	}
}

func (c *Redis) Invalidate(ctx context.Context, productID string) {
	if err := c.client.Del(ctx, ratingKey(productID)).Err(); err != nil {
		c.logger.Warn("rating cache invalidate failed", slog.String("error", err.Error()))
	}
}
