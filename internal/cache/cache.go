// Package cache provides a short-lived cache for product rating
// aggregates, trimming repeated backend scans for hot products.
package cache

import (
	"context"

	"github.com/utafrali/reviews-service/internal/domain"
)

// RatingCache stores computed rating aggregates keyed by product.
type RatingCache interface {
	// Get returns the cached aggregate and whether it was present.
	Get(ctx context.Context, productID string) (domain.ProductRating, bool)

	// Set stores an aggregate. Failures are swallowed; the cache is
	// advisory.
	Set(ctx context.Context, rating domain.ProductRating)

	// Invalidate drops the aggregate for a product.
	Invalidate(ctx context.Context, productID string)
}

// Noop is a RatingCache that caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) (domain.ProductRating, bool) {
	return domain.ProductRating{}, false
}

func (Noop) Set(context.Context, domain.ProductRating) {}

func (Noop) Invalidate(context.Context, string) {}
