// Package store defines the persistence contract for reviews. Backends
// are interchangeable; the service layer never depends on a concrete one.
package store

import (
	"context"

	"github.com/utafrali/reviews-service/internal/domain"
)

// Store is the review persistence contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// FetchAll returns every review for a product in insertion order.
	// An unknown product yields an empty slice, not an error.
	FetchAll(ctx context.Context, productID string) ([]domain.StoredReview, error)

	// Insert persists a draft and returns the stored form with its
	// backend-assigned ID, timestamp and version.
	Insert(ctx context.Context, draft domain.ReviewDraft) (domain.StoredReview, error)

	// Remove deletes a review by ID at the given version. It returns an
	// error wrapping apperrors.ErrNotFound when no such review exists.
	Remove(ctx context.Context, reviewID string, version int) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) bool
}
