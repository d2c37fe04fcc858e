// Package memory provides an in-process review store. It backs local
// development and tests, and serves as the fallback when no external
// backend is configured or reachable.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/reviews-service/internal/domain"
	apperrors "github.com/utafrali/reviews-service/pkg/errors"
)

// Store keeps reviews in a per-product map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	reviews map[string][]domain.StoredReview
	byID    map[string]string // review ID -> product ID
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		reviews: make(map[string][]domain.StoredReview),
		byID:    make(map[string]string),
	}
}

// FetchAll returns a copy of the product's reviews in insertion order.
func (s *Store) FetchAll(_ context.Context, productID string) ([]domain.StoredReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.reviews[productID]
	out := make([]domain.StoredReview, len(stored))
	copy(out, stored)
	return out, nil
}

// Insert persists the draft with a generated ID and current timestamp.
func (s *Store) Insert(_ context.Context, draft domain.ReviewDraft) (domain.StoredReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review := domain.StoredReview{
		ID:          uuid.New().String(),
		ProductID:   draft.ProductID,
		AuthorName:  draft.AuthorName,
		Rating:      draft.Rating,
		Comment:     draft.Comment,
		Verified:    draft.Verified,
		CreatedAt:   time.Now().UTC(),
		SubmitterID: draft.SubmitterID,
		Version:     1,
	}

	s.reviews[draft.ProductID] = append(s.reviews[draft.ProductID], review)
	s.byID[review.ID] = draft.ProductID
	return review, nil
}

// Remove deletes a review by ID. The version argument is ignored; the
// in-memory store has no concurrent editors to guard against.
func (s *Store) Remove(_ context.Context, reviewID string, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	productID, ok := s.byID[reviewID]
	if !ok {
		return fmt.Errorf("review %s: %w", reviewID, apperrors.ErrNotFound)
	}

	stored := s.reviews[productID]
	for i, r := range stored {
		if r.ID == reviewID {
			s.reviews[productID] = append(stored[:i], stored[i+1:]...)
			break
		}
	}
	delete(s.byID, reviewID)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) bool {
	return true
}

// Seed inserts fully-formed reviews directly, preserving the given IDs
// and timestamps. Used to load demo data at startup.
func (s *Store) Seed(reviews []domain.StoredReview) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reviews {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.Version == 0 {
			r.Version = 1
		}
		s.reviews[r.ProductID] = append(s.reviews[r.ProductID], r)
		s.byID[r.ID] = r.ProductID
	}
}
