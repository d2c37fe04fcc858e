// Package postgres persists reviews in PostgreSQL. A unique index on
// (product_id, submitter_id) makes the one-review-per-submitter rule
// hold under concurrent submissions.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/reviews-service/internal/domain"
	"github.com/utafrali/reviews-service/pkg/database"
	apperrors "github.com/utafrali/reviews-service/pkg/errors"
)

// isUniqueViolation checks for a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// Store implements review persistence on PostgreSQL.
type Store struct {
	pool database.DBTX
}

// New creates a PostgreSQL-backed review store.
func New(pool database.DBTX) *Store {
	return &Store{pool: pool}
}

// FetchAll returns every review for a product, oldest first.
func (s *Store) FetchAll(ctx context.Context, productID string) ([]domain.StoredReview, error) {
	query := `
		SELECT id, product_id, author_name, rating, comment, verified, created_at, submitter_id, version
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.StoredReview{}
	for rows.Next() {
		var rv domain.StoredReview

		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.AuthorName,
			&rv.Rating,
			&rv.Comment,
			&rv.Verified,
			&rv.CreatedAt,
			&rv.SubmitterID,
			&rv.Version,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}

		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// Insert persists a draft. A second review by the same submitter for the
// same product violates the unique index and maps to the duplicate error.
func (s *Store) Insert(ctx context.Context, draft domain.ReviewDraft) (domain.StoredReview, error) {
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

	query := `
		INSERT INTO reviews (id, product_id, author_name, rating, comment, verified, created_at, submitter_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, query,
		review.ID,
		review.ProductID,
		review.AuthorName,
		review.Rating,
		review.Comment,
		review.Verified,
		review.CreatedAt,
		review.SubmitterID,
		review.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.StoredReview{}, fmt.Errorf("insert review: %w", apperrors.ErrDuplicateSubmission)
		}
		return domain.StoredReview{}, fmt.Errorf("insert review: %w", err)
	}

	return review, nil
}

// Remove deletes a review by ID. The version argument is ignored; row
// deletion needs no optimistic concurrency here.
func (s *Store) Remove(ctx context.Context, reviewID string, _ int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", reviewID, apperrors.ErrNotFound)
	}
	return nil
}

// Ping verifies database connectivity with a trivial query.
func (s *Store) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var one int
	if err := s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return false
	}
	return true
}
