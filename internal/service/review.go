// Package service implements the business logic for review submission,
// aggregation and listing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/utafrali/reviews-service/internal/cache"
	"github.com/utafrali/reviews-service/internal/domain"
	"github.com/utafrali/reviews-service/internal/query"
	"github.com/utafrali/reviews-service/internal/rating"
	"github.com/utafrali/reviews-service/internal/store"
	apperrors "github.com/utafrali/reviews-service/pkg/errors"
	"github.com/utafrali/reviews-service/pkg/pagination"
)

// htmlTags matches markup to be stripped from free-text fields before
// storage.
var htmlTags = regexp.MustCompile(`<[^>]*>`)

// Limits are the validation bounds applied to review submissions.
type Limits struct {
	MinRating           int
	MaxRating           int
	MaxCommentLength    int
	MaxAuthorNameLength int
}

// DefaultLimits returns the standard submission bounds.
func DefaultLimits() Limits {
	return Limits{
		MinRating:           1,
		MaxRating:           5,
		MaxCommentLength:    1000,
		MaxAuthorNameLength: 100,
	}
}

// Publisher emits review lifecycle events. Publish failures never fail
// the operation that triggered them.
type Publisher interface {
	PublishReviewCreated(ctx context.Context, review domain.StoredReview) error
	PublishReviewDeleted(ctx context.Context, reviewID string) error
}

// CreateReviewInput holds the parameters for submitting a review.
type CreateReviewInput struct {
	ProductID   string
	AuthorName  string
	Rating      int
	Comment     string
	SubmitterID string
}

// HealthStatus describes the service and its backend.
type HealthStatus struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// ReviewService implements review submission, aggregation and listing on
// top of an interchangeable store.
type ReviewService struct {
	store   store.Store
	backend string
	limits  Limits
	ratings cache.RatingCache
	events  Publisher
	logger  *slog.Logger
}

// NewReviewService creates a review service. The backend name appears in
// health output. Events may be nil when no broker is configured.
func NewReviewService(st store.Store, backend string, limits Limits, ratings cache.RatingCache, events Publisher, logger *slog.Logger) *ReviewService {
	if ratings == nil {
		ratings = cache.Noop{}
	}
	return &ReviewService{
		store:   st,
		backend: backend,
		limits:  limits,
		ratings: ratings,
		events:  events,
		logger:  logger,
	}
}

// GetRating returns the aggregate rating for a product. Unknown products
// yield a zero aggregate, not an error.
func (s *ReviewService) GetRating(ctx context.Context, productID string) (domain.ProductRating, error) {
	if productID == "" {
		return domain.ProductRating{}, apperrors.InvalidInput("productId is required")
	}

	if cached, ok := s.ratings.Get(ctx, productID); ok {
		return cached, nil
	}

	reviews, err := s.store.FetchAll(ctx, productID)
	if err != nil {
		return domain.ProductRating{}, apperrors.BackendUnavailable(err)
	}

	agg := rating.Aggregate(productID, reviews)
	s.ratings.Set(ctx, agg)
	return agg, nil
}

// ListReviews returns one page of a product's reviews, filtered and
// ordered as requested.
func (s *ReviewService) ListReviews(ctx context.Context, productID string, filters domain.ReviewFilters, page pagination.Params) (domain.PaginatedReviews, error) {
	if productID == "" {
		return domain.PaginatedReviews{}, apperrors.InvalidInput("productId is required")
	}

	reviews, err := s.store.FetchAll(ctx, productID)
	if err != nil {
		return domain.PaginatedReviews{}, apperrors.BackendUnavailable(err)
	}

	matched := query.Filter(reviews, filters)
	query.Sort(matched, filters)
	return query.Paginate(matched, page), nil
}

// CreateReview validates and persists a submission. Each submitter may
// review a product once.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (domain.Review, error) {
	// Markup is stripped first so the length bounds apply to the text that
	// is actually stored.
	input.AuthorName = sanitize(input.AuthorName)
	input.Comment = sanitize(input.Comment)

	if err := s.validate(input); err != nil {
		return domain.Review{}, err
	}

	// New submissions are never verified purchases; the backend flips the
	// flag out of band once a purchase is confirmed.
	draft := domain.ReviewDraft{
		ProductID:   input.ProductID,
		AuthorName:  input.AuthorName,
		Rating:      input.Rating,
		Comment:     input.Comment,
		SubmitterID: input.SubmitterID,
	}

	existing, err := s.store.FetchAll(ctx, draft.ProductID)
	if err != nil {
		return domain.Review{}, apperrors.BackendUnavailable(err)
	}
	for _, r := range existing {
		if r.SubmitterID == draft.SubmitterID {
			return domain.Review{}, apperrors.DuplicateSubmission()
		}
	}

	created, err := s.store.Insert(ctx, draft)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateSubmission) {
			return domain.Review{}, apperrors.DuplicateSubmission()
		}
		return domain.Review{}, apperrors.BackendUnavailable(err)
	}

	s.ratings.Invalidate(ctx, created.ProductID)

	if s.events != nil {
		if err := s.events.PublishReviewCreated(ctx, created); err != nil {
			s.logger.WarnContext(ctx, "failed to publish review.created",
				slog.String("review_id", created.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", created.ID),
		slog.String("product_id", created.ProductID),
		slog.Int("rating", created.Rating),
	)

	return created.Public(), nil
}

// DeleteReview removes a review by ID at the given version.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string, version int) error {
	if reviewID == "" {
		return apperrors.InvalidInput("reviewId is required")
	}

	if err := s.store.Remove(ctx, reviewID, version); err != nil {
		return apperrors.DeleteFailed(err)
	}

	if s.events != nil {
		if err := s.events.PublishReviewDeleted(ctx, reviewID); err != nil {
			s.logger.WarnContext(ctx, "failed to publish review.deleted",
				slog.String("review_id", reviewID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review deleted", slog.String("review_id", reviewID))
	return nil
}

// HealthCheck reports the backend in use and whether it is reachable.
// It never returns an error.
func (s *ReviewService) HealthCheck(ctx context.Context) HealthStatus {
	status := "ok"
	if !s.store.Ping(ctx) {
		status = "degraded"
	}
	return HealthStatus{Status: status, Backend: s.backend}
}

func (s *ReviewService) validate(input CreateReviewInput) error {
	if input.ProductID == "" {
		return apperrors.InvalidInput("productId is required")
	}
	if len(input.AuthorName) > s.limits.MaxAuthorNameLength {
		return apperrors.InvalidInput(fmt.Sprintf("authorName must be at most %d characters", s.limits.MaxAuthorNameLength))
	}
	if input.Rating < s.limits.MinRating || input.Rating > s.limits.MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", s.limits.MinRating, s.limits.MaxRating))
	}
	if len(input.Comment) > s.limits.MaxCommentLength {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", s.limits.MaxCommentLength))
	}
	if input.SubmitterID == "" {
		return apperrors.InvalidInput("submitter identity is required")
	}
	return nil
}

// sanitize strips markup from user-supplied text and trims whitespace.
func sanitize(s string) string {
	return strings.TrimSpace(htmlTags.ReplaceAllString(s, ""))
}
