// Package event publishes review lifecycle events to Kafka so downstream
// systems (search indexing, notifications) can react to review activity.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/reviews-service/internal/domain"
	pkgkafka "github.com/utafrali/reviews-service/pkg/kafka"
	"github.com/utafrali/reviews-service/pkg/logger"
)

// Kafka topics for review domain events.
const (
	TopicReviewCreated = "reviews.review.created"
	TopicReviewDeleted = "reviews.review.deleted"
)

const aggregateTypeReview = "review"

const sourceReviewsService = "reviews-service"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID string `json:"id"`
}

// Producer publishes review domain events.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the reviews service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review domain.StoredReview) error {
	data := ReviewCreatedData{
		ID:        review.ID,
		ProductID: review.ProductID,
		Rating:    review.Rating,
		Verified:  review.Verified,
		CreatedAt: review.CreatedAt,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, aggregateTypeReview, sourceReviewsService, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
	)

	return nil
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID string) error {
	event, err := pkgkafka.NewEvent(TopicReviewDeleted, reviewID, aggregateTypeReview, sourceReviewsService, ReviewDeletedData{ID: reviewID})
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.deleted event",
		slog.String("review_id", reviewID),
	)

	return nil
}
