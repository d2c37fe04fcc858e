// Package http exposes the review service over a JSON HTTP API.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/reviews-service/internal/domain"
	"github.com/utafrali/reviews-service/internal/service"
	apperrors "github.com/utafrali/reviews-service/pkg/errors"
	"github.com/utafrali/reviews-service/pkg/httputil"
	"github.com/utafrali/reviews-service/pkg/middleware"
	"github.com/utafrali/reviews-service/pkg/pagination"
	"github.com/utafrali/reviews-service/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for submitting a review.
// Rating bounds and comment length are enforced by the service against
// the configured limits.
type CreateReviewRequest struct {
	AuthorName string `json:"authorName"`
	Rating     int    `json:"rating" validate:"required"`
	Comment    string `json:"comment"`
}

// --- Handlers ---

// GetRating handles GET /api/products/{productId}/rating.
func (h *ReviewHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	rating, err := h.service.GetRating(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, rating)
}

// ListReviews handles GET /api/products/{productId}/reviews.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	filters, err := parseFilters(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page := pagination.FromRequest(r)

	result, err := h.service.ListReviews(r.Context(), productID, filters, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// CreateReview handles POST /api/products/{productId}/reviews. The
// submitter identity comes from the auth middleware; unauthenticated
// callers get a synthesized anonymous one.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.CreateReviewInput{
		ProductID:   productID,
		AuthorName:  req.AuthorName,
		Rating:      req.Rating,
		Comment:     req.Comment,
		SubmitterID: middleware.SubmitterFromContext(r.Context()),
	}

	review, err := h.service.CreateReview(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}

// DeleteReview handles DELETE /api/admin/reviews/{reviewId}.
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewId")

	version := 1
	if raw := r.URL.Query().Get("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			httputil.WriteError(w, r, apperrors.InvalidInput("version must be a positive integer"), h.logger)
			return
		}
		version = v
	}

	if err := h.service.DeleteReview(r.Context(), reviewID, version); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"id": reviewID, "status": "deleted"})
}

// Health handles GET /api/reviews/health. It always answers 200; the
// payload reports the backend and its reachability.
func (h *ReviewHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.service.HealthCheck(r.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteData(w, code, status)
}

func parseFilters(r *http.Request) (domain.ReviewFilters, error) {
	var filters domain.ReviewFilters
	q := r.URL.Query()

	if raw := q.Get("rating"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filters, apperrors.InvalidInput("rating filter must be an integer")
		}
		filters.Rating = &v
	}

	if raw := q.Get("verified"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, apperrors.InvalidInput("verified filter must be true or false")
		}
		filters.Verified = &v
	}

	switch sortBy := q.Get("sortBy"); sortBy {
	case "", domain.SortByRating, domain.SortByDate:
		filters.SortBy = sortBy
	default:
		return filters, apperrors.InvalidInput("sortBy must be date or rating")
	}

	switch order := q.Get("sortOrder"); order {
	case "", domain.SortOrderAsc, domain.SortOrderDesc:
		filters.SortOrder = order
	default:
		return filters, apperrors.InvalidInput("sortOrder must be asc or desc")
	}

	return filters, nil
}
