package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviews-service/internal/domain"
	"github.com/utafrali/reviews-service/internal/store/memory"
	apperrors "github.com/utafrali/reviews-service/pkg/errors"
	"github.com/utafrali/reviews-service/pkg/pagination"
)

// --- Mock Store ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FetchAll(ctx context.Context, productID string) ([]domain.StoredReview, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredReview), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, draft domain.ReviewDraft) (domain.StoredReview, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(domain.StoredReview), args.Error(1)
}

func (m *mockStore) Remove(ctx context.Context, reviewID string, version int) error {
	args := m.Called(ctx, reviewID, version)
	return args.Error(0)
}

func (m *mockStore) Ping(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review domain.StoredReview) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockPublisher) PublishReviewDeleted(ctx context.Context, reviewID string) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemoryService() *ReviewService {
	return NewReviewService(memory.New(), "memory", DefaultLimits(), nil, nil, testLogger())
}

func validInput() CreateReviewInput {
	return CreateReviewInput{
		ProductID:   "prod-1",
		AuthorName:  "Alice",
		Rating:      4,
		Comment:     "Works well.",
		SubmitterID: "user-1",
	}
}

// --- CreateReview ---

func TestCreateReview_Success(t *testing.T) {
	svc := newMemoryService()

	created, err := svc.CreateReview(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "prod-1", created.ProductID)
	assert.Equal(t, 4, created.Rating)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreateReview_RatingBounds(t *testing.T) {
	svc := newMemoryService()

	for _, rating := range []int{0, 6, -1, 100} {
		input := validInput()
		input.Rating = rating

		_, err := svc.CreateReview(context.Background(), input)
		require.Error(t, err, "rating %d must be rejected", rating)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "between 1 and 5")
	}
}

func TestCreateReview_ConfiguredBoundsInMessage(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxRating = 10
	svc := NewReviewService(memory.New(), "memory", limits, nil, nil, testLogger())

	input := validInput()
	input.Rating = 11

	_, err := svc.CreateReview(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 1 and 10")
}

func TestCreateReview_AnonymousAuthorAllowed(t *testing.T) {
	svc := newMemoryService()

	input := validInput()
	input.AuthorName = ""

	created, err := svc.CreateReview(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, created.AuthorName)
}

func TestCreateReview_MissingFields(t *testing.T) {
	svc := newMemoryService()

	tests := []struct {
		name   string
		mutate func(*CreateReviewInput)
	}{
		{"missing product", func(i *CreateReviewInput) { i.ProductID = "" }},
		{"missing submitter", func(i *CreateReviewInput) { i.SubmitterID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			_, err := svc.CreateReview(context.Background(), input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestCreateReview_LengthLimits(t *testing.T) {
	svc := newMemoryService()

	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'x'
	}

	input := validInput()
	input.Comment = string(long)
	_, err := svc.CreateReview(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	input = validInput()
	input.AuthorName = string(long[:101])
	_, err = svc.CreateReview(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateReview_StripsMarkup(t *testing.T) {
	svc := newMemoryService()

	input := validInput()
	input.Comment = `Great <script>alert("x")</script> product <b>indeed</b>`
	input.AuthorName = `<i>Alice</i>`

	created, err := svc.CreateReview(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, `Great alert("x") product indeed`, created.Comment)
	assert.Equal(t, "Alice", created.AuthorName)
}

func TestCreateReview_LengthCheckedAfterStripping(t *testing.T) {
	svc := newMemoryService()

	// 1800 raw characters, 400 once the markup is gone.
	input := validInput()
	input.Comment = strings.Repeat("<b>ok</b>", 200)

	created, err := svc.CreateReview(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ok", 200), created.Comment)

	// Still over the bound after stripping, so still rejected.
	input = validInput()
	input.SubmitterID = "user-2"
	input.Comment = "<p>" + strings.Repeat("x", 1001) + "</p>"
	_, err = svc.CreateReview(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateReview_Duplicate(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	_, err := svc.CreateReview(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateSubmission)

	// A different submitter may still review the same product.
	other := validInput()
	other.SubmitterID = "user-2"
	_, err = svc.CreateReview(ctx, other)
	assert.NoError(t, err)
}

func TestCreateReview_BackendDuplicate(t *testing.T) {
	st := new(mockStore)
	st.On("FetchAll", mock.Anything, "prod-1").Return([]domain.StoredReview{}, nil)
	st.On("Insert", mock.Anything, mock.Anything).
		Return(domain.StoredReview{}, apperrors.ErrDuplicateSubmission)

	svc := NewReviewService(st, "commercetools", DefaultLimits(), nil, nil, testLogger())

	_, err := svc.CreateReview(context.Background(), validInput())
	assert.ErrorIs(t, err, apperrors.ErrDuplicateSubmission)
	st.AssertExpectations(t)
}

func TestCreateReview_BackendDown(t *testing.T) {
	st := new(mockStore)
	st.On("FetchAll", mock.Anything, "prod-1").Return(nil, errors.New("connection refused"))

	svc := NewReviewService(st, "commercetools", DefaultLimits(), nil, nil, testLogger())

	_, err := svc.CreateReview(context.Background(), validInput())
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

func TestCreateReview_PublishFailureDoesNotFail(t *testing.T) {
	events := new(mockPublisher)
	events.On("PublishReviewCreated", mock.Anything, mock.Anything).
		Return(errors.New("broker down"))

	svc := NewReviewService(memory.New(), "memory", DefaultLimits(), nil, events, testLogger())

	_, err := svc.CreateReview(context.Background(), validInput())
	assert.NoError(t, err)
	events.AssertExpectations(t)
}

// --- GetRating ---

func TestGetRating_ZeroReviews(t *testing.T) {
	svc := newMemoryService()

	got, err := svc.GetRating(context.Background(), "unknown-product")
	require.NoError(t, err)

	assert.Equal(t, float64(0), got.AverageRating)
	assert.Equal(t, 0, got.TotalReviews)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, got.RatingDistribution)
}

func TestGetRating_Aggregates(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	for i, rating := range []int{5, 4, 4, 4} {
		input := validInput()
		input.Rating = rating
		input.SubmitterID = validInput().SubmitterID + string(rune('a'+i))
		_, err := svc.CreateReview(ctx, input)
		require.NoError(t, err)
	}

	got, err := svc.GetRating(ctx, "prod-1")
	require.NoError(t, err)

	assert.Equal(t, 4.3, got.AverageRating)
	assert.Equal(t, 4, got.TotalReviews)
	assert.Equal(t, 3, got.RatingDistribution[4])
	assert.Equal(t, 1, got.RatingDistribution[5])
}

func TestGetRating_BackendDown(t *testing.T) {
	st := new(mockStore)
	st.On("FetchAll", mock.Anything, "prod-1").Return(nil, errors.New("timeout"))

	svc := NewReviewService(st, "commercetools", DefaultLimits(), nil, nil, testLogger())

	_, err := svc.GetRating(context.Background(), "prod-1")
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

// --- ListReviews ---

func TestListReviews_Pagination(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		input := validInput()
		input.SubmitterID = string(rune('a' + i))
		input.Rating = i%5 + 1
		_, err := svc.CreateReview(ctx, input)
		require.NoError(t, err)
	}

	first, err := svc.ListReviews(ctx, "prod-1", domain.ReviewFilters{}, pagination.Params{Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, first.Reviews, 5)
	assert.Equal(t, 12, first.Total)
	assert.True(t, first.HasMore)

	last, err := svc.ListReviews(ctx, "prod-1", domain.ReviewFilters{}, pagination.Params{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, last.Reviews, 2)
	assert.False(t, last.HasMore)
}

func TestListReviews_FilteredTotal(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	ratings := []int{5, 5, 3, 1}
	for i, r := range ratings {
		input := validInput()
		input.Rating = r
		input.SubmitterID = string(rune('a' + i))
		_, err := svc.CreateReview(ctx, input)
		require.NoError(t, err)
	}

	five := 5
	got, err := svc.ListReviews(ctx, "prod-1", domain.ReviewFilters{Rating: &five}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)

	// Total reflects the filtered set, not all reviews.
	assert.Equal(t, 2, got.Total)
	assert.Len(t, got.Reviews, 2)
}

func TestListReviews_EmptyProduct(t *testing.T) {
	svc := newMemoryService()

	got, err := svc.ListReviews(context.Background(), "unknown", domain.ReviewFilters{}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got.Reviews)
	assert.Equal(t, 0, got.Total)
	assert.False(t, got.HasMore)
}

// --- DeleteReview ---

func TestDeleteReview_Flow(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	created, err := svc.CreateReview(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReview(ctx, created.ID, 1))

	got, err := svc.ListReviews(ctx, "prod-1", domain.ReviewFilters{}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got.Reviews)
}

func TestDeleteReview_NotFound(t *testing.T) {
	svc := newMemoryService()

	err := svc.DeleteReview(context.Background(), "missing", 1)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Status)
}

func TestDeleteReview_BackendError(t *testing.T) {
	st := new(mockStore)
	st.On("Remove", mock.Anything, "rev-1", 2).Return(errors.New("boom"))

	svc := NewReviewService(st, "commercetools", DefaultLimits(), nil, nil, testLogger())

	err := svc.DeleteReview(context.Background(), "rev-1", 2)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.Status)
}

// --- HealthCheck ---

func TestHealthCheck(t *testing.T) {
	svc := newMemoryService()

	got := svc.HealthCheck(context.Background())
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, "memory", got.Backend)
}

func TestHealthCheck_Degraded(t *testing.T) {
	st := new(mockStore)
	st.On("Ping", mock.Anything).Return(false)

	svc := NewReviewService(st, "commercetools", DefaultLimits(), nil, nil, testLogger())

	got := svc.HealthCheck(context.Background())
	assert.Equal(t, "degraded", got.Status)
	assert.Equal(t, "commercetools", got.Backend)
}
