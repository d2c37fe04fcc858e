// Package commercetools persists reviews in a commercetools project
// using the platform's review resource.
package commercetools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/utafrali/reviews-service/internal/domain"
	"github.com/utafrali/reviews-service/internal/identifier"
	apperrors "github.com/utafrali/reviews-service/pkg/errors"
)

// metadataType is the key of the custom type carrying fields the platform
// review resource does not model natively.
const metadataType = "review-metadata"

// fetchLimit bounds a single page of a review query. FetchAll pages with an
// offset until the reported total is reached.
const fetchLimit = 500

type ctReview struct {
	ID         string    `json:"id"`
	Version    int       `json:"version"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
	Target     struct {
		TypeID string `json:"typeId"`
		ID     string `json:"id"`
	} `json:"target"`
	Custom *struct {
		Fields struct {
			Verified    bool   `json:"verified"`
			SubmitterID string `json:"submitterId"`
		} `json:"fields"`
	} `json:"custom"`
}

type ctReviewPage struct {
	Results []ctReview `json:"results"`
	Total   int        `json:"total"`
}

type ctReviewDraft struct {
	AuthorName      string         `json:"authorName"`
	Text            string         `json:"text,omitempty"`
	Rating          int            `json:"rating"`
	UniquenessValue string         `json:"uniquenessValue"`
	Target          map[string]any `json:"target"`
	Custom          map[string]any `json:"custom"`
}

// Store persists reviews via the commercetools review API.
type Store struct {
	client *Client
	logger *slog.Logger
}

// New wraps an authenticated client as a review store.
func New(client *Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func (s *Store) toStored(r ctReview, productID string) domain.StoredReview {
	stored := domain.StoredReview{
		ID:         r.ID,
		ProductID:  productID,
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Comment:    r.Text,
		CreatedAt:  r.CreatedAt,
		Version:    r.Version,
	}
	if r.Custom != nil {
		stored.Verified = r.Custom.Fields.Verified
		stored.SubmitterID = r.Custom.Fields.SubmitterID
	}
	return stored
}

// FetchAll queries every review targeting the product, oldest first,
// following the offset pagination of the platform until the reported total
// is accumulated.
func (s *Store) FetchAll(ctx context.Context, productID string) ([]domain.StoredReview, error) {
	out := []domain.StoredReview{}
	for offset := 0; ; offset += fetchLimit {
		q := url.Values{}
		q.Set("where", identifier.ProductPredicate(productID))
		q.Set("sort", "createdAt asc")
		q.Set("limit", fmt.Sprintf("%d", fetchLimit))
		q.Set("offset", fmt.Sprintf("%d", offset))

		var page ctReviewPage
		if _, err := s.client.do(ctx, http.MethodGet, "/reviews?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("fetch reviews for %s: %w", productID, err)
		}

		for _, r := range page.Results {
			out = append(out, s.toStored(r, productID))
		}
		if len(out) >= page.Total || len(page.Results) == 0 {
			break
		}
	}
	return out, nil
}

// Insert creates a review targeting the product. The uniqueness value
// makes the platform reject a second submission by the same submitter.
func (s *Store) Insert(ctx context.Context, draft domain.ReviewDraft) (domain.StoredReview, error) {
	target := map[string]any{"typeId": "product"}
	if identifier.IsPlatformID(draft.ProductID) {
		target["id"] = draft.ProductID
	} else {
		target["key"] = draft.ProductID
	}

	body := ctReviewDraft{
		AuthorName:      draft.AuthorName,
		Text:            draft.Comment,
		Rating:          draft.Rating,
		UniquenessValue: fmt.Sprintf("%s:%s", draft.ProductID, draft.SubmitterID),
		Target:          target,
		Custom: map[string]any{
			"type": map[string]any{"typeId": "type", "key": metadataType},
			"fields": map[string]any{
				"verified":    draft.Verified,
				"submitterId": draft.SubmitterID,
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.StoredReview{}, fmt.Errorf("marshal review draft: %w", err)
	}

	var created ctReview
	status, err := s.client.do(ctx, http.MethodPost, "/reviews", bytes.NewReader(payload), &created)
	if err != nil {
		// A reused uniqueness value is rejected with a DuplicateField error.
		// Other 400s are genuine validation failures and pass through.
		var platformErr *apiError
		if status == http.StatusBadRequest && errors.As(err, &platformErr) && platformErr.HasCode("DuplicateField") {
			return domain.StoredReview{}, fmt.Errorf("create review: %w", apperrors.ErrDuplicateSubmission)
		}
		return domain.StoredReview{}, fmt.Errorf("create review: %w", err)
	}

	return s.toStored(created, draft.ProductID), nil
}

// Remove deletes a review at the given version.
func (s *Store) Remove(ctx context.Context, reviewID string, version int) error {
	path := fmt.Sprintf("/reviews/%s?version=%d&dataErasure=true", reviewID, version)
	status, err := s.client.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		if status == http.StatusNotFound {
			return fmt.Errorf("review %s: %w", reviewID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("delete review %s: %w", reviewID, err)
	}
	return nil
}

// Ping issues a minimal query to verify the project is reachable.
func (s *Store) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var page ctReviewPage
	_, err := s.client.do(ctx, http.MethodGet, "/reviews?limit=1", nil, &page)
	if err != nil {
		s.logger.Warn("health probe failed", slog.String("error", err.Error()))
		return false
	}
	return true
}
