// Package domain holds the core review types shared across the service.
package domain

import "time"

// Review is a product review as exposed to API clients.
type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	AuthorName string    `json:"authorName,omitempty"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StoredReview is the internal representation of a review. It carries
// fields needed for bookkeeping that never leave the service boundary.
type StoredReview struct {
	ID          string
	ProductID   string
	AuthorName  string
	Rating      int
	Comment     string
	Verified    bool
	CreatedAt   time.Time
	SubmitterID string
	Version     int
}

// Public strips internal fields, producing the client-facing view.
func (s StoredReview) Public() Review {
	return Review{
		ID:         s.ID,
		ProductID:  s.ProductID,
		AuthorName: s.AuthorName,
		Rating:     s.Rating,
		Comment:    s.Comment,
		Verified:   s.Verified,
		CreatedAt:  s.CreatedAt,
	}
}

// ReviewDraft is a validated review submission ready to be persisted.
type ReviewDraft struct {
	ProductID   string
	AuthorName  string
	Rating      int
	Comment     string
	Verified    bool
	SubmitterID string
}

// ProductRating is the aggregate rating summary for one product.
type ProductRating struct {
	ProductID          string      `json:"productId"`
	AverageRating      float64     `json:"averageRating"`
	TotalReviews       int         `json:"totalReviews"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

// Sort field and order values accepted by review listings.
const (
	SortByRating  = "rating"
	SortByDate    = "date"
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// ReviewFilters narrows and orders a review listing.
type ReviewFilters struct {
	Rating    *int
	Verified  *bool
	SortBy    string
	SortOrder string
}

// PaginatedReviews is one page of a review listing.
type PaginatedReviews struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
	HasMore bool     `json:"hasMore"`
}
