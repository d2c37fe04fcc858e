// Package query filters, orders and paginates review sets in memory.
// All backends return the full review set for a product; shaping the
// listing here keeps behavior identical across storage variants.
package query

import (
	"sort"

	"github.com/utafrali/reviews-service/internal/domain"
	"github.com/utafrali/reviews-service/pkg/pagination"
)

// Filter returns the reviews matching every set filter field. A nil
// filter field matches everything.
func Filter(reviews []domain.StoredReview, f domain.ReviewFilters) []domain.StoredReview {
	out := make([]domain.StoredReview, 0, len(reviews))
	for _, r := range reviews {
		if f.Rating != nil && r.Rating != *f.Rating {
			continue
		}
		if f.Verified != nil && r.Verified != *f.Verified {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders reviews in place. Rating sorts ascend unless the order is
// "desc". Date sorts, the default, descend (newest first) unless the
// order is "asc". Equal elements keep their relative input positions.
func Sort(reviews []domain.StoredReview, f domain.ReviewFilters) {
	switch f.SortBy {
	case domain.SortByRating:
		if f.SortOrder == domain.SortOrderDesc {
			sort.SliceStable(reviews, func(i, j int) bool {
				return reviews[i].Rating > reviews[j].Rating
			})
		} else {
			sort.SliceStable(reviews, func(i, j int) bool {
				return reviews[i].Rating < reviews[j].Rating
			})
		}
	default:
		if f.SortOrder == domain.SortOrderAsc {
			sort.SliceStable(reviews, func(i, j int) bool {
				return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
			})
		} else {
			sort.SliceStable(reviews, func(i, j int) bool {
				return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
			})
		}
	}
}

// Paginate slices one page out of the already filtered and sorted set
// and converts it to the public view. A page past the end yields an
// empty slice with the correct total.
func Paginate(reviews []domain.StoredReview, p pagination.Params) domain.PaginatedReviews {
	total := len(reviews)
	offset := p.Offset()

	page := []domain.Review{}
	if offset < total {
		end := offset + p.Limit
		if end > total {
			end = total
		}
		page = make([]domain.Review, 0, end-offset)
		for _, r := range reviews[offset:end] {
			page = append(page, r.Public())
		}
	}

	return domain.PaginatedReviews{
		Reviews: page,
		Total:   total,
		Page:    p.Page,
		Limit:   p.Limit,
		HasMore: offset+len(page) < total,
	}
}
