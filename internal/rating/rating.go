// Package rating computes aggregate rating summaries from review sets.
package rating

import (
	"math"

	"github.com/utafrali/reviews-service/internal/domain"
)

// Aggregate computes the average, total and per-star distribution for the
// given reviews. The average is rounded to one decimal place. An empty
// input yields a zero average and an all-zero distribution.
func Aggregate(productID string, reviews []domain.StoredReview) domain.ProductRating {
	distribution := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}

	if len(reviews) == 0 {
		return domain.ProductRating{
			ProductID:          productID,
			AverageRating:      0,
			TotalReviews:       0,
			RatingDistribution: distribution,
		}
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		if _, ok := distribution[r.Rating]; ok {
			distribution[r.Rating]++
		}
	}

	avg := float64(sum) / float64(len(reviews))
	avg = math.Round(avg*10) / 10

	return domain.ProductRating{
		ProductID:          productID,
		AverageRating:      avg,
		TotalReviews:       len(reviews),
		RatingDistribution: distribution,
	}
}
