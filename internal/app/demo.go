package app

import (
	"time"

	"github.com/utafrali/reviews-service/internal/domain"
)

// demoProductID is the product pre-populated with reviews in development.
const demoProductID = "test-product-1"

// demoCredentials is the development credential check backing the login
// endpoint. Real deployments front this service with an identity provider
// and only need token verification.
func demoCredentials(username, password string) (string, string, bool) {
	switch {
	case username == "admin" && password == "admin":
		return "demo-admin", "admin", true
	case username == "demo" && password == "demo":
		return "demo-user", "customer", true
	}
	return "", "", false
}

// demoReviews returns the fixture set seeded into the in-memory store in
// development so the API answers with data out of the box.
func demoReviews() []domain.StoredReview {
	base := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

	return []domain.StoredReview{
		{
			ID:          "demo-review-1",
			ProductID:   demoProductID,
			AuthorName:  "Maya K.",
			Rating:      5,
			Comment:     "Exactly as described, arrived quickly.",
			Verified:    true,
			CreatedAt:   base,
			SubmitterID: "demo-submitter-1",
			Version:     1,
		},
		{
			ID:          "demo-review-2",
			ProductID:   demoProductID,
			AuthorName:  "Jonas",
			Rating:      4,
			Comment:     "Good value. The packaging could be better.",
			Verified:    true,
			CreatedAt:   base.Add(26 * time.Hour),
			SubmitterID: "demo-submitter-2",
			Version:     1,
		},
		{
			ID:          "demo-review-3",
			ProductID:   demoProductID,
			AuthorName:  "Priya",
			Rating:      3,
			Comment:     "Does the job, nothing special.",
			CreatedAt:   base.Add(49 * time.Hour),
			SubmitterID: "demo-submitter-3",
			Version:     1,
		},
	}
}
