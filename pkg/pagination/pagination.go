// Package pagination provides offset pagination helpers for list endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the page size used when the client does not send one.
	DefaultLimit = 10
	// MaxLimit caps the page size a client may request.
	MaxLimit = 100
)

// Params describes one requested page.
type Params struct {
	Page  int
	Limit int
}

// FromRequest parses page and limit query parameters, falling back to
// defaults on missing or malformed values.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, Limit: DefaultLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			p.Page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			p.Limit = v
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of items to skip for this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}
