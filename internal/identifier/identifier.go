// Package identifier classifies product identifiers so the service can
// accept both platform-generated IDs and human-readable keys on every
// product-scoped route.
package identifier

import (
	"fmt"
	"regexp"
)

// uuidPattern matches the canonical 8-4-4-4-12 hex form, case-insensitive.
var uuidPattern = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsPlatformID reports whether the identifier is a platform-generated UUID
// rather than a symbolic product key.
func IsPlatformID(id string) bool {
	return uuidPattern.MatchString(id)
}

// ProductPredicate builds the backend query predicate selecting reviews
// for the given product, addressed by ID or by key as appropriate.
func ProductPredicate(productID string) string {
	if IsPlatformID(productID) {
		return fmt.Sprintf(`target(typeId="product", id="%s")`, productID)
	}
	return fmt.Sprintf(`target(typeId="product", key="%s")`, productID)
}
