package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type contextKeyType string

const (
	submitterKey     contextKeyType = "submitter_id"
	roleKey          contextKeyType = "role"
	authenticatedKey contextKeyType = "authenticated"
)

// Claims represents the token claims extracted by the auth middleware.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// TokenValidator validates a bearer token and returns its claims. The
// concrete implementation is injected by the application (see internal/auth).
type TokenValidator func(token string) (*Claims, error)

// OptionalAuth resolves the submitter identity for the request. A valid
// bearer token yields the authenticated principal; a missing header yields a
// synthesized anonymous identity derived from client IP and time, matching
// the duplicate-detection granularity of the write path. A present but
// invalid token is rejected with 401.
func OptionalAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				anon := fmt.Sprintf("anonymous-%s-%d", ClientIP(r), time.Now().UnixMilli())
				ctx := context.WithValue(r.Context(), submitterKey, anon)
				ctx = context.WithValue(ctx, authenticatedKey, false)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := validateBearer(authHeader, validate)
			if err != nil {
				writeAuthError(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), submitterKey, claims.UserID)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			ctx = context.WithValue(ctx, authenticatedKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			claims, err := validateBearer(authHeader, validate)
			if err != nil {
				writeAuthError(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), submitterKey, claims.UserID)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			ctx = context.WithValue(ctx, authenticatedKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole checks that the authenticated principal has one of the given
// roles. Mount after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if _, ok := roleSet[role]; !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error": map[string]string{
						"code":    "FORBIDDEN",
						"message": "insufficient permissions",
					},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validateBearer(header string, validate TokenValidator) (*Claims, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, fmt.Errorf("invalid authorization header format")
	}
	claims, err := validate(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token")
	}
	return claims, nil
}

// SubmitterFromContext extracts the resolved submitter identity from the
// request context.
func SubmitterFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(submitterKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the principal role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

// IsAuthenticated reports whether the request carried a valid token.
func IsAuthenticated(ctx context.Context) bool {
	if ok, set := ctx.Value(authenticatedKey).(bool); set {
		return ok
	}
	return false
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
