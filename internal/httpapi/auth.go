package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/storecraft/backend/pkg/auth"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// AuthMiddleware requires a valid bearer token and stores the claims in
// the request context.
func AuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFromHeader(r)
			if !ok {
				RespondError(w, http.StatusUnauthorized, "Authorization required")
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuthMiddleware stores claims when a valid token is present but
// lets anonymous requests through.
func OptionalAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := claimsFromHeader(r); ok {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromHeader(r *http.Request) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := auth.ValidateToken(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user ID; zero for anonymous.
func UserIDFromContext(ctx context.Context) uint {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return 0
}
