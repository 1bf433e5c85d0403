package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-ecommerce/models"
	"go-ecommerce/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// ClaimsFrom returns the claims attached by AuthMiddleware.
func ClaimsFrom(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok
}

// WithClaims attaches claims to ctx.
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// AuthMiddleware verifies the bearer access token and attaches its claims to the context
func AuthMiddleware(tokens *utils.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.Fail(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.Fail(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := tokens.ParseAccess(parts[1])
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					utils.Fail(w, http.StatusUnauthorized, "Token has expired")
					return
				}
				utils.Fail(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// AdminMiddleware ensures that the user has admin privileges
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || claims.Role != models.RoleAdmin {
			utils.Fail(w, http.StatusForbidden, "Forbidden: Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
