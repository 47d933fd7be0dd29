package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mileage-service/common/jwt"
	"mileage-service/common/response"
)

const claimsKey contextKey = "claims"

// AuthRequired validates the Bearer token and injects the claims into the
// request context.
func AuthRequired(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Authorization")
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing auth header")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || headerParts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid auth header")
				return
			}

			claims, err := jwt.ValidateToken(headerParts[1], secret)
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminRequired rejects requests whose claims do not carry the admin role.
// Must run after AuthRequired.
func AdminRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := GetClaims(r.Context())
		if err != nil || claims.Role != "admin" {
			response.Forbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClaims retrieves the validated claims from the request context
func GetClaims(ctx context.Context) (*jwt.Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*jwt.Claims)
	if !ok {
		return nil, errors.New("no claims found in context")
	}
	return claims, nil
}
