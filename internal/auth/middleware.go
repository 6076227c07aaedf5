package auth

import (
	"context"
	"fmt"
	"net/http"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const claimsKey contextKey = "admin_claims"

// Middleware rejects requests without a valid admin bearer token and puts
// the verified claims on the request context.
func Middleware(tokens *TokenManager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, apperr.Auth("No token, authorization denied"))
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, apperr.Auth("Token is not valid"))
				return
			}

			revoked, err := tokens.IsRevoked(r.Context(), claims)
			if err != nil {
				utils.WriteError(w, apperr.Unexpected("Token check failed", err))
				log.Error("AUTH", fmt.Sprintf("revocation check: %v", err))
				return
			}
			if revoked {
				log.LogSecurity("REVOKED_TOKEN", fmt.Sprintf("%s %s: admin %s", r.Method, r.URL.Path, claims.Email))
				utils.WriteError(w, apperr.Auth("Token has been revoked"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// AdminID returns the authenticated admin's id, or nil when absent or not
// an ObjectID.
func AdminID(ctx context.Context) *primitive.ObjectID {
	c := ClaimsFrom(ctx)
	if c == nil {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return nil
	}
	return &id
}
