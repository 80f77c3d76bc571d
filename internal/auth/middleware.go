package auth

import (
	"context"
	"fmt"
	"net/http"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/utils"
)

type contextKey string

const claimsKey contextKey = "admin_claims"

// Middleware rejects requests without a valid admin token with a uniform
// 401 {"message":"Unauthorized"}.
func Middleware(issuer *TokenIssuer, cookieName string, log *logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r, cookieName)
			if err != nil {
				unauthorized(w)
				return
			}
			claims, err := issuer.Verify(raw)
			if err != nil {
				log.LogSecurity("TOKEN_REJECTED", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorBody{Message: "Unauthorized"})
}

// Claims returns the verified token claims stored by Middleware.
func Claims(ctx context.Context) *models.AdminClaims {
	if c, ok := ctx.Value(claimsKey).(*models.AdminClaims); ok {
		return c
	}
	return nil
}

func Username(ctx context.Context) string {
	if c := Claims(ctx); c != nil {
		return c.Username
	}
	return ""
}
