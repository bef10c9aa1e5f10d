package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantry/internal/auth"
	"github.com/gosuda/tenantry/internal/domain"
)

// UserLoader fetches the caller named by a token.
type UserLoader interface {
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.User, error)
}

// Auth accepts Bearer access tokens. When users is non-nil the caller is
// loaded, rejected if deleted or inactive, and stored in the context with its
// current role; otherwise only the token's claims are stored.
func Auth(jwtSecret string, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			ctx, ok := authenticateJWT(r.Context(), tok, jwtSecret, users)
			if !ok {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}

func authenticateJWT(ctx context.Context, tokenStr, secret string, users UserLoader) (context.Context, bool) {
	claims, err := auth.ValidateToken(secret, tokenStr)
	if err != nil || claims.TokenType != "access" {
		return ctx, false
	}

	companyID, userID, err := claims.IDs()
	if err != nil {
		return ctx, false
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return ctx, false
	}

	if users == nil {
		return WithIdentity(ctx, companyID, userID, role), true
	}

	user, err := users.GetByID(ctx, companyID, userID)
	if err != nil {
		log.Debug().Err(err).Str("user_id", userID.String()).Msg("auth: token user lookup failed")
		return ctx, false
	}
	// The company's active flag is not checked here; login and refresh
	// enforce it, so a deactivated company loses access at token expiry.
	if user.IsInactive() {
		return ctx, false
	}

	return WithUser(ctx, user), true
}
