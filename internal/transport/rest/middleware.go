package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/storefront/internal/auth"
	"github.com/abgdnv/storefront/pkg/web"
)

// Authenticator resolves the bearer token to a user and injects the user ID
// into the request context. Requests without a valid token never reach the
// protected handlers.
func Authenticator(authService auth.AuthService, logger *slog.Logger) func(next http.Handler) http.Handler {
	mLogger := logger.With("component", "auth_middleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				web.RespondError(w, mLogger, http.StatusUnauthorized, "Unauthorized: Missing bearer token")
				return
			}

			user, err := authService.UserByToken(r.Context(), token)
			if err != nil {
				web.RespondError(w, mLogger, http.StatusUnauthorized, "Unauthorized: Invalid or expired token")
				return
			}

			ctx := web.WithUserID(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
