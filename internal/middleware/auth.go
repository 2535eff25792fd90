// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/donorlink/internal/repository"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator resolves a bearer token to its account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*repository.User, error)
}

// Authenticate is a middleware that enforces bearer token authentication.
//
// It reads the token from the Authorization header, resolves it through
// auth and stores the account in the request context, so downstream
// handlers can read it with GetUserFromContext. A missing, malformed or
// rejected token is answered with 401.
func Authenticate(auth Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "authorization token required")
				return
			}
			u, err := auth.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				log.Debug("token rejected", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerified answers 403 for accounts that have not finished OTP
// verification. It must run after Authenticate.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := GetUserFromContext(r.Context())
		if u == nil {
			writeError(w, http.StatusUnauthorized, "authorization token required")
			return
		}
		if !u.Profile.Status.Completed() {
			writeError(w, http.StatusForbidden, "please complete verification")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext returns the authenticated account, or nil.
func GetUserFromContext(ctx context.Context) *repository.User {
	u, _ := ctx.Value(userKey).(*repository.User)
	return u
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	if u := GetUserFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
