package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"autobahn/internal/credstore"
	"autobahn/internal/logging"
	"autobahn/internal/models"
)

// Paths reachable without a token.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Path prefixes reachable without a token.
var publicPathPrefixes = []string{
	"/api/v1/account/login",
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

func isPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Auth validates the bearer token against the credential store and puts
// the resolved user and token into the request context.
func Auth(store *credstore.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if isPublic(path) {
				next.ServeHTTP(w, r)
				return
			}

			traceID := TraceID(r.Context())
			token := ExtractToken(r)
			if token == "" {
				logging.L.Warnw("auth rejected: no token", "path", path, "trace_id", traceID)
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Code:    http.StatusUnauthorized,
					Message: "missing auth token; send Authorization: Bearer <token>",
					TraceID: traceID,
				})
				return
			}

			if err := store.Validate(token); err != nil {
				logging.L.Warnw("auth rejected: invalid token",
					"path", path, "trace_id", traceID, "reason", err)
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Code:    http.StatusUnauthorized,
					Message: "auth token invalid or expired, please log in again",
					TraceID: traceID,
				})
				return
			}

			user, err := store.Get(token)
			if err != nil {
				// Validate just passed, so this is a store-level fault.
				if !errors.Is(err, credstore.ErrUserNotFound) {
					logging.L.Errorw("auth: user lookup failed", "error", err, "trace_id", traceID)
				}
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
					Code:    http.StatusUnauthorized,
					Message: "unable to resolve user info",
					TraceID: traceID,
				})
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)
			ctx = context.WithValue(ctx, userKey, user)
			logging.L.Debugw("auth ok", "username", user.Username, "path", path, "trace_id", traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
