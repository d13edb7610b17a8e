// Package middleware carries the HTTP middleware chain: panic
// recovery, trace propagation, access logging, token auth, and request
// metrics.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"autobahn/internal/credstore"
	"autobahn/internal/logging"
	"autobahn/internal/models"
)

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	tokenKey   contextKey = "token"
	userKey    contextKey = "user"
)

// TraceID returns the request's trace id, or "" outside a request.
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

// Token returns the bearer token the auth middleware accepted.
func Token(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

// User returns the authenticated user, or nil on public paths.
func User(ctx context.Context) *credstore.User {
	v, _ := ctx.Value(userKey).(*credstore.User)
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.L.Errorw("encode response", "error", err)
	}
}

// statusRecorder captures the response status and stamps the timing
// header just before headers flush, which is the last moment it can be
// set.
type statusRecorder struct {
	http.ResponseWriter
	status int
	start  time.Time
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.wrote {
		return
	}
	r.wrote = true
	r.status = status
	if !r.start.IsZero() {
		cost := float64(time.Since(r.start).Microseconds()) / 1000
		r.Header().Set("X-Response-Time-ms", fmt.Sprintf("%.2f", cost))
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// Recovery converts panics into a 500 envelope instead of a dropped
// connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.L.Errorw("panic in handler",
					"path", r.URL.Path, "panic", rec, "trace_id", TraceID(r.Context()))
				writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
					TraceID: TraceID(r.Context()),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Trace attaches a trace id to every request, honoring an inbound
// X-Trace-Id, and reports it plus the handling time on the response.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, start: time.Now()}

		rec.Header().Set("X-Trace-Id", traceID)
		next.ServeHTTP(rec, r.WithContext(ctx))
		cost := time.Since(rec.start)

		logging.L.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"cost_ms", fmt.Sprintf("%.2f", float64(cost.Microseconds())/1000),
			"trace_id", traceID,
		)
	})
}
