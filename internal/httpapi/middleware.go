package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cdnflow/internal/metrics"
	"cdnflow/pkg/passhash"
)

// statusRecorder captures the status code written by a downstream
// handler so middleware can log/record it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLoggingMiddleware logs one line per request at completion,
// mirroring the access-log shape the rest of this codebase emits for
// its gRPC interceptors.
func requestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if claims, ok := claimsFromContext(r.Context()); ok {
				attrs = append(attrs, "user", claims.Username)
			}
			logger.Info("http request", attrs...)

			if m := metrics.Get(); m != nil {
				m.RecordHTTPRequest(r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
			}
		})
	}
}

// publicPaths never require a bearer token: health and metrics are
// scraped by infrastructure that has no user identity to present.
var publicPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// jwtAuthMiddleware requires a valid "Bearer <token>" Authorization
// header on every route except publicPaths. A nil manager disables
// auth entirely, which is useful for local development and tests.
func jwtAuthMiddleware(manager *passhash.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			r = r.WithContext(withClaims(r.Context(), claims))
			next.ServeHTTP(w, r)
		})
	}
}
