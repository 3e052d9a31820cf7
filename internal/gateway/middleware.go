package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/neurolife88/amo-china/pkg/logger"
	"github.com/neurolife88/amo-china/pkg/monitoring"
	"github.com/neurolife88/amo-china/pkg/types"
)

type contextKey string

const claimsContextKey contextKey = "user_claims"

// AuthMiddleware validates bearer tokens and attaches the resulting
// user claims to the request context
type AuthMiddleware struct {
	validator *TokenValidator
	logger    *logger.Logger
	metrics   *monitoring.MetricsCollector
	tracing   *monitoring.TracingManager
}

// NewAuthMiddleware creates a new auth middleware. metrics and tracing
// may be nil.
func NewAuthMiddleware(validator *TokenValidator, log *logger.Logger, metrics *monitoring.MetricsCollector, tracing *monitoring.TracingManager) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    log,
		metrics:   metrics,
		tracing:   tracing,
	}
}

// Middleware validates the Authorization header on every request.
// Health and metrics endpoints are exempt.
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			writeJSONError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		ctx := r.Context()
		var authSpan trace.Span
		if m.tracing != nil {
			ctx, authSpan = m.tracing.StartAuthSpan(ctx, "validate_token")
			defer authSpan.End()
		}

		claims, err := m.validator.ValidateJWT(tokenString)
		if err != nil {
			if m.metrics != nil {
				m.metrics.RecordAuthAttempt("failure")
			}
			if authSpan != nil {
				m.tracing.RecordError(authSpan, err)
			}
			m.logger.Security("invalid_token", "", map[string]interface{}{
				"remote_addr": r.RemoteAddr,
				"path":        r.URL.Path,
				"error":       err.Error(),
			})
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if m.metrics != nil {
			m.metrics.RecordAuthAttempt("success")
		}
		m.logger.WithUserID(claims.UserID).Debug("Token validated")

		ctx = context.WithValue(ctx, claimsContextKey, claims)
		ctx = context.WithValue(ctx, logger.RequestIDContextKey, requestID(r))
		ctx = context.WithValue(ctx, logger.UserIDContextKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext extracts the authenticated user claims from the
// request context. The second return value is false when the request
// was not authenticated.
func ClaimsFromContext(ctx context.Context) (*types.UserClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*types.UserClaims)
	return claims, ok
}

// RequestIDFromContext returns the request's correlation ID, if set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(logger.RequestIDContextKey).(string)
	return id
}

// ContextWithClaims attaches claims to a context. Used by tests and by
// in-process callers that bypass HTTP.
func ContextWithClaims(ctx context.Context, claims *types.UserClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// RequestLoggingMiddleware writes one structured log line per request.
// It runs after authentication so the request and user IDs stored in
// the context end up on the line.
func RequestLoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			log.HTTPRequest(r.Context(), r.Method, r.URL.Path, r.RemoteAddr,
				wrapper.statusCode, time.Since(start).Milliseconds())
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// SecurityHeadersMiddleware adds standard security headers
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
