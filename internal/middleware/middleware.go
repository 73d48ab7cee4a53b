// internal/middleware/middleware.go
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"kitchenback/internal/errs"
	"kitchenback/internal/logger"
	"kitchenback/internal/security"
)

// Request context keys
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	IdentityKey  contextKey = "identity"
)

// Standard API error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id"`
}

// Standard API success response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id"`
}

// Rate limiting per user
var (
	userRateLimiter = make(map[string]time.Time)
	userRateMu      sync.Mutex
	userRateLimit   = time.Millisecond * 300 // minimum gap between writes per user
)

// APIMiddleware is the chain every API endpoint goes through.
func APIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return RequestID(
		Logging(
			WithIdentity(
				ErrorHandling(next),
			),
		),
	)
}

// MutatingAPIMiddleware additionally rate-limits per user, for endpoints
// that write.
func MutatingAPIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return RequestID(
		Logging(
			WithIdentity(
				UserRateLimit(
					ErrorHandling(next),
				),
			),
		),
	)
}

// RequestID middleware adds a unique request ID to each request
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// Logging middleware logs all API requests with consistent format
func Logging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := getRequestID(r.Context())

		logger.LogInfo("API request started: id=%s %s %s from %s",
			requestID, r.Method, r.URL.Path, logger.GetClientIP(r))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.LogInfo("API request completed: id=%s status=%d took=%v",
			requestID, rw.statusCode, time.Since(start))
	}
}

// WithIdentity resolves the caller identity from an access token or from
// the plain identity headers. The core never authenticates; whoever sits in
// front of this service vouches for the pair.
func WithIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id security.Identity

		if token := r.Header.Get("X-Access-Token"); token != "" {
			resolved, ok := security.LookupToken(token)
			if !ok {
				WriteAPIError(w, r, http.StatusUnauthorized, "invalid_token",
					"Access token is invalid or expired", "")
				return
			}
			id = resolved
		} else {
			id = security.Identity{
				User: strings.TrimSpace(r.Header.Get("X-User-Name")),
				Role: strings.TrimSpace(r.Header.Get("X-User-Role")),
			}
		}

		if id.User == "" {
			WriteAPIError(w, r, http.StatusUnauthorized, "missing_identity",
				"Caller identity required (X-Access-Token or X-User-Name/X-User-Role)", "")
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetIdentity retrieves the caller identity from request context.
func GetIdentity(ctx context.Context) security.Identity {
	if id, ok := ctx.Value(IdentityKey).(security.Identity); ok {
		return id
	}
	return security.Identity{}
}

// UserRateLimit keeps one fat-fingered device from double-submitting.
func UserRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r.Context())
		if id.User == "" {
			next.ServeHTTP(w, r) // Should be caught by WithIdentity
			return
		}

		userRateMu.Lock()
		lastRequest, exists := userRateLimiter[id.User]
		now := time.Now()

		if exists && now.Sub(lastRequest) < userRateLimit {
			userRateMu.Unlock()
			WriteAPIError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded",
				"Too many requests. Please wait before trying again.", "")
			return
		}

		userRateLimiter[id.User] = now
		userRateMu.Unlock()

		next.ServeHTTP(w, r)
	}
}

// ErrorHandling middleware provides panic recovery and consistent error responses
func ErrorHandling(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				requestID := getRequestID(r.Context())
				logger.LogError("Panic in API handler: id=%s %s %s: %v",
					requestID, r.Method, r.URL.Path, err)
				WriteAPIError(w, r, http.StatusInternalServerError, "internal_error",
					"An internal error occurred", "")
			}
		}()
		next.ServeHTTP(w, r)
	}
}

// Helper functions
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WriteAPIError writes a standardized error response
func WriteAPIError(w http.ResponseWriter, r *http.Request, statusCode int, code, message, details string) {
	requestID := getRequestID(r.Context())

	response := APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// WriteCoreError maps a core error to its HTTP status and distinct message.
func WriteCoreError(w http.ResponseWriter, r *http.Request, err error) {
	logger.LogHTTPError(r, errs.HTTPStatus(err), err)
	WriteAPIError(w, r, errs.HTTPStatus(err), errs.Code(err), err.Error(), "")
}

// WriteAPISuccess writes a standardized success response
func WriteAPISuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	requestID := getRequestID(r.Context())

	response := APIResponse{
		Success:   true,
		Data:      data,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ParseJSONRequest parses JSON request body into the provided struct
func ParseJSONRequest(r *http.Request, v interface{}) error {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields() // Strict parsing
	return decoder.Decode(v)
}
