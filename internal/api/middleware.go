package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lei/datagov-gateway/internal/config"
	"github.com/lei/datagov-gateway/pkg/logger"
)

// AuthMiddleware handles API key authentication of proxy clients
type AuthMiddleware struct {
	keys []config.APIKey
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(keys []config.APIKey) *AuthMiddleware {
	return &AuthMiddleware{keys: keys}
}

// lookup returns the name of the key matching candidate
func (m *AuthMiddleware) lookup(candidate string) (string, bool) {
	name, found := "", false
	for _, k := range m.keys {
		// compare against every key so timing does not reveal the match position
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(candidate)) == 1 {
			name, found = k.Name, true
		}
	}
	return name, found
}

// Authenticate validates the API key from the Authorization header
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := GetLogger(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if log != nil {
				log.Warn("authentication failed: missing authorization header")
			}
			respondError(w, r, http.StatusUnauthorized, "missing authorization header")
			return
		}

		// Expect: "Bearer <api_key>"
		scheme, apiKey, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || apiKey == "" {
			if log != nil {
				log.Warn("authentication failed: invalid authorization format")
			}
			respondError(w, r, http.StatusUnauthorized, "invalid authorization format, expected 'Bearer <token>'")
			return
		}

		name, valid := m.lookup(apiKey)
		if !valid {
			if log != nil {
				keyPrefix := apiKey
				if len(apiKey) > 4 {
					keyPrefix = apiKey[:4]
				}
				log.Warn("authentication failed: invalid api key", "key_prefix", keyPrefix)
			}
			respondError(w, r, http.StatusUnauthorized, "invalid api key")
			return
		}

		// downstream logs carry the caller's key name
		ctx := r.Context()
		if log != nil {
			log = log.With("api_key_name", name)
			log.Debug("authentication successful")
			ctx = logger.NewContext(ctx, log)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware adds a request-scoped logger and logs completed requests
type LoggingMiddleware struct {
	logger *logger.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Handler wraps HTTP handlers with logging
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = "unknown"
		}

		reqLogger := m.logger.With(
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
		)

		ctx := logger.NewContext(r.Context(), reqLogger)
		ctx = context.WithValue(ctx, contextKeyRequestID, requestID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			reqLogger.Log(r.Context(), level, "request completed",
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes_written", ww.BytesWritten())
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}
