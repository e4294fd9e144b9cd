package api

import (
	"context"

	"github.com/lei/datagov-gateway/pkg/logger"
)

// contextKey is an unexported type for context keys to prevent collisions
type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// GetLogger retrieves the logger from context
func GetLogger(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx)
}
