// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	sessionIDKey contextKey = "ctxutil.sessionID"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithSessionID adds a session ID to the context.
// Session ID comes from the conversation API path and is used for
// rate limiting and log correlation.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// GetSessionID retrieves the session ID from the context.
// Returns the session ID if found, empty string otherwise.
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(sessionIDKey); v != nil {
		if sessionID, ok := v.(string); ok && sessionID != "" {
			return sessionID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
// Request ID is generated per HTTP request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// MustGetRequestID retrieves the request ID from the context.
// Panics if the request ID is not found. Use only behind the request-id
// middleware, which guarantees the value exists.
func MustGetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		panic("ctxutil: requestID not found")
	}
	return requestID
}

// PreserveTracing creates a detached context that preserves tracing values.
// The new context is independent of the parent's cancellation and deadlines.
//
// This function creates a fresh context.Background() and copies only tracing values,
// avoiding memory leaks from retaining parent context references (Go issue #64478).
//
// Use for async operations that need tracing but must outlive the request,
// such as catalog swaps triggered from a handler.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if sessionID := GetSessionID(ctx); sessionID != "" {
		newCtx = WithSessionID(newCtx, sessionID)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}

	return newCtx
}
