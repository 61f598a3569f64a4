package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// SessionIDKey is the context key for session identifiers.
	SessionIDKey contextKey = "session_id"

	// RequestIDKey is the context key for request identifiers.
	RequestIDKey contextKey = "request_id"
)

// WithSessionID adds a session identifier to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID retrieves the session identifier from the context.
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// WithRequestID adds a request identifier to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request identifier from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// contextHandler decorates records with identifiers carried in the
// context, so callers don't repeat them at every log site.
type contextHandler struct {
	inner slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if sessionID := GetSessionID(ctx); sessionID != "" {
		record.AddAttrs(slog.String(string(SessionIDKey), sessionID))
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		record.AddAttrs(slog.String(string(RequestIDKey), requestID))
	}
	return h.inner.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
