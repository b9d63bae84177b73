package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyWorkerID  contextKey = "worker_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithWorkerID tags a job context with the worker that claimed it.
func WithWorkerID(ctx context.Context, workerID string) context.Context {
	return context.WithValue(ctx, ContextKeyWorkerID, workerID)
}

func WorkerIDFromContext(ctx context.Context) string {
	if workerID, ok := ctx.Value(ContextKeyWorkerID).(string); ok {
		return workerID
	}
	return ""
}
