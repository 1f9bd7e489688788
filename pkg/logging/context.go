package logging

import (
	"context"

	"go.uber.org/zap"
)

type requestCtxKey struct{}
type pollCtxKey struct{}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, id)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestCtxKey{}).(string)
	return id
}

// WithPoll attaches the name of the running poll to ctx.
func WithPoll(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, pollCtxKey{}, name)
}

// PollFromContext returns the poll name or "".
func PollFromContext(ctx context.Context) string {
	name, _ := ctx.Value(pollCtxKey{}).(string)
	return name
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 2)
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	if name := PollFromContext(ctx); name != "" {
		fields = append(fields, zap.String("poll", name))
	}
	return fields
}
