package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	// ContextActorKey holds the caller identity forwarded by the upstream
	// auth provider. Log correlation only, never authorization.
	ContextActorKey ctxKey = "actorID"
	ContextTraceKey ctxKey = "traceID"
)

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func ActorIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ContextActorKey)
}

func ContextWithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ContextActorKey, actorID)
}

// TraceIDFromContext returns the X-Trace-ID of the request that produced ctx.
func TraceIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ContextTraceKey)
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ContextTraceKey, traceID)
}

// WithTimeout falls back to 5s when duration is not positive.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
