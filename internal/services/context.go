package services

import "context"

type contextKey string

const (
	dispatchIDKey contextKey = "dispatch_id"
	stageKey      contextKey = "stage"
)

// WithDispatchID annotates context with the identifier of one dispatch attempt.
func WithDispatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, dispatchIDKey, id)
}

// DispatchIDFromContext extracts the dispatch identifier if present.
func DispatchIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(dispatchIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
