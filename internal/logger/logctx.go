// README: Per-request log fields (action, user, request, trip) carried in context.
package logger

import "context"

type (
	// LogCtx holds contextual information for logging
	LogCtx struct {
		Action    string
		UserID    string
		RequestID string
		TripID    string
	}

	logCtxKeyStruct struct{}
)

var logCtxKey = &logCtxKeyStruct{}

func fromContext(ctx context.Context) LogCtx {
	if lc, ok := ctx.Value(logCtxKey).(LogCtx); ok {
		return lc
	}
	return LogCtx{}
}

// WithLogCtx merges newLc into the LogCtx already stored in ctx. Empty fields keep the old value.
func WithLogCtx(ctx context.Context, newLc LogCtx) context.Context {
	lc := fromContext(ctx)
	if newLc.Action == "" {
		newLc.Action = lc.Action
	}
	if newLc.UserID == "" {
		newLc.UserID = lc.UserID
	}
	if newLc.RequestID == "" {
		newLc.RequestID = lc.RequestID
	}
	if newLc.TripID == "" {
		newLc.TripID = lc.TripID
	}
	return context.WithValue(ctx, logCtxKey, newLc)
}

func WithAction(ctx context.Context, action string) context.Context {
	lc := fromContext(ctx)
	lc.Action = action
	return context.WithValue(ctx, logCtxKey, lc)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	lc := fromContext(ctx)
	lc.UserID = userID
	return context.WithValue(ctx, logCtxKey, lc)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := fromContext(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, logCtxKey, lc)
}

func WithTripID(ctx context.Context, tripID string) context.Context {
	lc := fromContext(ctx)
	lc.TripID = tripID
	return context.WithValue(ctx, logCtxKey, lc)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	return fromContext(ctx).RequestID
}
