// README: Errors that remember the log context of the place they were created.
package logger

import (
	"context"
	"errors"
)

// errorWithLogCtx carries the LogCtx that was active where the error was created.
type errorWithLogCtx struct {
	err    error
	logCtx LogCtx
}

func (e *errorWithLogCtx) Error() string {
	return e.err.Error()
}

func (e *errorWithLogCtx) Unwrap() error {
	return e.err
}

// WrapError attaches the LogCtx of ctx to err. A nil err stays nil.
func WrapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var e *errorWithLogCtx
	if errors.As(err, &e) {
		return err
	}
	return &errorWithLogCtx{err: err, logCtx: fromContext(ctx)}
}

// ErrorCtx returns ctx enriched with the LogCtx captured by WrapError, so the
// log line points at where the failure happened rather than where it was logged.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *errorWithLogCtx
	if errors.As(err, &e) && e != nil {
		return WithLogCtx(ctx, e.logCtx)
	}
	return ctx
}
