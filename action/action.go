package action

import (
	"context"
	"errors"
	"fmt"
)

// HandlerResult is what a service handler produces for one node execution:
// a data delta to merge into the run context and narrative log lines for
// the step's audit trail.
type HandlerResult struct {
	Output map[string]any
	Logs   []string
}

// Handler performs the actual side effect of a node. The config it receives
// already has all {{templates}} resolved. An error returned by a handler is
// treated as transient and retried unless wrapped with Permanent.
type Handler interface {
	Handle(ctx context.Context, config map[string]any, data map[string]any) (*HandlerResult, error)
}

type HandlerFunc func(ctx context.Context, config map[string]any, data map[string]any) (*HandlerResult, error)

func (f HandlerFunc) Handle(ctx context.Context, config map[string]any, data map[string]any) (*HandlerResult, error) {
	return f(ctx, config, data)
}

// PermanentError marks a failure that retrying cannot fix, such as a logic
// error in a user script. The retry wrapper fails fast on these.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

var _ error = &PermanentError{}

func wrapPermanent(format string, args ...any) error {
	return Permanent(fmt.Errorf(format, args...))
}
