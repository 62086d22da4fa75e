package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/getmockd/soapd/pkg/logging"
)

// Invoker calls an operation on a service instance.
type Invoker interface {
	Invoke(ctx context.Context, op *OperationDescription, instance any, args []any) (any, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, op *OperationDescription, instance any, args []any) (any, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, op *OperationDescription, instance any, args []any) (any, error) {
	return f(ctx, op, instance, args)
}

// DefaultInvoker calls the operation's dispatch function. A panic in the
// operation is recovered into an *InvocationError.
type DefaultInvoker struct{}

// Invoke implements Invoker.
func (DefaultInvoker) Invoke(ctx context.Context, op *OperationDescription, instance any, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			result, err = nil, &InvocationError{Operation: op.String(), Err: cause, Stack: debug.Stack()}
		}
	}()
	return op.Dispatch(ctx, instance, args)
}

// Unwrap decorates an invoker so that *InvocationError wrappers are removed
// and the original cause is returned.
func Unwrap(inner Invoker, logger *slog.Logger) Invoker {
	if logger == nil {
		logger = logging.Nop()
	}
	return &unwrapInvoker{inner: inner, logger: logger}
}

type unwrapInvoker struct {
	inner  Invoker
	logger *slog.Logger
}

func (u *unwrapInvoker) Invoke(ctx context.Context, op *OperationDescription, instance any, args []any) (any, error) {
	result, err := u.inner.Invoke(ctx, op, instance, args)
	if err == nil {
		return result, nil
	}

	var invErr *InvocationError
	if errors.As(err, &invErr) {
		u.logger.Warn("operation panicked",
			"operation", op.String(),
			"error", invErr.Err,
			"stack", string(invErr.Stack))
		return nil, invErr.Err
	}
	return nil, err
}
