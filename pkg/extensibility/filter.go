package extensibility

import (
	"context"

	"github.com/getmockd/soapd/pkg/pipeline"
)

// MessageNext continues the message filters and returns the outcome of the
// rest of the exchange.
type MessageNext = pipeline.Next[*MessageExecutedContext]

// OperationNext continues the operation filters and returns the outcome of
// the invocation.
type OperationNext = pipeline.Next[*OperationExecutedContext]

// MessageFilter wraps the whole request/response exchange, before the target
// operation is known. Filters are shared across concurrent requests and must
// keep per-request state in the context.
type MessageFilter interface {
	OnMessageReceived(ctx context.Context, c *MessageExecutingContext, next MessageNext) error
}

// MessageFilterFunc adapts a function to MessageFilter.
type MessageFilterFunc func(ctx context.Context, c *MessageExecutingContext, next MessageNext) error

// OnMessageReceived calls f.
func (f MessageFilterFunc) OnMessageReceived(ctx context.Context, c *MessageExecutingContext, next MessageNext) error {
	return f(ctx, c, next)
}

// OperationFilter wraps the invocation of a resolved operation.
type OperationFilter interface {
	OnOperationExecution(ctx context.Context, c *OperationExecutingContext, next OperationNext) error
}

// OperationFilterFunc adapts a function to OperationFilter.
type OperationFilterFunc func(ctx context.Context, c *OperationExecutingContext, next OperationNext) error

// OnOperationExecution calls f.
func (f OperationFilterFunc) OnOperationExecution(ctx context.Context, c *OperationExecutingContext, next OperationNext) error {
	return f(ctx, c, next)
}

// MessagePipeline runs message filters around a message core.
type MessagePipeline = pipeline.Pipeline[MessageFilter, *MessageExecutingContext, *MessageExecutedContext]

// OperationPipeline runs operation filters around an invocation.
type OperationPipeline = pipeline.Pipeline[OperationFilter, *OperationExecutingContext, *OperationExecutedContext]

// MessageCore processes a message once every message filter called next.
type MessageCore func(ctx context.Context, c *MessageExecutingContext) (*MessageExecutedContext, error)

// InvokeFunc invokes the operation once every operation filter called next.
type InvokeFunc func(ctx context.Context, c *OperationExecutingContext) (any, error)

// NewMessagePipeline builds the message filter chain around core.
func NewMessagePipeline(filters []MessageFilter, core MessageCore, opts ...pipeline.Option) *MessagePipeline {
	return pipeline.New(pipeline.Hooks[MessageFilter, *MessageExecutingContext, *MessageExecutedContext]{
		RunFilter: func(ctx context.Context, f MessageFilter, c *MessageExecutingContext, next MessageNext) error {
			return f.OnMessageReceived(ctx, c, next)
		},
		WasResultSet: func(c *MessageExecutingContext) bool {
			return c.Result.IsSet()
		},
		CreateResponse: func(c *MessageExecutingContext) *MessageExecutedContext {
			return &MessageExecutedContext{Message: c.Result.Get(), Service: c.Service}
		},
		CallCore: core,
	}, filters, opts...)
}

// NewOperationPipeline builds the operation filter chain around invoke.
func NewOperationPipeline(filters []OperationFilter, invoke InvokeFunc, opts ...pipeline.Option) *OperationPipeline {
	return pipeline.New(pipeline.Hooks[OperationFilter, *OperationExecutingContext, *OperationExecutedContext]{
		RunFilter: func(ctx context.Context, f OperationFilter, c *OperationExecutingContext, next OperationNext) error {
			return f.OnOperationExecution(ctx, c, next)
		},
		WasResultSet: func(c *OperationExecutingContext) bool {
			return c.Result.IsSet()
		},
		CreateResponse: func(c *OperationExecutingContext) *OperationExecutedContext {
			return c.executed(c.Result.Get())
		},
		CallCore: func(ctx context.Context, c *OperationExecutingContext) (*OperationExecutedContext, error) {
			result, err := invoke(ctx, c)
			if err != nil {
				return nil, err
			}
			return c.executed(result), nil
		},
	}, filters, opts...)
}
