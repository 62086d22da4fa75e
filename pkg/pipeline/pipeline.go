package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getmockd/soapd/pkg/logging"
)

// Next invokes the rest of the chain and returns its response.
type Next[Resp any] func(ctx context.Context) (Resp, error)

// Hooks adapts a concrete filter type to the generic chain.
type Hooks[F, Req, Resp any] struct {
	// RunFilter invokes a single filter with the executing request and the
	// continuation to the rest of the chain.
	RunFilter func(ctx context.Context, filter F, req Req, next Next[Resp]) error

	// WasResultSet reports whether a filter has short-circuited the chain by
	// producing a result on the request.
	WasResultSet func(req Req) bool

	// CreateResponse synthesizes a response from a short-circuited request.
	CreateResponse func(req Req) Resp

	// CallCore is the terminal action reached when every filter called next.
	CallCore func(ctx context.Context, req Req) (Resp, error)
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer func(filter any)
}

// WithLogger sets the logger used to report silent short circuits.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithShortCircuitObserver registers a callback invoked with the offending
// filter whenever a filter neither calls next nor sets a result.
func WithShortCircuitObserver(fn func(filter any)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// Pipeline is an executable chain of filters around a terminal action.
// A built pipeline holds no per-execution state and may be executed
// concurrently.
type Pipeline[F, Req, Resp any] struct {
	hooks   Hooks[F, Req, Resp]
	opts    options
	execute func(ctx context.Context, req Req) (Resp, error)
}

// New builds a pipeline over filters in registration order. The first filter
// is the outermost: its code before next runs first on the way in and its code
// after next runs last on the way out.
func New[F, Req, Resp any](hooks Hooks[F, Req, Resp], filters []F, opts ...Option) *Pipeline[F, Req, Resp] {
	p := &Pipeline[F, Req, Resp]{
		hooks: hooks,
		opts:  options{logger: logging.Nop()},
	}
	for _, opt := range opts {
		opt(&p.opts)
	}

	p.execute = hooks.CallCore
	for i := len(filters) - 1; i >= 0; i-- {
		p.execute = p.wrap(filters[i], p.execute)
	}
	return p
}

// Execute runs the chain for req. Errors raised by filters or by the terminal
// action are returned unchanged.
func (p *Pipeline[F, Req, Resp]) Execute(ctx context.Context, req Req) (Resp, error) {
	return p.execute(ctx, req)
}

func (p *Pipeline[F, Req, Resp]) wrap(filter F, inner func(context.Context, Req) (Resp, error)) func(context.Context, Req) (Resp, error) {
	return func(ctx context.Context, req Req) (Resp, error) {
		var (
			captured Resp
			called   bool
		)

		next := func(ctx context.Context) (Resp, error) {
			// A filter further down may already have produced the result; it
			// becomes visible to this filter without re-entering the chain.
			if p.hooks.WasResultSet(req) {
				captured, called = p.hooks.CreateResponse(req), true
				return captured, nil
			}

			resp, err := inner(ctx, req)
			if err != nil {
				var zero Resp
				return zero, err
			}
			captured, called = resp, true
			return resp, nil
		}

		if err := p.hooks.RunFilter(ctx, filter, req, next); err != nil {
			var zero Resp
			return zero, err
		}

		if called {
			return captured, nil
		}
		if p.hooks.WasResultSet(req) {
			return p.hooks.CreateResponse(req), nil
		}

		p.opts.logger.Debug("filter short-circuited the pipeline without a result; no response will be returned",
			"filter", fmt.Sprintf("%T", filter))
		if p.opts.observer != nil {
			p.opts.observer(filter)
		}
		return captured, nil
	}
}
