// Package pipeline provides the generic filter chain used by the SOAP
// endpoint at both message and operation granularity.
//
// A Pipeline composes an ordered list of filters around a terminal "core"
// action. Each filter receives the executing request and a continuation; code
// before the continuation runs on the way in, code after it runs on the way
// out, so exit order is the exact reverse of registration order.
//
// # Short circuits
//
// A filter may end the chain early in three ways:
//
//   - Producing a result on the request (reported by Hooks.WasResultSet).
//     Filters registered after it are never entered and filters registered
//     before it receive the response built by Hooks.CreateResponse.
//   - Returning an error. The error propagates unchanged out of Execute.
//   - Neither calling next nor producing a result. This is legal and yields
//     the zero response (no message, same as a one-way exchange) but is easy
//     to do by mistake, so it is logged at debug level and reported to the
//     observer set with WithShortCircuitObserver.
//
// # Usage
//
//	p := pipeline.New(pipeline.Hooks[Filter, *Req, *Resp]{
//	    RunFilter:      func(ctx context.Context, f Filter, r *Req, next pipeline.Next[*Resp]) error { return f.Run(ctx, r, next) },
//	    WasResultSet:   func(r *Req) bool { return r.Result != nil },
//	    CreateResponse: func(r *Req) *Resp { return &Resp{Value: r.Result} },
//	    CallCore:       core,
//	}, filters, pipeline.WithLogger(logger))
//
//	resp, err := p.Execute(ctx, req)
package pipeline
