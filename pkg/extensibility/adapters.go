package extensibility

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/getmockd/soapd/pkg/service"
	"github.com/getmockd/soapd/pkg/soap"
)

// RequestFilter observes request and response messages without controlling
// the chain.
type RequestFilter interface {
	OnRequestExecuting(msg *soap.Message) error
	OnResponseExecuting(msg *soap.Message) error
}

// AdaptRequestFilter turns f into a message filter. OnResponseExecuting is
// skipped when there is no response message.
func AdaptRequestFilter(f RequestFilter) MessageFilter {
	return MessageFilterFunc(func(ctx context.Context, c *MessageExecutingContext, next MessageNext) error {
		if err := f.OnRequestExecuting(c.Message()); err != nil {
			return err
		}
		resp, err := next(ctx)
		if err != nil {
			return err
		}
		if resp == nil || resp.Message == nil {
			return nil
		}
		return f.OnResponseExecuting(resp.Message)
	})
}

// MessageInspector may replace the request before it is processed and the
// reply before it is sent. The state returned by AfterReceiveRequest is handed
// back to BeforeSendReply of the same exchange.
type MessageInspector interface {
	AfterReceiveRequest(msg *soap.Message, svc *service.ServiceDescription) (replacement *soap.Message, state any, err error)
	BeforeSendReply(reply *soap.Message, svc *service.ServiceDescription, state any) (*soap.Message, error)
}

// AdaptInspector turns i into a message filter. A nil replacement keeps the
// current message.
func AdaptInspector(i MessageInspector) MessageFilter {
	return MessageFilterFunc(func(ctx context.Context, c *MessageExecutingContext, next MessageNext) error {
		replacement, state, err := i.AfterReceiveRequest(c.Message(), c.Service)
		if err != nil {
			return err
		}
		if replacement != nil {
			if err := c.SetMessage(replacement); err != nil {
				return err
			}
		}

		resp, err := next(ctx)
		if err != nil {
			return err
		}
		if resp == nil || resp.Message == nil {
			return nil
		}
		reply, err := i.BeforeSendReply(resp.Message, resp.Service, state)
		if err != nil {
			return err
		}
		if reply != nil {
			resp.Message = reply
		}
		return nil
	})
}

// OperationTuner prepares the service instance before an operation runs.
type OperationTuner interface {
	Tune(hc *HTTPContext, instance any, op *service.OperationDescription)
}

// OperationTunerFunc adapts a function to OperationTuner.
type OperationTunerFunc func(hc *HTTPContext, instance any, op *service.OperationDescription)

// Tune calls f.
func (f OperationTunerFunc) Tune(hc *HTTPContext, instance any, op *service.OperationDescription) {
	f(hc, instance, op)
}

// AdaptTuners turns tuners into a single operation filter that runs them in
// order before continuing.
func AdaptTuners(tuners ...OperationTuner) OperationFilter {
	return OperationFilterFunc(func(ctx context.Context, c *OperationExecutingContext, next OperationNext) error {
		for _, t := range tuners {
			t.Tune(c.HTTP, c.ServiceInstance, c.Operation)
		}
		_, err := next(ctx)
		return err
	})
}

// ErrUnknownMarker is returned when an operation carries a marker with no
// registered action handler.
var ErrUnknownMarker = errors.New("extensibility: no action handler registered for marker")

// ActionContext is passed to action handlers.
type ActionContext struct {
	Operation *service.OperationDescription
	Arguments []any
	HTTP      *HTTPContext
}

// ActionHandler runs before an operation tagged with its marker.
type ActionHandler func(ctx context.Context, c *ActionContext) error

// ActionFilterRegistry maps operation markers to typed handlers. Markers are
// resolved against the service at startup by Validate, not at call time.
type ActionFilterRegistry struct {
	mu       sync.RWMutex
	handlers map[string]ActionHandler
}

// NewActionFilterRegistry creates an empty registry.
func NewActionFilterRegistry() *ActionFilterRegistry {
	return &ActionFilterRegistry{handlers: make(map[string]ActionHandler)}
}

// Register binds handler to marker, replacing any previous handler.
func (r *ActionFilterRegistry) Register(marker string, handler ActionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[marker] = handler
}

// Markers returns the registered markers, sorted.
func (r *ActionFilterRegistry) Markers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for m := range r.handlers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every marker used by svc has a handler.
func (r *ActionFilterRegistry) Validate(svc *service.ServiceDescription) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, op := range svc.Operations {
		for _, m := range op.Markers {
			if _, ok := r.handlers[m]; !ok {
				return fmt.Errorf("%w: %q on %s", ErrUnknownMarker, m, op)
			}
		}
	}
	return nil
}

// OperationFilter returns a filter running the handlers of the operation's
// markers, in marker order, before continuing. Markers without a handler
// are skipped.
func (r *ActionFilterRegistry) OperationFilter() OperationFilter {
	return OperationFilterFunc(func(ctx context.Context, c *OperationExecutingContext, next OperationNext) error {
		for _, m := range c.Operation.Markers {
			r.mu.RLock()
			h, ok := r.handlers[m]
			r.mu.RUnlock()
			if !ok {
				continue
			}
			if err := h(ctx, &ActionContext{Operation: c.Operation, Arguments: c.Arguments, HTTP: c.HTTP}); err != nil {
				return err
			}
		}
		_, err := next(ctx)
		return err
	})
}
