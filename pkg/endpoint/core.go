package endpoint

import (
	"context"

	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/soap"
)

// processMessage is the terminal action of the message pipeline. It resolves
// the operation for the message as left by the filters, binds its arguments
// and runs the operation pipeline.
func (e *Endpoint) processMessage(ctx context.Context, c *extensibility.MessageExecutingContext) (*extensibility.MessageExecutedContext, error) {
	x := exchangeFrom(ctx)
	msg := c.Message()

	op, err := e.resolve(msg)
	if err != nil {
		return nil, err
	}
	x.op = op

	instance, err := e.opts.instances.Instance(c.HTTP.Request)
	if err != nil {
		return nil, err
	}
	args, err := e.opts.decoder.Decode(msg, op, c.HTTP.Request)
	if err != nil {
		return nil, err
	}
	if err := extensibility.BindValues(ctx, e.opts.binders, op, args, c.HTTP); err != nil {
		return nil, err
	}

	logging.FromContext(ctx, e.logger).Info("operation dispatched",
		"contract", op.Contract.Name,
		"operation", op.Name)

	executed, err := e.operations.Execute(ctx, &extensibility.OperationExecutingContext{
		HTTP:            c.HTTP,
		Arguments:       args,
		ServiceInstance: instance,
		Operation:       op,
	})
	if err != nil {
		return nil, err
	}

	// One-way operations never answer with a message, whatever the filters set.
	if op.IsOneWay {
		return &extensibility.MessageExecutedContext{Service: c.Service, OneWay: true}, nil
	}
	if executed == nil {
		return &extensibility.MessageExecutedContext{Service: c.Service}, nil
	}

	body, err := e.opts.writer.WriteBody(op, executed.Result, executed.Arguments)
	if err != nil {
		return nil, err
	}
	response := soap.NewMessage(msg.Version, op.ReplyAction, body)
	e.correlate(x, response)
	return &extensibility.MessageExecutedContext{Message: response, Service: c.Service}, nil
}

// invoke is the terminal action of the operation pipeline.
func (e *Endpoint) invoke(ctx context.Context, c *extensibility.OperationExecutingContext) (any, error) {
	return e.invoker.Invoke(ctx, c.Operation, c.ServiceInstance, c.Arguments)
}
