package extensibility

import (
	"errors"
	"net/http"

	"github.com/getmockd/soapd/pkg/service"
	"github.com/getmockd/soapd/pkg/soap"
)

// ErrNilMessage is returned when a filter replaces the request message with nil.
var ErrNilMessage = errors.New("extensibility: message must not be nil")

// HTTPContext exposes the transport exchange to extensions.
type HTTPContext struct {
	Request *http.Request

	// ResponseHeader entries are copied onto the HTTP response.
	ResponseHeader http.Header
}

// NewHTTPContext wraps r with an empty response header set.
func NewHTTPContext(r *http.Request) *HTTPContext {
	return &HTTPContext{Request: r, ResponseHeader: make(http.Header)}
}

// MessageExecutingContext is the mutable state of a request passing through
// the message filters. It is created once per request.
type MessageExecutingContext struct {
	message *soap.Message

	// Service is the service that will process the message.
	Service *service.ServiceDescription

	// HTTP is the transport exchange carrying the message.
	HTTP *HTTPContext

	// Result short-circuits the message filters when set. Filters registered
	// after the one setting it are not entered; the message becomes the
	// response seen by the filters before it.
	Result Result[*soap.Message]
}

// NewMessageExecutingContext creates the context for msg.
func NewMessageExecutingContext(msg *soap.Message, svc *service.ServiceDescription, hc *HTTPContext) (*MessageExecutingContext, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	return &MessageExecutingContext{message: msg, Service: svc, HTTP: hc}, nil
}

// Message returns the message under processing. It is never nil.
func (c *MessageExecutingContext) Message() *soap.Message {
	return c.message
}

// SetMessage replaces the message. Filters further down, and operation
// resolution, see the replacement.
func (c *MessageExecutingContext) SetMessage(msg *soap.Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	c.message = msg
	return nil
}

// MessageExecutedContext is the outcome of the message filters as seen on the
// way out. Filters may replace Message before returning.
type MessageExecutedContext struct {
	// Message is the response. Nil means no response is sent, as for one-way
	// operations.
	Message *soap.Message

	// Service is the service that processed the message.
	Service *service.ServiceDescription

	// OneWay is set when the operation is one-way; the exchange is
	// acknowledged without a body regardless of Message.
	OneWay bool
}

// OperationExecutingContext is the mutable state of one operation invocation
// passing through the operation filters. It never exposes the raw message.
type OperationExecutingContext struct {
	HTTP            *HTTPContext
	Arguments       []any
	ServiceInstance any
	Operation       *service.OperationDescription

	// Result short-circuits the operation filters when set and is used as the
	// operation's return value.
	Result Result[any]
}

// OperationExecutedContext is the outcome of an operation invocation.
type OperationExecutedContext struct {
	HTTP            *HTTPContext
	Arguments       []any
	ServiceInstance any
	Operation       *service.OperationDescription
	Result          any
}

func (c *OperationExecutingContext) executed(result any) *OperationExecutedContext {
	return &OperationExecutedContext{
		HTTP:            c.HTTP,
		Arguments:       c.Arguments,
		ServiceInstance: c.ServiceInstance,
		Operation:       c.Operation,
		Result:          result,
	}
}
