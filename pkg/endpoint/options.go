package endpoint

import (
	"log/slog"

	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/requestlog"
	"github.com/getmockd/soapd/pkg/service"
	"github.com/getmockd/soapd/pkg/soap"
)

// DefaultMaxBodySize bounds the request body read by the endpoint.
const DefaultMaxBodySize = soap.DefaultMaxMessageSize

// Option configures an Endpoint.
type Option func(*options)

type options struct {
	path                string
	caseInsensitivePath bool
	encoders            []*soap.Encoder
	httpGetEnabled      bool
	httpsGetEnabled     bool
	wsdl                []byte
	maxBodySize         int64

	messageFilters   []extensibility.MessageFilter
	operationFilters []extensibility.OperationFilter
	binders          []extensibility.ValueBinderProvider

	faults    soap.FaultTransformer
	invoker   service.Invoker
	decoder   service.ArgumentDecoder
	writer    service.BodyWriter
	resolver  service.Resolver
	instances service.InstanceProvider

	logger        *slog.Logger
	requestLogger requestlog.Logger
}

func defaultOptions() options {
	return options{
		path:            "/",
		httpGetEnabled:  true,
		httpsGetEnabled: true,
		maxBodySize:     DefaultMaxBodySize,
		faults:          soap.DefaultFaultTransformer{},
		invoker:         service.DefaultInvoker{},
		decoder:         service.XMLArgumentDecoder{},
		writer:          service.XMLBodyWriter{},
		instances:       service.Singleton(nil),
	}
}

// WithPath sets the URL path the endpoint answers on. Default "/".
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithCaseInsensitivePath matches the request path ignoring case.
func WithCaseInsensitivePath(enabled bool) Option {
	return func(o *options) { o.caseInsensitivePath = enabled }
}

// WithEncoders sets the supported message encoders. The request content type
// selects one; a request no encoder accepts gets a 415 Client fault written
// with the first encoder. Default: SOAP 1.1.
func WithEncoders(encoders ...*soap.Encoder) Option {
	return func(o *options) { o.encoders = encoders }
}

// WithMetadata enables or disables WSDL retrieval over GET for plain HTTP and
// for HTTPS requests. Both are enabled by default.
func WithMetadata(httpGet, httpsGet bool) Option {
	return func(o *options) {
		o.httpGetEnabled = httpGet
		o.httpsGetEnabled = httpsGet
	}
}

// WithWSDL sets the document served to metadata requests.
func WithWSDL(wsdl []byte) Option {
	return func(o *options) { o.wsdl = wsdl }
}

// WithMaxBodySize limits the request body size in bytes.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithMessageFilters appends message filters in registration order.
func WithMessageFilters(filters ...extensibility.MessageFilter) Option {
	return func(o *options) { o.messageFilters = append(o.messageFilters, filters...) }
}

// WithOperationFilters appends operation filters in registration order.
func WithOperationFilters(filters ...extensibility.OperationFilter) Option {
	return func(o *options) { o.operationFilters = append(o.operationFilters, filters...) }
}

// WithValueBinders appends value binder providers in registration order.
func WithValueBinders(providers ...extensibility.ValueBinderProvider) Option {
	return func(o *options) { o.binders = append(o.binders, providers...) }
}

// WithFaultTransformer replaces the default fault transformer.
func WithFaultTransformer(t soap.FaultTransformer) Option {
	return func(o *options) {
		if t != nil {
			o.faults = t
		}
	}
}

// WithInvoker replaces the default invoker. It is always decorated with
// service.Unwrap.
func WithInvoker(inv service.Invoker) Option {
	return func(o *options) {
		if inv != nil {
			o.invoker = inv
		}
	}
}

// WithArgumentDecoder replaces the XML argument decoder.
func WithArgumentDecoder(d service.ArgumentDecoder) Option {
	return func(o *options) {
		if d != nil {
			o.decoder = d
		}
	}
}

// WithBodyWriter replaces the XML response body writer.
func WithBodyWriter(bw service.BodyWriter) Option {
	return func(o *options) {
		if bw != nil {
			o.writer = bw
		}
	}
}

// WithResolver replaces the operation resolver built from the service.
func WithResolver(r service.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithInstanceProvider sets how service instances are obtained.
func WithInstanceProvider(p service.InstanceProvider) Option {
	return func(o *options) {
		if p != nil {
			o.instances = p
		}
	}
}

// WithLogger sets the endpoint logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRequestLogger records every exchange to l.
func WithRequestLogger(l requestlog.Logger) Option {
	return func(o *options) { o.requestLogger = l }
}
