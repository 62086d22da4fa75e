package endpoint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/pipeline"
	"github.com/getmockd/soapd/pkg/service"
	"github.com/getmockd/soapd/pkg/soap"
)

// ErrNilService is returned by New when no service description is given.
var ErrNilService = errors.New("endpoint: service description is required")

// Endpoint serves one SOAP service over HTTP. It is safe for concurrent use.
type Endpoint struct {
	service *service.ServiceDescription
	opts    options
	logger  *slog.Logger
	invoker service.Invoker

	messages   *extensibility.MessagePipeline
	operations *extensibility.OperationPipeline
}

// New creates an endpoint for svc. Both filter pipelines are built once here.
func New(svc *service.ServiceDescription, opts ...Option) (*Endpoint, error) {
	if svc == nil {
		return nil, ErrNilService
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.encoders) == 0 {
		o.encoders = []*soap.Encoder{soap.NewEncoder(soap.Soap11)}
	}
	for i, enc := range o.encoders {
		if enc == nil {
			return nil, fmt.Errorf("endpoint: encoder %d is nil", i)
		}
	}
	if o.resolver == nil {
		o.resolver = service.NewResolver(svc)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	if !strings.HasPrefix(o.path, "/") {
		o.path = "/" + o.path
	}

	e := &Endpoint{
		service: svc,
		opts:    o,
		logger:  o.logger.With("service", svc.Name),
		invoker: service.Unwrap(o.invoker, o.logger),
	}
	e.messages = extensibility.NewMessagePipeline(o.messageFilters, e.processMessage,
		pipeline.WithLogger(e.logger),
		pipeline.WithShortCircuitObserver(func(any) { countShortCircuit("message") }))
	e.operations = extensibility.NewOperationPipeline(o.operationFilters, e.invoke,
		pipeline.WithLogger(e.logger),
		pipeline.WithShortCircuitObserver(func(any) { countShortCircuit("operation") }))
	return e, nil
}

// Service returns the service served by the endpoint.
func (e *Endpoint) Service() *service.ServiceDescription {
	return e.service
}

// Path returns the URL path the endpoint answers on.
func (e *Endpoint) Path() string {
	return e.opts.path
}

// ServeHTTP implements http.Handler. Requests for other paths get 404.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.serve(w, r, nil)
}

// Wrap returns a handler that serves the endpoint path and passes every other
// request to next.
func (e *Endpoint) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.serve(w, r, next)
	})
}

func (e *Endpoint) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if !e.matchPath(r.URL.Path) {
		if next != nil {
			next.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		e.process(w, r)
	case http.MethodGet:
		e.serveMetadata(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (e *Endpoint) matchPath(p string) bool {
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	want := e.opts.path
	if len(want) > 1 {
		want = strings.TrimSuffix(want, "/")
	}
	if e.opts.caseInsensitivePath {
		return strings.EqualFold(p, want)
	}
	return p == want
}

// serveMetadata serves the WSDL document when GET is enabled for the
// request's scheme.
func (e *Endpoint) serveMetadata(w http.ResponseWriter, r *http.Request) {
	enabled := e.opts.httpGetEnabled
	if r.TLS != nil {
		enabled = e.opts.httpsGetEnabled
	}
	if !enabled {
		http.Error(w, "Metadata retrieval is disabled", http.StatusForbidden)
		return
	}
	if e.opts.wsdl == nil {
		http.Error(w, "WSDL not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.opts.wsdl)
}

// exchange is the per-request state shared between the handler and the
// message core.
type exchange struct {
	id      string
	start   time.Time
	body    []byte
	encoder *soap.Encoder
	request *soap.Message
	op      *service.OperationDescription
}

func (x *exchange) operationName() string {
	if x.op == nil {
		return ""
	}
	return x.op.String()
}

type exchangeKey struct{}

func exchangeFrom(ctx context.Context) *exchange {
	if x, ok := ctx.Value(exchangeKey{}).(*exchange); ok {
		return x
	}
	return &exchange{}
}

// reply is what gets written to the client once the pipelines have unwound.
type reply struct {
	status  int
	message *soap.Message
	payload []byte
	oneWay  bool
	err     error
}

func (e *Endpoint) process(w http.ResponseWriter, r *http.Request) {
	x := &exchange{id: uuid.NewString(), start: time.Now(), encoder: e.opts.encoders[0]}
	logger := e.logger.With("request_id", x.id)
	ctx := logging.WithLogger(context.WithValue(r.Context(), exchangeKey{}, x), logger)
	hc := extensibility.NewHTTPContext(r)

	logger.Debug("request received",
		"path", r.URL.Path,
		"content_type", r.Header.Get("Content-Type"),
		"remote_addr", r.RemoteAddr)

	var out reply
	executed, err := e.guard(ctx, x, hc, w, r)
	if err == nil {
		out, err = e.render(x, executed)
	}
	if err != nil {
		out = e.fault(ctx, x, err)
	}

	e.write(w, x, hc, &out)
	e.record(r, x, &out)
}

// guard runs handle and turns a panic raised by a filter, binder or the
// pipeline itself into an error for the fault boundary. Error panic values
// such as extensibility.ErrResultReset are kept as they are.
func (e *Endpoint) guard(ctx context.Context, x *exchange, hc *extensibility.HTTPContext, w http.ResponseWriter, r *http.Request) (executed *extensibility.MessageExecutedContext, err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if p == http.ErrAbortHandler {
			panic(p)
		}
		perr, ok := p.(error)
		if !ok {
			perr = fmt.Errorf("panic: %v", p)
		}
		logging.FromContext(ctx, e.logger).Error("request processing panicked",
			"operation", x.operationName(),
			"error", perr,
			"stack", string(debug.Stack()))
		executed, err = nil, perr
	}()
	return e.handle(ctx, x, hc, w, r)
}

// handle negotiates the encoder, reads the message, resolves the operation
// and runs the message pipeline.
func (e *Endpoint) handle(ctx context.Context, x *exchange, hc *extensibility.HTTPContext, w http.ResponseWriter, r *http.Request) (*extensibility.MessageExecutedContext, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, e.opts.maxBodySize))
	x.body = body
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &soap.Fault{Code: soap.CodeClient, Message: soap.ErrMessageTooLarge.Error(), StatusCode: http.StatusRequestEntityTooLarge}
		}
		return nil, soap.ClientFault("failed to read request body")
	}

	contentType := r.Header.Get("Content-Type")
	enc := e.negotiate(contentType)
	if enc == nil {
		return nil, &soap.Fault{
			Code:       soap.CodeClient,
			Message:    fmt.Sprintf("content type %q is not supported", contentType),
			StatusCode: http.StatusUnsupportedMediaType,
		}
	}
	x.encoder = enc

	msg, err := enc.ReadMessage(bytes.NewReader(body), r.Header)
	if err != nil {
		return nil, err
	}
	x.request = msg

	if x.op, err = e.resolve(msg); err != nil {
		return nil, err
	}

	mc, err := extensibility.NewMessageExecutingContext(msg, e.service, hc)
	if err != nil {
		return nil, err
	}
	return e.messages.Execute(ctx, mc)
}

func (e *Endpoint) negotiate(contentType string) *soap.Encoder {
	for _, enc := range e.opts.encoders {
		if enc.IsContentTypeSupported(contentType) {
			return enc
		}
	}
	return nil
}

// resolve looks up the operation by action, falling back to the body element
// name when the request carries no action.
func (e *Endpoint) resolve(msg *soap.Message) (*service.OperationDescription, error) {
	key := msg.Headers.Action
	if key == "" {
		key = msg.BodyName()
	}
	return e.opts.resolver.Lookup(key)
}

// render turns the outcome of the message pipeline into a reply.
func (e *Endpoint) render(x *exchange, executed *extensibility.MessageExecutedContext) (reply, error) {
	switch {
	case executed == nil || (executed.Message == nil && !executed.OneWay):
		return reply{status: http.StatusOK}, nil
	case executed.OneWay:
		return reply{status: http.StatusAccepted, oneWay: true}, nil
	}

	msg := executed.Message
	e.correlate(x, msg)
	payload, err := x.encoder.Marshal(msg)
	if err != nil {
		return reply{}, err
	}
	def := http.StatusOK
	if msg.IsFault() {
		def = http.StatusInternalServerError
	}
	return reply{status: soap.StatusCode(msg, def), message: msg, payload: payload}, nil
}

// correlate copies addressing correlation from the request onto msg when the
// negotiated version uses addressing.
func (e *Endpoint) correlate(x *exchange, msg *soap.Message) {
	if x.request == nil || !x.encoder.Version().UsesAddressing() {
		return
	}
	h := &msg.Headers
	if h.MessageID == "" {
		h.MessageID = "urn:uuid:" + uuid.NewString()
	}
	if h.RelatesTo == "" {
		h.RelatesTo = x.request.Headers.MessageID
	}
	if h.To == "" {
		h.To = x.request.Headers.ReplyTo
	}
}

// write sends the reply. Filter response headers are applied first and the
// message's HTTP response property last.
func (e *Endpoint) write(w http.ResponseWriter, x *exchange, hc *extensibility.HTTPContext, out *reply) {
	header := w.Header()
	for k, v := range hc.ResponseHeader {
		header[k] = append([]string(nil), v...)
	}
	if out.message != nil {
		header.Set("Content-Type", x.encoder.ContentType())
		if action := out.message.Headers.Action; action != "" && x.encoder.Version().Envelope == soap.SOAP11 {
			header.Set("SOAPAction", `"`+action+`"`)
		}
		if p := out.message.HTTPResponse(); p != nil {
			for k, v := range p.Header {
				header[k] = append([]string(nil), v...)
			}
		}
	}

	w.WriteHeader(out.status)
	if len(out.payload) > 0 {
		if _, err := w.Write(out.payload); err != nil {
			e.logger.Error("failed to write response", "request_id", x.id, "error", err)
		}
	}
}
