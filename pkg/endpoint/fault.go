package endpoint

import (
	"context"
	"net/http"

	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/soap"
)

// fault is the only place an error escaping request processing is handled.
// It renders the error through the fault transformer using the negotiated
// message version.
func (e *Endpoint) fault(ctx context.Context, x *exchange, err error) reply {
	logging.FromContext(ctx, e.logger).Error("request failed",
		"operation", x.operationName(),
		"error", err)

	version, ns := x.encoder.Version(), x.encoder.Namespaces()
	msg := e.opts.faults.ProvideFault(err, version, ns)
	if msg == nil {
		msg = soap.DefaultFaultTransformer{}.ProvideFault(err, version, ns)
	}
	e.correlate(x, msg)

	payload, merr := x.encoder.Marshal(msg)
	if merr != nil {
		e.logger.Error("failed to encode fault", "request_id", x.id, "error", merr)
		return reply{status: http.StatusInternalServerError, err: err}
	}
	return reply{
		status:  soap.StatusCode(msg, http.StatusInternalServerError),
		message: msg,
		payload: payload,
		err:     err,
	}
}
