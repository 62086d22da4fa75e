package endpoint

import (
	"net/http"
	"strconv"
	"time"

	"github.com/getmockd/soapd/pkg/metrics"
	"github.com/getmockd/soapd/pkg/requestlog"
	"github.com/getmockd/soapd/pkg/soap"
	"github.com/getmockd/soapd/pkg/util"
)

// record writes the exchange to the request log and the default metrics.
func (e *Endpoint) record(r *http.Request, x *exchange, out *reply) {
	duration := time.Since(x.start)
	faultCode := soap.FaultCode(out.message)
	recordMetrics(x.operationName(), out.status, faultCode, duration)

	if e.opts.requestLogger == nil {
		return
	}

	meta := &requestlog.SOAPMeta{
		Operation:      x.operationName(),
		MessageVersion: x.encoder.Version().String(),
		OneWay:         out.oneWay,
		IsFault:        out.message != nil && out.message.IsFault(),
		FaultCode:      faultCode,
	}
	if x.op != nil {
		meta.Contract = x.op.Contract.Name
	}
	if x.request != nil {
		meta.Action = x.request.Headers.Action
		meta.MessageID = x.request.Headers.MessageID
	}

	entry := &requestlog.Entry{
		ID:             x.id,
		Timestamp:      x.start,
		Method:         r.Method,
		Path:           r.URL.Path,
		QueryString:    r.URL.RawQuery,
		Headers:        r.Header.Clone(),
		Body:           util.TruncateBody(string(x.body), 0),
		BodySize:       len(x.body),
		RemoteAddr:     r.RemoteAddr,
		ResponseStatus: out.status,
		ResponseBody:   util.TruncateBody(string(out.payload), 0),
		DurationMs:     int(duration.Milliseconds()),
		SOAP:           meta,
	}
	if out.err != nil {
		entry.Error = out.err.Error()
	}
	e.opts.requestLogger.Log(entry)
}

func recordMetrics(operation string, status int, faultCode string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if metrics.RequestsTotal != nil {
		if vec, err := metrics.RequestsTotal.WithLabels(operation, strconv.Itoa(status)); err == nil {
			_ = vec.Inc()
		}
	}
	if metrics.RequestDuration != nil {
		if vec, err := metrics.RequestDuration.WithLabels(operation); err == nil {
			vec.Observe(duration.Seconds())
		}
	}
	if faultCode != "" && metrics.FaultsTotal != nil {
		if vec, err := metrics.FaultsTotal.WithLabels(faultCode); err == nil {
			_ = vec.Inc()
		}
	}
}

func countShortCircuit(stage string) {
	if metrics.ShortCircuitsTotal == nil {
		return
	}
	if vec, err := metrics.ShortCircuitsTotal.WithLabels(stage); err == nil {
		_ = vec.Inc()
	}
}
