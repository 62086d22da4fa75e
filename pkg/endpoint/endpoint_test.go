package endpoint

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/metrics"
	"github.com/getmockd/soapd/pkg/requestlog"
	"github.com/getmockd/soapd/pkg/service"
	"github.com/getmockd/soapd/pkg/soap"
)

func TestNew_RequiresService(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilService)
}

func TestEndpoint_Add(t *testing.T) {
	ep, c := newTestEndpoint(t)

	rec := post11(ep, "Add", addBody(2, 3))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, soap.SOAP11ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `"`+testNS+`/AddResponse"`, rec.Header().Get("SOAPAction"))

	msg := readResponse(t, soap.Soap11, rec)
	assert.Equal(t, "AddResponse", msg.BodyName())
	assert.Equal(t, "5", msg.ExtractXPath("AddResult"))
	assert.EqualValues(t, 1, c.calls.Load())
}

func TestEndpoint_ResolvesByBodyNameWithoutAction(t *testing.T) {
	ep, _ := newTestEndpoint(t)

	req := httptest.NewRequest(http.MethodPost, "/calc", strings.NewReader(envelope11(addBody(1, 1))))
	req.Header.Set("Content-Type", "text/xml")
	rec := httptest.NewRecorder()
	ep.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", readResponse(t, soap.Soap11, rec).ExtractXPath("AddResult"))
}

func TestEndpoint_FilterOrder(t *testing.T) {
	var trace []string
	msgFilter := func(name string) extensibility.MessageFilter {
		return extensibility.MessageFilterFunc(func(ctx context.Context, _ *extensibility.MessageExecutingContext, next extensibility.MessageNext) error {
			trace = append(trace, name+" in")
			_, err := next(ctx)
			trace = append(trace, name+" out")
			return err
		})
	}
	opFilter := func(name string) extensibility.OperationFilter {
		return extensibility.OperationFilterFunc(func(ctx context.Context, _ *extensibility.OperationExecutingContext, next extensibility.OperationNext) error {
			trace = append(trace, name+" in")
			_, err := next(ctx)
			trace = append(trace, name+" out")
			return err
		})
	}
	invoker := service.InvokerFunc(func(ctx context.Context, op *service.OperationDescription, inst any, args []any) (any, error) {
		trace = append(trace, "invoke")
		return service.DefaultInvoker{}.Invoke(ctx, op, inst, args)
	})

	ep, _ := newTestEndpoint(t,
		WithMessageFilters(msgFilter("A"), msgFilter("B")),
		WithOperationFilters(opFilter("C"), opFilter("D"), opFilter("E")),
		WithInvoker(invoker))

	rec := post11(ep, "Add", addBody(1, 2))
	require.Equal(t, http.StatusOK, rec.Code)

	want := []string{"A in", "B in", "C in", "D in", "E in", "invoke", "E out", "D out", "C out", "B out", "A out"}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("filter order mismatch (-want +got):\n%s", diff)
	}
}

func TestEndpoint_OperationResultShortCircuit(t *testing.T) {
	var seen any
	var cEntered bool
	a := extensibility.OperationFilterFunc(func(ctx context.Context, _ *extensibility.OperationExecutingContext, next extensibility.OperationNext) error {
		resp, err := next(ctx)
		if err != nil {
			return err
		}
		seen = resp.Result
		return nil
	})
	b := extensibility.OperationFilterFunc(func(_ context.Context, c *extensibility.OperationExecutingContext, _ extensibility.OperationNext) error {
		c.Result.Set(42)
		return nil
	})
	cf := extensibility.OperationFilterFunc(func(ctx context.Context, _ *extensibility.OperationExecutingContext, next extensibility.OperationNext) error {
		cEntered = true
		_, err := next(ctx)
		return err
	})

	ep, calc := newTestEndpoint(t, WithOperationFilters(a, b, cf))
	rec := post11(ep, "Add", addBody(1, 2))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", readResponse(t, soap.Soap11, rec).ExtractXPath("AddResult"))
	assert.Equal(t, 42, seen)
	assert.False(t, cEntered, "filters after the short circuit must not run")
	assert.Zero(t, calc.calls.Load())
}

func TestEndpoint_MessageResultShortCircuit(t *testing.T) {
	canned := extensibility.MessageFilterFunc(func(_ context.Context, c *extensibility.MessageExecutingContext, _ extensibility.MessageNext) error {
		body := etree.NewElement("Cached")
		body.SetText("from cache")
		c.Result.Set(soap.NewMessage(c.Message().Version, "urn:cached", body))
		return nil
	})

	ep, calc := newTestEndpoint(t, WithMessageFilters(canned))
	rec := post11(ep, "Add", addBody(1, 2))

	require.Equal(t, http.StatusOK, rec.Code)
	msg := readResponse(t, soap.Soap11, rec)
	assert.Equal(t, "Cached", msg.BodyName())
	assert.Zero(t, calc.calls.Load())
}

func TestEndpoint_ErrorShortCircuit(t *testing.T) {
	var trace []string
	outer := extensibility.MessageFilterFunc(func(ctx context.Context, _ *extensibility.MessageExecutingContext, next extensibility.MessageNext) error {
		trace = append(trace, "outer in")
		if _, err := next(ctx); err != nil {
			return err
		}
		trace = append(trace, "outer out")
		return nil
	})
	denied := errors.New("access denied")
	deny := extensibility.OperationFilterFunc(func(context.Context, *extensibility.OperationExecutingContext, extensibility.OperationNext) error {
		trace = append(trace, "deny")
		return denied
	})
	var faultErr error
	transformer := soap.FaultTransformerFunc(func(err error, v soap.MessageVersion, ns *soap.Namespaces) *soap.Message {
		faultErr = err
		return soap.DefaultFaultTransformer{IncludeErrorDetail: true}.ProvideFault(err, v, ns)
	})

	ep, calc := newTestEndpoint(t,
		WithMessageFilters(outer),
		WithOperationFilters(deny),
		WithFaultTransformer(transformer))
	rec := post11(ep, "Add", addBody(1, 2))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	msg := readResponse(t, soap.Soap11, rec)
	assert.True(t, msg.IsFault())
	assert.Equal(t, "soap:Server", msg.ExtractXPath("faultcode"))
	assert.Equal(t, "access denied", msg.ExtractXPath("faultstring"))
	assert.Same(t, denied, faultErr, "the fault boundary receives the original error")
	assert.Equal(t, []string{"outer in", "deny"}, trace)
	assert.Zero(t, calc.calls.Load())
}

func TestEndpoint_OneWay(t *testing.T) {
	t.Run("acknowledged with 202", func(t *testing.T) {
		ep, calc := newTestEndpoint(t)
		rec := post11(ep, "Notify", `<c:Notify><c:message>hi</c:message></c:Notify>`)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.EqualValues(t, 1, calc.notified.Load())
	})

	t.Run("overrides a filter result", func(t *testing.T) {
		var sawMessage bool
		observe := extensibility.MessageFilterFunc(func(ctx context.Context, _ *extensibility.MessageExecutingContext, next extensibility.MessageNext) error {
			resp, err := next(ctx)
			if err != nil {
				return err
			}
			sawMessage = resp.Message != nil
			assert.True(t, resp.OneWay)
			return nil
		})
		setResult := extensibility.OperationFilterFunc(func(_ context.Context, c *extensibility.OperationExecutingContext, _ extensibility.OperationNext) error {
			c.Result.Set("should not be sent")
			return nil
		})

		ep, _ := newTestEndpoint(t, WithMessageFilters(observe), WithOperationFilters(setResult))
		rec := post11(ep, "Notify", `<c:Notify><c:message>hi</c:message></c:Notify>`)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.False(t, sawMessage)
	})
}

func TestEndpoint_SilentShortCircuit(t *testing.T) {
	metrics.Reset()
	metrics.Init()
	t.Cleanup(metrics.Reset)

	recorder := logging.NewRecorder(logging.LevelDebug)
	swallow := extensibility.MessageFilterFunc(func(context.Context, *extensibility.MessageExecutingContext, extensibility.MessageNext) error {
		return nil
	})

	ep, calc := newTestEndpoint(t, WithMessageFilters(swallow), WithLogger(recorder.Logger()))
	rec := post11(ep, "Add", addBody(1, 2))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Zero(t, calc.calls.Load())

	entry, ok := recorder.Find("filter short-circuited the pipeline without a result; no response will be returned")
	require.True(t, ok)
	assert.Equal(t, logging.LevelDebug, entry.Level)

	samples := metrics.ShortCircuitsTotal.Collect()
	require.Len(t, samples, 1)
	assert.Equal(t, "message", samples[0].Labels["filter"])
	assert.Equal(t, float64(1), samples[0].Value)
}

func TestEndpoint_ValueBinderFirstMatchWins(t *testing.T) {
	secondQueried := 0
	double := extensibility.ValueBinderProviderFunc(func(c *extensibility.ValueBinderProviderContext) extensibility.ValueBinder {
		if c.ValueType == nil || c.ValueType.Kind() != reflect.Int {
			return nil
		}
		return extensibility.ValueBinderFunc(func(_ context.Context, bc *extensibility.ValueBindingContext) error {
			bc.Value = bc.Value.(int) * 2
			return nil
		})
	})
	negate := extensibility.ValueBinderProviderFunc(func(*extensibility.ValueBinderProviderContext) extensibility.ValueBinder {
		secondQueried++
		return extensibility.ValueBinderFunc(func(_ context.Context, bc *extensibility.ValueBindingContext) error {
			bc.Value = -1
			return nil
		})
	})

	ep, _ := newTestEndpoint(t, WithValueBinders(double, negate))
	rec := post11(ep, "Add", addBody(2, 3))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", readResponse(t, soap.Soap11, rec).ExtractXPath("AddResult"))
	assert.Zero(t, secondQueried)
}

func TestEndpoint_BinderErrorReachesFaultBoundary(t *testing.T) {
	reject := extensibility.ValueBinderProviderFunc(func(*extensibility.ValueBinderProviderContext) extensibility.ValueBinder {
		return extensibility.ValueBinderFunc(func(context.Context, *extensibility.ValueBindingContext) error {
			return soap.ClientFault("rejected by binder")
		})
	})

	ep, calc := newTestEndpoint(t, WithValueBinders(reject))
	rec := post11(ep, "Add", addBody(2, 3))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "rejected by binder", readResponse(t, soap.Soap11, rec).ExtractXPath("faultstring"))
	assert.Zero(t, calc.calls.Load())
}

func TestEndpoint_ResultResetReachesFaultBoundary(t *testing.T) {
	reset := extensibility.MessageFilterFunc(func(ctx context.Context, c *extensibility.MessageExecutingContext, next extensibility.MessageNext) error {
		if _, err := next(ctx); err != nil {
			return err
		}
		c.Result.Set(nil)
		return nil
	})
	canned := extensibility.MessageFilterFunc(func(_ context.Context, c *extensibility.MessageExecutingContext, _ extensibility.MessageNext) error {
		c.Result.Set(soap.NewMessage(c.Message().Version, "urn:cached", etree.NewElement("Cached")))
		return nil
	})
	var faultErr error
	transformer := soap.FaultTransformerFunc(func(err error, v soap.MessageVersion, ns *soap.Namespaces) *soap.Message {
		faultErr = err
		return soap.DefaultFaultTransformer{IncludeErrorDetail: true}.ProvideFault(err, v, ns)
	})

	ep, calc := newTestEndpoint(t, WithMessageFilters(reset, canned), WithFaultTransformer(transformer))
	rec := post11(ep, "Add", addBody(1, 2))

	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
	msg := readResponse(t, soap.Soap11, rec)
	assert.True(t, msg.IsFault())
	assert.Equal(t, extensibility.ErrResultReset.Error(), msg.ExtractXPath("faultstring"))
	assert.ErrorIs(t, faultErr, extensibility.ErrResultReset)
	assert.Zero(t, calc.calls.Load())
}

func TestEndpoint_BinderPanicReachesFaultBoundary(t *testing.T) {
	explode := extensibility.ValueBinderProviderFunc(func(*extensibility.ValueBinderProviderContext) extensibility.ValueBinder {
		return extensibility.ValueBinderFunc(func(context.Context, *extensibility.ValueBindingContext) error {
			panic("binder exploded")
		})
	})

	ep, calc := newTestEndpoint(t, WithValueBinders(explode))
	rec := post11(ep, "Add", addBody(2, 3))

	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
	msg := readResponse(t, soap.Soap11, rec)
	assert.True(t, msg.IsFault())
	assert.Contains(t, msg.ExtractXPath("faultstring"), "binder exploded")
	assert.Zero(t, calc.calls.Load())
}

func TestEndpoint_PanicOverNetworkGetsFault(t *testing.T) {
	explode := extensibility.OperationFilterFunc(func(context.Context, *extensibility.OperationExecutingContext, extensibility.OperationNext) error {
		panic(errors.New("filter exploded"))
	})
	ep, _ := newTestEndpoint(t, WithOperationFilters(explode))
	srv := httptest.NewServer(ep)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/calc", strings.NewReader(envelope11(addBody(1, 1))))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+testNS+`/Add"`)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err, "the connection must not be dropped")
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "filter exploded")
}

func TestEndpoint_FilterRedirectsMessage(t *testing.T) {
	redirect := extensibility.MessageFilterFunc(func(ctx context.Context, c *extensibility.MessageExecutingContext, next extensibility.MessageNext) error {
		body := etree.NewElement("Echo")
		body.CreateAttr("xmlns", testNS)
		body.CreateElement("text").SetText("redirected")
		if err := c.SetMessage(soap.NewMessage(c.Message().Version, testNS+"/Echo", body)); err != nil {
			return err
		}
		assert.ErrorIs(t, c.SetMessage(nil), extensibility.ErrNilMessage)
		_, err := next(ctx)
		return err
	})

	store := requestlog.NewMemoryStore(10)
	ep, calc := newTestEndpoint(t, WithMessageFilters(redirect), WithRequestLogger(store))
	rec := post11(ep, "Add", addBody(2, 3))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "redirected", readResponse(t, soap.Soap11, rec).ExtractXPath("EchoResult"))
	assert.Zero(t, calc.calls.Load())

	entries := store.List(nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "Calculator.Echo", entries[0].SOAP.Operation)
}

func TestEndpoint_AddressingCorrelation(t *testing.T) {
	ep, _ := newTestEndpoint(t, WithEncoders(soap.NewEncoder(soap.Soap12WSA10), soap.NewEncoder(soap.Soap11)))

	send := func(op, body string) *httptest.ResponseRecorder {
		env := envelope12(testNS+"/"+op, "urn:uuid:req-1", "http://client/reply", body)
		req := httptest.NewRequest(http.MethodPost, "/calc", strings.NewReader(env))
		req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
		rec := httptest.NewRecorder()
		ep.ServeHTTP(rec, req)
		return rec
	}

	t.Run("reply", func(t *testing.T) {
		rec := send("Add", addBody(4, 5))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, soap.SOAP12ContentType, rec.Header().Get("Content-Type"))

		msg := readResponse(t, soap.Soap12WSA10, rec)
		assert.Equal(t, testNS+"/AddResponse", msg.Headers.Action)
		assert.Equal(t, "urn:uuid:req-1", msg.Headers.RelatesTo)
		assert.Equal(t, "http://client/reply", msg.Headers.To)
		assert.True(t, strings.HasPrefix(msg.Headers.MessageID, "urn:uuid:"))
		assert.Equal(t, "9", msg.ExtractXPath("AddResult"))
	})

	t.Run("fault", func(t *testing.T) {
		rec := send("Divide", `<c:Divide><c:a>1</c:a><c:b>0</c:b></c:Divide>`)
		require.Equal(t, http.StatusBadRequest, rec.Code, "fault status override")

		msg := readResponse(t, soap.Soap12WSA10, rec)
		assert.True(t, msg.IsFault())
		assert.Equal(t, "soap:Sender", msg.ExtractXPath("Code/Value"))
		assert.Equal(t, "urn:uuid:req-1", msg.Headers.RelatesTo)
		assert.Equal(t, "http://client/reply", msg.Headers.To)
	})

	t.Run("second encoder", func(t *testing.T) {
		rec := post11(ep, "Add", addBody(1, 1))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, soap.SOAP11ContentType, rec.Header().Get("Content-Type"))
	})
}

func TestEndpoint_Faults(t *testing.T) {
	recorder := logging.NewRecorder(logging.LevelInfo)
	ep, _ := newTestEndpoint(t, WithLogger(recorder.Logger()))

	tests := []struct {
		name       string
		op         string
		body       string
		wantStatus int
		wantCode   string
		wantString string
	}{
		{"unknown action", "Missing", `<c:Missing/>`, http.StatusInternalServerError, "soap:Server", "no operation found"},
		{"panic", "Crash", `<c:Crash/>`, http.StatusInternalServerError, "soap:Server", "boom"},
		{"typed fault", "Divide", `<c:Divide><c:a>1</c:a><c:b>0</c:b></c:Divide>`, http.StatusBadRequest, "soap:Client", "division by zero"},
		{"invalid argument", "Add", `<c:Add><c:a>one</c:a></c:Add>`, http.StatusInternalServerError, "soap:Client", "invalid value for parameter a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post11(ep, tt.op, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			msg := readResponse(t, soap.Soap11, rec)
			assert.True(t, msg.IsFault())
			assert.Equal(t, tt.wantCode, msg.ExtractXPath("faultcode"))
			assert.Contains(t, msg.ExtractXPath("faultstring"), tt.wantString)
		})
	}

	_, ok := recorder.Find("operation panicked")
	assert.True(t, ok, "panics are logged before the cause reaches the fault boundary")
	failed, ok := recorder.Find("request failed")
	require.True(t, ok)
	assert.Equal(t, logging.LevelError, failed.Level)
	assert.NotEmpty(t, failed.Attrs["request_id"])
}

func TestEndpoint_HiddenErrorDetail(t *testing.T) {
	ep, _ := newTestEndpoint(t, WithFaultTransformer(soap.DefaultFaultTransformer{}))
	rec := post11(ep, "Crash", `<c:Crash/>`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestEndpoint_RequestErrors(t *testing.T) {
	ep, _ := newTestEndpoint(t, WithMaxBodySize(256))

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"unsupported content type", "application/json", `{}`, http.StatusUnsupportedMediaType},
		{"malformed envelope", "text/xml", `<soap:Envelope`, http.StatusInternalServerError},
		{"version mismatch", "text/xml", envelope12("urn:a", "urn:uuid:1", "", ""), http.StatusInternalServerError},
		{"body too large", "text/xml", envelope11(strings.Repeat("<c:x/>", 100)), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/calc", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			ep.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, soap.SOAP11ContentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "faultcode")
		})
	}
}

func TestEndpoint_NoMatchingEncoder(t *testing.T) {
	ep, calc := newTestEndpoint(t, WithEncoders(soap.NewEncoder(soap.Soap12), soap.NewEncoder(soap.Soap11)))

	req := httptest.NewRequest(http.MethodPost, "/calc", strings.NewReader(envelope11(addBody(1, 2))))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	ep.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, soap.Soap12.ContentType(), rec.Header().Get("Content-Type"), "fault uses the first encoder")
	assert.Contains(t, rec.Body.String(), "text/plain")
	assert.Zero(t, calc.calls.Load())
}

func TestEndpoint_ResponseHeaders(t *testing.T) {
	tag := extensibility.OperationFilterFunc(func(ctx context.Context, c *extensibility.OperationExecutingContext, next extensibility.OperationNext) error {
		c.HTTP.ResponseHeader.Set("X-Operation", c.Operation.Name)
		_, err := next(ctx)
		return err
	})
	override := extensibility.MessageFilterFunc(func(ctx context.Context, _ *extensibility.MessageExecutingContext, next extensibility.MessageNext) error {
		resp, err := next(ctx)
		if err != nil || resp == nil || resp.Message == nil {
			return err
		}
		resp.Message.SetHTTPResponse(&soap.HTTPResponseProperty{
			StatusCode: http.StatusCreated,
			Header:     http.Header{"X-Override": []string{"yes"}},
		})
		return nil
	})

	ep, _ := newTestEndpoint(t, WithMessageFilters(override), WithOperationFilters(tag))
	rec := post11(ep, "Add", addBody(1, 1))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Add", rec.Header().Get("X-Operation"))
	assert.Equal(t, "yes", rec.Header().Get("X-Override"))
}

func TestEndpoint_Metadata(t *testing.T) {
	wsdl := []byte(`<definitions name="Calculator"/>`)

	get := func(h http.Handler, target string, https bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if https {
			req.TLS = &tls.ConnectionState{}
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	ep, _ := newTestEndpoint(t, WithWSDL(wsdl), WithMetadata(false, true))
	assert.Equal(t, http.StatusForbidden, get(ep, "/calc?wsdl", false).Code)

	rec := get(ep, "/calc?wsdl", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(wsdl), rec.Body.String())

	noWSDL, _ := newTestEndpoint(t)
	assert.Equal(t, http.StatusNotFound, get(noWSDL, "/calc?wsdl", false).Code)
}

func TestEndpoint_Routing(t *testing.T) {
	ep, _ := newTestEndpoint(t, WithCaseInsensitivePath(true))

	req := httptest.NewRequest(http.MethodPut, "/calc", nil)
	rec := httptest.NewRecorder()
	ep.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))

	rec = httptest.NewRecorder()
	ep.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec = httptest.NewRecorder()
	ep.Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/CALC/", strings.NewReader(envelope11(addBody(1, 1))))
	req.Header.Set("Content-Type", "text/xml")
	rec = httptest.NewRecorder()
	ep.Wrap(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEndpoint_RequestLog(t *testing.T) {
	store := requestlog.NewMemoryStore(10)
	ep, _ := newTestEndpoint(t, WithRequestLogger(store))

	post11(ep, "Add", addBody(1, 2))
	post11(ep, "Divide", `<c:Divide><c:a>1</c:a><c:b>0</c:b></c:Divide>`)

	faultOnly := true
	faults := store.List(&requestlog.Filter{Fault: &faultOnly})
	require.Len(t, faults, 1)
	assert.Equal(t, "Calculator.Divide", faults[0].SOAP.Operation)
	assert.Equal(t, "Client", faults[0].SOAP.FaultCode)
	assert.Equal(t, http.StatusBadRequest, faults[0].ResponseStatus)
	assert.Contains(t, faults[0].Error, "division by zero")

	ok := store.List(&requestlog.Filter{Operation: "Calculator.Add"})
	require.Len(t, ok, 1)
	assert.Equal(t, testNS+"/Add", ok[0].SOAP.Action)
	assert.Equal(t, "soap11", ok[0].SOAP.MessageVersion)
	assert.Contains(t, ok[0].ResponseBody, "AddResult")
	assert.NotEmpty(t, ok[0].ID)
}

func TestEndpoint_ConcurrentRequests(t *testing.T) {
	ep, calc := newTestEndpoint(t)
	srv := httptest.NewServer(ep)
	defer srv.Close()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	defer client.CloseIdleConnections()

	const n = 32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/calc", strings.NewReader(envelope11(addBody(i, i))))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "text/xml")
			req.Header.Set("SOAPAction", testNS+"/Add")

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if want := fmt.Sprintf("<AddResult>%d</AddResult>", 2*i); !strings.Contains(string(body), want) {
				return fmt.Errorf("request %d: expected %s in %s", i, want, body)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, n, calc.calls.Load())
}
