package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/soapd/pkg/config"
	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/metrics"
	"github.com/getmockd/soapd/pkg/requestlog"
)

func calcEnvelope(body string) string {
	return `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:c="` + CalculatorNamespace + `">` +
		`<soap:Body>` + body + `</soap:Body></soap:Envelope>`
}

func startServer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	metrics.Reset()
	t.Cleanup(metrics.Reset)

	srv, err := newServer(cfg, logging.Nop())
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})
	return "http://" + ln.Addr().String()
}

func call(t *testing.T, url, op, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(calcEnvelope(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+CalculatorNamespace+"/"+op+`"`)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestServer(t *testing.T) {
	cfg := config.Default()
	cfg.Endpoint.Path = "/calculator"
	cfg.Endpoint.Binders = []string{config.BinderTrimStrings, config.BinderRequiredArguments}
	base := startServer(t, cfg)

	resp, body := call(t, base+"/calculator", "Add", `<c:Add><c:a>2</c:a><c:b>3</c:b></c:Add>`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ">5<")
	assert.Contains(t, resp.Header.Get("Server-Timing"), `desc="Add"`)

	resp, body = call(t, base+"/calculator", "Divide", `<c:Divide><c:a>1</c:a><c:b>0</c:b></c:Divide>`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "division by zero")

	resp, body = call(t, base+"/calculator", "Multiply", `<c:Multiply><c:a>2</c:a></c:Multiply>`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "missing required parameter b")

	resp, _ = call(t, base+"/calculator", "Log", `<c:Log><c:message>hi</c:message></c:Log>`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(base + "/healthz")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(base + "/metrics")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(data), `soapd_requests_total{operation="Add",status="200"} 1`)
		assert.Contains(t, string(data), `soapd_faults_total{code="Client"} 2`)
	})

	t.Run("inspection", func(t *testing.T) {
		resp, err := http.Get(base + requestlog.DefaultPrefix + "?fault=true")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var list requestlog.ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Equal(t, 4, list.Total)
		require.Equal(t, 2, list.Count)
		assert.Equal(t, "Multiply", list.Requests[0].SOAP.Operation)
		assert.Equal(t, "Divide", list.Requests[1].SOAP.Operation)
	})
}

func TestServer_AuxiliaryRoutesDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Endpoint.Path = "/calculator"
	cfg.Server.Metrics = false
	cfg.Server.Inspection = false
	base := startServer(t, cfg)

	for _, path := range []string{"/metrics", requestlog.DefaultPrefix} {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, fmt.Sprintf("GET %s", path))
	}
}

func runServer(t *testing.T, srv *server) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()
	t.Cleanup(cancel)
	return "http://" + ln.Addr().String(), cancel, done
}

func TestServer_DrainsInFlightRequests(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Metrics = false
	cfg.Server.Inspection = false
	srv, err := newServer(cfg, logging.Nop())
	require.NoError(t, err)

	started := make(chan struct{})
	srv.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
			http.Error(w, "cancelled", http.StatusServiceUnavailable)
		case <-time.After(300 * time.Millisecond):
			_, _ = io.WriteString(w, "drained")
		}
	})
	base, cancel, done := runServer(t, srv)

	type result struct {
		status int
		body   string
		err    error
	}
	results := make(chan result, 1)
	go func() {
		resp, err := http.Get(base + "/slow")
		if err != nil {
			results <- result{err: err}
			return
		}
		defer func() { _ = resp.Body.Close() }()
		data, err := io.ReadAll(resp.Body)
		results <- result{status: resp.StatusCode, body: string(data), err: err}
	}()

	<-started
	cancel()

	res := <-results
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "drained", res.body)
	assert.NoError(t, <-done)
}

func TestServer_ShutdownEndsInspectionStreams(t *testing.T) {
	metrics.Reset()
	t.Cleanup(metrics.Reset)

	cfg := config.Default()
	cfg.Server.ShutdownTimeout = config.Duration(2 * time.Second)
	srv, err := newServer(cfg, logging.Nop())
	require.NoError(t, err)
	base, cancel, done := runServer(t, srv)

	resp, err := http.Get(base + requestlog.DefaultPrefix + "/stream")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	line := make([]byte, len("event: connected"))
	_, err = io.ReadFull(resp.Body, line)
	require.NoError(t, err)
	assert.Equal(t, "event: connected", string(line))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "shutdown must not wait for the stream")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
