package requestlog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/getmockd/soapd/pkg/httputil"
)

// DefaultPrefix is where soapd mounts the inspection API.
const DefaultPrefix = "/__soapd/requests"

// ListResponse is the body of a list request.
type ListResponse struct {
	Requests []*Entry `json:"requests"`
	Count    int      `json:"count"`
	Total    int      `json:"total"`
}

// Handler exposes a Store as a JSON API:
//
//	GET    {prefix}         list entries, newest first
//	GET    {prefix}/stream  server-sent events for new entries
//	GET    {prefix}/{id}    a single entry
//	DELETE {prefix}         clear the store
//
// List accepts the query parameters method, path, status, operation, fault,
// hasError, limit and offset.
type Handler struct {
	store Store
	mux   *http.ServeMux

	// done is closed by Shutdown to end open streams.
	done     chan struct{}
	shutdown sync.Once
}

// NewHandler returns a Handler serving store under prefix.
func NewHandler(prefix string, store Store) *Handler {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	h := &Handler{store: store, mux: http.NewServeMux(), done: make(chan struct{})}
	h.mux.HandleFunc("GET "+prefix, h.handleList)
	h.mux.HandleFunc("GET "+prefix+"/stream", h.handleStream)
	h.mux.HandleFunc("GET "+prefix+"/{id}", h.handleGet)
	h.mux.HandleFunc("DELETE "+prefix, h.handleClear)
	return h
}

// Shutdown ends every open stream. Register it with
// http.Server.RegisterOnShutdown so streams do not hold up a graceful stop.
func (h *Handler) Shutdown() {
	h.shutdown.Do(func() { close(h.done) })
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_filter", err.Error())
		return
	}
	entries := h.store.List(filter)
	httputil.WriteOK(w, ListResponse{Requests: entries, Count: len(entries), Total: h.store.Count()})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry := h.store.Get(r.PathValue("id"))
	if entry == nil {
		httputil.WriteNotFound(w, "not_found", "request not found")
		return
	}
	httputil.WriteOK(w, entry)
}

func (h *Handler) handleClear(w http.ResponseWriter, _ *http.Request) {
	count := h.store.Count()
	h.store.Clear()
	httputil.WriteOK(w, map[string]any{"cleared": count})
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	subscribable, ok := h.store.(SubscribableStore)
	if !ok {
		httputil.WriteError(w, http.StatusNotImplemented, "not_supported", "store does not support streaming")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteInternalError(w, "sse_error", "streaming not supported")
		return
	}

	sub, unsubscribe := subscribable.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	_, _ = fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case entry, ok := <-sub:
			if !ok {
				return
			}
			data, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "event: request\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func parseFilter(r *http.Request) (*Filter, error) {
	q := r.URL.Query()
	f := &Filter{
		Method:    q.Get("method"),
		Path:      q.Get("path"),
		Operation: q.Get("operation"),
	}

	var err error
	if f.StatusCode, err = intParam(q.Get("status"), "status"); err != nil {
		return nil, err
	}
	if f.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return nil, err
	}
	if f.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		return nil, err
	}
	if f.Fault, err = boolParam(q.Get("fault"), "fault"); err != nil {
		return nil, err
	}
	if f.HasError, err = boolParam(q.Get("hasError"), "hasError"); err != nil {
		return nil, err
	}
	return f, nil
}

func intParam(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func boolParam(s, name string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &b, nil
}
