package requestlog

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func seededStore() *MemoryStore {
	s := NewMemoryStore(10)
	s.Log(&Entry{ID: "a", Method: "POST", Path: "/calc", ResponseStatus: 200, SOAP: &SOAPMeta{Operation: "Add"}})
	s.Log(&Entry{ID: "b", Method: "POST", Path: "/calc", ResponseStatus: 500, Error: "boom", SOAP: &SOAPMeta{Operation: "Crash", IsFault: true}})
	s.Log(&Entry{ID: "c", Method: "POST", Path: "/calc", ResponseStatus: 202, SOAP: &SOAPMeta{Operation: "Notify", OneWay: true}})
	return s
}

func get(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_List(t *testing.T) {
	h := NewHandler(DefaultPrefix, seededStore())

	tests := []struct {
		query string
		ids   []string
	}{
		{"", []string{"c", "b", "a"}},
		{"?fault=true", []string{"b"}},
		{"?hasError=false", []string{"c", "a"}},
		{"?operation=Add", []string{"a"}},
		{"?status=202", []string{"c"}},
		{"?limit=1&offset=1", []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, h, http.MethodGet, DefaultPrefix+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp ListResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Total != 3 || resp.Count != len(tt.ids) {
				t.Errorf("count/total = %d/%d, want %d/3", resp.Count, resp.Total, len(tt.ids))
			}
			for i, e := range resp.Requests {
				if e.ID != tt.ids[i] {
					t.Errorf("requests[%d] = %s, want %s", i, e.ID, tt.ids[i])
				}
			}
		})
	}
}

func TestHandler_InvalidFilter(t *testing.T) {
	h := NewHandler(DefaultPrefix, seededStore())
	for _, q := range []string{"?status=ok", "?limit=-1", "?fault=maybe"} {
		if rec := get(t, h, http.MethodGet, DefaultPrefix+q); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestHandler_GetAndClear(t *testing.T) {
	s := seededStore()
	h := NewHandler("/inspect/", s)

	rec := get(t, h, http.MethodGet, "/inspect/b")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var e Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.SOAP == nil || e.SOAP.Operation != "Crash" {
		t.Errorf("unexpected entry %+v", e)
	}

	if rec := get(t, h, http.MethodGet, "/inspect/zzz"); rec.Code != http.StatusNotFound {
		t.Errorf("missing entry: status = %d, want 404", rec.Code)
	}

	rec = get(t, h, http.MethodDelete, "/inspect")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cleared":3`) {
		t.Errorf("clear: %d %s", rec.Code, rec.Body.String())
	}
	if s.Count() != 0 {
		t.Errorf("store not cleared: %d entries", s.Count())
	}

	if rec := get(t, h, http.MethodPost, "/inspect"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: status = %d, want 405", rec.Code)
	}
}

func TestHandler_Stream(t *testing.T) {
	s := NewMemoryStore(10)
	srv := httptest.NewServer(NewHandler(DefaultPrefix, s))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+DefaultPrefix+"/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				t.Fatalf("reading stream: %v", err)
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				return event, data
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	if event, _ := readEvent(); event != "connected" {
		t.Fatalf("first event = %q, want connected", event)
	}

	s.Log(&Entry{ID: "live", Path: "/calc"})
	event, data := readEvent()
	if event != "request" || !strings.Contains(data, `"id":"live"`) {
		t.Errorf("got event %q data %s", event, data)
	}
}

func TestHandler_StreamEndsOnShutdown(t *testing.T) {
	h := NewHandler(DefaultPrefix, NewMemoryStore(10))
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+DefaultPrefix+"/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	r := bufio.NewReader(resp.Body)
	if line, err := r.ReadString('\n'); err != nil || line != "event: connected\n" {
		t.Fatalf("first line = %q, %v", line, err)
	}

	h.Shutdown()
	h.Shutdown()

	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("stream did not end cleanly: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("stream ended only by the client timeout")
	}
	if got := string(rest); got != "data: {}\n\n" {
		t.Errorf("remaining stream = %q", got)
	}
}

func TestHandler_StreamUnsupported(t *testing.T) {
	var s Store = struct{ Store }{NewMemoryStore(1)}
	rec := get(t, NewHandler(DefaultPrefix, s), http.MethodGet, DefaultPrefix+"/stream")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}
