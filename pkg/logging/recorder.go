package logging

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Entry is a log record captured by a Recorder.
type Entry struct {
	Level   Level
	Message string
	Attrs   map[string]any
}

// Recorder is a slog.Handler that keeps records in memory.
// It is used to assert on log output, typically in tests.
type Recorder struct {
	level Level
	attrs []slog.Attr
	store *recorderStore
}

type recorderStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns a Recorder capturing records at or above level.
func NewRecorder(level Level) *Recorder {
	return &Recorder{level: level, store: &recorderStore{}}
}

// Logger returns a logger writing to r.
func (r *Recorder) Logger() *slog.Logger {
	return slog.New(r)
}

func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]any, len(r.attrs)+rec.NumAttrs())
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.store.mu.Lock()
	r.store.entries = append(r.store.entries, Entry{Level: rec.Level, Message: rec.Message, Attrs: attrs})
	r.store.mu.Unlock()
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Recorder{level: r.level, attrs: append(slices.Clip(r.attrs), attrs...), store: r.store}
}

// WithGroup is a no-op; group names are not recorded.
func (r *Recorder) WithGroup(string) slog.Handler {
	return r
}

// Entries returns a copy of the captured records.
func (r *Recorder) Entries() []Entry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return slices.Clone(r.store.entries)
}

// Find returns the first record with the given message.
func (r *Recorder) Find(msg string) (Entry, bool) {
	for _, e := range r.Entries() {
		if e.Message == msg {
			return e, true
		}
	}
	return Entry{}, false
}
