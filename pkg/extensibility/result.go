package extensibility

import (
	"errors"
	"reflect"
	"sync"
)

// ErrResultReset is the panic value raised when a set result is cleared.
// Clearing would reverse the direction of the pipeline, so it is treated as
// a programming error in the extension that attempted it.
var ErrResultReset = errors.New("extensibility: result cannot be unset once set")

// Result is a write-once latch: it moves from unset to set and never back.
// Setting a non-empty value over another non-empty value is allowed.
type Result[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
}

// Set stores v. Storing the empty value (nil, zero) is a no-op on an unset
// result and panics with ErrResultReset on a set one.
func (r *Result[T]) Set(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if isEmpty(v) {
		if r.set {
			panic(ErrResultReset)
		}
		return
	}
	r.value, r.set = v, true
}

// Get returns the stored value, or the zero value when unset.
func (r *Result[T]) Get() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// IsSet reports whether a value has been stored.
func (r *Result[T]) IsSet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set
}

func isEmpty[T any](v T) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}
