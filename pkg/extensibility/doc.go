// Package extensibility defines the extension points of the SOAP endpoint.
//
// Message filters wrap the whole exchange and see the envelope; operation
// filters wrap the invocation of the resolved operation and see the decoded
// arguments. Both run on the generic chain in package pipeline, so entry code
// runs in registration order and exit code in reverse.
//
// A filter ends its chain early by setting the Result of its executing
// context. Result is a latch: once set it cannot be cleared, and an attempt to
// do so panics with ErrResultReset.
//
// Value binders adjust single arguments between decoding and the operation
// filters. For each argument the first provider returning a binder wins.
//
// Older extension shapes are supported through adapters that turn them into
// filters: AdaptRequestFilter, AdaptInspector, AdaptTuners and
// ActionFilterRegistry.
package extensibility
