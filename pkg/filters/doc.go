// Package filters contains the built-in soapd extensions: a request logging
// message filter, a rule-based message filter, an operation timing filter and
// value binder providers for required and whitespace-trimmed arguments.
package filters
