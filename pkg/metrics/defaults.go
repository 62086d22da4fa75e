package metrics

import "sync"

// Default metrics for the SOAP endpoint, initialized by Init.
//
// Label values:
//   - operation: Contract.Operation, or "unknown" when resolution failed
//   - status: numeric HTTP status (200, 202, 500)
//   - code: fault code as written on the wire (Client, Sender, ...)
//   - filter: the filter stage that short circuited (message, operation)
var (
	// RequestsTotal counts SOAP requests. Labels: operation, status.
	RequestsTotal *Counter

	// RequestDuration tracks request processing time in seconds. Labels: operation.
	RequestDuration *Histogram

	// FaultsTotal counts fault responses. Labels: code.
	FaultsTotal *Counter

	// ShortCircuitsTotal counts silent short circuits. Labels: filter.
	ShortCircuitsTotal *Counter

	// UptimeSeconds is the server uptime in seconds.
	UptimeSeconds *Gauge

	// RuntimeCollectorInstance samples Go runtime metrics into the default registry.
	RuntimeCollectorInstance *RuntimeCollector

	defaultRegistry *Registry
	initOnce        sync.Once
)

// Init initializes the default metrics and returns the registry.
// It is idempotent.
func Init() *Registry {
	initOnce.Do(func() {
		defaultRegistry = NewRegistry()

		RequestsTotal = defaultRegistry.NewCounter(
			"soapd_requests_total",
			"Total number of SOAP requests",
			"operation", "status",
		)
		RequestDuration = defaultRegistry.NewHistogram(
			"soapd_request_duration_seconds",
			"Duration of SOAP requests in seconds",
			DefaultBuckets,
			"operation",
		)
		FaultsTotal = defaultRegistry.NewCounter(
			"soapd_faults_total",
			"Total number of SOAP faults returned",
			"code",
		)
		ShortCircuitsTotal = defaultRegistry.NewCounter(
			"soapd_short_circuits_total",
			"Number of requests silently short circuited by a filter",
			"filter",
		)
		UptimeSeconds = defaultRegistry.NewGauge(
			"soapd_uptime_seconds",
			"Server uptime in seconds",
		)

		RuntimeCollectorInstance = NewRuntimeCollector(defaultRegistry, UptimeSeconds)
	})
	return defaultRegistry
}

// DefaultRegistry returns the default registry, or nil before Init.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Reset clears the default metrics so Init can run again. Used by tests.
func Reset() {
	initOnce = sync.Once{}
	defaultRegistry = nil
	RequestsTotal = nil
	RequestDuration = nil
	FaultsTotal = nil
	ShortCircuitsTotal = nil
	UptimeSeconds = nil
	RuntimeCollectorInstance = nil
}
