// Package metrics provides Prometheus-compatible metrics for soapd.
//
// It implements the Prometheus text exposition format (text/plain; version=0.0.4)
// with counters, gauges and histograms. All metrics are safe for concurrent use.
//
// # Default Metrics
//
//   - soapd_requests_total: requests by operation and HTTP status
//   - soapd_request_duration_seconds: request latency by operation
//   - soapd_faults_total: fault responses by fault code
//   - soapd_short_circuits_total: silent short circuits by filter stage
//   - soapd_uptime_seconds: server uptime
//
// # Usage
//
//	registry := metrics.Init()
//	if vec, err := metrics.RequestsTotal.WithLabels("Calculator.Add", "200"); err == nil {
//		_ = vec.Inc()
//	}
//	http.Handle("/metrics", registry.Handler())
package metrics
