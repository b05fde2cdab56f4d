// Package prometheus renders authcore metrics in Prometheus text exposition
// format without depending on a Prometheus client library.
//
// Counters are grouped per operation and split by an outcome label:
//
//	authcore_login_total{outcome="success"} 12
//	authcore_login_total{outcome="locked"} 1
//
// Token validation latency is the histogram authcore_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry; callers mount [Exporter.Handler].
//   - Mutate engine state.
package prometheus
