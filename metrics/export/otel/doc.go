// Package otel binds authcore metrics to OpenTelemetry observable
// instruments.
//
// [NewExporter] registers one Int64ObservableCounter per operation family,
// with an "outcome" attribute per series, and two gauges per histogram (the
// cumulative buckets keyed by an "le" attribute, and the sample count). One
// callback reads [authcore.Engine.MetricsSnapshot] per collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
