// Package internaldefs holds the metric families, label names and bucket
// bounds shared by the Prometheus and OTel exporters, so both expose the same
// series.
//
// Each family is one operation (signup, login, twofactor, validate, logout)
// split by an outcome label.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
