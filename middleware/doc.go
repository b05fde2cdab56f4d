// Package middleware adapts authcore.Engine to net/http.
//
// # Adapters
//
//   - [Guard] validates the bearer token and injects the claims into the
//     request context.
//   - [ClientIP] records the caller address for audit events.
//   - [WriteError] maps engine error kinds to status codes and generic bodies.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to the
// Engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access the ephemeral store or the catalog.
//   - Echo internal error text to clients.
package middleware
