// Package autherr defines the closed set of failure kinds returned by authcore
// components.
//
// Every component resolves its collaborator failures into one of these kinds at
// its boundary, so callers only ever match with [errors.Is] against the values
// declared here. Causes are preserved through wrapping for logs.
//
// # What this package must NOT do
//
//   - Import any other authcore package.
//   - Grow ad hoc kinds per call site; a new kind is a contract change.
package autherr
