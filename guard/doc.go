// Package guard is the brute-force guard: it counts failed attempts per
// identity and purpose inside a fixed window and reports when an identity is
// locked.
//
// # Design
//
// Counters live in an [ephemeral.Store] under "att:<purpose>:<identity>". The
// window starts at the first failure and is never extended by later ones, so
// a lockout ends one window after the first counted failure. Successful
// attempts do not reset the counter.
//
// Every store failure yields Locked together with the error.
//
// # What this package must NOT do
//
//   - Decide what a lockout means to the caller; the orchestrator maps Locked
//     to an error kind.
//   - Distinguish known from unknown identities.
package guard
