// Package authcore is the authentication core of a credential-issuance
// service: user signup, password login with optional email two-factor codes,
// brute-force lockout, short-lived bearer tokens and token revocation.
//
// An [Engine] is assembled once through [Builder.Build] and is safe to call
// from many goroutines. All shared state lives in two collaborators: a
// catalog backend for users and an ephemeral TTL store (Redis or in-process)
// for challenges, attempt counters and revocation records.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the error kinds and value types. Components live in their own packages
// (catalog, twofactor, guard, revocation, token, ephemeral) and never import
// this package. HTTP concerns live in the middleware package.
//
// # Failure policy
//
// Every security decision fails closed. An unreachable store makes the guard
// report locked, a pending challenge report expired and a token validation
// report unavailable. Callers only see the kinds in errors.go; use
// [Classify] to map an error to its kind.
//
// # What this package must NOT do
//
//   - Reveal whether an email is registered through login or two-factor errors.
//   - Log passwords, codes or raw tokens.
//   - Retry collaborator calls internally.
package authcore
