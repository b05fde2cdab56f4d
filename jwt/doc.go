// Package jwt signs and parses the bearer tokens handed out after a successful
// login. It supports HS256 with a shared secret and EdDSA (Ed25519) with
// optional kid-indexed verify keys for rotation.
//
// Parse never inspects claims of a token whose signature does not verify.
// Revocation is not checked here; see package token.
package jwt
