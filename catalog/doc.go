// Package catalog is the credential catalog: it registers users with a unique
// email address and checks candidate passwords against stored hashes.
//
// # Design
//
// Uniqueness is decided by the persistent Backend in a single insert-if-absent
// step, so two concurrent signups for one email cannot both succeed. The
// expensive password hash is computed before that step and never holds a lock.
//
// Password checks for unknown emails run one comparison against a dummy hash
// produced at construction with the same hasher, so "no such user" and "wrong
// password" take the same time.
//
// # Architecture boundaries
//
// Backends live in sub-packages (postgres, sqlite) or in MemoryBackend for a
// single process. The catalog never issues tokens or tracks attempts.
//
// # What this package must NOT do
//
//   - Store or log plaintext passwords.
//   - Reveal whether an email exists through Authenticate or VerifyPassword.
//   - Hold any lock while hashing.
package catalog
