// Package ephemeral provides short-lived key-value storage with per-key expiry
// for two-factor challenges, attempt counters, and revocation records.
//
// # Design
//
// [Store] is the collaborator contract. Every mutation that security decisions
// depend on is atomic with respect to the store itself: FetchAndDelete and
// DeleteIfEqual never split into a read followed by a separate delete, and
// Increment sets its expiry only on the first hit of a window.
//
// [RedisStore] is the production implementation (GETDEL plus Lua scripts).
// [MemoryStore] serves single-process deployments and deterministic tests.
//
// # What this package must NOT do
//
//   - Interpret values; records are opaque bytes owned by the calling component.
//   - Retry failed calls. Callers map ErrUnavailable to their fail-closed outcome.
package ephemeral
