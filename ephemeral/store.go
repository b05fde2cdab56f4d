package ephemeral

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	// NamespaceTwoFactor holds pending two-factor challenges keyed by user id.
	NamespaceTwoFactor = "2fa"
	// NamespaceAttempts holds brute-force attempt counters.
	NamespaceAttempts = "att"
	// NamespaceRevoked holds revoked token fingerprints.
	NamespaceRevoked = "rvk"
)

// ErrUnavailable wraps every backend failure reported by a Store.
var ErrUnavailable = errors.New("ephemeral store unavailable")

// Store is key-value storage with per-key time-to-live.
//
// Get, FetchAndDelete and TTL report a missing or expired key with ok == false
// and a nil error. A non-nil error always wraps ErrUnavailable or the context
// error that bounded the call.
type Store interface {
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	FetchAndDelete(ctx context.Context, key string) (value []byte, ok bool, err error)
	// DeleteIfEqual removes key only when its current value equals expected.
	DeleteIfEqual(ctx context.Context, key string, expected []byte) (bool, error)
	// Increment adds one to the counter at key. The ttl is applied only when the
	// increment creates the counter, so a window is never extended by later hits.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (remaining time.Duration, ok bool, err error)
}

// Key joins a namespace and an identifier into a store key.
func Key(namespace string, parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// Bound derives a context limited by timeout. A non-positive timeout leaves ctx
// unchanged apart from cancellation.
func Bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
