// Package revocation keeps the list of bearer tokens revoked before their
// natural expiry.
//
// Tokens are recorded by fingerprint under "rvk:<fingerprint>" with a TTL equal
// to the token's remaining lifetime, so a record disappears exactly when the
// token would have expired anyway. A lookup that cannot reach the store
// reports the token as revoked.
package revocation

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/authcore/ephemeral"
	"github.com/MrEthical07/authcore/internal"
)

// Config tunes the authority.
type Config struct {
	Timeout time.Duration
	Now     func() time.Time
}

// Authority records and answers revocations.
type Authority struct {
	store ephemeral.Store
	cfg   Config
}

// New returns an authority over store.
func New(store ephemeral.Store, cfg Config) (*Authority, error) {
	if store == nil {
		return nil, errors.New("revocation store is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Authority{store: store, cfg: cfg}, nil
}

// Fingerprint returns the stable identifier a token is recorded under.
func Fingerprint(token string) string {
	return internal.Fingerprint(token)
}

// Revoke records token until expiresAt. A token already past expiresAt needs
// no record and Revoke returns nil without touching the store.
func (a *Authority) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	now := a.cfg.Now()
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return nil
	}

	ctx, cancel := ephemeral.Bound(ctx, a.cfg.Timeout)
	defer cancel()

	value := []byte(strconv.FormatInt(now.UnixMilli(), 10))
	return a.store.SetWithTTL(ctx, key(token), value, remaining)
}

// IsRevoked reports whether token is on the list. On a store error it returns
// true together with the error.
func (a *Authority) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := ephemeral.Bound(ctx, a.cfg.Timeout)
	defer cancel()

	_, ok, err := a.store.Get(ctx, key(token))
	if err != nil {
		return true, err
	}
	return ok, nil
}

func key(token string) string {
	return ephemeral.Key(ephemeral.NamespaceRevoked, Fingerprint(token))
}
