package guard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/ephemeral"
)

// Decision is the guard's answer for an identity.
type Decision uint8

const (
	Allowed Decision = iota
	Locked
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "locked"
}

// Purpose separates independent attempt counters for one identity.
type Purpose string

const (
	PurposeLogin     Purpose = "login"
	PurposeTwoFactor Purpose = "2fa"
)

const (
	DefaultThreshold = 5
	DefaultWindow    = 15 * time.Minute
)

// Config holds lockout policy.
type Config struct {
	Threshold int
	Window    time.Duration
	// Timeout bounds every store call. Zero leaves the caller's context as is.
	Timeout time.Duration
}

// Guard tracks failed attempts.
type Guard struct {
	store ephemeral.Store
	cfg   Config
}

// New returns a guard over store. Zero Threshold and Window take the defaults.
func New(store ephemeral.Store, cfg Config) (*Guard, error) {
	if store == nil {
		return nil, errors.New("guard store is required")
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Threshold < 1 {
		return nil, errors.New("guard threshold must be >= 1")
	}
	if cfg.Window < time.Second {
		return nil, errors.New("guard window must be >= 1s")
	}
	return &Guard{store: store, cfg: cfg}, nil
}

// CheckAllowed reports Locked when at least Threshold failures were recorded in
// the current window. It does not count as an attempt.
func (g *Guard) CheckAllowed(ctx context.Context, identity string, purpose Purpose) (Decision, error) {
	ctx, cancel := ephemeral.Bound(ctx, g.cfg.Timeout)
	defer cancel()

	raw, ok, err := g.store.Get(ctx, key(identity, purpose))
	if err != nil {
		return Locked, err
	}
	if !ok {
		return Allowed, nil
	}

	count, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return Locked, err
	}
	return g.decide(count), nil
}

// RecordFailure counts one failed attempt and returns the resulting decision.
//
// Locked is returned when the new count reaches Threshold, the same count at
// which CheckAllowed starts reporting Locked. The Threshold-th failure itself
// therefore comes back Locked.
func (g *Guard) RecordFailure(ctx context.Context, identity string, purpose Purpose) (Decision, error) {
	ctx, cancel := ephemeral.Bound(ctx, g.cfg.Timeout)
	defer cancel()

	count, err := g.store.Increment(ctx, key(identity, purpose), g.cfg.Window)
	if err != nil {
		return Locked, err
	}
	return g.decide(count), nil
}

// RetryAfter returns how long until the current window ends, or zero when no
// window is open.
func (g *Guard) RetryAfter(ctx context.Context, identity string, purpose Purpose) (time.Duration, error) {
	ctx, cancel := ephemeral.Bound(ctx, g.cfg.Timeout)
	defer cancel()

	remaining, ok, err := g.store.TTL(ctx, key(identity, purpose))
	if err != nil || !ok {
		return 0, err
	}
	return remaining, nil
}

func (g *Guard) decide(count int64) Decision {
	if count >= int64(g.cfg.Threshold) {
		return Locked
	}
	return Allowed
}

func key(identity string, purpose Purpose) string {
	return ephemeral.Key(ephemeral.NamespaceAttempts, string(purpose), strings.ToLower(strings.TrimSpace(identity)))
}
