package twofactor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/authcore/ephemeral"
	"github.com/MrEthical07/authcore/guard"
	"github.com/MrEthical07/authcore/internal"
)

// Result is the outcome of a verification.
type Result uint8

const (
	// Expired means no live challenge: never issued, consumed, timed out, or unreadable.
	Expired Result = iota
	Invalid
	Verified
)

func (r Result) String() string {
	switch r {
	case Verified:
		return "verified"
	case Invalid:
		return "invalid"
	default:
		return "expired"
	}
}

const (
	MinTTL        = 5 * time.Minute
	MaxTTL        = 10 * time.Minute
	DefaultTTL    = 5 * time.Minute
	DefaultDigits = 6
)

// FailureRecorder receives wrong-code attempts. *guard.Guard satisfies it.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, identity string, purpose guard.Purpose) (guard.Decision, error)
}

// Config holds challenge policy.
type Config struct {
	TTL     time.Duration
	Digits  int
	Timeout time.Duration
	Now     func() time.Time
}

// Verifier owns the challenge lifecycle.
type Verifier struct {
	store    ephemeral.Store
	failures FailureRecorder
	cfg      Config
}

// New returns a verifier. failures may be nil, in which case wrong codes are
// not counted.
func New(store ephemeral.Store, failures FailureRecorder, cfg Config) (*Verifier, error) {
	if store == nil {
		return nil, errors.New("two-factor store is required")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Digits == 0 {
		cfg.Digits = DefaultDigits
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL < MinTTL || cfg.TTL > MaxTTL {
		return nil, fmt.Errorf("two-factor ttl must be between %v and %v", MinTTL, MaxTTL)
	}
	if cfg.Digits != DefaultDigits {
		return nil, errors.New("two-factor codes must have 6 digits")
	}

	return &Verifier{store: store, failures: failures, cfg: cfg}, nil
}

// TTL returns the configured challenge lifetime.
func (v *Verifier) TTL() time.Duration { return v.cfg.TTL }

// Issue creates a fresh challenge for userID, replacing any pending one. The
// returned AttemptID must accompany the code when it is verified.
func (v *Verifier) Issue(ctx context.Context, userID string) (Challenge, error) {
	code, err := internal.NewOTP(v.cfg.Digits)
	if err != nil {
		return Challenge{}, err
	}

	now := v.cfg.Now()
	challenge := Challenge{
		AttemptID: uuid.NewString(),
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(v.cfg.TTL),
	}
	record, err := encodeChallenge(challenge)
	if err != nil {
		return Challenge{}, err
	}

	ctx, cancel := ephemeral.Bound(ctx, v.cfg.Timeout)
	defer cancel()

	if err := v.store.SetWithTTL(ctx, key(userID), record, v.cfg.TTL); err != nil {
		return Challenge{}, err
	}
	return challenge, nil
}

// Verify checks attemptID and code against the pending challenge for userID.
// Both must match; either mismatch is Invalid and counts as a failure.
func (v *Verifier) Verify(ctx context.Context, userID, attemptID, code string) (Result, error) {
	ctx, cancel := ephemeral.Bound(ctx, v.cfg.Timeout)
	defer cancel()

	k := key(userID)
	raw, ok, err := v.store.Get(ctx, k)
	if err != nil {
		return Expired, err
	}
	if !ok {
		return Expired, nil
	}

	challenge, err := decodeChallenge(raw)
	if err != nil {
		_, _ = v.store.DeleteIfEqual(ctx, k, raw)
		return Expired, err
	}
	if !v.cfg.Now().Before(challenge.ExpiresAt) {
		_, _ = v.store.DeleteIfEqual(ctx, k, raw)
		return Expired, nil
	}

	// Evaluate both comparisons so a wrong attempt id costs the same as a wrong code.
	attemptOK := internal.EqualCodes(challenge.AttemptID, attemptID)
	codeOK := internal.EqualCodes(challenge.Code, code)
	if !attemptOK || !codeOK {
		if v.failures != nil {
			decision, _ := v.failures.RecordFailure(ctx, userID, guard.PurposeTwoFactor)
			if decision == guard.Locked {
				_, _ = v.store.DeleteIfEqual(ctx, k, raw)
			}
		}
		return Invalid, nil
	}

	consumed, err := v.store.DeleteIfEqual(ctx, k, raw)
	if err != nil {
		return Expired, err
	}
	if !consumed {
		// Consumed or replaced between read and delete.
		return Expired, nil
	}
	return Verified, nil
}

// Invalidate discards the pending challenge for userID and reports whether one existed.
func (v *Verifier) Invalidate(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := ephemeral.Bound(ctx, v.cfg.Timeout)
	defer cancel()

	_, ok, err := v.store.FetchAndDelete(ctx, key(userID))
	return ok, err
}

func key(userID string) string {
	return ephemeral.Key(ephemeral.NamespaceTwoFactor, userID)
}
