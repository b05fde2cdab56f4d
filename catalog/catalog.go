package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/authcore/autherr"
	"github.com/MrEthical07/authcore/password"
	"github.com/google/uuid"
)

// DefaultMinPasswordBytes is the signup password floor when Config leaves it unset.
const DefaultMinPasswordBytes = 8

// dummyPassword seeds the hash compared against when an email is unknown.
const dummyPassword = "authcore-dummy-password"

// User is a registered identity. PasswordHash is a PHC string and is never
// returned to outward layers.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Requires2FA  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Backend is the persistent user table. Implementations must be safe for
// concurrent use.
type Backend interface {
	// InsertIfAbsent stores user unless a user with the same email exists. It
	// reports inserted == false, with a nil error, for an existing email.
	InsertIfAbsent(ctx context.Context, user User) (inserted bool, err error)
	// FindByEmail looks up a user by normalized email.
	FindByEmail(ctx context.Context, email string) (User, bool, error)
}

// Config tunes the catalog.
type Config struct {
	MinPasswordBytes int
	// Timeout bounds every backend call. Zero leaves the caller's context as is.
	Timeout time.Duration
	Now     func() time.Time
}

// Catalog owns signup and password checks.
type Catalog struct {
	backend   Backend
	hasher    password.Hasher
	dummyHash string
	cfg       Config
	logger    *slog.Logger
}

// New builds a catalog. The dummy hash is computed here, so construction costs
// one password hash.
func New(backend Backend, hasher password.Hasher, cfg Config, logger *slog.Logger) (*Catalog, error) {
	if backend == nil {
		return nil, errors.New("catalog backend is required")
	}
	if hasher == nil {
		return nil, errors.New("catalog hasher is required")
	}
	if cfg.MinPasswordBytes < 0 {
		return nil, errors.New("catalog min password bytes must be >= 0")
	}
	if cfg.MinPasswordBytes == 0 {
		cfg.MinPasswordBytes = DefaultMinPasswordBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("catalog dummy hash: %w", err)
	}

	return &Catalog{
		backend:   backend,
		hasher:    hasher,
		dummyHash: dummy,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// CreateUser registers email with a hash of pw. It returns ErrInvalidInput for
// a malformed email or a password outside policy, ErrDuplicateEmail when the
// email is taken, and ErrDependencyUnavailable when the backend fails.
func (c *Catalog) CreateUser(ctx context.Context, email, pw string, requires2FA bool) (User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", autherr.ErrInvalidInput, err)
	}
	if len(pw) < c.cfg.MinPasswordBytes {
		return User{}, fmt.Errorf("%w: password shorter than %d bytes", autherr.ErrInvalidInput, c.cfg.MinPasswordBytes)
	}

	hash, err := c.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong) {
			return User{}, fmt.Errorf("%w: %v", autherr.ErrInvalidInput, err)
		}
		return User{}, autherr.Unavailable(err)
	}

	now := c.cfg.Now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Email:        normalized,
		PasswordHash: hash,
		Requires2FA:  requires2FA,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	callCtx, cancel := c.bound(ctx)
	defer cancel()

	inserted, err := c.backend.InsertIfAbsent(callCtx, user)
	if err != nil {
		return User{}, autherr.Unavailable(err)
	}
	if !inserted {
		return User{}, autherr.ErrDuplicateEmail
	}

	return user, nil
}

// FindByEmail returns the user registered under email. Malformed input and
// backend failures both report ok == false; failures are logged.
func (c *Catalog) FindByEmail(ctx context.Context, email string) (User, bool) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return User{}, false
	}

	callCtx, cancel := c.bound(ctx)
	defer cancel()

	user, ok, err := c.backend.FindByEmail(callCtx, normalized)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog lookup failed", slog.String("error", err.Error()))
		return User{}, false
	}
	return user, ok
}

// Authenticate checks candidate for email and returns the user on a match.
// Exactly one hash comparison runs whether or not the email exists.
func (c *Catalog) Authenticate(ctx context.Context, email, candidate string) (User, bool) {
	user, found := c.FindByEmail(ctx, email)

	hash := c.dummyHash
	if found {
		hash = user.PasswordHash
	}

	match, err := c.hasher.Verify(candidate, hash)
	if err != nil || !match || !found {
		return User{}, false
	}
	return user, true
}

// VerifyPassword reports whether candidate is the password for email.
func (c *Catalog) VerifyPassword(ctx context.Context, email, candidate string) bool {
	_, ok := c.Authenticate(ctx, email, candidate)
	return ok
}

func (c *Catalog) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}
