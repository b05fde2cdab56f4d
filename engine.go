package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/authcore/autherr"
	"github.com/MrEthical07/authcore/catalog"
	"github.com/MrEthical07/authcore/guard"
	"github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/revocation"
	"github.com/MrEthical07/authcore/token"
	"github.com/MrEthical07/authcore/twofactor"
)

// Engine runs the signup, login, two-factor, validation and logout flows over
// the catalog, guard, verifier and token components. Engine methods are safe
// for concurrent use after Builder.Build.
type Engine struct {
	config Config
	logger *slog.Logger
	clock  func() time.Time

	catalog   *catalog.Catalog
	guard     *guard.Guard
	twoFactor *twofactor.Verifier
	tokens    *token.Service
	sender    notify.Sender

	audit   *audit.Dispatcher
	metrics *Metrics

	closers []func() error
}

// Close flushes pending audit events and releases what Build opened. It does
// not close a Redis client passed to Builder.WithRedis.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("close failed", slog.Any("error", err))
		}
	}
	e.closers = nil
}

// AuditDropped returns how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

// dependencyFailure records a collaborator that could not answer. The caller
// still returns the denying outcome.
func (e *Engine) dependencyFailure(ctx context.Context, op string, err error) {
	e.metricInc(MetricDependencyUnavailable)
	e.logger.WarnContext(ctx, "dependency unavailable",
		slog.String("op", op),
		slog.Any("error", err),
	)
}

// Signup registers a user and returns the new user id. It fails with
// ErrInvalidInput, ErrDuplicateEmail or ErrDependencyUnavailable.
func (e *Engine) Signup(ctx context.Context, email, password string, requires2FA bool) (string, error) {
	user, err := e.catalog.CreateUser(ctx, email, password, requires2FA)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, AuditSignupDuplicate, false, "", "", err, nil)
		case errors.Is(err, ErrInvalidInput):
			e.metricInc(MetricSignupFailure)
			e.emitAudit(ctx, AuditSignupFailure, false, "", "", err, nil)
		default:
			e.metricInc(MetricSignupFailure)
			e.dependencyFailure(ctx, "signup", err)
			e.emitAudit(ctx, AuditSignupFailure, false, "", "", err, nil)
		}
		return "", err
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, AuditSignupSuccess, true, user.ID, "", nil, func() map[string]string {
		return map[string]string{"requires_2fa": boolString(user.Requires2FA)}
	})
	return user.ID, nil
}

// Login checks the password for email. Accounts without two-factor receive a
// token right away. For the others a code is sent and the result has
// TwoFactorRequired set; the token comes from VerifyTwoFactor.
//
// Every credential failure, known email or not, is ErrInvalidCredentials.
// ErrLocked is returned once too many failures accumulated in the window, or
// when the attempt counter cannot be read.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	decision, err := e.guard.CheckAllowed(ctx, email, guard.PurposeLogin)
	if err != nil {
		e.dependencyFailure(ctx, "login guard", err)
	}
	if decision == guard.Locked {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, AuditLoginLocked, false, "", "", ErrLocked, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, ErrLocked
	}

	user, ok := e.catalog.Authenticate(ctx, email, password)
	if !ok {
		e.metricInc(MetricLoginFailure)
		if _, err := e.guard.RecordFailure(ctx, email, guard.PurposeLogin); err != nil {
			e.dependencyFailure(ctx, "login guard", err)
		}
		e.emitAudit(ctx, AuditLoginFailure, false, "", "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if !user.Requires2FA {
		return e.completeLogin(ctx, user.ID, user.Email, AuditLoginSuccess)
	}

	challenge, err := e.twoFactor.Issue(ctx, user.ID)
	if err != nil {
		e.dependencyFailure(ctx, "twofactor issue", err)
		return nil, autherr.Unavailable(err)
	}
	if err := e.sender.Send(ctx, notify.TwoFactorMessage(user.Email, challenge.Code)); err != nil {
		// An undelivered code must not stay redeemable.
		if _, ierr := e.twoFactor.Invalidate(ctx, user.ID); ierr != nil {
			e.dependencyFailure(ctx, "twofactor invalidate", ierr)
		}
		e.dependencyFailure(ctx, "twofactor send", err)
		return nil, autherr.Unavailable(err)
	}

	e.metricInc(MetricTwoFactorIssued)
	e.emitAudit(ctx, AuditTwoFactorIssued, true, user.ID, "", nil, nil)
	return &LoginResult{
		UserID:             user.ID,
		TwoFactorRequired:  true,
		LoginAttemptID:     challenge.AttemptID,
		ChallengeExpiresAt: challenge.ExpiresAt,
	}, nil
}

// VerifyTwoFactor redeems the code sent during Login and issues a token.
// attemptID is LoginResult.LoginAttemptID from that Login. A wrong code or
// attempt id is ErrChallengeInvalid and leaves the challenge usable. A
// missing, consumed or replaced challenge is ErrChallengeExpired, as is an
// unknown email, whose attempts are still counted. ErrLocked means too many wrong codes; the pending challenge
// is discarded and a new login is required after the window.
func (e *Engine) VerifyTwoFactor(ctx context.Context, email, attemptID, code string) (*LoginResult, error) {
	user, ok := e.catalog.FindByEmail(ctx, email)
	if !ok {
		return nil, e.unknownTwoFactor(ctx, email)
	}

	decision, err := e.guard.CheckAllowed(ctx, user.ID, guard.PurposeTwoFactor)
	if err != nil {
		e.dependencyFailure(ctx, "twofactor guard", err)
	}
	if decision == guard.Locked {
		if _, ierr := e.twoFactor.Invalidate(ctx, user.ID); ierr != nil {
			e.dependencyFailure(ctx, "twofactor invalidate", ierr)
		}
		e.metricInc(MetricTwoFactorLocked)
		e.emitAudit(ctx, AuditTwoFactorLocked, false, user.ID, "", ErrLocked, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, ErrLocked
	}

	result, err := e.twoFactor.Verify(ctx, user.ID, attemptID, code)
	switch result {
	case twofactor.Verified:
		e.metricInc(MetricTwoFactorSuccess)
		return e.completeLogin(ctx, user.ID, user.Email, AuditTwoFactorVerified)

	case twofactor.Invalid:
		e.metricInc(MetricTwoFactorInvalid)
		eventType := AuditTwoFactorFailure
		if d, _ := e.guard.CheckAllowed(ctx, user.ID, guard.PurposeTwoFactor); d == guard.Locked {
			e.metricInc(MetricTwoFactorLocked)
			eventType = AuditTwoFactorLocked
		}
		e.emitAudit(ctx, eventType, false, user.ID, "", ErrChallengeInvalid, nil)
		return nil, ErrChallengeInvalid

	default:
		e.metricInc(MetricTwoFactorExpired)
		if err != nil {
			e.dependencyFailure(ctx, "twofactor verify", err)
			e.emitAudit(ctx, AuditTwoFactorFailure, false, user.ID, "", ErrChallengeExpired, nil)
			return nil, fmt.Errorf("%w: %v", ErrChallengeExpired, err)
		}
		e.emitAudit(ctx, AuditTwoFactorFailure, false, user.ID, "", ErrChallengeExpired, nil)
		return nil, ErrChallengeExpired
	}
}

// unknownTwoFactor counts an attempt against an unregistered email under the
// email itself, so repeated guesses lock out the same way they do for an
// account.
func (e *Engine) unknownTwoFactor(ctx context.Context, email string) error {
	decision, err := e.guard.CheckAllowed(ctx, email, guard.PurposeTwoFactor)
	if err != nil {
		e.dependencyFailure(ctx, "twofactor guard", err)
	}
	if decision == guard.Locked {
		e.metricInc(MetricTwoFactorLocked)
		e.emitAudit(ctx, AuditTwoFactorLocked, false, "", "", ErrLocked, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return ErrLocked
	}

	e.metricInc(MetricTwoFactorExpired)
	eventType := AuditTwoFactorFailure
	decision, err = e.guard.RecordFailure(ctx, email, guard.PurposeTwoFactor)
	if err != nil {
		e.dependencyFailure(ctx, "twofactor guard", err)
	} else if decision == guard.Locked {
		e.metricInc(MetricTwoFactorLocked)
		eventType = AuditTwoFactorLocked
	}
	e.emitAudit(ctx, eventType, false, "", "", ErrChallengeExpired, nil)
	return ErrChallengeExpired
}

func (e *Engine) completeLogin(ctx context.Context, userID, email, eventType string) (*LoginResult, error) {
	issued, err := e.tokens.Issue(userID, email)
	if err != nil {
		e.dependencyFailure(ctx, "token issue", err)
		return nil, autherr.Unavailable(err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, eventType, true, userID, issued.Claims.ID, nil, nil)
	return &LoginResult{
		UserID:    userID,
		Token:     issued.Token,
		ExpiresAt: issued.Claims.ExpiresAt.Time,
	}, nil
}

// Validate verifies the token signature, then its expiry, then its revocation
// status. It returns ErrTokenInvalid, ErrTokenExpired, ErrTokenRevoked, or
// ErrDependencyUnavailable when revocation cannot be checked; every error
// means the request is unauthorized.
func (e *Engine) Validate(ctx context.Context, raw string) (*Claims, error) {
	start := time.Now()
	claims, err := e.tokens.Validate(ctx, raw)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			e.metricInc(MetricValidateExpired)
		case errors.Is(err, ErrTokenRevoked):
			e.metricInc(MetricValidateRevoked)
		case errors.Is(err, ErrTokenInvalid):
			e.metricInc(MetricValidateInvalid)
		default:
			e.dependencyFailure(ctx, "revocation check", err)
		}
		e.emitAudit(ctx, AuditTokenRejected, false, "", "", err, tokenMetadata(raw))
		return nil, err
	}

	e.metricInc(MetricValidateSuccess)
	return claimsFromJWT(claims), nil
}

// Logout revokes the token for the rest of its lifetime. A token that does
// not validate is rejected with the same kinds as Validate.
func (e *Engine) Logout(ctx context.Context, raw string) error {
	claims, err := e.tokens.Revoke(ctx, raw)
	if err != nil {
		e.metricInc(MetricLogoutFailure)
		if errors.Is(err, ErrDependencyUnavailable) {
			e.dependencyFailure(ctx, "logout", err)
		}
		e.emitAudit(ctx, AuditLogout, false, "", "", err, tokenMetadata(raw))
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, true, claims.UID, claims.ID, nil, nil)
	return nil
}

// tokenMetadata references a raw token by fingerprint only.
func tokenMetadata(raw string) func() map[string]string {
	return func() map[string]string {
		if raw == "" {
			return nil
		}
		return map[string]string{"token_fp": revocation.Fingerprint(raw)}
	}
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
