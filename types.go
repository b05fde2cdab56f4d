package authcore

import (
	"time"

	"github.com/MrEthical07/authcore/jwt"
)

// LoginResult is returned by Engine.Login and Engine.VerifyTwoFactor.
//
// When TwoFactorRequired is set no token was issued: a code was sent to the
// account's address and must be redeemed with VerifyTwoFactor, together with
// LoginAttemptID, before ChallengeExpiresAt.
type LoginResult struct {
	UserID string

	TwoFactorRequired  bool
	LoginAttemptID     string
	ChallengeExpiresAt time.Time

	Token     string
	ExpiresAt time.Time
}

// Claims is the validated content of a bearer token.
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func claimsFromJWT(c *jwt.Claims) *Claims {
	if c == nil {
		return nil
	}
	out := &Claims{
		UserID:  c.UID,
		Email:   c.Email,
		TokenID: c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
