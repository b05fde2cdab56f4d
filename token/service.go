// Package token issues bearer tokens and runs the validation pipeline:
// signature, then expiry, then revocation. Each step maps to one error kind
// and a later step never runs once an earlier one has rejected the token.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/autherr"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/google/uuid"
)

// Revoker is the revocation authority as seen by the pipeline.
type Revoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Service composes signing and revocation.
type Service struct {
	manager *jwt.Manager
	revoker Revoker
}

// Issued is a freshly signed token.
type Issued struct {
	Token  string
	Claims *jwt.Claims
}

// New returns a service. Both collaborators are required.
func New(manager *jwt.Manager, revoker Revoker) (*Service, error) {
	if manager == nil {
		return nil, errors.New("token manager is required")
	}
	if revoker == nil {
		return nil, errors.New("token revoker is required")
	}
	return &Service{manager: manager, revoker: revoker}, nil
}

// Issue signs a token for the user with a random token id.
func (s *Service) Issue(userID, email string) (Issued, error) {
	signed, claims, err := s.manager.Issue(userID, email, uuid.NewString())
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: signed, Claims: claims}, nil
}

// Validate returns the claims of an acceptable token, or one of
// ErrTokenInvalid, ErrTokenExpired, ErrTokenRevoked and
// ErrDependencyUnavailable. The last one still means "reject".
func (s *Service) Validate(ctx context.Context, raw string) (*jwt.Claims, error) {
	if raw == "" {
		return nil, autherr.ErrTokenInvalid
	}

	claims, err := s.manager.Parse(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, autherr.ErrTokenExpired
		}
		return nil, autherr.ErrTokenInvalid
	}

	revoked, err := s.revoker.IsRevoked(ctx, raw)
	if err != nil {
		return nil, autherr.Unavailable(err)
	}
	if revoked {
		return nil, autherr.ErrTokenRevoked
	}
	return claims, nil
}

// Revoke validates raw and records it as revoked for as long as Parse would
// accept it, which is exp plus the configured leeway. An invalid, expired or
// already revoked token is rejected with the matching kind and nothing is
// recorded.
func (s *Service) Revoke(ctx context.Context, raw string) (*jwt.Claims, error) {
	claims, err := s.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	acceptedUntil := claims.ExpiresAt.Time.Add(s.manager.Leeway())
	if err := s.revoker.Revoke(ctx, raw, acceptedUntil); err != nil {
		return nil, autherr.Unavailable(err)
	}
	return claims, nil
}
