package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
)

// Service resolves bearer tokens to identities and handles revocation.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	denylist *Denylist
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, denylist *Denylist) *Service {
	return &Service{repo: repo, tokens: tokens, denylist: denylist}
}

// Verify validates a bearer token and resolves it to a persisted account.
// Fails with ErrUnauthenticated when the token is absent, malformed, expired,
// revoked, or the referenced account no longer exists. Read-only.
func (s *Service) Verify(ctx context.Context, raw string) (policy.Identity, error) {
	if raw == "" {
		return policy.Identity{}, httpx.ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return policy.Identity{}, fmt.Errorf("%w: invalid token", httpx.ErrUnauthenticated)
	}
	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return policy.Identity{}, err
		}
		if revoked {
			return policy.Identity{}, fmt.Errorf("%w: token revoked", httpx.ErrUnauthenticated)
		}
	}
	account, err := s.repo.FindAccountByID(ctx, claims.UserID)
	if err != nil {
		// Only a missing row means the token no longer maps to an account;
		// storage faults must not masquerade as a credential problem.
		if errors.Is(err, httpx.ErrNotFound) {
			return policy.Identity{}, fmt.Errorf("%w: unknown account", httpx.ErrUnauthenticated)
		}
		return policy.Identity{}, err
	}
	return account.Identity(), nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, raw string) error {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid token", httpx.ErrUnauthenticated)
	}
	if s.denylist == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt)
}
