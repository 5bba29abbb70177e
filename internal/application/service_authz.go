package application

import (
	"context"
	"fmt"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

// Authorize runs the per-request guard decision for a bearer token:
// verify, load the subject, then check the token's role against allowed.
// The role is read from the token, not the stored account, so it stays
// fixed until the token expires. An empty allowed list admits any role.
func (s *Service) Authorize(ctx context.Context, token string, allowed []domain.Role) (AuthorizationDecision, error) {
	denied := AuthorizationDecision{Outcome: OutcomeUnauthorized}
	if token == "" {
		return denied, domain.ErrUnauthorized
	}

	claims, err := s.tokens.Verify(ports.TokenKindSession, token)
	if err != nil {
		return denied, err
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return denied, domain.ErrUnauthorized
		}
		return denied, fmt.Errorf("load account: %w", err)
	}

	if len(allowed) > 0 && !hasRole(allowed, claims.Role) {
		return AuthorizationDecision{Account: account, Role: claims.Role, Outcome: OutcomeForbid}, domain.ErrForbidden
	}
	return AuthorizationDecision{Account: account, Role: claims.Role, Outcome: OutcomeAllow}, nil
}

// AuthenticateRealtime admits a realtime connection. Only admins get in, and a
// non-admin token is rejected before any account lookup.
func (s *Service) AuthenticateRealtime(ctx context.Context, token string) (RealtimeIdentity, error) {
	claims, err := s.tokens.Verify(ports.TokenKindSession, token)
	if err != nil {
		return RealtimeIdentity{}, err
	}
	if claims.Role != domain.RoleAdmin {
		return RealtimeIdentity{}, domain.ErrForbidden
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return RealtimeIdentity{}, fmt.Errorf("%w: user not found", domain.ErrNotFound)
		}
		return RealtimeIdentity{}, fmt.Errorf("load account: %w", err)
	}
	return RealtimeIdentity{
		AccountID: account.AccountID,
		Username:  account.Username,
		Role:      claims.Role,
	}, nil
}
