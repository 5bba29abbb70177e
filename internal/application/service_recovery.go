package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

// ForgotPassword issues a reset token for a known email and queues the mail event.
// An unknown email returns an empty ticket and no error.
func (s *Service) ForgotPassword(ctx context.Context, rawEmail string) (PasswordResetTicket, error) {
	email := domain.NormalizeEmail(rawEmail)
	if err := validate.Var(email, "required,email"); err != nil {
		return PasswordResetTicket{}, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	throttle, err := s.lockouts.RecordFailure(ctx, "reset:"+email, now, s.cfg.ResetRequestLimit+1, s.cfg.ResetRequestWindow)
	if err != nil {
		return PasswordResetTicket{}, fmt.Errorf("record reset request: %w", err)
	}
	if throttle.LockedAt(now) {
		return PasswordResetTicket{}, domain.ErrRateLimited
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			appLogger().InfoContext(ctx, "password reset requested for unknown email",
				"operation", "forgot_password",
				"outcome", "skipped",
			)
			return PasswordResetTicket{}, nil
		}
		return PasswordResetTicket{}, fmt.Errorf("lookup account: %w", err)
	}

	token, claims, err := s.tokens.Issue(ports.TokenKindReset, ports.TokenClaims{
		Subject: account.AccountID,
		Email:   account.Email,
	})
	if err != nil {
		return PasswordResetTicket{}, fmt.Errorf("issue reset token: %w", err)
	}
	ticket := PasswordResetTicket{
		Token:     token,
		Link:      buildResetLink(s.cfg.AppURL, token),
		ExpiresAt: claims.ExpiresAt,
	}

	s.enqueue(ctx, s.newEvent(eventTypePasswordResetRequested, account.AccountID.String(), map[string]any{
		"user_id":    account.AccountID.String(),
		"username":   account.Username,
		"email":      account.Email,
		"reset_link": ticket.Link,
		"expires_at": ticket.ExpiresAt,
	}))
	return ticket, nil
}

// ResetPassword replaces the password of the reset token's subject.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	req.Token = strings.TrimSpace(req.Token)
	if err := validateRequest(req); err != nil {
		return err
	}

	claims, err := s.tokens.Verify(ports.TokenKindReset, req.Token)
	if err != nil {
		return err
	}
	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return domain.ErrUnauthorized
		}
		return fmt.Errorf("load account: %w", err)
	}
	return s.replacePassword(ctx, account, req.Password, "reset")
}

func (s *Service) replacePassword(ctx context.Context, account domain.Account, password, via string) error {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.nowFn()
	if err := s.accounts.UpdatePassword(ctx, account.AccountID, passwordHash, now); err != nil {
		return err
	}
	s.enqueue(ctx, s.newEvent(eventTypePasswordChanged, account.AccountID.String(), map[string]any{
		"user_id":    account.AccountID.String(),
		"via":        via,
		"changed_at": now,
	}))
	return nil
}
