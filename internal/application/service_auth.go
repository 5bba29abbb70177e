package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (AccountView, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = domain.NormalizeEmail(req.Email)
	if err := validateRequest(req); err != nil {
		return AccountView{}, err
	}
	username, email := req.Username, req.Email

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AccountView{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	event := s.newEvent(eventTypeUserRegistered, email, map[string]any{
		"user_id":       nil,
		"username":      username,
		"email":         email,
		"registered_at": now,
	})
	account, err := s.accounts.CreateWithOutboxTx(ctx, ports.CreateAccountParams{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
	}, event)
	if err != nil {
		return AccountView{}, err
	}

	appLogger().InfoContext(ctx, "account registered",
		"operation", "sign_up",
		"outcome", "success",
		"user_id", account.AccountID,
	)
	return NewAccountView(account), nil
}

// Login verifies credentials and mints a session token. Lockout is keyed by the
// submitted email whether or not an account exists, so it reveals nothing either.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return LoginResponse{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	lockKey := "login:" + domain.NormalizeEmail(req.Email)
	now := s.nowFn()

	state, err := s.lockouts.Get(ctx, lockKey)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("read lockout: %w", err)
	}
	if state.LockedAt(now) {
		return LoginResponse{}, domain.ErrAccountLocked
	}

	account, err := s.verifier.Verify(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			if _, lockErr := s.lockouts.RecordFailure(ctx, lockKey, now, s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration); lockErr != nil {
				appLogger().WarnContext(ctx, "failed to record login failure",
					"operation", "login",
					"outcome", "failure",
					"error", lockErr,
				)
			}
		}
		return LoginResponse{}, err
	}

	if err := s.lockouts.Clear(ctx, lockKey); err != nil {
		appLogger().WarnContext(ctx, "failed to clear lockout",
			"operation", "login",
			"outcome", "failure",
			"error", err,
		)
	}

	token, claims, err := s.tokens.Issue(ports.TokenKindSession, ports.TokenClaims{
		Subject: account.AccountID,
		Email:   account.Email,
		Role:    account.Role,
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("issue session token: %w", err)
	}

	return LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		User:      NewAccountView(account),
	}, nil
}

// VerifySessionToken decodes a session token without touching storage.
func (s *Service) VerifySessionToken(_ context.Context, token string) (ports.TokenClaims, error) {
	if strings.TrimSpace(token) == "" {
		return ports.TokenClaims{}, domain.ErrUnauthorized
	}
	return s.tokens.Verify(ports.TokenKindSession, token)
}
