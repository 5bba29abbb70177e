package application

import (
	"context"
	"fmt"
	"time"

	"github.com/dkrest1/content-management-system-api/internal/ports"
)

// Config carries use-case policy knobs resolved by bootstrap.
type Config struct {
	AppURL               string
	FailedLoginThreshold int
	LockoutDuration      time.Duration
	ResetRequestLimit    int
	ResetRequestWindow   time.Duration
}

type Service struct {
	cfg        Config
	accounts   ports.AccountRepository
	categories ports.CategoryRepository
	posts      ports.PostRepository
	outbox     ports.OutboxRepository
	lockouts   ports.LockoutStore
	hasher     ports.PasswordHasher
	tokens     ports.TokenService
	verifier   *CredentialVerifier
	probe      func(context.Context) error
	nowFn      func() time.Time
}

type Dependencies struct {
	Config     Config
	Accounts   ports.AccountRepository
	Categories ports.CategoryRepository
	Posts      ports.PostRepository
	Outbox     ports.OutboxRepository
	Lockouts   ports.LockoutStore
	Hasher     ports.PasswordHasher
	Tokens     ports.TokenService
	// Probe, when set, backs Ready with a storage round trip.
	Probe func(context.Context) error
}

func NewService(deps Dependencies) (*Service, error) {
	cfg := deps.Config
	if cfg.FailedLoginThreshold <= 0 {
		cfg.FailedLoginThreshold = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.ResetRequestLimit <= 0 {
		cfg.ResetRequestLimit = 5
	}
	if cfg.ResetRequestWindow <= 0 {
		cfg.ResetRequestWindow = time.Hour
	}

	verifier, err := NewCredentialVerifier(deps.Accounts, deps.Hasher)
	if err != nil {
		return nil, fmt.Errorf("init credential verifier: %w", err)
	}

	return &Service{
		cfg:        cfg,
		accounts:   deps.Accounts,
		categories: deps.Categories,
		posts:      deps.Posts,
		outbox:     deps.Outbox,
		lockouts:   deps.Lockouts,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		verifier:   verifier,
		probe:      deps.Probe,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the service clock; tests use it to pin timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	return s
}

// Ready reports whether the service is wired and its storage answers.
func (s *Service) Ready(ctx context.Context) bool {
	if s.accounts == nil || s.tokens == nil || s.hasher == nil {
		return false
	}
	if s.probe == nil {
		return true
	}
	return s.probe(ctx) == nil
}
