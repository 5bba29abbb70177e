package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

type accountRepository struct {
	store *Store
}

func (r *accountRepository) CreateWithOutboxTx(_ context.Context, params ports.CreateAccountParams, event ports.OutboxEvent) (domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == params.Email {
			return domain.Account{}, fmt.Errorf("%w: user with email already exists", domain.ErrConflict)
		}
		if existing.Username == params.Username {
			return domain.Account{}, fmt.Errorf("%w: username is taken", domain.ErrConflict)
		}
	}

	account := domain.Account{
		AccountID:    uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	s.accounts[account.AccountID] = account
	event.PartitionKey = account.AccountID.String()
	event.Payload = withAccountID(event.Payload, account.AccountID)
	s.enqueueLocked(event)
	return account, nil
}

func (r *accountRepository) GetByID(_ context.Context, accountID uuid.UUID) (domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	account, ok := r.store.accounts[accountID]
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	return account, nil
}

func (r *accountRepository) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, account := range r.store.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return domain.Account{}, fmt.Errorf("%w: user not found", domain.ErrNotFound)
}

func (r *accountRepository) List(_ context.Context, page domain.PageRequest) ([]domain.Account, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	all := make([]domain.Account, 0, len(r.store.accounts))
	for _, account := range r.store.accounts {
		all = append(all, account)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Username < all[j].Username
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return window(all, page), len(all), nil
}

func (r *accountRepository) UpdatePhone(_ context.Context, accountID uuid.UUID, phone string, at time.Time) (domain.Account, error) {
	return r.mutate(accountID, func(a *domain.Account) {
		a.Phone = phone
		a.UpdatedAt = at
	})
}

func (r *accountRepository) UpdatePassword(_ context.Context, accountID uuid.UUID, passwordHash string, at time.Time) error {
	_, err := r.mutate(accountID, func(a *domain.Account) {
		a.PasswordHash = passwordHash
		a.UpdatedAt = at
	})
	return err
}

func (r *accountRepository) UpdateRole(_ context.Context, accountID uuid.UUID, role domain.Role, at time.Time) (domain.Account, error) {
	return r.mutate(accountID, func(a *domain.Account) {
		a.Role = role
		a.UpdatedAt = at
	})
}

func (r *accountRepository) DeleteWithOutboxTx(_ context.Context, accountID uuid.UUID, event ports.OutboxEvent) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	delete(s.accounts, accountID)
	for id, post := range s.posts {
		if post.AuthorID == accountID {
			delete(s.posts, id)
		}
	}
	s.enqueueLocked(event)
	return nil
}

func (r *accountRepository) mutate(accountID uuid.UUID, fn func(*domain.Account)) (domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	fn(&account)
	s.accounts[accountID] = account
	return account, nil
}
