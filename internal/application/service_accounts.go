package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
)

func (s *Service) Me(ctx context.Context, accountID uuid.UUID) (AccountView, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return AccountView{}, err
	}
	return NewAccountView(account), nil
}

func (s *Service) UpdateProfile(ctx context.Context, accountID uuid.UUID, req UpdateProfileRequest) (AccountView, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateRequest(req); err != nil {
		return AccountView{}, err
	}
	phone := req.Phone
	account, err := s.accounts.UpdatePhone(ctx, accountID, phone, s.nowFn())
	if err != nil {
		return AccountView{}, err
	}
	return NewAccountView(account), nil
}

// ChangePassword requires the current password. Outstanding session tokens stay valid.
func (s *Service) ChangePassword(ctx context.Context, accountID uuid.UUID, req ChangePasswordRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !s.hasher.Matches(account.PasswordHash, req.OldPassword) {
		return domain.ErrIncorrectPassword
	}
	return s.replacePassword(ctx, account, req.NewPassword, "change")
}

func (s *Service) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	event := s.newEvent(eventTypeUserDeleted, accountID.String(), map[string]any{
		"user_id":    accountID.String(),
		"deleted_at": s.nowFn(),
	})
	if err := s.accounts.DeleteWithOutboxTx(ctx, accountID, event); err != nil {
		return err
	}
	appLogger().InfoContext(ctx, "account deleted",
		"operation", "delete_account",
		"outcome", "success",
		"user_id", accountID,
	)
	return nil
}

func (s *Service) ListAccounts(ctx context.Context, page domain.PageRequest) (domain.Page[AccountView], error) {
	accounts, total, err := s.accounts.List(ctx, page)
	if err != nil {
		return domain.Page[AccountView]{}, err
	}
	return domain.MapPage(domain.NewPage(accounts, total, page), NewAccountView), nil
}

// PromoteToAdmin sets the role of the account with email to admin.
// The promoted account keeps its old role until it logs in again.
func (s *Service) PromoteToAdmin(ctx context.Context, actorID uuid.UUID, rawEmail string) (AccountView, error) {
	email := domain.NormalizeEmail(rawEmail)
	if email == "" {
		return AccountView{}, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return AccountView{}, err
	}
	if account.Role == domain.RoleAdmin {
		return NewAccountView(account), nil
	}

	updated, err := s.accounts.UpdateRole(ctx, account.AccountID, domain.RoleAdmin, s.nowFn())
	if err != nil {
		return AccountView{}, err
	}
	s.enqueue(ctx, s.newEvent(eventTypeUserPromoted, updated.AccountID.String(), map[string]any{
		"user_id":     updated.AccountID.String(),
		"promoted_by": actorID.String(),
		"role":        updated.Role.String(),
		"promoted_at": updated.UpdatedAt,
	}))
	appLogger().InfoContext(ctx, "account promoted to admin",
		"operation", "promote_to_admin",
		"outcome", "success",
		"user_id", updated.AccountID,
		"actor_id", actorID,
	)
	return NewAccountView(updated), nil
}
