package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

type accountRepository struct {
	db *gorm.DB
}

func (r *accountRepository) CreateWithOutboxTx(ctx context.Context, params ports.CreateAccountParams, event ports.OutboxEvent) (domain.Account, error) {
	var result domain.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAccountUnique(tx, params.Email, params.Username); err != nil {
			return err
		}

		rec := accountModel{
			Username:     params.Username,
			Email:        params.Email,
			PasswordHash: params.PasswordHash,
			Role:         params.Role.String(),
			CreatedAt:    params.CreatedAt,
			UpdatedAt:    params.CreatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: user with email already exists", domain.ErrConflict)
			}
			return err
		}

		payload := event.Payload
		if len(payload) == 0 {
			payload = []byte(`{}`)
		}
		var payloadObj map[string]any
		if err := json.Unmarshal(payload, &payloadObj); err == nil {
			payloadObj["user_id"] = rec.AccountID.String()
			if adjusted, mErr := json.Marshal(payloadObj); mErr == nil {
				payload = adjusted
			}
		}
		event.Payload = payload
		event.PartitionKey = rec.AccountID.String()

		outbox := newOutboxModel(event)
		if err := tx.Create(&outbox).Error; err != nil {
			return err
		}

		result = toDomainAccount(rec)
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return result, nil
}

// checkAccountUnique reports which unique field clashes so the caller gets a
// precise conflict message; the unique indexes still guard races.
func checkAccountUnique(tx *gorm.DB, email, username string) error {
	var count int64
	if err := tx.Model(&accountModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: user with email already exists", domain.ErrConflict)
	}
	if err := tx.Model(&accountModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: username is taken", domain.ErrConflict)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, accountID uuid.UUID) (domain.Account, error) {
	var rec accountModel
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Take(&rec).Error; err != nil {
		return domain.Account{}, notFound(err, "user")
	}
	return toDomainAccount(rec), nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	var rec accountModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		return domain.Account{}, notFound(err, "user")
	}
	return toDomainAccount(rec), nil
}

func (r *accountRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.Account, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&accountModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []accountModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("username ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAccount(row))
	}
	return out, int(total), nil
}

func (r *accountRepository) UpdatePhone(ctx context.Context, accountID uuid.UUID, phone string, at time.Time) (domain.Account, error) {
	return r.update(ctx, accountID, map[string]any{
		"phone":      nullableString(phone),
		"updated_at": at,
	})
}

func (r *accountRepository) UpdatePassword(ctx context.Context, accountID uuid.UUID, passwordHash string, at time.Time) error {
	_, err := r.update(ctx, accountID, map[string]any{
		"password_hash": passwordHash,
		"updated_at":    at,
	})
	return err
}

func (r *accountRepository) UpdateRole(ctx context.Context, accountID uuid.UUID, role domain.Role, at time.Time) (domain.Account, error) {
	return r.update(ctx, accountID, map[string]any{
		"role":       role.String(),
		"updated_at": at,
	})
}

// update applies fields and returns the row as written.
func (r *accountRepository) update(ctx context.Context, accountID uuid.UUID, fields map[string]any) (domain.Account, error) {
	var rows []accountModel
	res := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("account_id = ?", accountID).
		Updates(fields)
	if res.Error != nil {
		return domain.Account{}, res.Error
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return domain.Account{}, notFound(gorm.ErrRecordNotFound, "user")
	}
	return toDomainAccount(rows[0]), nil
}

// DeleteWithOutboxTx relies on ON DELETE CASCADE to remove the account's posts.
func (r *accountRepository) DeleteWithOutboxTx(ctx context.Context, accountID uuid.UUID, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("account_id = ?", accountID).Delete(&accountModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "user")
		}
		outbox := newOutboxModel(event)
		if err := tx.Create(&outbox).Error; err != nil {
			return fmt.Errorf("write outbox: %w", err)
		}
		return nil
	})
}
