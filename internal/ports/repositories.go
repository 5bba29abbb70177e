package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
)

// CreateAccountParams captures sign-up inputs after hashing.
type CreateAccountParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         domain.Role
	CreatedAt    time.Time
}

// AccountRepository defines persistence operations for accounts.
// Create and delete take an outbox event so the write and its event commit together.
type AccountRepository interface {
	CreateWithOutboxTx(ctx context.Context, params CreateAccountParams, event OutboxEvent) (domain.Account, error)
	GetByID(ctx context.Context, accountID uuid.UUID) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.Account, int, error)
	UpdatePhone(ctx context.Context, accountID uuid.UUID, phone string, at time.Time) (domain.Account, error)
	UpdatePassword(ctx context.Context, accountID uuid.UUID, passwordHash string, at time.Time) error
	UpdateRole(ctx context.Context, accountID uuid.UUID, role domain.Role, at time.Time) (domain.Account, error)
	// DeleteWithOutboxTx removes the account together with the posts it authored.
	DeleteWithOutboxTx(ctx context.Context, accountID uuid.UUID, event OutboxEvent) error
}

type CategoryUpdate struct {
	Name        *string
	Description *string
}

type CategoryRepository interface {
	Create(ctx context.Context, category domain.Category) (domain.Category, error)
	GetByID(ctx context.Context, categoryID uuid.UUID) (domain.Category, error)
	GetByName(ctx context.Context, name string) (domain.Category, error)
	ListActive(ctx context.Context, page domain.PageRequest) ([]domain.Category, int, error)
	Update(ctx context.Context, categoryID uuid.UUID, update CategoryUpdate, at time.Time) (domain.Category, error)
	Deactivate(ctx context.Context, categoryID uuid.UUID, at time.Time) error
}

type PostUpdate struct {
	Title *string
	Body  *string
}

type PostRepository interface {
	CreateWithOutboxTx(ctx context.Context, post domain.Post, event OutboxEvent) (domain.Post, error)
	GetByID(ctx context.Context, postID uuid.UUID) (domain.PostDetail, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.PostDetail, int, error)
	Update(ctx context.Context, postID uuid.UUID, update PostUpdate, at time.Time) (domain.Post, error)
	Delete(ctx context.Context, postID uuid.UUID) error
}

// OutboxEvent is the write-side event payload prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the publish-retry workflow for domain events.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
