package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.sql", names[0])
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "accounts_email_key"`)))
	assert.False(t, isUniqueViolation(nil))
	assert.True(t, isForeignKeyViolation(gorm.ErrForeignKeyViolated))

	err := notFound(gorm.ErrRecordNotFound, "post")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "resource not found: post not found")

	other := errors.New("boom")
	assert.Same(t, other, notFound(other, "post"))
}

func TestMappersKeepOptionalFields(t *testing.T) {
	t.Parallel()

	phone := "08012345678"
	account := toDomainAccount(accountModel{Username: "alice", Phone: &phone, Role: "admin"})
	assert.Equal(t, phone, account.Phone)
	assert.Equal(t, domain.RoleAdmin, account.Role)
	assert.Empty(t, toDomainAccount(accountModel{}).Phone)

	assert.Nil(t, nullableString("   "))
	assert.Equal(t, "x", *nullableString(" x "))

	rec := newOutboxModel(ports.OutboxEvent{EventID: uuid.New(), EventType: "user.deleted"})
	assert.Equal(t, "{}", rec.Payload)
}

// openTestDB connects to TEST_DATABASE_URL and skips when it is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, dsn, 4)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestRepositoriesAgainstPostgres(t *testing.T) {
	db := openTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	suffix := uuid.NewString()[:8]

	account, err := repos.Accounts.CreateWithOutboxTx(ctx, ports.CreateAccountParams{
		Username:     "pg" + suffix,
		Email:        fmt.Sprintf("pg-%s@example.com", suffix),
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    now,
	}, ports.OutboxEvent{EventID: uuid.New(), EventType: "user.registered", Payload: []byte(`{}`), OccurredAt: now})
	require.NoError(t, err)

	_, err = repos.Accounts.CreateWithOutboxTx(ctx, ports.CreateAccountParams{
		Username:     "other" + suffix,
		Email:        account.Email,
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    now,
	}, ports.OutboxEvent{EventID: uuid.New(), EventType: "user.registered", OccurredAt: now})
	require.ErrorIs(t, err, domain.ErrConflict)

	promoted, err := repos.Accounts.UpdateRole(ctx, account.AccountID, domain.RoleAdmin, now)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	category, err := repos.Categories.Create(ctx, domain.Category{Name: "cat" + suffix, Description: "desc", Active: true, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	post, err := repos.Posts.CreateWithOutboxTx(ctx, domain.Post{
		AuthorID:   account.AccountID,
		CategoryID: category.CategoryID,
		Title:      "Hello there",
		Body:       "A body long enough",
		CreatedAt:  now,
		UpdatedAt:  now,
	}, ports.OutboxEvent{EventID: uuid.New(), EventType: "post.created", PartitionKey: account.AccountID.String(), OccurredAt: now})
	require.NoError(t, err)

	detail, err := repos.Posts.GetByID(ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, account.Username, detail.AuthorUsername)
	assert.Equal(t, category.Name, detail.CategoryName)

	require.NoError(t, repos.Accounts.DeleteWithOutboxTx(ctx, account.AccountID,
		ports.OutboxEvent{EventID: uuid.New(), EventType: "user.deleted", PartitionKey: account.AccountID.String(), OccurredAt: now}))
	_, err = repos.Posts.GetByID(ctx, post.PostID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	claimed, err := repos.Outbox.ClaimUnpublished(ctx, 100, "claim-"+suffix, now.Add(time.Minute))
	require.NoError(t, err)
	for _, rec := range claimed {
		require.NoError(t, repos.Outbox.MarkPublished(ctx, rec.OutboxID, "claim-"+suffix, now))
	}
}
