package application_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/domain"
)

func strPtr(v string) *string { return &v }

func TestCategoryLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateCategory(ctx, application.CreateCategoryRequest{Name: "Tech", Description: "all things tech"})
	require.NoError(t, err)
	assert.Equal(t, "tech", created.Name)
	assert.True(t, created.Active)

	_, err = f.service.CreateCategory(ctx, application.CreateCategoryRequest{Name: "TECH", Description: "duplicate name"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := f.service.UpdateCategory(ctx, created.ID, application.UpdateCategoryRequest{Description: strPtr("gadgets and code")})
	require.NoError(t, err)
	assert.Equal(t, "gadgets and code", updated.Description)

	_, err = f.service.UpdateCategory(ctx, created.ID, application.UpdateCategoryRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	page, err := f.service.ListCategories(ctx, domain.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalDocs)

	require.NoError(t, f.service.DeleteCategory(ctx, created.ID))
	_, err = f.service.GetCategory(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err = f.service.ListCategories(ctx, domain.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, page.TotalDocs)

	err = f.service.DeleteCategory(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostCreateResolvesCategoryByName(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.signUp(t, "alice", "a@x.com", "pw123456")

	post, err := f.service.CreatePost(ctx, alice.ID, application.CreatePostRequest{
		Category: "Travel",
		Title:    "First trip",
		Body:     "We went to the coast.",
	})
	require.NoError(t, err)
	assert.Equal(t, "travel", post.Category.Name)
	assert.Equal(t, "alice", post.User.Username)
	assert.Contains(t, f.eventTypes(), "post.created")

	second, err := f.service.CreatePost(ctx, alice.ID, application.CreatePostRequest{
		Category: "travel",
		Title:    "Second trip",
		Body:     "Mountains this time.",
	})
	require.NoError(t, err)
	assert.Equal(t, post.Category.ID, second.Category.ID)

	list, err := f.service.ListPosts(ctx, domain.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalDocs)

	require.NoError(t, f.service.DeleteCategory(ctx, post.Category.ID))
	_, err = f.service.CreatePost(ctx, alice.ID, application.CreatePostRequest{
		Category: "travel",
		Title:    "Third trip",
		Body:     "Into the desert.",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPostOwnership(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.signUp(t, "alice", "a@x.com", "pw123456")
	bob := f.signUp(t, "bobby", "b@x.com", "pw123456")

	post, err := f.service.CreatePost(ctx, alice.ID, application.CreatePostRequest{
		Category: "news",
		Title:    "Breaking news",
		Body:     "Something happened today.",
	})
	require.NoError(t, err)

	_, err = f.service.UpdatePost(ctx, bob.ID, post.ID, application.UpdatePostRequest{Title: strPtr("Hijacked title")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.service.DeletePost(ctx, bob.ID, post.ID), domain.ErrNotFound)

	updated, err := f.service.UpdatePost(ctx, alice.ID, post.ID, application.UpdatePostRequest{Title: strPtr("Updated news")})
	require.NoError(t, err)
	assert.Equal(t, "Updated news", updated.Title)

	require.NoError(t, f.service.DeletePost(ctx, alice.ID, post.ID))
	_, err = f.service.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
