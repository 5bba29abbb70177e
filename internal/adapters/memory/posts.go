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

type postRepository struct {
	store *Store
}

func (r *postRepository) CreateWithOutboxTx(_ context.Context, post domain.Post, event ports.OutboxEvent) (domain.Post, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[post.AuthorID]; !ok {
		return domain.Post{}, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	if _, ok := s.categories[post.CategoryID]; !ok {
		return domain.Post{}, fmt.Errorf("%w: category not found", domain.ErrNotFound)
	}
	if post.PostID == uuid.Nil {
		post.PostID = uuid.New()
	}
	s.posts[post.PostID] = post
	s.enqueueLocked(event)
	return post, nil
}

func (r *postRepository) GetByID(_ context.Context, postID uuid.UUID) (domain.PostDetail, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	post, ok := r.store.posts[postID]
	if !ok {
		return domain.PostDetail{}, fmt.Errorf("%w: post not found", domain.ErrNotFound)
	}
	return r.detailLocked(post), nil
}

func (r *postRepository) List(_ context.Context, page domain.PageRequest) ([]domain.PostDetail, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	all := make([]domain.Post, 0, len(r.store.posts))
	for _, post := range r.store.posts {
		all = append(all, post)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	paged := window(all, page)
	out := make([]domain.PostDetail, 0, len(paged))
	for _, post := range paged {
		out = append(out, r.detailLocked(post))
	}
	return out, len(all), nil
}

func (r *postRepository) Update(_ context.Context, postID uuid.UUID, update ports.PostUpdate, at time.Time) (domain.Post, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return domain.Post{}, fmt.Errorf("%w: post not found", domain.ErrNotFound)
	}
	if update.Title != nil {
		post.Title = *update.Title
	}
	if update.Body != nil {
		post.Body = *update.Body
	}
	post.UpdatedAt = at
	s.posts[postID] = post
	return post, nil
}

func (r *postRepository) Delete(_ context.Context, postID uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return fmt.Errorf("%w: post not found", domain.ErrNotFound)
	}
	delete(s.posts, postID)
	return nil
}

func (r *postRepository) detailLocked(post domain.Post) domain.PostDetail {
	detail := domain.PostDetail{Post: post}
	if author, ok := r.store.accounts[post.AuthorID]; ok {
		detail.AuthorUsername = author.Username
		detail.AuthorEmail = author.Email
	}
	if category, ok := r.store.categories[post.CategoryID]; ok {
		detail.CategoryName = category.Name
	}
	return detail
}
