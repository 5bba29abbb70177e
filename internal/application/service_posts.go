package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, req CreatePostRequest) (PostView, error) {
	req = req.normalized()
	if err := validateRequest(req); err != nil {
		return PostView{}, err
	}
	title, body := req.Title, req.Body
	category, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return PostView{}, err
	}

	now := s.nowFn()
	post := domain.Post{
		PostID:     uuid.New(),
		AuthorID:   authorID,
		CategoryID: category.CategoryID,
		Title:      title,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	event := s.newEvent(eventTypePostCreated, post.PostID.String(), map[string]any{
		"post_id":     post.PostID.String(),
		"user_id":     authorID.String(),
		"category_id": category.CategoryID.String(),
		"title":       title,
		"created_at":  now,
	})
	if _, err := s.posts.CreateWithOutboxTx(ctx, post, event); err != nil {
		return PostView{}, err
	}
	return s.GetPost(ctx, post.PostID)
}

func (s *Service) GetPost(ctx context.Context, postID uuid.UUID) (PostView, error) {
	detail, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return PostView{}, err
	}
	return NewPostView(detail), nil
}

func (s *Service) ListPosts(ctx context.Context, page domain.PageRequest) (domain.Page[PostView], error) {
	posts, total, err := s.posts.List(ctx, page)
	if err != nil {
		return domain.Page[PostView]{}, err
	}
	return domain.MapPage(domain.NewPage(posts, total, page), NewPostView), nil
}

func (s *Service) UpdatePost(ctx context.Context, actorID, postID uuid.UUID, req UpdatePostRequest) (PostView, error) {
	req = req.normalized()
	if err := validateRequest(req); err != nil {
		return PostView{}, err
	}
	update := ports.PostUpdate{Title: req.Title, Body: req.Body}
	if update.Title == nil && update.Body == nil {
		return PostView{}, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	if err := s.requireOwnPost(ctx, actorID, postID); err != nil {
		return PostView{}, err
	}
	if _, err := s.posts.Update(ctx, postID, update, s.nowFn()); err != nil {
		return PostView{}, err
	}
	return s.GetPost(ctx, postID)
}

func (s *Service) DeletePost(ctx context.Context, actorID, postID uuid.UUID) error {
	if err := s.requireOwnPost(ctx, actorID, postID); err != nil {
		return err
	}
	return s.posts.Delete(ctx, postID)
}

// requireOwnPost reports someone else's post as missing.
func (s *Service) requireOwnPost(ctx context.Context, actorID, postID uuid.UUID) error {
	detail, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if detail.AuthorID != actorID {
		return fmt.Errorf("%w: post not found", domain.ErrNotFound)
	}
	return nil
}
