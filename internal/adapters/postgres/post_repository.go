package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

const postDetailColumns = "p.*, a.username AS author_username, a.email AS author_email, c.name AS category_name"

type postRepository struct {
	db *gorm.DB
}

func (r *postRepository) CreateWithOutboxTx(ctx context.Context, post domain.Post, event ports.OutboxEvent) (domain.Post, error) {
	rec := postModel{
		PostID:     post.PostID,
		AuthorID:   post.AuthorID,
		CategoryID: post.CategoryID,
		Title:      post.Title,
		Body:       post.Body,
		CreatedAt:  post.CreatedAt,
		UpdatedAt:  post.UpdatedAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			if isForeignKeyViolation(err) {
				return notFound(gorm.ErrRecordNotFound, "user or category")
			}
			return err
		}
		outbox := newOutboxModel(event)
		return tx.Create(&outbox).Error
	})
	if err != nil {
		return domain.Post{}, err
	}
	return toDomainPost(rec), nil
}

func (r *postRepository) details(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts AS p").
		Select(postDetailColumns).
		Joins("LEFT JOIN accounts AS a ON a.account_id = p.author_id").
		Joins("LEFT JOIN categories AS c ON c.category_id = p.category_id")
}

func (r *postRepository) GetByID(ctx context.Context, postID uuid.UUID) (domain.PostDetail, error) {
	var row postDetailRow
	if err := r.details(ctx).Where("p.post_id = ?", postID).Take(&row).Error; err != nil {
		return domain.PostDetail{}, notFound(err, "post")
	}
	return toDomainPostDetail(row), nil
}

func (r *postRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.PostDetail, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&postModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []postDetailRow
	if err := r.details(ctx).
		Order("p.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.PostDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainPostDetail(row))
	}
	return out, int(total), nil
}

func (r *postRepository) Update(ctx context.Context, postID uuid.UUID, update ports.PostUpdate, at time.Time) (domain.Post, error) {
	fields := map[string]any{"updated_at": at}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Body != nil {
		fields["body"] = *update.Body
	}

	var rows []postModel
	res := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("post_id = ?", postID).
		Updates(fields)
	if res.Error != nil {
		return domain.Post{}, res.Error
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return domain.Post{}, notFound(gorm.ErrRecordNotFound, "post")
	}
	return toDomainPost(rows[0]), nil
}

func (r *postRepository) Delete(ctx context.Context, postID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&postModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "post")
	}
	return nil
}
