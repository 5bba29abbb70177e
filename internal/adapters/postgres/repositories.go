package postgres

import (
	"gorm.io/gorm"

	"github.com/dkrest1/content-management-system-api/internal/ports"
)

type Repositories struct {
	Accounts   ports.AccountRepository
	Categories ports.CategoryRepository
	Posts      ports.PostRepository
	Outbox     ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Accounts:   &accountRepository{db: db},
		Categories: &categoryRepository{db: db},
		Posts:      &postRepository{db: db},
		Outbox:     &outboxRepository{db: db},
	}
}
