// Package memory holds process-local implementations of the persistence ports.
// It backs STORAGE_DRIVER=memory and the application and HTTP tests.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

// Store is a single-lock database; multi-entity writes are atomic under mu.
type Store struct {
	mu         sync.RWMutex
	accounts   map[uuid.UUID]domain.Account
	categories map[uuid.UUID]domain.Category
	posts      map[uuid.UUID]domain.Post
	outbox     map[uuid.UUID]*ports.OutboxRecord
}

type Repositories struct {
	Accounts   ports.AccountRepository
	Categories ports.CategoryRepository
	Posts      ports.PostRepository
	Outbox     ports.OutboxRepository
}

func NewStore() *Store {
	return &Store{
		accounts:   make(map[uuid.UUID]domain.Account),
		categories: make(map[uuid.UUID]domain.Category),
		posts:      make(map[uuid.UUID]domain.Post),
		outbox:     make(map[uuid.UUID]*ports.OutboxRecord),
	}
}

func NewRepositories(store *Store) Repositories {
	return Repositories{
		Accounts:   &accountRepository{store: store},
		Categories: &categoryRepository{store: store},
		Posts:      &postRepository{store: store},
		Outbox:     &outboxRepository{store: store},
	}
}

// OutboxSnapshot returns copies of all outbox records ordered by creation time.
func (s *Store) OutboxSnapshot() []ports.OutboxRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.OutboxRecord, 0, len(s.outbox))
	for _, rec := range s.outbox {
		out = append(out, *rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) enqueueLocked(event ports.OutboxEvent) {
	payload := append([]byte(nil), event.Payload...)
	s.outbox[event.EventID] = &ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAt,
	}
}

func window[T any](items []T, page domain.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
