package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Presence maps an account to the connection currently bound to it.
// It is bookkeeping only; nothing reads it to make authorization decisions.
type Presence struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]string
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[uuid.UUID]string)}
}

// Add binds accountID to connID, replacing any earlier connection.
func (p *Presence) Add(accountID uuid.UUID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[accountID] = connID
}

// Remove drops the entry only while it still points at connID, so a stale
// disconnect cannot evict a newer connection for the same account.
func (p *Presence) Remove(accountID uuid.UUID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conns[accountID] == connID {
		delete(p.conns, accountID)
	}
}

func (p *Presence) Lookup(accountID uuid.UUID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.conns[accountID]
	return connID, ok
}

func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}
