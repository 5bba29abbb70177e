package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dkrest1/content-management-system-api/internal/ports"
)

// LockoutStore keeps failure counters in process memory.
type LockoutStore struct {
	mu      sync.Mutex
	state   map[string]ports.LockoutState
	started map[string]time.Time
}

func NewLockoutStore() *LockoutStore {
	return &LockoutStore{
		state:   make(map[string]ports.LockoutState),
		started: make(map[string]time.Time),
	}
}

func (s *LockoutStore) Get(_ context.Context, key string) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[key], nil
}

func (s *LockoutStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state[key]
	started, counting := s.started[key]
	switch {
	case st.LockedUntil != nil && !st.LockedAt(now):
		st = ports.LockoutState{}
		counting = false
	case st.LockedUntil == nil && counting && !now.Before(started.Add(lockoutWindow)):
		st = ports.LockoutState{}
		counting = false
	}
	if !counting {
		s.started[key] = now
	}
	st.FailedCount++
	if st.FailedCount >= threshold {
		lockedUntil := now.Add(lockoutWindow).UTC()
		st.LockedUntil = &lockedUntil
	}
	s.state[key] = st
	return st, nil
}

func (s *LockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, key)
	delete(s.started, key)
	return nil
}
