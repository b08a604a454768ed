package session

import (
	"context"
	"sync"

	"github.com/crmline/intakebot/internal/domain"
)

// MemoryStore is an in-process Store used by tests and local runs without
// Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
	locks    *keyedMutex
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]domain.Session),
		locks:    newKeyedMutex(),
	}
}

func (s *MemoryStore) Get(_ context.Context, identity domain.Identity) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[identity.TelegramID]
	if !ok {
		return domain.NewSession(identity), nil
	}
	sess.Identity = identity
	return sess, nil
}

func (s *MemoryStore) Put(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Identity.TelegramID] = sess
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, telegramID)
	return nil
}

func (s *MemoryStore) Lock(telegramID int64) func() {
	return s.locks.Lock(telegramID)
}
