// Package session persists per-identity conversational state. Mutations for
// one identity are serialized through Lock; distinct identities proceed in
// parallel.
package session

import (
	"context"
	"sync"

	"github.com/crmline/intakebot/internal/domain"
)

// Store is the session persistence contract. Get returns a fresh menu-state
// session when nothing is stored for the identity.
type Store interface {
	Get(ctx context.Context, identity domain.Identity) (domain.Session, error)
	Put(ctx context.Context, sess domain.Session) error
	Clear(ctx context.Context, telegramID int64) error
	// Lock serializes event processing for one identity; the returned
	// function releases the lock.
	Lock(telegramID int64) func()
}

// keyedMutex hands out one mutex per key and frees entries once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*lockEntry)}
}

func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
