package store

import (
	"sync"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

// identityLocks serializes operations per document identity. The
// lifecycle's load-verify-mint-upsert sequence must not race with a
// concurrent call for the same identity; different identities proceed
// in parallel.
type identityLocks struct {
	mu    sync.Mutex
	locks map[model.DocumentIdentity]*sync.Mutex
}

func newIdentityLocks() *identityLocks {
	return &identityLocks{locks: map[model.DocumentIdentity]*sync.Mutex{}}
}

// Lock acquires the mutex for an identity and returns its unlock func
func (l *identityLocks) Lock(identity model.DocumentIdentity) func() {
	l.mu.Lock()
	m, ok := l.locks[identity]
	if !ok {
		m = &sync.Mutex{}
		l.locks[identity] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
