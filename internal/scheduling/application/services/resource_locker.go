package services

import (
	"sync"

	"github.com/google/uuid"
)

// ResourceLocker serializes booking work per resource for storage backends
// without advisory locks. Postgres deployments rely on
// pg_advisory_xact_lock instead; this in-process locker covers the SQLite
// path, where a single process owns the database file.
type ResourceLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewResourceLocker creates an empty locker.
func NewResourceLocker() *ResourceLocker {
	return &ResourceLocker{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// Lock acquires the mutex for one resource, creating it on first use.
func (l *ResourceLocker) Lock(resourceID uuid.UUID) {
	l.mu.Lock()
	m, ok := l.locks[resourceID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[resourceID] = m
	}
	l.mu.Unlock()

	m.Lock()
}

// Unlock releases the mutex for one resource.
func (l *ResourceLocker) Unlock(resourceID uuid.UUID) {
	l.mu.Lock()
	m := l.locks[resourceID]
	l.mu.Unlock()

	if m != nil {
		m.Unlock()
	}
}
