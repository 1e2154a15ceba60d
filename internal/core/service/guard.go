package service

import "sync"

// Guard gives one caller at a time exclusive access to a VaultStore.
//
// Acquisition blocks until the current holder finishes and cannot be
// cancelled. The lock is released on every exit path of fn, panics
// included.
type Guard struct {
	mu    sync.Mutex
	store *VaultStore
}

// NewGuard takes ownership of store. Nothing else may use store afterwards.
func NewGuard(store *VaultStore) *Guard {
	return &Guard{store: store}
}

// Do runs fn with exclusive access to the store.
func (g *Guard) Do(fn func(*VaultStore) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.store)
}
