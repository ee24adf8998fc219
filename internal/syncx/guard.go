// Package syncx provides small synchronization helpers
package syncx

import "sync"

// RWGuard couples a value with the RWMutex protecting it, so callers can
// only reach the value through a held lock.
type RWGuard[T any] struct {
	mu  sync.RWMutex
	val T
}

// NewGuard wraps initial in a guard.
func NewGuard[T any](initial T) *RWGuard[T] {
	return &RWGuard[T]{val: initial}
}

// Write runs fn under the write lock with a pointer to the value.
func (g *RWGuard[T]) Write(fn func(*T)) {
	g.mu.Lock()
	fn(&g.val)
	g.mu.Unlock()
}

// Update runs fn under the write lock and passes its result through, for
// mutations that also need to report what they did.
func (g *RWGuard[T]) Update(fn func(*T) any) any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(&g.val)
}

// Get returns the current value under the read lock. T must be a value
// type or treated as immutable by callers.
func (g *RWGuard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.val
}

// Set replaces the value.
func (g *RWGuard[T]) Set(v T) {
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}
