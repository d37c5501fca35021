package usecase

import "sync"

// keyedGuard provides at-most-one-in-flight enrichment per document id.
// Synchronous callers wait their turn; asynchronous callers probe with
// TryAcquire and drop the attempt when one is already running.
type keyedGuard struct {
	mu     sync.Mutex
	active map[string]*guardEntry
}

type guardEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedGuard() *keyedGuard {
	return &keyedGuard{active: make(map[string]*guardEntry)}
}

// Acquire blocks until the id is free, then holds it.
func (g *keyedGuard) Acquire(id string) {
	entry := g.enter(id)
	entry.mu.Lock()
}

// TryAcquire holds the id only if no attempt is in flight.
func (g *keyedGuard) TryAcquire(id string) bool {
	entry := g.enter(id)
	if entry.mu.TryLock() {
		return true
	}
	g.leave(id)
	return false
}

func (g *keyedGuard) Release(id string) {
	g.mu.Lock()
	entry, ok := g.active[id]
	g.mu.Unlock()
	if !ok {
		return
	}
	entry.mu.Unlock()
	g.leave(id)
}

func (g *keyedGuard) enter(id string) *guardEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.active[id]
	if !ok {
		entry = &guardEntry{}
		g.active[id] = entry
	}
	entry.refs++
	return entry
}

func (g *keyedGuard) leave(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.active[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(g.active, id)
	}
}
