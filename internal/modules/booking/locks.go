// README: Per-key mutual exclusion for booking and driver scopes.
package booking

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// lockTable hands out one mutex per key and frees it once the last
// holder releases. Transitions lock the booking's root id (the parent
// for a fleet member) so sibling transitions serialize too.
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*lockEntry)}
}

func (t *lockTable) Lock(key string) (unlock func()) {
	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		e = &lockEntry{}
		t.entries[key] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		t.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(t.entries, key)
		}
		t.mu.Unlock()
	}
}
