package ledger

import (
	"context"
	"sync"
)

// lockTable hands out one mutual-exclusion slot per nickname. Entries are
// reference counted and dropped once nobody holds or waits on them, so the
// table only grows with the number of concurrently active nicknames.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{} // buffered(1): a send acquires, a receive releases
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]*slot)}
}

// acquire blocks until the caller is the only holder for key, or ctx is done.
// The returned func releases the slot and must be called exactly once.
func (t *lockTable) acquire(ctx context.Context, key string) (func(), error) {
	t.mu.Lock()
	sl, ok := t.slots[key]
	if !ok {
		sl = &slot{ch: make(chan struct{}, 1)}
		t.slots[key] = sl
	}
	sl.refs++
	t.mu.Unlock()

	select {
	case sl.ch <- struct{}{}:
		return func() {
			<-sl.ch
			t.release(key, sl)
		}, nil
	case <-ctx.Done():
		t.release(key, sl)
		return nil, ctx.Err()
	}
}

func (t *lockTable) release(key string, sl *slot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(t.slots, key)
	}
}

// size returns the number of live slots
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
