package ledger

import (
	"sync"

	"github.com/mcoot/pointsbot/internal/model"
)

// playerLocks is a keyed mutex: one lock per player id, dropped once unused
type playerLocks struct {
	mu    sync.Mutex
	locks map[model.PlayerID]*playerLock
}

type playerLock struct {
	mu   sync.Mutex
	refs int
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{locks: make(map[model.PlayerID]*playerLock)}
}

// lock acquires the lock for id and returns its release func
func (l *playerLocks) lock(id model.PlayerID) func() {
	l.mu.Lock()
	pl, ok := l.locks[id]
	if !ok {
		pl = &playerLock{}
		l.locks[id] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *playerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
