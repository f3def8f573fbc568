package session

import "sync"

// Locks serializes command handling per identity. The interpreter reads
// and rewrites navigation state non-atomically around provider calls, so
// two concurrent commands from the same identity could corrupt it.
// Commands from different identities are independent.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocks creates an empty lock set.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-identity lock and returns the matching unlock.
func (l *Locks) Lock(identity string) func() {
	l.mu.Lock()
	lock, ok := l.locks[identity]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[identity] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
