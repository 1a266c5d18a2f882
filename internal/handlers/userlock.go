package handlers

import "sync"

// userLocks serializes mutation of a single user's address set or cart.
// Concurrent first-address creates, set-default calls and cart upserts would
// otherwise race on read-modify-write; all contention is per-user so one
// mutex per user id is enough.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the user's mutex and returns the release func.
func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

var addressLocks = newUserLocks()
var cartLocks = newUserLocks()
