package handlers

import (
	"sync"
	"testing"
)

func TestUserLocksSerializePerUser(t *testing.T) {
	locks := newUserLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("user-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
}

func TestUserLocksIndependentUsers(t *testing.T) {
	locks := newUserLocks()

	unlock := locks.lock("user-1")
	defer unlock()

	// A different user's lock must not block.
	done := make(chan struct{})
	go func() {
		other := locks.lock("user-2")
		other()
		close(done)
	}()
	<-done
}
