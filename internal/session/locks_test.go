package session

import (
	"sync"
	"testing"
)

func TestLocksSerializePerIdentity(t *testing.T) {
	locks := NewLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("+15550001111")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("Expected 50 serialized increments, got %d", counter)
	}
}

func TestLocksIndependentIdentities(t *testing.T) {
	locks := NewLocks()

	// Holding one identity's lock must not block another identity.
	unlockA := locks.Lock("+15550001111")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("+15559998888")
		unlockB()
		close(done)
	}()

	<-done
}
