package services

import (
	"sync"
	"testing"
	"time"
)

func TestTripLocksMutualExclusion(t *testing.T) {
	locks := NewTripLocks()

	const workers = 50
	var counter, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(1)
			defer unlock()

			mu.Lock()
			counter++
			if counter > max {
				max = counter
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			counter--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Fatalf("critical section concurrency = %d, want 1", max)
	}
}

func TestTripLocksIndependentTrips(t *testing.T) {
	locks := NewTripLocks()

	unlock1 := locks.Lock(1)
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock2 := locks.Lock(2)
		unlock2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on trip 2 blocked by holder of trip 1")
	}
}

func TestTripLocksEntryRemovedWhenIdle(t *testing.T) {
	locks := NewTripLocks()

	unlock := locks.Lock(9)
	unlock()
	unlock() // second release is a no-op

	locks.mu.Lock()
	n := len(locks.locks)
	locks.mu.Unlock()
	if n != 0 {
		t.Fatalf("lock table holds %d entries after release, want 0", n)
	}
}
