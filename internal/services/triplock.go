package services

import "sync"

// TripLocks serializes seat-affecting steps per trip. The lock is held only
// across resolve+reserve; payment execution happens outside it. Entries are
// refcounted and removed once the last holder releases, so the map does not
// grow with trip history.
type TripLocks struct {
	mu    sync.Mutex
	locks map[int64]*tripLock
}

type tripLock struct {
	mu   sync.Mutex
	refs int
}

func NewTripLocks() *TripLocks {
	return &TripLocks{locks: map[int64]*tripLock{}}
}

// Lock acquires the lock for a trip and returns its release func. The release
// func must be called exactly once.
func (l *TripLocks) Lock(tripID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[tripID]
	if !ok {
		entry = &tripLock{}
		l.locks[tripID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, tripID)
			}
			l.mu.Unlock()
		})
	}
}
