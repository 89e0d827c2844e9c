package mutation

import (
	"context"
	"sync"
)

// taskLocks serializes work per task id. Waiters are admitted in the order
// they started waiting.
type taskLocks struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

func newTaskLocks() *taskLocks {
	return &taskLocks{slots: make(map[string]*slot)}
}

// acquire blocks until id is free or ctx is done
func (l *taskLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[id]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		l.slots[id] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		l.drop(id, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.sem
			l.drop(id, s)
		})
	}, nil
}

func (l *taskLocks) drop(id string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
}

// inFlight tracks keys with an operation running
type inFlight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{keys: make(map[string]struct{})}
}

// begin claims key, returning false when it is already claimed
func (f *inFlight) begin(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inFlight) end(key string) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}
