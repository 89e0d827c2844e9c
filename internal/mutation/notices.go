package mutation

import (
	"sync"
	"time"
)

// Op names a mutation kind
type Op string

const (
	OpCreate        Op = "create"
	OpUpdate        Op = "update"
	OpMarkDone      Op = "mark_done"
	OpDelete        Op = "delete"
	OpAddComment    Op = "add_comment"
	OpDeleteComment Op = "delete_comment"
)

// Phase is the lifecycle stage a notice reports
type Phase string

const (
	PhaseInFlight  Phase = "in_flight"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Notice is a transient, user-facing report about a mutation
type Notice struct {
	OpID    string
	Op      Op
	TaskID  string
	Phase   Phase
	Message string
	TTL     time.Duration
}

// Bus fans notices out to subscribers. Publishing never blocks; a
// subscriber that falls behind misses notices.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Notice]struct{}
}

// NewBus creates an empty notice bus
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Notice]struct{})}
}

// Subscribe registers a new listener
func (b *Bus) Subscribe() chan Notice {
	ch := make(chan Notice, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a listener. Calling it twice is safe.
func (b *Bus) Unsubscribe(ch chan Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish delivers n to every subscriber that has room
func (b *Bus) Publish(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}
