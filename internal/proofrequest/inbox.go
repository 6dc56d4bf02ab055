package proofrequest

import (
	"encoding/json"
	"sync"
)

// Delivery is a session outcome pushed by the proof service's callback.
type Delivery struct {
	Proofs json.RawMessage
	Error  string
}

// Inbox routes callback deliveries to the session waiting on them.
type Inbox struct {
	mu      sync.Mutex
	waiters map[string]chan Delivery
}

func NewInbox() *Inbox {
	return &Inbox{waiters: make(map[string]chan Delivery)}
}

// Subscribe registers sessionID. The release func must be called once the
// caller stops waiting.
func (in *Inbox) Subscribe(sessionID string) (<-chan Delivery, func(), error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, exists := in.waiters[sessionID]; exists {
		return nil, nil, ErrDuplicateSession
	}
	ch := make(chan Delivery, 1)
	in.waiters[sessionID] = ch
	release := func() {
		in.mu.Lock()
		defer in.mu.Unlock()
		if in.waiters[sessionID] == ch {
			delete(in.waiters, sessionID)
		}
	}
	return ch, release, nil
}

// Deliver hands d to the session's waiter. Only the first delivery counts.
func (in *Inbox) Deliver(sessionID string, d Delivery) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	ch, ok := in.waiters[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	select {
	case ch <- d:
		return nil
	default:
		return ErrAlreadyDelivered
	}
}

// Pending reports whether a session is waiting for a callback.
func (in *Inbox) Pending(sessionID string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.waiters[sessionID]
	return ok
}
