package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
)

// Publisher fans lifecycle events into a Store. Emit never fails the caller's
// flow; in async mode a full buffer drops the event with a warning.
type Publisher struct {
	store  Store
	clock  clock.Clock
	events chan Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool

	// mu guards closed and the send on events against Close.
	mu     sync.RWMutex
	closed bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer persists events from a background goroutine through a
// buffer of the given size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithPublisherClock(c clock.Clock) PublisherOption {
	return func(p *Publisher) {
		p.clock = c
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, clock: clock.New()}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.events {
		p.persist(context.Background(), event)
	}
}

func (p *Publisher) persist(ctx context.Context, event Event) {
	if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
		p.logger.Error("failed to persist audit event",
			"error", err,
			"action", event.Action,
			"address", event.Address,
		)
	}
}

// Close stops the async worker after the buffer drains. Safe to call twice.
// Events emitted after Close are dropped.
func (p *Publisher) Close() {
	if !p.async {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()
	p.wg.Wait()
}

// Emit stamps and records an event. A nil Publisher ignores it.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock.Now()
	}
	if !p.async {
		p.persist(ctx, event)
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		if p.logger != nil {
			p.logger.Warn("audit publisher closed, event dropped",
				"action", event.Action,
				"address", event.Address,
			)
		}
		return
	}
	select {
	case p.events <- event:
	default:
		if p.logger != nil {
			p.logger.Warn("audit buffer full, event dropped",
				"action", event.Action,
				"address", event.Address,
			)
		}
	}
}

func (p *Publisher) List(ctx context.Context, address string) ([]Event, error) {
	return p.store.ListByAddress(ctx, address)
}
