package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/match"
)

// Event is a published occurrence on the bus. Events are immutable once
// created.
type Event struct {
	// ID uniquely identifies this event instance.
	ID string

	// Topic is the hierarchical event name (e.g. "signal.loaded").
	Topic string

	// Time is when the event was published.
	Time time.Time

	// Data is the event payload. Its meaning is topic-specific.
	Data any
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, ev Event)

// FilterFunc is a predicate applied to an event before delivery.
type FilterFunc func(ev Event) bool

// Subscription is a handle to an active subscription. Cancelling it stops
// further delivery; a one-shot subscription cancels itself before its
// handler runs, so a handler that re-publishes cannot fire itself twice.
type Subscription struct {
	id        string
	pattern   string
	handler   Handler
	filter    FilterFunc
	once      bool
	cancelled atomic.Bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Pattern returns the topic pattern the subscription matches.
func (s *Subscription) Pattern() string { return s.pattern }

// Active reports whether the subscription can still receive events.
func (s *Subscription) Active() bool { return !s.cancelled.Load() }

// Cancel permanently stops delivery to this subscription.
func (s *Subscription) Cancel() { s.cancelled.Store(true) }

// Option configures a subscription.
type Option func(*Subscription)

// Once makes the subscription cancel itself after its first delivery.
func Once() Option {
	return func(s *Subscription) { s.once = true }
}

// WithFilter delivers only events for which fn returns true. A one-shot
// subscription stays armed while events are filtered out.
func WithFilter(fn FilterFunc) Option {
	return func(s *Subscription) { s.filter = fn }
}

// Bus is a synchronous publish/subscribe bus with glob topic patterns.
// Handlers run in subscription order on the publisher's goroutine; a handler
// may publish further events or cancel subscriptions re-entrantly.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every topic matching pattern. The
// pattern uses '*' and '?' wildcards ("signal.*" matches "signal.loaded").
func (b *Bus) Subscribe(pattern string, h Handler, opts ...Option) *Subscription {
	sub := &Subscription{
		id:      uuid.NewString(),
		pattern: pattern,
		handler: h,
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub
}

// Publish delivers an event to every active subscription whose pattern
// matches topic, in subscription order. It returns the number of handlers
// invoked.
func (b *Bus) Publish(ctx context.Context, topic string, data any) int {
	ev := Event{
		ID:    uuid.NewString(),
		Topic: topic,
		Time:  time.Now(),
		Data:  data,
	}

	// Snapshot outside the handler calls so handlers can subscribe,
	// publish, or cancel without deadlocking. Subscriptions added during
	// delivery see only later events.
	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if !sub.Active() || !match.Match(topic, sub.pattern) {
			continue
		}
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		if sub.once {
			// Disarm before the handler runs: a re-entrant publish of the
			// same topic must not reach this subscription again.
			if sub.cancelled.Swap(true) {
				continue
			}
		}
		sub.handler(ctx, ev)
		delivered++
	}

	b.sweep()
	return delivered
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, sub := range b.subs {
		if sub.Active() {
			n++
		}
	}
	return n
}

// sweep drops cancelled subscriptions.
func (b *Bus) sweep() {
	b.mu.Lock()
	defer b.mu.Unlock()

	live := b.subs[:0]
	for _, sub := range b.subs {
		if sub.Active() {
			live = append(live, sub)
		}
	}
	b.subs = live
}
