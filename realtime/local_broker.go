package realtime

import (
	"context"
	"sync"
)

// LocalBroker fans events out to subscribers of the same process.
type LocalBroker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*localSubscription
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[uint64]*localSubscription)}
}

func (b *LocalBroker) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.filter.Match(ev) {
			s.deliver(ev)
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, f Filter) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &localSubscription{
		id:     b.nextID,
		broker: b,
		filter: f,
		events: make(chan Event, subscriberBuffer),
	}
	b.subs[s.id] = s
	return s, nil
}

// Subscribers reports how many subscriptions are open.
func (b *LocalBroker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *LocalBroker) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

type localSubscription struct {
	id     uint64
	broker *LocalBroker
	filter Filter

	mu     sync.Mutex
	closed bool
	events chan Event
}

func (s *localSubscription) Events() <-chan Event { return s.events }

// deliver never blocks the publisher; a full buffer already holds a pending
// refresh trigger for this subscriber.
func (s *localSubscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}

func (s *localSubscription) Close() error {
	s.broker.remove(s.id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}
