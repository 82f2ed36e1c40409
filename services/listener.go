package services

import (
	"context"
	"sync"

	"jobboard_back_end_go/apperrors"
	"jobboard_back_end_go/logger"
	"jobboard_back_end_go/realtime"
)

type ListenerState int

const (
	StateUnsubscribed ListenerState = iota
	StateSubscribing
	StateSubscribed
	StateUnsubscribing
)

func (s ListenerState) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	case StateUnsubscribing:
		return "unsubscribing"
	default:
		return "unsubscribed"
	}
}

// Listener keeps one view's data in step with the message store. It
// refreshes once when started and again on every matching change event.
// Results are handed to apply only while the generation that fetched them
// is still current, so nothing from a stopped or restarted listener lands
// on the view.
type Listener[T any] struct {
	name    string
	broker  realtime.Broker
	refresh func(ctx context.Context) (T, error)
	apply   func(T)
	onError func(error)
	logger  *logger.Logger

	mu     sync.Mutex
	state  ListenerState
	gen    uint64
	filter realtime.Filter
	sub    realtime.Subscription
	cancel context.CancelFunc
	done   chan struct{}

	// released is closed once an in-progress Stop has finished
	released chan struct{}
}

type ListenerConfig[T any] struct {
	Name    string
	Broker  realtime.Broker
	Refresh func(ctx context.Context) (T, error)
	Apply   func(T)
	OnError func(error)
	Logger  *logger.Logger
}

func NewListener[T any](cfg ListenerConfig[T]) *Listener[T] {
	l := &Listener[T]{
		name:    cfg.Name,
		broker:  cfg.Broker,
		refresh: cfg.Refresh,
		apply:   cfg.Apply,
		onError: cfg.OnError,
		logger:  cfg.Logger,
	}
	if l.onError == nil {
		l.onError = func(error) {}
	}
	if l.logger == nil {
		l.logger = logger.Nop()
	}
	return l
}

func (l *Listener[T]) State() ListenerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Listener[T]) Filter() realtime.Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Start subscribes with filter. A running listener is stopped first, which
// makes every result of the previous generation stale.
func (l *Listener[T]) Start(ctx context.Context, filter realtime.Filter) error {
	l.Stop()

	l.mu.Lock()
	l.state = StateSubscribing
	l.gen++
	gen := l.gen
	l.filter = filter
	l.mu.Unlock()

	sub, err := l.broker.Subscribe(ctx, filter)
	if err != nil {
		l.mu.Lock()
		if l.gen == gen {
			l.state = StateUnsubscribed
		}
		l.mu.Unlock()
		return apperrors.SubscribeFailed(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	if l.gen != gen || l.state != StateSubscribing {
		// stopped while subscribing
		l.mu.Unlock()
		cancel()
		_ = sub.Close()
		return nil
	}
	l.state = StateSubscribed
	l.sub = sub
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	go l.run(runCtx, gen, sub, done)
	return nil
}

// Stop releases the subscription and waits for the event loop to exit.
// A call made while another Stop is releasing waits for that release.
// Calling it on a stopped listener does nothing.
func (l *Listener[T]) Stop() {
	l.mu.Lock()
	switch l.state {
	case StateUnsubscribed:
		l.mu.Unlock()
		return
	case StateUnsubscribing:
		released := l.released
		l.mu.Unlock()
		<-released
		return
	}
	l.state = StateUnsubscribing
	l.gen++
	released := make(chan struct{})
	l.released = released
	sub, cancel, done := l.sub, l.cancel, l.done
	l.sub, l.cancel, l.done = nil, nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		if err := sub.Close(); err != nil {
			l.logger.Warn("closing subscription", "listener", l.name, "err", err)
		}
	}
	if done != nil {
		<-done
	}

	l.mu.Lock()
	l.state = StateUnsubscribed
	l.released = nil
	l.mu.Unlock()
	close(released)
}

func (l *Listener[T]) run(ctx context.Context, gen uint64, sub realtime.Subscription, done chan struct{}) {
	defer close(done)

	l.reload(ctx, gen)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.Events():
			if !ok {
				l.dropped(gen)
				return
			}
			l.reload(ctx, gen)
		}
	}
}

func (l *Listener[T]) reload(ctx context.Context, gen uint64) {
	result, err := l.refresh(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen || l.state != StateSubscribed {
		l.logger.Debug("discarding stale refresh", "listener", l.name, "generation", gen)
		return
	}
	if err != nil {
		if ctx.Err() == nil {
			l.onError(err)
		}
		return
	}
	l.apply(result)
}

// dropped handles a subscription that ended on its own. The view keeps
// its last state; no reconnect is attempted.
func (l *Listener[T]) dropped(gen uint64) {
	l.mu.Lock()
	if l.gen != gen || l.state != StateSubscribed {
		l.mu.Unlock()
		return
	}
	l.logger.Warn("subscription dropped, keeping last known state", "listener", l.name)
	l.state = StateUnsubscribed
	l.gen++
	sub, cancel := l.sub, l.cancel
	l.sub, l.cancel, l.done = nil, nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		_ = sub.Close()
	}
}
