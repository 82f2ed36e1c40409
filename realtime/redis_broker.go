package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"jobboard_back_end_go/logger"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisBroker carries events between server instances over redis pub/sub.
// Every event is published on the channel of each participant, so a
// subscriber only listens to its own user channel.
type RedisBroker struct {
	rdb    *redis.Client
	prefix string
	logger *logger.Logger
}

func NewRedisBroker(rdb *redis.Client, prefix string, l *logger.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, prefix: prefix, logger: l}
}

func (b *RedisBroker) channel(userID string) string {
	return b.prefix + ":" + userID
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "redisBroker.Publish.Marshal")
	}
	if err := b.rdb.Publish(ctx, b.channel(ev.SenderID), payload).Err(); err != nil {
		return errors.Wrap(err, "redisBroker.Publish.Sender")
	}
	if ev.ReceiverID != ev.SenderID {
		if err := b.rdb.Publish(ctx, b.channel(ev.ReceiverID), payload).Err(); err != nil {
			return errors.Wrap(err, "redisBroker.Publish.Receiver")
		}
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, f Filter) (Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel(f.UserID))
	// wait for the subscription confirmation so failures surface here
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "redisBroker.Subscribe.Receive")
	}

	s := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
	go s.relay(f, b.logger)
	return s, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) relay(f Filter, l *logger.Logger) {
	defer close(s.events)
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				l.Warn("dropping malformed message event", "channel", msg.Channel, "err", err)
				continue
			}
			if !f.Match(ev) {
				continue
			}
			select {
			case s.events <- ev:
			default:
			}
		}
	}
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
