package realtime

import (
	"context"
	"time"

	"jobboard_back_end_go/models"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is a change on the messages table. An update event may stand for
// several rows between the same two participants (a batch read mark).
type Event struct {
	Type       EventType `json:"type"`
	MessageID  string    `json:"message_id,omitempty"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	At         time.Time `json:"at"`
}

func EventFor(t EventType, m models.Message, at time.Time) Event {
	return Event{Type: t, MessageID: m.ID, SenderID: m.SenderID, ReceiverID: m.ReceiverID, At: at}
}

// Filter scopes a subscription to one user, and optionally to the thread
// between that user and CounterpartID.
type Filter struct {
	UserID        string
	CounterpartID string
}

func (f Filter) Match(ev Event) bool {
	if f.CounterpartID == "" {
		return ev.SenderID == f.UserID || ev.ReceiverID == f.UserID
	}
	return (ev.SenderID == f.UserID && ev.ReceiverID == f.CounterpartID) ||
		(ev.SenderID == f.CounterpartID && ev.ReceiverID == f.UserID)
}

type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, f Filter) (Subscription, error)
}

// Subscription is released with Close. Events is closed once the
// subscription ends, whether by Close or because the source went away.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// subscriberBuffer is small on purpose: every event triggers a full refresh,
// so one queued event is as good as many.
const subscriberBuffer = 8
