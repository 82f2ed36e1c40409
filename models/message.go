package models

import (
	"strings"
	"time"
)

// Message is one row of the messages table. The display fields are
// denormalized from profiles when the row is read for a conversation list.
type Message struct {
	ID            string     `json:"id"`
	Seq           int64      `json:"seq"`
	SenderID      string     `json:"sender_id"`
	ReceiverID    string     `json:"receiver_id"`
	Content       string     `json:"content"`
	ApplicationID *string    `json:"application_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ReadAt        *time.Time `json:"read_at"`
	DeletedAt     *time.Time `json:"-"`

	SenderName     string `json:"sender_name,omitempty"`
	SenderAvatar   string `json:"sender_avatar,omitempty"`
	ReceiverName   string `json:"receiver_name,omitempty"`
	ReceiverAvatar string `json:"receiver_avatar,omitempty"`
}

// Involves reports whether userID is the sender or the receiver.
func (m Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Counterpart returns the id on the message that is not userID.
func (m Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// CounterpartProfile returns the display name and avatar of the other side.
func (m Message) CounterpartProfile(userID string) (name, avatar string) {
	if m.SenderID == userID {
		return m.ReceiverName, m.ReceiverAvatar
	}
	return m.SenderName, m.SenderAvatar
}

func (m Message) Deleted() bool {
	return m.DeletedAt != nil
}

// UnreadBy reports whether userID received this message and has not read it.
func (m Message) UnreadBy(userID string) bool {
	return m.ReceiverID == userID && m.ReadAt == nil && m.DeletedAt == nil
}

type NewMessage struct {
	SenderID      string  `json:"sender_id"`
	ReceiverID    string  `json:"receiver_id"`
	Content       string  `json:"content"`
	ApplicationID *string `json:"application_id,omitempty"`
}

// Normalize trims the body and drops an empty application reference.
func (n NewMessage) Normalize() NewMessage {
	n.Content = strings.TrimSpace(n.Content)
	if n.ApplicationID != nil && strings.TrimSpace(*n.ApplicationID) == "" {
		n.ApplicationID = nil
	}
	return n
}
