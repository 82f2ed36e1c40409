package models

import "time"

const UnknownUserName = "Unknown User"

// Conversation is derived from the messages shared with one counterpart.
// It is never stored.
type Conversation struct {
	CounterpartID     string    `json:"counterpart_id"`
	CounterpartName   string    `json:"counterpart_name"`
	CounterpartAvatar string    `json:"counterpart_avatar,omitempty"`
	LastMessage       string    `json:"last_message"`
	LastMessageAt     time.Time `json:"last_message_at"`
	UnreadCount       int       `json:"unread_count"`
	ApplicationID     *string   `json:"application_id,omitempty"`

	lastSeq int64
}

// LastSeq is the insertion sequence of the message LastMessage came from.
func (c *Conversation) LastSeq() int64 { return c.lastSeq }

// SetLast records m as the most recent message of the conversation.
func (c *Conversation) SetLast(m Message) {
	c.LastMessage = m.Content
	c.LastMessageAt = m.CreatedAt
	c.ApplicationID = m.ApplicationID
	c.lastSeq = m.Seq
}
