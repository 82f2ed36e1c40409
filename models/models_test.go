package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessage_Counterpart(t *testing.T) {
	m := Message{SenderID: "a", ReceiverID: "b", SenderName: "Ann", ReceiverName: "Bob"}

	assert.Equal(t, "b", m.Counterpart("a"))
	assert.Equal(t, "a", m.Counterpart("b"))

	name, _ := m.CounterpartProfile("a")
	assert.Equal(t, "Bob", name)
}

func TestMessage_UnreadBy(t *testing.T) {
	now := time.Now()
	m := Message{SenderID: "a", ReceiverID: "b"}

	assert.True(t, m.UnreadBy("b"))
	assert.False(t, m.UnreadBy("a"))

	m.ReadAt = &now
	assert.False(t, m.UnreadBy("b"))

	m.ReadAt = nil
	m.DeletedAt = &now
	assert.False(t, m.UnreadBy("b"))
}

func TestNewMessage_Normalize(t *testing.T) {
	blank := "  "
	n := NewMessage{Content: "  hi \n", ApplicationID: &blank}.Normalize()

	assert.Equal(t, "hi", n.Content)
	assert.Nil(t, n.ApplicationID)
}

func TestApplicationStatus_PersistedVocabularyOnly(t *testing.T) {
	assert.True(t, ApplicationReviewed.Valid())
	assert.True(t, ApplicationInterviewed.Valid())
	assert.False(t, ApplicationStatus("reviewing").Valid())
	assert.False(t, ApplicationStatus("interview").Valid())
}

func TestInterviewStatus_Valid(t *testing.T) {
	assert.True(t, InterviewCancelled.Valid())
	assert.False(t, InterviewStatus("canceled").Valid())
}
