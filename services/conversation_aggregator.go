package services

import (
	"sort"

	"jobboard_back_end_go/models"
)

// AggregateConversations folds a user's messages into one Conversation per
// counterpart. messages is expected newest first, so the first message seen
// for a counterpart is its latest; an older message seen later never
// replaces it. Soft-deleted messages and messages the user is not part of
// are ignored.
func AggregateConversations(currentUserID string, messages []models.Message) map[string]*models.Conversation {
	conversations := make(map[string]*models.Conversation)

	for _, msg := range messages {
		if msg.Deleted() || !msg.Involves(currentUserID) {
			continue
		}
		counterpartID := msg.Counterpart(currentUserID)

		conv, seen := conversations[counterpartID]
		if !seen {
			name, avatar := msg.CounterpartProfile(currentUserID)
			if name == "" {
				name = models.UnknownUserName
			}
			conv = &models.Conversation{
				CounterpartID:     counterpartID,
				CounterpartName:   name,
				CounterpartAvatar: avatar,
			}
			conv.SetLast(msg)
			conversations[counterpartID] = conv
		} else if newer(msg, conv) {
			conv.SetLast(msg)
		}

		if msg.UnreadBy(currentUserID) {
			conv.UnreadCount++
		}
	}

	return conversations
}

func newer(msg models.Message, conv *models.Conversation) bool {
	if !msg.CreatedAt.Equal(conv.LastMessageAt) {
		return msg.CreatedAt.After(conv.LastMessageAt)
	}
	return msg.Seq > conv.LastSeq()
}

// SortConversations lists conversations by most recent activity.
func SortConversations(conversations map[string]*models.Conversation) []models.Conversation {
	list := make([]models.Conversation, 0, len(conversations))
	for _, c := range conversations {
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].LastMessageAt.Equal(list[j].LastMessageAt) {
			return list[i].LastMessageAt.After(list[j].LastMessageAt)
		}
		return list[i].CounterpartID < list[j].CounterpartID
	})
	return list
}

// SortThread orders a thread oldest first. Equal timestamps fall back to
// insertion sequence, then id, so repeated renders agree.
func SortThread(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		a, b := messages[i], messages[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ID < b.ID
	})
}

// VisibleThread drops soft-deleted messages and sorts what is left.
func VisibleThread(messages []models.Message) []models.Message {
	visible := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if !m.Deleted() {
			visible = append(visible, m)
		}
	}
	SortThread(visible)
	return visible
}
