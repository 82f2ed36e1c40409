package services

import (
	"context"
	"errors"
	"time"

	"jobboard_back_end_go/apperrors"
	"jobboard_back_end_go/logger"
	"jobboard_back_end_go/models"
	"jobboard_back_end_go/realtime"
	"jobboard_back_end_go/repository"

	"github.com/google/uuid"
)

const searchLimit = 20

type ChatService struct {
	messages repository.MessageStore
	profiles repository.ProfileStore
	broker   realtime.Broker
	logger   *logger.Logger
	now      func() time.Time
}

func NewChatService(messages repository.MessageStore, profiles repository.ProfileStore, broker realtime.Broker, l *logger.Logger) *ChatService {
	return &ChatService{
		messages: messages,
		profiles: profiles,
		broker:   broker,
		logger:   l,
		now:      time.Now,
	}
}

func (s *ChatService) Broker() realtime.Broker { return s.broker }

func validateID(id string, invalid error) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid
	}
	return nil
}

// ListConversations returns the user's conversations, most recent first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	if err := validateID(userID, apperrors.ErrInvalidUserID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("loading conversations", "user_id", userID, "err", err)
		return nil, apperrors.FetchFailed(err)
	}
	return SortConversations(AggregateConversations(userID, messages)), nil
}

// GetThread returns the messages between two users, oldest first.
func (s *ChatService) GetThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	if err := validateID(userID, apperrors.ErrInvalidUserID); err != nil {
		return nil, err
	}
	if err := validateID(counterpartID, apperrors.ErrInvalidUserID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListThread(ctx, userID, counterpartID)
	if err != nil {
		s.logger.Error("loading thread", "user_id", userID, "counterpart_id", counterpartID, "err", err)
		return nil, apperrors.FetchFailed(err)
	}
	return VisibleThread(messages), nil
}

// OpenThread loads a thread and marks what the user just saw as read. The
// returned messages reflect the mark. A failed mark is logged and retried on
// the next open or incoming message; it never fails the load.
func (s *ChatService) OpenThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	thread, err := s.GetThread(ctx, userID, counterpartID)
	if err != nil {
		return nil, err
	}

	hasUnread := false
	for _, m := range thread {
		if m.SenderID == counterpartID && m.UnreadBy(userID) {
			hasUnread = true
			break
		}
	}
	if !hasUnread {
		return thread, nil
	}

	n, err := s.MarkThreadRead(ctx, userID, counterpartID)
	if err != nil {
		s.logger.Warn("mark read failed, will retry on next trigger", "user_id", userID, "counterpart_id", counterpartID, "err", err)
		return thread, nil
	}
	if n == 0 {
		return thread, nil
	}

	// reload so the caller sees the read_at the store just wrote
	marked, err := s.GetThread(ctx, userID, counterpartID)
	if err != nil {
		s.logger.Warn("reloading thread after mark read", "user_id", userID, "counterpart_id", counterpartID, "err", err)
		return thread, nil
	}
	return marked, nil
}

// MarkThreadRead stamps read_at on every unread message counterpartID sent
// to userID. It reports how many messages changed; a second call with
// nothing new changes none and publishes nothing.
func (s *ChatService) MarkThreadRead(ctx context.Context, userID, counterpartID string) (int64, error) {
	if err := validateID(userID, apperrors.ErrInvalidUserID); err != nil {
		return 0, err
	}
	if err := validateID(counterpartID, apperrors.ErrInvalidUserID); err != nil {
		return 0, err
	}
	n, err := s.messages.MarkRead(ctx, userID, counterpartID)
	if err != nil {
		return 0, apperrors.ReadMarkFailed(err)
	}
	if n > 0 {
		s.publish(ctx, realtime.Event{
			Type:       realtime.EventUpdate,
			SenderID:   counterpartID,
			ReceiverID: userID,
			At:         s.now(),
		})
	}
	return n, nil
}

// SendMessage validates and stores a message. Empty text never reaches the
// store. A store failure comes back as a SendFailed error holding the draft.
func (s *ChatService) SendMessage(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	draft := msg.Content
	msg = msg.Normalize()

	if msg.Content == "" {
		return models.Message{}, apperrors.ErrEmptyMessage
	}
	if err := validateID(msg.SenderID, apperrors.ErrInvalidUserID); err != nil {
		return models.Message{}, err
	}
	if err := validateID(msg.ReceiverID, apperrors.ErrInvalidUserID); err != nil {
		return models.Message{}, err
	}
	if msg.SenderID == msg.ReceiverID {
		return models.Message{}, apperrors.ErrSelfMessage
	}
	if msg.ApplicationID != nil {
		if err := validateID(*msg.ApplicationID, apperrors.ErrInvalidReference); err != nil {
			return models.Message{}, err
		}
	}

	stored, err := s.messages.Insert(ctx, msg)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return models.Message{}, apperrors.ErrInvalidReference
		}
		s.logger.Error("storing message", "sender_id", msg.SenderID, "receiver_id", msg.ReceiverID, "err", err)
		return models.Message{}, apperrors.SendFailed(draft, err)
	}

	s.publish(ctx, realtime.EventFor(realtime.EventInsert, stored, s.now()))
	return stored, nil
}

// DeleteMessage soft-deletes one of the user's own messages.
func (s *ChatService) DeleteMessage(ctx context.Context, userID, messageID string) error {
	if err := validateID(userID, apperrors.ErrInvalidUserID); err != nil {
		return err
	}
	if err := validateID(messageID, apperrors.ErrInvalidMessageID); err != nil {
		return err
	}
	deleted, err := s.messages.SoftDelete(ctx, messageID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrMessageNotFound
		}
		return apperrors.Wrap(apperrors.CodeUnavailable, "failed to delete message", err)
	}
	s.publish(ctx, realtime.EventFor(realtime.EventDelete, deleted, s.now()))
	return nil
}

// UnreadCount backs the notification badge.
func (s *ChatService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if err := validateID(userID, apperrors.ErrInvalidUserID); err != nil {
		return 0, err
	}
	n, err := s.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.FetchFailed(err)
	}
	return n, nil
}

// SearchProfiles and GetProfile return the public shape only; contact
// details stay with the session owner.
func (s *ChatService) SearchProfiles(ctx context.Context, name string) ([]models.PublicProfile, error) {
	profiles, err := s.profiles.SearchProfiles(ctx, name, searchLimit)
	if err != nil {
		return nil, apperrors.FetchFailed(err)
	}
	out := make([]models.PublicProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Public())
	}
	return out, nil
}

func (s *ChatService) GetProfile(ctx context.Context, id string) (models.PublicProfile, error) {
	if err := validateID(id, apperrors.ErrInvalidUserID); err != nil {
		return models.PublicProfile{}, err
	}
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.PublicProfile{}, apperrors.ErrProfileNotFound
		}
		return models.PublicProfile{}, apperrors.FetchFailed(err)
	}
	return p.Public(), nil
}

// publish is best effort: the write already happened and listeners recover
// on their next refresh.
func (s *ChatService) publish(ctx context.Context, ev realtime.Event) {
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warn("publishing message event", "type", ev.Type, "message_id", ev.MessageID, "err", err)
	}
}
