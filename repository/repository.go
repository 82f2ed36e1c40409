package repository

import (
	"context"

	"jobboard_back_end_go/models"

	"github.com/pkg/errors"
)

//go:generate mockgen -destination=mocks/mock_message_store.go -package=mocks jobboard_back_end_go/repository MessageStore

// MessageStore is the messages table. Every read excludes soft-deleted rows.
type MessageStore interface {
	// ListForUser returns the user's messages newest first, with sender and
	// receiver display fields filled from profiles.
	ListForUser(ctx context.Context, userID string) ([]models.Message, error)
	// ListThread returns the messages between two users oldest first.
	ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error)
	Insert(ctx context.Context, msg models.NewMessage) (models.Message, error)
	// MarkRead stamps read_at on unread messages from senderID to
	// receiverID and returns how many rows changed.
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int, error)
	// SoftDelete hides a message; only its sender may do so.
	SoftDelete(ctx context.Context, messageID, senderID string) (models.Message, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	SearchProfiles(ctx context.Context, name string, limit int) ([]models.Profile, error)
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
}

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("referenced participant or application does not exist")
)
