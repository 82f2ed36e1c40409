package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jobboard_back_end_go/models"

	"github.com/google/uuid"
)

// MemoryStore keeps messages and profiles in process. It backs the local
// development mode and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int64
	messages []models.Message
	profiles map[string]models.Profile
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]models.Profile),
		now:      time.Now,
	}
}

// WithClock replaces the time source used for created_at, read_at and
// deleted_at.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) AddProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.profiles[p.ID] = p
}

func (s *MemoryStore) withNames(m models.Message) models.Message {
	if p, ok := s.profiles[m.SenderID]; ok {
		m.SenderName, m.SenderAvatar = p.FullName, p.AvatarURL
	}
	if p, ok := s.profiles[m.ReceiverID]; ok {
		m.ReceiverName, m.ReceiverAvatar = p.FullName, p.AvatarURL
	}
	return m
}

func (s *MemoryStore) ListForUser(ctx context.Context, userID string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Message
	for _, m := range s.messages {
		if m.Deleted() || !m.Involves(userID) {
			continue
		}
		out = append(out, s.withNames(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

func (s *MemoryStore) ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Message
	for _, m := range s.messages {
		if m.Deleted() || !m.Involves(userID) || m.Counterpart(userID) != counterpartID {
			continue
		}
		out = append(out, s.withNames(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.profiles) > 0 {
		if _, ok := s.profiles[msg.SenderID]; !ok {
			return models.Message{}, ErrInvalidReference
		}
		if _, ok := s.profiles[msg.ReceiverID]; !ok {
			return models.Message{}, ErrInvalidReference
		}
	}

	s.seq++
	m := models.Message{
		ID:            uuid.NewString(),
		Seq:           s.seq,
		SenderID:      msg.SenderID,
		ReceiverID:    msg.ReceiverID,
		Content:       msg.Content,
		ApplicationID: msg.ApplicationID,
		CreatedAt:     s.now(),
	}
	s.messages = append(s.messages, m)
	return s.withNames(m), nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := s.now()
	for i := range s.messages {
		m := &s.messages[i]
		if m.ReceiverID == receiverID && m.SenderID == senderID && m.UnreadBy(receiverID) {
			at := now
			m.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, receiverID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.messages {
		if m.UnreadBy(receiverID) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SoftDelete(ctx context.Context, messageID, senderID string) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		m := &s.messages[i]
		if m.ID != messageID || m.SenderID != senderID || m.Deleted() {
			continue
		}
		at := s.now()
		m.DeletedAt = &at
		return s.withNames(*m), nil
	}
	return models.Message{}, ErrNotFound
}

func (s *MemoryStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) SearchProfiles(ctx context.Context, name string, limit int) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(name)
	var out []models.Profile
	for _, p := range s.profiles {
		if strings.Contains(strings.ToLower(p.FullName), needle) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}
