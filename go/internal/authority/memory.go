package authority

import (
	"context"
	"sync"

	"github.com/mcdev12/fluencyrush/go/internal/models"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	order    []string
	users    map[string]*models.User
	feed     []models.FeedItem
	chat     []models.ChatMessage
	keys     map[string]struct{}
	keyOrder []string
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.order = nil
	s.users = make(map[string]*models.User)
	s.feed = nil
	s.chat = nil
	s.keys = make(map[string]struct{})
	s.keyOrder = nil
}

func (s *MemoryStore) UpsertUser(ctx context.Context, id, name string, nowMillis int64) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		u.LastSeen = nowMillis
		if name != "" {
			u.Name = name
		}
		return *u, false, nil
	}

	if name == "" {
		name = id
	}
	u := &models.User{
		ID:       id,
		Name:     name,
		XP:       0,
		Streak:   1,
		JoinedAt: nowMillis,
		LastSeen: nowMillis,
	}
	s.users[id] = u
	s.order = append(s.order, id)
	return *u, true, nil
}

func (s *MemoryStore) AddXP(ctx context.Context, id string, amount int, key string) (models.User, error) {
	if amount < 0 {
		return models.User{}, ErrNegativeXP
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	if key != "" {
		if _, seen := s.keys[key]; seen {
			return *u, nil
		}
		s.rememberKey(key)
	}
	u.XP += amount
	return *u, nil
}

func (s *MemoryStore) rememberKey(key string) {
	s.keys[key] = struct{}{}
	s.keyOrder = append(s.keyOrder, key)
	if len(s.keyOrder) > IdempotencyCap {
		oldest := s.keyOrder[0]
		s.keyOrder = s.keyOrder[1:]
		delete(s.keys, oldest)
	}
}

func (s *MemoryStore) Users(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.users[id])
	}
	return out, nil
}

func (s *MemoryStore) AppendFeed(ctx context.Context, item models.FeedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed = capTail(append(s.feed, item), FeedCap)
	return nil
}

func (s *MemoryStore) Feed(ctx context.Context, limit int) ([]models.FeedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTail(s.feed, limit), nil
}

func (s *MemoryStore) AppendChat(ctx context.Context, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = capTail(append(s.chat, msg), ChatCap)
	return nil
}

func (s *MemoryStore) Chat(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTail(s.chat, limit), nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func capTail[T any](items []T, n int) []T {
	if len(items) > n {
		return append([]T(nil), items[len(items)-n:]...)
	}
	return items
}

// copyTail returns the last limit items; limit <= 0 means all.
func copyTail[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return append([]T{}, items...)
}
