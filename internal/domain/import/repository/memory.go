package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
)

type memoryKey struct {
	userID uuid.UUID
	hash   string
}

// MemoryStore keeps adapters in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[memoryKey]StoredAdapter
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[memoryKey]StoredAdapter),
		now:   time.Now,
	}
}

func (s *MemoryStore) Lookup(_ context.Context, userID uuid.UUID, hash string) (*StoredAdapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[memoryKey{userID, hash}]
	if !ok {
		return nil, ErrAdapterNotFound
	}
	return &item, nil
}

func (s *MemoryStore) Save(_ context.Context, userID uuid.UUID, hash, name string, a adapter.Adapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{userID, hash}
	now := s.now()
	item := StoredAdapter{
		UserID:    userID,
		Hash:      hash,
		Name:      name,
		Adapter:   a,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, ok := s.items[key]; ok {
		item.CreatedAt = prev.CreatedAt
	}
	s.items[key] = item
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID uuid.UUID) ([]*StoredAdapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*StoredAdapter, 0)
	for key, item := range s.items {
		if key.userID == userID {
			out = append(out, &item)
		}
	}
	slices.SortFunc(out, newestFirst)
	return out, nil
}
