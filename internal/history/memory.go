package history

import (
	"context"
	"sync"
	"time"

	"pbiassist/internal/models"
)

// MemoryStore is the default in-process transcript. A maxMessages cap of 0
// means unbounded; otherwise the oldest entries are dropped as new ones
// arrive.
type MemoryStore struct {
	mu          sync.RWMutex
	entries     []models.HistoryEntry
	nextID      int64
	maxMessages int
}

// NewMemoryStore builds an in-memory store with the given retention cap.
func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{nextID: 1, maxMessages: maxMessages}
}

func (s *MemoryStore) Append(ctx context.Context, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, models.HistoryEntry{
		ID:        s.nextID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: time.Now().UTC(),
	})
	s.nextID++

	if s.maxMessages > 0 && len(s.entries) > s.maxMessages {
		drop := len(s.entries) - s.maxMessages
		s.entries = append([]models.HistoryEntry(nil), s.entries[drop:]...)
	}
	return nil
}

func (s *MemoryStore) Messages(ctx context.Context) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
