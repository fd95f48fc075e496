package archivestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/havenchat/warden/event"
)

type MemArchiveStore struct {
	mu   sync.Mutex
	data map[string][]*event.MatchContext
}

func NewMemArchiveStore() *MemArchiveStore {
	return &MemArchiveStore{
		data: make(map[string][]*event.MatchContext),
	}
}

func (s *MemArchiveStore) Create(ctx context.Context, contexts []*event.MatchContext) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = append([]*event.MatchContext(nil), contexts...)
	return id, nil
}

func (s *MemArchiveStore) Append(ctx context.Context, archiveID string, contexts []*event.MatchContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data[archiveID]
	if !ok {
		return fmt.Errorf("unknown archive: %s", archiveID)
	}
	s.data[archiveID] = append(existing, contexts...)
	return nil
}

func (s *MemArchiveStore) Get(ctx context.Context, archiveID string) ([]*event.MatchContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data[archiveID]
	if !ok {
		return nil, fmt.Errorf("unknown archive: %s", archiveID)
	}
	return append([]*event.MatchContext(nil), existing...), nil
}

// Count returns the number of archives held, for tests.
func (s *MemArchiveStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
