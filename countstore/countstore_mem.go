package countstore

import (
	"context"
	"sync"
)

// MemCountStore is the single-process backend. Stale rolling buckets are
// never swept; fine for tests and dev runs.
type MemCountStore struct {
	mu        sync.Mutex
	hits      map[string]int
	offenders map[string]map[string]bool
}

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{
		hits:      make(map[string]int),
		offenders: make(map[string]map[string]bool),
	}
}

func (s *MemCountStore) RecordHit(ctx context.Context, rule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range allPeriods {
		s.hits[periodKey(rule, p)]++
	}
	return nil
}

func (s *MemCountStore) RuleHits(ctx context.Context, rule string, period Period) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[periodKey(rule, period)], nil
}

func (s *MemCountStore) RecordOffender(ctx context.Context, rule, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range allPeriods {
		k := periodKey(rule, p)
		if s.offenders[k] == nil {
			s.offenders[k] = make(map[string]bool)
		}
		s.offenders[k][userID] = true
	}
	return nil
}

func (s *MemCountStore) RuleOffenders(ctx context.Context, rule string, period Period) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.offenders[periodKey(rule, period)]), nil
}
