package activity

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore implements Store using an in-memory slice.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	seen    map[string]bool
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]bool)}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if s.seen[e.EventID] {
			continue
		}
		s.seen[e.EventID] = true
		e.Seq = int64(len(s.entries) + 1)
		s.entries = append(s.entries, e)
	}
	return nil
}

func (s *MemoryStore) QueryByActor(_ context.Context, actorID string, opts QueryOptions) ([]Entry, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	before, paged := opts.cursorSeq()
	text := strings.ToLower(opts.Text)

	var matched []Entry
	// Newest first.
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.ActorID != actorID {
			continue
		}
		if paged && e.Seq >= before {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.OccurredAt.After(*opts.Until) {
			continue
		}
		if len(opts.EventTypes) > 0 && !slices.Contains(opts.EventTypes, e.EventType) {
			continue
		}
		if opts.MinWeight != "" && !IsAtLeastWeight(e.Weight, opts.MinWeight) {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(e.Summary), text) {
			continue
		}
		matched = append(matched, e)
	}

	limit := opts.limit()
	var next string
	if len(matched) > limit {
		matched = matched[:limit]
		next = encodeCursor(matched[len(matched)-1].Seq)
	}
	return matched, next, nil
}
