package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemorySink keeps audit entries in memory, grouped by kind. It backs unit
// tests and single-process deployments.
type InMemorySink struct {
	mu      sync.RWMutex
	entries map[Kind][]Entry
}

func NewInMemorySink() *InMemorySink {
	return &InMemorySink{entries: make(map[Kind][]Entry)}
}

func (s *InMemorySink) Append(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.Kind] = append(s.entries[e.Kind], e)
	}
	return nil
}

// ListByEntity returns the recorded entries for one entity, append order.
func (s *InMemorySink) ListByEntity(_ context.Context, kind Kind, entityID uuid.UUID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries[kind] {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListByKind returns all entries recorded for a kind, append order.
func (s *InMemorySink) ListByKind(_ context.Context, kind Kind) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[kind]...), nil
}
