package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// VisitorStore is an in-memory store.VisitorStore used by tests and dev mode.
type VisitorStore struct {
	mu       sync.RWMutex
	visitors map[string]store.VisitorRecord
}

func NewVisitorStore() *VisitorStore {
	return &VisitorStore{visitors: make(map[string]store.VisitorRecord)}
}

func (s *VisitorStore) CreateVisitor(_ context.Context, rec store.VisitorRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = rec.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()
	s.visitors[rec.ID] = rec
	return nil
}

func (s *VisitorStore) GetVisitor(_ context.Context, id string) (store.VisitorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.visitors[id]
	if !ok {
		return store.VisitorRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *VisitorStore) ListVisitorsByStatus(_ context.Context, status types.Status) ([]store.VisitorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.VisitorRecord
	for _, rec := range s.visitors {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *VisitorStore) CompareAndSetStatus(
	_ context.Context,
	id string,
	expected, next types.Status,
	field store.TimestampField,
	at time.Time,
) (bool, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.visitors[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if rec.Status != expected {
		return false, nil
	}

	rec.Status = next
	switch field {
	case store.SetCheckIn:
		t := at
		rec.CheckInTime = &t
	case store.SetCheckOut:
		t := at
		rec.CheckOutTime = &t
	}
	rec.UpdatedAt = at
	s.visitors[id] = rec
	return true, nil
}
