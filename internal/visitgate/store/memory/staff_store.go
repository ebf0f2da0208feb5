package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/visitgate/visitgate/internal/visitgate/store"
)

// StaffStore is an in-memory store.StaffStore seeded at construction.
type StaffStore struct {
	mu    sync.RWMutex
	byID  map[string]store.StaffRecord
	byEml map[string]string // lowercased email -> id
}

func NewStaffStore(staff []store.StaffRecord) *StaffStore {
	s := &StaffStore{
		byID:  make(map[string]store.StaffRecord, len(staff)),
		byEml: make(map[string]string, len(staff)),
	}
	for _, rec := range staff {
		s.byID[rec.ID] = rec
		s.byEml[strings.ToLower(rec.Email)] = rec.ID
	}
	return s
}

func (s *StaffStore) GetStaff(_ context.Context, id string) (store.StaffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return store.StaffRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *StaffStore) GetStaffByEmail(_ context.Context, email string) (store.StaffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEml[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return store.StaffRecord{}, store.ErrNotFound
	}
	return s.byID[id], nil
}
