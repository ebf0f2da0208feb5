package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/visitgate/visitgate/internal/visitgate/store"
)

// NotificationStore is an in-memory store.NotificationStore.
type NotificationStore struct {
	mu      sync.RWMutex
	records []store.NotificationRecord
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) CreateNotification(_ context.Context, rec store.NotificationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *NotificationStore) ListUnread(_ context.Context, recipientID string, limit int) ([]store.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.NotificationRecord
	for _, rec := range s.records {
		if rec.RecipientID == recipientID && !rec.Read {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id, recipientID string) (store.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.ID == id && rec.RecipientID == recipientID {
			s.records[i].Read = true
			return s.records[i], nil
		}
	}
	return store.NotificationRecord{}, store.ErrNotFound
}

func (s *NotificationStore) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for i, rec := range s.records {
		if rec.RecipientID == recipientID && !rec.Read {
			s.records[i].Read = true
			n++
		}
	}
	return n, nil
}

func (s *NotificationStore) PruneReadOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var n int64
	for _, rec := range s.records {
		if rec.Read && rec.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return n, nil
}

// All returns every record, for test inspection.
func (s *NotificationStore) All() []store.NotificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.NotificationRecord, len(s.records))
	copy(out, s.records)
	return out
}
