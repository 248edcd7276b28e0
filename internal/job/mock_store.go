package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore implements Store in memory for testing. SaveFn and
// UpdateStatusFn may be replaced to inject failures.
type MockStore struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]Record
	now     func() time.Time

	SaveFn         func(ctx context.Context, rec Record) error
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, status Status, attempts int, errMsg string) error
}

// NewMockStore creates a MockStore with default in-memory behavior.
func NewMockStore() *MockStore {
	s := &MockStore{
		records: make(map[uuid.UUID]Record),
		now:     time.Now,
	}

	s.SaveFn = func(_ context.Context, rec Record) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		s.records[rec.ID] = rec
		return nil
	}

	s.UpdateStatusFn = func(_ context.Context, id uuid.UUID, status Status, attempts int, errMsg string) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		rec, ok := s.records[id]
		if !ok {
			return nil
		}
		rec.Status = status
		rec.Attempts = attempts
		rec.LastError = nil
		if errMsg != "" {
			msg := errMsg
			rec.LastError = &msg
		}
		rec.UpdatedAt = s.now()
		s.records[id] = rec
		return nil
	}

	return s
}

// Save implements Store.
func (s *MockStore) Save(ctx context.Context, rec Record) error {
	return s.SaveFn(ctx, rec)
}

// UpdateStatus implements Store.
func (s *MockStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, attempts int, errMsg string) error {
	return s.UpdateStatusFn(ctx, id, status, attempts, errMsg)
}

// Transition implements Store.
func (s *MockStore) Transition(_ context.Context, id uuid.UUID, from, to Status, attempts int, errMsg string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	rec.Attempts = attempts
	rec.LastError = nil
	if errMsg != "" {
		msg := errMsg
		rec.LastError = &msg
	}
	rec.UpdatedAt = s.now()
	s.records[id] = rec
	return true, nil
}

// ListByStatus implements Store.
func (s *MockStore) ListByStatus(_ context.Context, status Status, olderThan time.Duration) ([]Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cutoff := s.now().Add(-olderThan)
	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && rec.UpdatedAt.After(cutoff) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Get returns the stored record for id.
func (s *MockStore) Get(id uuid.UUID) (Record, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Put stores rec as is, bypassing SaveFn.
func (s *MockStore) Put(rec Record) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records[rec.ID] = rec
}
