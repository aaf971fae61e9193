package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests. TTLs
// are enforced lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	records map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rec       *Record
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryTTL overrides the default session TTL.
func WithMemoryTTL(ttl time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		ttl:     DefaultTTL,
		records: make(map[string]*memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SessionID] = &memoryEntry{
		rec:       rec.Clone(),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(sessionID)
	if entry == nil {
		return nil, nil
	}
	return entry.rec.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live(rec.SessionID) == nil {
		return false, nil
	}
	s.records[rec.SessionID] = &memoryEntry{
		rec:       rec.Clone(),
		expiresAt: s.now().Add(s.ttl),
	}
	return true, nil
}

func (s *MemoryStore) Extend(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(sessionID)
	if entry == nil {
		return false, nil
	}
	entry.expiresAt = s.now().Add(s.ttl)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live(sessionID) == nil {
		return false, nil
	}
	delete(s.records, sessionID)
	return true, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Record
	for id, entry := range s.records {
		if s.now().After(entry.expiresAt) {
			delete(s.records, id)
			continue
		}
		if entry.rec.UserID == userID {
			out = append(out, entry.rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// live returns the entry when it exists and has not expired. Expired
// entries are removed on the way. Callers must hold the write lock.
func (s *MemoryStore) live(sessionID string) *memoryEntry {
	entry, ok := s.records[sessionID]
	if !ok {
		return nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.records, sessionID)
		return nil
	}
	return entry
}
