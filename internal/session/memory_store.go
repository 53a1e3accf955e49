package session

import (
	"context"
	"sync"
	"time"
)

// defaultSweepEvery is how many new sessions are created between full scans
// for expired entries.
const defaultSweepEvery = 1024

// MemoryStore keeps sessions in process memory. It suits a single instance
// and tests; use RedisStore when several instances share clients.
//
// Sessions that are never used again are reclaimed by a scan that runs every
// sweepEvery creations, so the map holds at most the live sessions plus
// sweepEvery expired ones.
type MemoryStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	sessions   map[string]*memoryEntry
	sweepEvery int
	created    int
}

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		ttl:        ttl,
		now:        time.Now,
		sessions:   make(map[string]*memoryEntry),
		sweepEvery: defaultSweepEvery,
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(sessionID)
	if entry == nil {
		return "", false, nil
	}
	entry.expiresAt = s.now().Add(s.ttl)
	value, ok := entry.values[key]
	return value, ok, nil
}

func (s *MemoryStore) SetNX(_ context.Context, sessionID, key, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(sessionID)
	if entry == nil {
		s.created++
		if s.created >= s.sweepEvery {
			s.created = 0
			s.sweepLocked()
		}
		entry = &memoryEntry{values: make(map[string]string)}
		s.sessions[sessionID] = entry
	}
	entry.expiresAt = s.now().Add(s.ttl)
	if existing, ok := entry.values[key]; ok {
		return existing, nil
	}
	entry.values[key] = value
	return value, nil
}

func (s *MemoryStore) Destroy(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// live returns the entry for sessionID, dropping it if expired. Callers hold mu.
func (s *MemoryStore) live(sessionID string) *memoryEntry {
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return nil
	}
	return entry
}

// Sweep drops every expired session.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
