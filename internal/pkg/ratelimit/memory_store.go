// internal/pkg/ratelimit/memory_store.go
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	mu    sync.Mutex
	rec   Record
	found bool
	dead  bool // removed by Sweep; holders must look the key up again
}

// MemoryStore keeps records in process memory. Each key has its own lock, so
// contention on one key never blocks another.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn func(Record, bool) Record) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := s.entry(key)
		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		e.rec = fn(e.rec, e.found)
		e.found = true
		e.mu.Unlock()
		return nil
	}
}

// Sweep drops records whose reset time has passed. Entries locked by an
// in-flight Update are skipped and picked up on a later sweep.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !e.mu.TryLock() {
			continue
		}
		if e.found && !now.Before(e.rec.ResetTime) {
			e.dead = true
			delete(s.entries, key)
			removed++
		}
		e.mu.Unlock()
	}
	return removed, nil
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) entry(key string) *memoryEntry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[key]; !ok {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	return e
}
