package presence

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	identity string
	expires  time.Time
}

// MemoryTracker — in-process Tracker for single-node deployments and tests.
type MemoryTracker struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryTracker returns a tracker on the wall clock; pass a non-nil now
// to control time in tests.
func NewMemoryTracker(now func() time.Time) *MemoryTracker {
	if now == nil {
		now = time.Now
	}
	return &MemoryTracker{entries: make(map[string]entry), now: now}
}

func (m *MemoryTracker) Refresh(_ context.Context, uid, identity string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	m.entries[uid] = entry{identity: identity, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryTracker) Get(_ context.Context, uid string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[uid]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(e.expires) {
		m.mu.Lock()
		// re-check: a concurrent Refresh may have renewed the lease
		if cur, ok := m.entries[uid]; ok && !m.now().Before(cur.expires) {
			delete(m.entries, uid)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.identity, true, nil
}

func (m *MemoryTracker) GetMany(_ context.Context, uids []string) (map[string]string, error) {
	out := make(map[string]string, len(uids))
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, uid := range uids {
		if e, ok := m.entries[uid]; ok && now.Before(e.expires) {
			out[uid] = e.identity
		}
	}
	return out, nil
}

func (m *MemoryTracker) Remove(_ context.Context, uid string) error {
	m.mu.Lock()
	delete(m.entries, uid)
	m.mu.Unlock()
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (m *MemoryTracker) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for uid, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, uid)
			n++
		}
	}
	return n
}
