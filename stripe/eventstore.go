package stripe

import (
	"sync"
	"time"
)

// EventStore tracks processed webhook events for idempotency.
type EventStore interface {
	EventExists(eventID string) bool
	MarkProcessed(eventID string) error
}

// MemoryEventStore is an in-memory EventStore with a TTL. It is the fallback
// when no database-backed store is wired in, and loses its state on restart.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events map[string]time.Time
	ttl    time.Duration
}

// NewMemoryEventStore creates a memory event store. Entries expire after
// ttl; a non-positive ttl defaults to 72 hours, past the retry window of
// Stripe webhook deliveries.
func NewMemoryEventStore(ttl time.Duration) *MemoryEventStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	store := &MemoryEventStore{
		events: make(map[string]time.Time),
		ttl:    ttl,
	}
	go store.cleanupLoop()
	return store
}

// EventExists reports whether the event was processed within the TTL.
func (m *MemoryEventStore) EventExists(eventID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.events[eventID]
	return ok && time.Since(at) < m.ttl
}

// MarkProcessed records the event as processed.
func (m *MemoryEventStore) MarkProcessed(eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventID] = time.Now()
	return nil
}

func (m *MemoryEventStore) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		m.mu.Lock()
		for id, at := range m.events {
			if time.Since(at) >= m.ttl {
				delete(m.events, id)
			}
		}
		m.mu.Unlock()
	}
}
