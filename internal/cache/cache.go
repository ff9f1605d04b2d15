// Package cache provides the TTL cache used for registry search results and
// ZIP lookups. Values are stored as strings; callers JSON-encode structured
// data so the memory and redis backends stay interchangeable.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a TTL key-value cache.
type Store interface {
	// Get returns the cached value for key, or false when the key is
	// missing or expired.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key for the given TTL. Last write wins.
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// Clock supplies the current time. Production code uses the real clock;
// tests inject a fake.
type Clock interface {
	Now() time.Time
}

// RealClock reads time.Now.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store. Expiry is checked on read.
type Memory struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]entry
}

// NewMemory creates an in-memory store with the given clock.
func NewMemory(clock Clock) *Memory {
	if clock == nil {
		clock = RealClock{}
	}
	return &Memory{
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Get returns the value for key when present and not expired. Expired
// entries are removed on read.
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if !m.clock.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", false
	}
	return e.value, true
}

// Set stores value under key. A non-positive TTL stores nothing.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{
		value:     value,
		expiresAt: m.clock.Now().Add(ttl),
	}
}

// Len reports the number of entries, including any not yet evicted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
