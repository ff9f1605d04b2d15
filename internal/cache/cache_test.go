package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemory(clock)

	_, ok := store.Get(ctx, "missing")
	assert.False(t, ok)

	store.Set(ctx, "k", "v1", time.Hour)
	val, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v1", val)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemory(clock)

	store.Set(ctx, "k", "v", time.Hour)

	clock.Advance(59 * time.Minute)
	_, ok := store.Get(ctx, "k")
	assert.True(t, ok, "entry should survive before TTL")

	clock.Advance(time.Minute)
	_, ok = store.Get(ctx, "k")
	assert.False(t, ok, "entry should expire exactly at TTL")

	// Expired entry is evicted on read.
	assert.Equal(t, 0, store.Len())
}

func TestMemoryLastWriteWins(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemory(clock)

	store.Set(ctx, "k", "old", time.Minute)
	store.Set(ctx, "k", "new", time.Hour)

	clock.Advance(30 * time.Minute)
	val, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "new", val)
}

func TestMemoryIgnoresNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(nil)

	store.Set(ctx, "k", "v", 0)
	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}
