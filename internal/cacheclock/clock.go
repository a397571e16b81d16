// Package cacheclock records when each cached domain was last written.
package cacheclock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pendergraft/launchcache/internal/storage"
)

// Well-known cache keys
const (
	KeyCompany     = "company"
	KeyRockets     = "rockets"
	KeyLaunchYears = "launch_years"

	launchPrefix = "launches."
)

// LaunchKey returns the per-sort-option key for launch pages
func LaunchKey(sortOption string) string {
	return launchPrefix + sortOption
}

// IsLaunchKey reports whether key belongs to a launch sort option
func IsLaunchKey(key string) bool {
	return len(key) > len(launchPrefix) && key[:len(launchPrefix)] == launchPrefix
}

// Clock maps a cache key to the instant it was last written
type Clock interface {
	Get(ctx context.Context, key string) (time.Time, bool, error)
	Set(ctx context.Context, key string, at time.Time) error
	Delete(ctx context.Context, key string) error
}

// Fresh reports whether key was written less than ttl before now.
// A missing timestamp or a read error counts as expired
func Fresh(ctx context.Context, clock Clock, key string, ttl time.Duration, now time.Time) bool {
	last, ok, err := clock.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	return now.Sub(last) < ttl
}

type durable struct {
	store storage.TimestampStore
}

// New returns a Clock persisted in store
func New(store storage.TimestampStore) Clock {
	return &durable{store: store}
}

func (c *durable) Get(ctx context.Context, key string) (time.Time, bool, error) {
	at, err := c.store.GetCacheTimestamp(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

func (c *durable) Set(ctx context.Context, key string, at time.Time) error {
	return c.store.SetCacheTimestamp(ctx, key, at)
}

func (c *durable) Delete(ctx context.Context, key string) error {
	return c.store.DeleteCacheTimestamp(ctx, key)
}

// Memory is an in-process Clock
type Memory struct {
	mu    sync.Mutex
	times map[string]time.Time
}

// NewMemory returns an empty in-memory Clock
func NewMemory() *Memory {
	return &Memory{times: make(map[string]time.Time)}
}

func (m *Memory) Get(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.times[key]
	return at, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times[key] = at
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.times, key)
	return nil
}
