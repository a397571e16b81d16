package cacheclock

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/launchcache/internal/storage"
)

type failingClock struct{}

func (failingClock) Get(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("disk on fire")
}
func (failingClock) Set(context.Context, string, time.Time) error { return nil }
func (failingClock) Delete(context.Context, string) error         { return nil }

func TestFresh(t *testing.T) {
	ctx := context.Background()
	written := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ttl := 5 * time.Minute

	clock := NewMemory()
	require.NoError(t, clock.Set(ctx, KeyCompany, written))

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just written", written, true},
		{"just inside ttl", written.Add(ttl - time.Millisecond), true},
		{"exactly ttl", written.Add(ttl), false},
		{"just past ttl", written.Add(ttl + time.Millisecond), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fresh(ctx, clock, KeyCompany, ttl, tt.now))
		})
	}

	t.Run("missing key is expired", func(t *testing.T) {
		assert.False(t, Fresh(ctx, clock, KeyRockets, ttl, written))
	})

	t.Run("read error is expired", func(t *testing.T) {
		assert.False(t, Fresh(ctx, failingClock{}, KeyCompany, ttl, written))
	})
}

func TestLaunchKey(t *testing.T) {
	assert.Equal(t, "launches.date_asc", LaunchKey("date_asc"))
	assert.True(t, IsLaunchKey(LaunchKey("name_desc")))
	assert.False(t, IsLaunchKey(KeyLaunchYears))
	assert.False(t, IsLaunchKey("launches."))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	clock := NewMemory()

	_, ok, err := clock.Get(ctx, KeyRockets)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Now()
	require.NoError(t, clock.Set(ctx, KeyRockets, at))
	got, ok, err := clock.Get(ctx, KeyRockets)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(at))

	require.NoError(t, clock.Delete(ctx, KeyRockets))
	_, ok, _ = clock.Get(ctx, KeyRockets)
	assert.False(t, ok)
}

func TestDurable(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "clock.db"), logger)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	clock := New(store)

	_, ok, err := clock.Get(ctx, KeyLaunchYears)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, clock.Set(ctx, KeyLaunchYears, at))

	got, ok, err := clock.Get(ctx, KeyLaunchYears)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(at))

	assert.True(t, Fresh(ctx, clock, KeyLaunchYears, 24*time.Hour, at.Add(23*time.Hour)))
	assert.False(t, Fresh(ctx, clock, KeyLaunchYears, 24*time.Hour, at.Add(25*time.Hour)))

	require.NoError(t, clock.Delete(ctx, KeyLaunchYears))
	_, ok, err = clock.Get(ctx, KeyLaunchYears)
	require.NoError(t, err)
	assert.False(t, ok)
}
