package localcache

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calfai/herd/internal/domain/models"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "outcomes.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func entry(i int) Entry {
	return Entry{
		AnimalID:    fmt.Sprintf("COW-%03d", i),
		YieldLiters: float64(i),
		Condition:   models.ConditionHealthy,
		Risk:        models.RiskLow,
		CreatedAt:   time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
	}
}

func TestPrependAndListNewestFirst(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, cache.Prepend(ctx, entry(i)))
	}

	got, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "COW-003", got[0].AnimalID)
	assert.Equal(t, "COW-001", got[2].AnimalID)
}

func TestPrependTruncatesToFiftyEntries(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	for i := 1; i <= 60; i++ {
		require.NoError(t, cache.Prepend(ctx, entry(i)))
	}

	got, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 50)
	// The ten oldest entries are gone.
	assert.Equal(t, "COW-060", got[0].AnimalID)
	assert.Equal(t, "COW-011", got[49].AnimalID)
}

func TestListEmptyCache(t *testing.T) {
	cache := openTestCache(t)

	got, err := cache.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEntryRoundTrip(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	in := Entry{
		AnimalID:    "COW-007",
		YieldLiters: 21.4,
		Condition:   models.ConditionMastitis,
		Risk:        models.RiskHigh,
		CreatedAt:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Prepend(ctx, in))

	got, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in.AnimalID, got[0].AnimalID)
	assert.Equal(t, in.YieldLiters, got[0].YieldLiters)
	assert.Equal(t, in.Risk, got[0].Risk)
	assert.True(t, in.CreatedAt.Equal(got[0].CreatedAt))
}
