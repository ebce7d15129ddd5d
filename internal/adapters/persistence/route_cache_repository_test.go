package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/helpers"
)

func cachedRoute() *routing.CachedRoute {
	return &routing.CachedRoute{
		OrderedSignatures: []string{"OH|44101|41.499300|-81.694400", "OH|44301|41.038900|-81.519000"},
		LegMiles:          []float64{38.2, 12.6},
		TotalMiles:        50.8,
		Geometry:          [][]float64{{41.4993, -81.6944}, {41.0389, -81.519}},
		Provider:          "ors",
		Profile:           "driving-hgv",
	}
}

func TestRouteCache_PutAndGet(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := testClock()
	cache := persistence.NewGormRouteCache(db, 24*time.Hour, clock)
	ctx := context.Background()

	// Act
	err := cache.Put(ctx, "route-key-1", cachedRoute())
	require.NoError(t, err)
	got, found, err := cache.Get(ctx, "route-key-1")

	// Assert
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []float64{38.2, 12.6}, got.LegMiles)
	assert.Equal(t, 50.8, got.TotalMiles)
	assert.Len(t, got.OrderedSignatures, 2)
	assert.Len(t, got.Geometry, 2)
	assert.Equal(t, "ors", got.Provider)
	assert.Equal(t, "driving-hgv", got.Profile)
}

func TestRouteCache_MissingKeyIsMiss(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	cache := persistence.NewGormRouteCache(db, 24*time.Hour, testClock())

	// Act
	got, found, err := cache.Get(context.Background(), "never-written")

	// Assert
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRouteCache_ExpiredEntryIsMissAndEvicted(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := testClock()
	cache := persistence.NewGormRouteCache(db, time.Hour, clock)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "route-key-1", cachedRoute()))
	clock.Advance(2 * time.Hour)

	// Act
	_, found, err := cache.Get(ctx, "route-key-1")

	// Assert
	require.NoError(t, err)
	assert.False(t, found)

	var count int64
	require.NoError(t, db.Model(&persistence.RouteCacheModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "expired row is evicted on read")
}

func TestRouteCache_PutUpsertsExistingKey(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := testClock()
	cache := persistence.NewGormRouteCache(db, 24*time.Hour, clock)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "route-key-1", cachedRoute()))

	updated := cachedRoute()
	updated.TotalMiles = 61.5
	updated.LegMiles = []float64{48.9, 12.6}

	// Act
	err := cache.Put(ctx, "route-key-1", updated)

	// Assert
	require.NoError(t, err)
	got, found, err := cache.Get(ctx, "route-key-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 61.5, got.TotalMiles)

	var count int64
	require.NoError(t, db.Model(&persistence.RouteCacheModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRouteCache_PurgeExpired(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := testClock()
	cache := persistence.NewGormRouteCache(db, time.Hour, clock)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "stale-1", cachedRoute()))
	require.NoError(t, cache.Put(ctx, "stale-2", cachedRoute()))
	clock.Advance(2 * time.Hour)
	require.NoError(t, cache.Put(ctx, "fresh", cachedRoute()))

	// Act
	purged, err := cache.PurgeExpired(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	_, found, err := cache.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, found)
}
