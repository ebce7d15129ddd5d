package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
)

// GormRouteCache implements routing.RouteCache with a TTL honored on read.
// Rows outlive the TTL until a read or PurgeExpired evicts them.
type GormRouteCache struct {
	db    *gorm.DB
	ttl   time.Duration
	clock shared.Clock
}

// NewGormRouteCache creates a new GORM route cache
func NewGormRouteCache(db *gorm.DB, ttl time.Duration, clock shared.Clock) *GormRouteCache {
	return &GormRouteCache{db: db, ttl: ttl, clock: clock}
}

// Get retrieves a cached route; found is false on miss or expiry
func (c *GormRouteCache) Get(ctx context.Context, key string) (*routing.CachedRoute, bool, error) {
	var model RouteCacheModel
	result := c.db.WithContext(ctx).Where("cache_key = ?", key).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read route cache: %w", result.Error)
	}

	if c.clock.Now().After(model.ExpiresAt) {
		// Expired rows are lazily evicted; a failed delete is harmless
		c.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&RouteCacheModel{})
		return nil, false, nil
	}

	route, err := modelToRoute(&model)
	if err != nil {
		return nil, false, err
	}
	return route, true, nil
}

// Put stores a solved route, replacing any prior row for the key
func (c *GormRouteCache) Put(ctx context.Context, key string, route *routing.CachedRoute) error {
	model, err := routeToModel(key, route)
	if err != nil {
		return err
	}
	model.ExpiresAt = c.clock.Now().Add(c.ttl)

	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider", "profile", "signatures", "leg_miles", "total_miles", "geometry", "expires_at",
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to write route cache: %w", err)
	}
	return nil
}

// PurgeExpired deletes every row past its expiry and reports how many went
func (c *GormRouteCache) PurgeExpired(ctx context.Context) (int64, error) {
	result := c.db.WithContext(ctx).
		Where("expires_at < ?", c.clock.Now()).
		Delete(&RouteCacheModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge route cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func routeToModel(key string, route *routing.CachedRoute) (*RouteCacheModel, error) {
	signatures, err := json.Marshal(route.OrderedSignatures)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal route signatures: %w", err)
	}
	legs, err := json.Marshal(route.LegMiles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal route legs: %w", err)
	}
	geometry, err := json.Marshal(route.Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal route geometry: %w", err)
	}
	return &RouteCacheModel{
		CacheKey:   key,
		Provider:   route.Provider,
		Profile:    route.Profile,
		Signatures: string(signatures),
		LegMiles:   string(legs),
		TotalMiles: route.TotalMiles,
		Geometry:   string(geometry),
	}, nil
}

func modelToRoute(model *RouteCacheModel) (*routing.CachedRoute, error) {
	route := &routing.CachedRoute{
		TotalMiles: model.TotalMiles,
		Provider:   model.Provider,
		Profile:    model.Profile,
	}
	if err := json.Unmarshal([]byte(model.Signatures), &route.OrderedSignatures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route signatures: %w", err)
	}
	if err := json.Unmarshal([]byte(model.LegMiles), &route.LegMiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route legs: %w", err)
	}
	if model.Geometry != "" {
		if err := json.Unmarshal([]byte(model.Geometry), &route.Geometry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal route geometry: %w", err)
		}
	}
	return route, nil
}
