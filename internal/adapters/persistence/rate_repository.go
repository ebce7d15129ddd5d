package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
)

// GormRateRepository implements rating.Repository using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GORM rate repository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// ListRates retrieves every lane rate row
func (r *GormRateRepository) ListRates(ctx context.Context) ([]rating.RateEntry, error) {
	var models []RateModel
	if err := r.db.WithContext(ctx).
		Order("origin_plant, destination_state, effective_year").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list freight rates: %w", err)
	}

	entries := make([]rating.RateEntry, len(models))
	for i, m := range models {
		entries[i] = rating.RateEntry{
			OriginPlant:      m.OriginPlant,
			DestinationState: m.DestinationState,
			EffectiveYear:    m.EffectiveYear,
			RatePerMile:      m.RatePerMile,
		}
	}
	return entries, nil
}
