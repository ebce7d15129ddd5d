package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
)

// GormSkuRepository implements orders.SkuRepository using GORM
type GormSkuRepository struct {
	db *gorm.DB
}

// NewGormSkuRepository creates a new GORM SKU repository
func NewGormSkuRepository(db *gorm.DB) *GormSkuRepository {
	return &GormSkuRepository{db: db}
}

// ListSkuSpecs retrieves the full SKU catalog
func (r *GormSkuRepository) ListSkuSpecs(ctx context.Context) ([]orders.SkuSpec, error) {
	var models []SkuSpecModel
	if err := r.db.WithContext(ctx).Order("sku").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list sku specs: %w", err)
	}

	specs := make([]orders.SkuSpec, len(models))
	for i, m := range models {
		specs[i] = orders.SkuSpec{
			Sku:                m.Sku,
			Category:           m.Category,
			LengthWithTongueFt: m.LengthWithTongueFt,
			MaxStackStepDeck:   m.MaxStackStepDeck,
			MaxStackFlatbed:    m.MaxStackFlatbed,
		}
	}
	return specs, nil
}
