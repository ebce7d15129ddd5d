package persistence

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
)

// GormStrategicRepository implements orders.StrategicRepository using GORM
type GormStrategicRepository struct {
	db *gorm.DB
}

// NewGormStrategicRepository creates a new GORM strategic customer repository
func NewGormStrategicRepository(db *gorm.DB) *GormStrategicRepository {
	return &GormStrategicRepository{db: db}
}

// ListStrategicCustomers retrieves the strategic account patterns with
// their per-account rule flags
func (r *GormStrategicRepository) ListStrategicCustomers(ctx context.Context) ([]orders.StrategicCustomer, error) {
	var models []StrategicCustomerModel
	if err := r.db.WithContext(ctx).Order("cust_key").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list strategic customers: %w", err)
	}

	customers := make([]orders.StrategicCustomer, len(models))
	for i, m := range models {
		customers[i] = orders.StrategicCustomer{
			Key:                    m.CustKey,
			Label:                  m.Label,
			Patterns:               splitPatterns(m.Patterns),
			DueDateFlexDays:        m.DueDateFlexDays,
			NoMix:                  m.NoMix,
			DefaultWedge51:         m.DefaultWedge51,
			RequiresReturnToOrigin: m.RequiresReturnToOrigin,
			IgnoreForOptimization:  m.IgnoreForOptimization,
		}
	}
	return customers, nil
}

func splitPatterns(raw string) []string {
	var patterns []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := orders.NormalizeCustomerName(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
