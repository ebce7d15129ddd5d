package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
)

// Order line feed statuses
const (
	lineStatusOpen = "OPEN"
)

// GormOrderRepository implements orders.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// ListLinesForPlanning retrieves open, non-excluded lines for a plant in
// feed order. Lines due before startDate are dropped; undated lines stay.
func (r *GormOrderRepository) ListLinesForPlanning(ctx context.Context, plant string, startDate *time.Time) ([]*orders.OrderLine, error) {
	query := r.db.WithContext(ctx).
		Where("plant = ? AND status = ? AND is_excluded = ?", plant, lineStatusOpen, false)
	if startDate != nil {
		query = query.Where("due_date IS NULL OR due_date >= ?", *startDate)
	}

	var models []OrderLineModel
	if err := query.Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}

	lines := make([]*orders.OrderLine, len(models))
	for i := range models {
		lines[i] = lineToEntity(&models[i])
	}
	return lines, nil
}

// ListOrders retrieves the order headers for a plant
func (r *GormOrderRepository) ListOrders(ctx context.Context, plant string) ([]orders.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Where("plant = ?", plant).Order("so_num").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	headers := make([]orders.Order, len(models))
	for i, m := range models {
		headers[i] = orders.Order{
			SoNum:    m.SoNum,
			Plant:    m.Plant,
			CustName: m.CustName,
			City:     m.City,
			State:    m.State,
			Zip:      m.Zip,
			DueDate:  m.DueDate,
		}
	}
	return headers, nil
}

func lineToEntity(m *OrderLineModel) *orders.OrderLine {
	return &orders.OrderLine{
		ID:            m.ID,
		SoNum:         m.SoNum,
		Plant:         m.Plant,
		Item:          m.Item,
		Sku:           m.Sku,
		Qty:           m.Qty,
		UnitLengthFt:  m.UnitLengthFt,
		TotalLengthFt: m.TotalLengthFt,
		MaxStack:      m.MaxStack,
		City:          m.City,
		State:         m.State,
		Zip:           m.Zip,
		DueDate:       m.DueDate,
		CustName:      m.CustName,
		IsExcluded:    m.IsExcluded,
	}
}
