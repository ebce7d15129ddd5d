package orders

import (
	"context"
	"time"
)

// Repository loads order data for planning
type Repository interface {
	// ListLinesForPlanning returns open, shippable lines for a plant.
	// Lines due before startDate are excluded; lines without a due date
	// are kept.
	ListLinesForPlanning(ctx context.Context, plant string, startDate *time.Time) ([]*OrderLine, error)

	// ListOrders returns order headers for a plant
	ListOrders(ctx context.Context, plant string) ([]Order, error)
}

// SkuRepository loads the SKU catalog
type SkuRepository interface {
	ListSkuSpecs(ctx context.Context) ([]SkuSpec, error)
}

// StrategicRepository loads strategic customer patterns and rules
type StrategicRepository interface {
	ListStrategicCustomers(ctx context.Context) ([]StrategicCustomer, error)
}
