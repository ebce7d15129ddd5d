package helpers

import (
	"time"

	"gorm.io/gorm"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
)

// TestRepositories holds all real repository instances for integration tests
type TestRepositories struct {
	DB            *gorm.DB
	OrderRepo     orders.Repository
	SkuRepo       orders.SkuRepository
	StrategicRepo orders.StrategicRepository
	RateRepo      rating.Repository
	GeoRepo       geo.Repository
	SettingsRepo  planning.SettingsRepository
	LoadRepo      planning.LoadRepository
	SequenceRepo  planning.SequenceAllocator
	RouteCache    routing.RouteCache
}

// NewTestRepositories creates all real repository instances using shared test DB.
// clock is used for time-sensitive operations (usually a MockClock in tests)
func NewTestRepositories(clock shared.Clock) *TestRepositories {
	db := SharedTestDB

	return &TestRepositories{
		DB:            db,
		OrderRepo:     persistence.NewGormOrderRepository(db),
		SkuRepo:       persistence.NewGormSkuRepository(db),
		StrategicRepo: persistence.NewGormStrategicRepository(db),
		RateRepo:      persistence.NewGormRateRepository(db),
		GeoRepo:       persistence.NewGormGeoRepository(db),
		SettingsRepo:  persistence.NewGormSettingsRepository(db),
		LoadRepo:      persistence.NewGormLoadRepository(db, clock),
		SequenceRepo:  persistence.NewGormSequenceRepository(db),
		RouteCache:    persistence.NewGormRouteCache(db, 30*24*time.Hour, clock),
	}
}
