package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/metrics"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	appPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/planning"
	approuting "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/setup"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
	domainRouting "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/infrastructure/config"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/infrastructure/database"
)

// plannerApp bundles the wired application a command runs against
type plannerApp struct {
	cfg      *config.Config
	db       *gorm.DB
	clock    shared.Clock
	mediator common.Mediator
	rateRepo rating.Repository
}

// newPlannerApp loads configuration, connects the database, and wires every
// repository and handler behind a configured mediator
func newPlannerApp() (*plannerApp, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	clock := shared.NewRealClock()

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db)
	loadRepo := persistence.NewGormLoadRepository(db, clock)
	sequenceRepo := persistence.NewGormSequenceRepository(db)
	skuRepo := persistence.NewGormSkuRepository(db)
	strategicRepo := persistence.NewGormStrategicRepository(db)
	rateRepo := persistence.NewGormRateRepository(db)
	geoRepo := persistence.NewGormGeoRepository(db)
	settingsRepo := persistence.NewGormSettingsRepository(db)
	routeCache := persistence.NewGormRouteCache(db,
		time.Duration(cfg.Routing.CacheTTLDays)*24*time.Hour, clock)

	// Metrics collectors; nil interfaces keep recording off when disabled
	var plannerRecorder appPlanning.MetricsRecorder
	var routingRecorder approuting.MetricsRecorder
	var commandCollector *metrics.CommandMetricsCollector
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()

		plannerCollector := metrics.NewPlannerMetricsCollector()
		if err := plannerCollector.Register(); err != nil {
			return nil, fmt.Errorf("failed to register planner metrics: %w", err)
		}
		plannerRecorder = plannerCollector

		routingCollector := metrics.NewRoutingMetricsCollector()
		if err := routingCollector.Register(); err != nil {
			return nil, fmt.Errorf("failed to register routing metrics: %w", err)
		}
		routingRecorder = routingCollector

		commandCollector = metrics.NewCommandMetricsCollector()
		if err := commandCollector.Register(); err != nil {
			return nil, fmt.Errorf("failed to register command metrics: %w", err)
		}
	}

	// Road provider; without a key every route falls back to great-circle
	var provider domainRouting.RouteProvider
	if cfg.Routing.Provider == "ors" && cfg.Routing.APIKey != "" {
		provider = routing.NewORSClient(routing.ORSConfig{
			BaseURL:           cfg.Routing.BaseURL,
			APIKey:            cfg.Routing.APIKey,
			Timeout:           cfg.Routing.Timeout,
			MaxRetries:        cfg.Routing.MaxRetries,
			BackoffBase:       cfg.Routing.BackoffBase,
			SnapRadiusMeters:  cfg.Routing.SnapRadiusMeters,
			RequestsPerMinute: cfg.Routing.RequestsPerMinute,
		}, clock)
	}
	routeService := approuting.NewService(provider, routeCache, routingRecorder,
		cfg.Routing.Profile, cfg.Routing.Enabled, cfg.Routing.GeometryOnlyMode)

	sources := appPlanning.SnapshotSources{
		Skus:      skuRepo,
		Strategic: strategicRepo,
		Rates:     rateRepo,
		Geo:       geoRepo,
		Settings:  settingsRepo,
	}
	costs := appPlanning.CostParams{
		StopFeePerStop:       cfg.Costing.StopFee,
		MinimumLoadCost:      cfg.Costing.MinLoadCost,
		DefaultRatePerMile:   cfg.Costing.DefaultRatePerMile,
		FuelSurchargePerMile: cfg.Costing.FuelSurchargePerMile,
	}

	registry := setup.NewHandlerRegistry(
		orderRepo,
		loadRepo,
		sequenceRepo,
		sources,
		routeService,
		costs,
		plannerRecorder,
		clock,
	)
	m, err := registry.CreateConfiguredMediator(metrics.PrometheusMiddleware(commandCollector))
	if err != nil {
		return nil, fmt.Errorf("failed to configure mediator: %w", err)
	}

	return &plannerApp{
		cfg:      cfg,
		db:       db,
		clock:    clock,
		mediator: m,
		rateRepo: rateRepo,
	}, nil
}

// close releases the database connection
func (a *plannerApp) close() {
	if a.db != nil {
		database.Close(a.db)
	}
}

// context returns a background context carrying the run logger. Verbose mode
// lowers the level to debug regardless of config.
func (a *plannerApp) context() context.Context {
	level := a.cfg.Logging.Level
	if verbose {
		level = common.LevelDebug
	}
	logger := common.NewJSONLineLogger(os.Stderr, level)
	return common.WithLogger(context.Background(), logger)
}

// resolvePlant resolves the origin plant from flags or defaults
// Priority: --plant flag > user config default
// Returns error only if no plant can be identified from any source
func resolvePlant() (string, error) {
	if plantCode != "" {
		return strings.ToUpper(strings.TrimSpace(plantCode)), nil
	}

	userConfigHandler, err := config.NewUserConfigHandler()
	if err != nil {
		return "", fmt.Errorf("no plant specified and failed to load user config: %w", err)
	}

	userCfg, err := userConfigHandler.Load()
	if err != nil {
		return "", fmt.Errorf("no plant specified and failed to load user config: %w", err)
	}

	if userCfg.DefaultPlant != "" {
		return userCfg.DefaultPlant, nil
	}

	return "", fmt.Errorf("no plant specified: use --plant, or set a default with 'loadplan config set-plant'")
}
