package setup

import (
	"reflect"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/costing"
	appPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	domainPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
)

// HandlerRegistry holds all application dependencies for handler creation
type HandlerRegistry struct {
	orderRepo orders.Repository
	loadRepo  domainPlanning.LoadRepository
	sequences domainPlanning.SequenceAllocator
	sources   appPlanning.SnapshotSources
	routes    costing.RouteBuilder
	costs     appPlanning.CostParams
	metrics   appPlanning.MetricsRecorder
	clock     shared.Clock
}

// NewHandlerRegistry creates a new handler registry with required dependencies.
// metrics may be nil when collection is disabled.
func NewHandlerRegistry(
	orderRepo orders.Repository,
	loadRepo domainPlanning.LoadRepository,
	sequences domainPlanning.SequenceAllocator,
	sources appPlanning.SnapshotSources,
	routes costing.RouteBuilder,
	costs appPlanning.CostParams,
	metrics appPlanning.MetricsRecorder,
	clock shared.Clock,
) *HandlerRegistry {
	// Default to real clock if not provided
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &HandlerRegistry{
		orderRepo: orderRepo,
		loadRepo:  loadRepo,
		sequences: sequences,
		sources:   sources,
		routes:    routes,
		costs:     costs,
		metrics:   metrics,
		clock:     clock,
	}
}

// RegisterPlanningHandlers registers the load construction handlers with the
// mediator
//
// This method registers:
//   - BuildLoadsCommand → BuildLoadsHandler (full optimization run)
//   - BuildManualLoadCommand → BuildManualLoadHandler (operator-picked loads)
func (r *HandlerRegistry) RegisterPlanningHandlers(m common.Mediator) error {
	buildHandler := appPlanning.NewBuildLoadsHandler(
		r.orderRepo,
		r.loadRepo,
		r.sources,
		r.routes,
		r.costs,
		r.metrics,
		r.clock,
	)
	if err := m.Register(
		reflect.TypeOf(&appPlanning.BuildLoadsCommand{}),
		buildHandler,
	); err != nil {
		return err
	}

	manualHandler := appPlanning.NewBuildManualLoadHandler(
		r.orderRepo,
		r.loadRepo,
		r.sequences,
		r.sources,
		r.routes,
		r.costs,
		r.clock,
	)
	if err := m.Register(
		reflect.TypeOf(&appPlanning.BuildManualLoadCommand{}),
		manualHandler,
	); err != nil {
		return err
	}

	return nil
}

// RegisterLifecycleHandlers registers the load status transition handlers
//
// This method registers:
//   - PromoteLoadCommand → PromoteLoadHandler (PROPOSED → DRAFT)
//   - ApproveLoadCommand → ApproveLoadHandler (DRAFT → APPROVED)
//   - DeleteLoadCommand → DeleteLoadHandler (remove unapproved loads)
func (r *HandlerRegistry) RegisterLifecycleHandlers(m common.Mediator) error {
	if err := m.Register(
		reflect.TypeOf(&appPlanning.PromoteLoadCommand{}),
		appPlanning.NewPromoteLoadHandler(r.loadRepo),
	); err != nil {
		return err
	}

	if err := m.Register(
		reflect.TypeOf(&appPlanning.ApproveLoadCommand{}),
		appPlanning.NewApproveLoadHandler(r.loadRepo),
	); err != nil {
		return err
	}

	if err := m.Register(
		reflect.TypeOf(&appPlanning.DeleteLoadCommand{}),
		appPlanning.NewDeleteLoadHandler(r.loadRepo),
	); err != nil {
		return err
	}

	return nil
}

// RegisterQueryHandlers registers the read-side handlers
//
// This method registers:
//   - ListLoadsQuery → ListLoadsHandler (stored plan for a plant)
//   - GetPlanSummaryQuery → GetPlanSummaryHandler (plan rollup)
func (r *HandlerRegistry) RegisterQueryHandlers(m common.Mediator) error {
	if err := m.Register(
		reflect.TypeOf(&appPlanning.ListLoadsQuery{}),
		appPlanning.NewListLoadsHandler(r.loadRepo),
	); err != nil {
		return err
	}

	if err := m.Register(
		reflect.TypeOf(&appPlanning.GetPlanSummaryQuery{}),
		appPlanning.NewGetPlanSummaryHandler(r.loadRepo),
	); err != nil {
		return err
	}

	return nil
}

// CreateConfiguredMediator creates a new mediator with every planner handler
// registered
//
// Middleware run outermost-first in the order given. Use this when you need
// a fully configured mediator for application use.
func (r *HandlerRegistry) CreateConfiguredMediator(middleware ...common.Middleware) (common.Mediator, error) {
	m := common.NewMediator()
	for _, mw := range middleware {
		m.Use(mw)
	}

	if err := r.RegisterPlanningHandlers(m); err != nil {
		return nil, err
	}
	if err := r.RegisterLifecycleHandlers(m); err != nil {
		return nil, err
	}
	if err := r.RegisterQueryHandlers(m); err != nil {
		return nil, err
	}

	return m, nil
}
