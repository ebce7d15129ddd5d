package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/costing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/pkg/utils"
)

// Run statuses reported to metrics
const (
	runStatusOK        = "ok"
	runStatusInvalid   = "invalid"
	runStatusEmpty     = "empty"
	runStatusError     = "error"
	runStatusCancelled = "cancelled"
)

// CostParams are the pricing constants of a run, sourced from service
// configuration
type CostParams struct {
	StopFeePerStop       float64
	MinimumLoadCost      float64
	DefaultRatePerMile   float64
	FuelSurchargePerMile float64
}

// BuildLoadsCommand requests one optimization run for a plant
type BuildLoadsCommand struct {
	Params planning.PlanParams
}

// BuildLoadsResult is the full outcome of one planning run. Errors carries
// parameter problems keyed by field path; when set, nothing was planned.
type BuildLoadsResult struct {
	SessionID   string
	Plant       string
	Algorithm   string
	Loads       []*planning.Load
	Summary     Summary
	Comparison  *Comparison
	Eligibility *orders.EligibilityReport
	Errors      map[string]string
	Persisted   bool
	Elapsed     time.Duration
}

// BuildLoadsHandler orchestrates a planning run end to end: snapshot the
// reference data, group and filter orders, run the selected strategy, and
// replace the plant's proposed plan
type BuildLoadsHandler struct {
	orderRepo orders.Repository
	loadRepo  planning.LoadRepository
	sources   SnapshotSources
	routes    costing.RouteBuilder
	costs     CostParams
	metrics   MetricsRecorder
	clock     shared.Clock
}

func NewBuildLoadsHandler(
	orderRepo orders.Repository,
	loadRepo planning.LoadRepository,
	sources SnapshotSources,
	routes costing.RouteBuilder,
	costs CostParams,
	metrics MetricsRecorder,
	clock shared.Clock,
) *BuildLoadsHandler {
	return &BuildLoadsHandler{
		orderRepo: orderRepo,
		loadRepo:  loadRepo,
		sources:   sources,
		routes:    routes,
		costs:     costs,
		metrics:   metrics,
		clock:     clock,
	}
}

// Handle executes the command
func (h *BuildLoadsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*BuildLoadsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	started := h.clock.Now()
	params := cmd.Params
	logger := common.LoggerFromContext(ctx)

	if problems := params.Validate(); len(problems) > 0 {
		h.recordRun(params.AlgorithmVersion, runStatusInvalid, started)
		return &BuildLoadsResult{Errors: problems}, nil
	}

	sessionID := params.SessionID
	if sessionID == "" {
		sessionID = utils.GenerateSessionID(params.OriginPlant)
	}

	snapshot, err := LoadSnapshot(ctx, h.sources, h.costs.DefaultRatePerMile, h.costs.FuelSurchargePerMile)
	if err != nil {
		h.recordRun(params.AlgorithmVersion, runStatusError, started)
		return nil, fmt.Errorf("loading planning snapshot: %w", err)
	}

	origin, hasOrigin := snapshot.Gazetteer.PlantCoords(params.OriginPlant)
	if !hasOrigin {
		h.recordRun(params.AlgorithmVersion, runStatusInvalid, started)
		return &BuildLoadsResult{
			SessionID: sessionID,
			Plant:     params.OriginPlant,
			Errors:    map[string]string{"origin_plant": "unknown plant code"},
		}, nil
	}

	lines, err := h.orderRepo.ListLinesForPlanning(ctx, params.OriginPlant, params.OrdersStartDate)
	if err != nil {
		h.recordRun(params.AlgorithmVersion, runStatusError, started)
		return nil, fmt.Errorf("loading order lines: %w", err)
	}
	headers, err := h.orderRepo.ListOrders(ctx, params.OriginPlant)
	if err != nil {
		h.recordRun(params.AlgorithmVersion, runStatusError, started)
		return nil, fmt.Errorf("loading order headers: %w", err)
	}

	grouper := orders.NewGrouper(snapshot.Catalog, snapshot.Strategic, snapshot.Gazetteer)
	groups := grouper.BuildGroups(lines, headers)

	eligible, report := orders.FilterEligible(groups, orders.EligibilityFilter{
		States:         params.StateFilters,
		Customers:      params.CustomerFilters,
		StartDate:      params.OrdersStartDate,
		EndDate:        params.BatchEndDate,
		SelectedSoNums: params.SelectedSoNums,
	})
	if len(eligible) == 0 {
		logger.Log(common.LevelWarn, "no eligible orders for planning", map[string]interface{}{
			"plant":  params.OriginPlant,
			"reason": report.EmptyReason,
		})
		h.recordRun(params.AlgorithmVersion, runStatusEmpty, started)
		return &BuildLoadsResult{
			SessionID:   sessionID,
			Plant:       params.OriginPlant,
			Algorithm:   params.AlgorithmVersion,
			Eligibility: report,
		}, nil
	}

	calculator := costing.NewCalculator(h.routes, snapshot.Rates, h.costs.StopFeePerStop, h.costs.MinimumLoadCost)

	var loads []*planning.Load
	var comparison *Comparison
	if params.AlgorithmVersion == "baseline" {
		builder := NewLoadBuilder(params, snapshot.Catalog, calculator, origin, true, NewIdAllocator())
		loads = NewBaselineStrategy(params, builder).BuildLoads(ctx, eligible)
	} else {
		builder := NewLoadBuilder(params, snapshot.Catalog, calculator, origin, true, NewIdAllocator())
		loads, err = NewOptimizer(params, builder, h.metrics).Optimize(ctx, eligible)
		if err != nil {
			h.recordRun(params.AlgorithmVersion, runStatusCancelled, started)
			return nil, err
		}

		baseBuilder := NewLoadBuilder(params, snapshot.Catalog, calculator, origin, true, NewIdAllocator())
		baselineLoads := NewBaselineStrategy(params, baseBuilder).BuildLoads(ctx, eligible)
		cmp := Compare(Summarize(loads), Summarize(baselineLoads))
		comparison = &cmp
	}

	for _, l := range loads {
		l.SessionID = sessionID
	}

	persisted := false
	if !params.DryRun {
		if err := h.loadRepo.ReplaceProposedForPlant(ctx, params.OriginPlant, sessionID, loads); err != nil {
			h.recordRun(params.AlgorithmVersion, runStatusError, started)
			return nil, fmt.Errorf("persisting plan: %w", err)
		}
		persisted = true
	}

	if h.metrics != nil {
		h.metrics.RecordLoadsBuilt(len(loads))
		for _, l := range loads {
			h.metrics.RecordLoadUtilization(l.UtilizationPct)
		}
	}
	h.recordRun(params.AlgorithmVersion, runStatusOK, started)

	summary := Summarize(loads)
	logger.Log(common.LevelInfo, "planning run finished", map[string]interface{}{
		"plant":     params.OriginPlant,
		"session":   sessionID,
		"algorithm": params.AlgorithmVersion,
		"eligible":  len(eligible),
		"loads":     summary.TotalLoads,
		"avg_util":  summary.AvgUtilization,
		"dry_run":   params.DryRun,
	})

	return &BuildLoadsResult{
		SessionID:   sessionID,
		Plant:       params.OriginPlant,
		Algorithm:   params.AlgorithmVersion,
		Loads:       loads,
		Summary:     summary,
		Comparison:  comparison,
		Eligibility: report,
		Persisted:   persisted,
		Elapsed:     h.clock.Now().Sub(started),
	}, nil
}

func (h *BuildLoadsHandler) recordRun(algorithm, status string, started time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordPlanRun(algorithm, status, h.clock.Now().Sub(started).Seconds())
}
