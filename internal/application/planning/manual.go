package planning

import (
	"context"
	"fmt"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/costing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/stacking"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/pkg/utils"
)

// BuildManualLoadCommand builds one load from operator-picked sales orders.
// Manual loads skip the optimizer entirely and go straight to DRAFT with a
// load number assigned.
type BuildManualLoadCommand struct {
	OriginPlant string
	SoNums      []string
	TrailerType stacking.TrailerType // empty uses the standard step deck
	SessionID   string
}

// BuildManualLoadResult carries the saved load; Errors is set instead when
// the selection cannot ship
type BuildManualLoadResult struct {
	Load       *planning.Load
	LoadID     uint
	LoadNumber string
	Errors     map[string]string
}

// BuildManualLoadHandler handles manual load construction
type BuildManualLoadHandler struct {
	orderRepo orders.Repository
	loadRepo  planning.LoadRepository
	sequences planning.SequenceAllocator
	sources   SnapshotSources
	routes    costing.RouteBuilder
	costs     CostParams
	clock     shared.Clock
}

func NewBuildManualLoadHandler(
	orderRepo orders.Repository,
	loadRepo planning.LoadRepository,
	sequences planning.SequenceAllocator,
	sources SnapshotSources,
	routes costing.RouteBuilder,
	costs CostParams,
	clock shared.Clock,
) *BuildManualLoadHandler {
	return &BuildManualLoadHandler{
		orderRepo: orderRepo,
		loadRepo:  loadRepo,
		sequences: sequences,
		sources:   sources,
		routes:    routes,
		costs:     costs,
		clock:     clock,
	}
}

// Handle executes the command
func (h *BuildManualLoadHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*BuildManualLoadCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	params := planning.DefaultPlanParams(cmd.OriginPlant)
	if cmd.TrailerType != "" {
		params.TrailerType = cmd.TrailerType
		params.CapacityFeet = stacking.ConfigFor(cmd.TrailerType).CapacityFeet
	}
	if problems := params.Validate(); len(problems) > 0 {
		return &BuildManualLoadResult{Errors: problems}, nil
	}
	if len(cmd.SoNums) == 0 {
		return &BuildManualLoadResult{Errors: map[string]string{"so_nums": "is required"}}, nil
	}

	snapshot, err := LoadSnapshot(ctx, h.sources, h.costs.DefaultRatePerMile, h.costs.FuelSurchargePerMile)
	if err != nil {
		return nil, fmt.Errorf("loading planning snapshot: %w", err)
	}
	origin, hasOrigin := snapshot.Gazetteer.PlantCoords(params.OriginPlant)
	if !hasOrigin {
		return &BuildManualLoadResult{Errors: map[string]string{"origin_plant": "unknown plant code"}}, nil
	}

	lines, err := h.orderRepo.ListLinesForPlanning(ctx, params.OriginPlant, nil)
	if err != nil {
		return nil, fmt.Errorf("loading order lines: %w", err)
	}
	headers, err := h.orderRepo.ListOrders(ctx, params.OriginPlant)
	if err != nil {
		return nil, fmt.Errorf("loading order headers: %w", err)
	}

	grouper := orders.NewGrouper(snapshot.Catalog, snapshot.Strategic, snapshot.Gazetteer)
	groups := grouper.BuildGroups(lines, headers)

	// Strategic opt-outs still load manually; the operator asked for them
	selected, _ := orders.FilterEligible(groups, orders.EligibilityFilter{
		SelectedSoNums: cmd.SoNums,
		IncludeIgnored: true,
	})
	if len(selected) == 0 {
		return &BuildManualLoadResult{Errors: map[string]string{"so_nums": "no matching open orders"}}, nil
	}

	calculator := costing.NewCalculator(h.routes, snapshot.Rates, h.costs.StopFeePerStop, h.costs.MinimumLoadCost)
	builder := NewLoadBuilder(params, snapshot.Catalog, calculator, origin, true, NewIdAllocator())

	load := builder.BuildLoad(ctx, selected)
	if load.MultiOrderOverCapacity() {
		return &BuildManualLoadResult{Errors: map[string]string{"so_nums": "selected orders exceed trailer capacity"}}, nil
	}

	sessionID := cmd.SessionID
	if sessionID == "" {
		sessionID = utils.GenerateSessionID(params.OriginPlant)
	}

	year := h.clock.Now().Year()
	seq, err := h.sequences.NextLoadSequence(ctx, params.OriginPlant, year)
	if err != nil {
		return nil, fmt.Errorf("allocating load number: %w", err)
	}

	load.BuildSource = planning.SourceManual
	load.Status = planning.StatusDraft
	load.SessionID = sessionID
	load.LoadNumber = planning.FormatLoadNumber(params.OriginPlant, year, seq, true)

	id, err := h.loadRepo.SaveLoad(ctx, load)
	if err != nil {
		return nil, fmt.Errorf("saving manual load: %w", err)
	}

	common.LoggerFromContext(ctx).Log(common.LevelInfo, "manual load saved", map[string]interface{}{
		"plant":       params.OriginPlant,
		"load_number": load.LoadNumber,
		"orders":      len(selected),
		"utilization": load.UtilizationPct,
	})

	return &BuildManualLoadResult{
		Load:       load,
		LoadID:     id,
		LoadNumber: load.LoadNumber,
	}, nil
}
