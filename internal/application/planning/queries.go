package planning

import (
	"context"
	"fmt"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// ListLoadsQuery returns the stored plan for a plant, optionally narrowed
// to one status
type ListLoadsQuery struct {
	Plant  string
	Status *planning.LoadStatus
}

type ListLoadsResponse struct {
	Loads []planning.StoredLoad
}

type ListLoadsHandler struct {
	loadRepo planning.LoadRepository
}

func NewListLoadsHandler(loadRepo planning.LoadRepository) *ListLoadsHandler {
	return &ListLoadsHandler{loadRepo: loadRepo}
}

func (h *ListLoadsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ListLoadsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	loads, err := h.loadRepo.ListLoads(ctx, query.Plant, query.Status)
	if err != nil {
		return nil, fmt.Errorf("listing loads: %w", err)
	}
	return &ListLoadsResponse{Loads: loads}, nil
}

// GetPlanSummaryQuery aggregates the stored plan for a plant
type GetPlanSummaryQuery struct {
	Plant  string
	Status *planning.LoadStatus
}

type PlanSummaryResponse struct {
	Plant          string
	TotalLoads     int
	TotalOrders    int
	TotalStops     int
	AvgUtilization float64
	TotalMiles     float64
	EstimatedCost  float64
	StatusCounts   map[planning.LoadStatus]int
	GradeCounts    map[string]int
}

type GetPlanSummaryHandler struct {
	loadRepo planning.LoadRepository
}

func NewGetPlanSummaryHandler(loadRepo planning.LoadRepository) *GetPlanSummaryHandler {
	return &GetPlanSummaryHandler{loadRepo: loadRepo}
}

func (h *GetPlanSummaryHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetPlanSummaryQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	loads, err := h.loadRepo.ListLoads(ctx, query.Plant, query.Status)
	if err != nil {
		return nil, fmt.Errorf("listing loads: %w", err)
	}

	resp := &PlanSummaryResponse{
		Plant:        query.Plant,
		TotalLoads:   len(loads),
		StatusCounts: map[planning.LoadStatus]int{},
		GradeCounts:  map[string]int{},
	}
	for _, l := range loads {
		resp.TotalOrders += l.OrderCount
		resp.TotalStops += l.StopCount
		resp.AvgUtilization += l.UtilizationPct
		resp.TotalMiles += l.EstimatedMiles
		resp.EstimatedCost += l.EstimatedCost
		resp.StatusCounts[l.Status]++
		resp.GradeCounts[l.Grade]++
	}
	if len(loads) > 0 {
		resp.AvgUtilization /= float64(len(loads))
	}
	return resp, nil
}
