package planning

import (
	"context"
	"fmt"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// PromoteLoadCommand moves a PROPOSED load to DRAFT, assigning its load
// number from the plant-year sequence
type PromoteLoadCommand struct {
	LoadID uint
}

type PromoteLoadResult struct {
	Load *planning.StoredLoad
}

type PromoteLoadHandler struct {
	loadRepo planning.LoadRepository
}

func NewPromoteLoadHandler(loadRepo planning.LoadRepository) *PromoteLoadHandler {
	return &PromoteLoadHandler{loadRepo: loadRepo}
}

func (h *PromoteLoadHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*PromoteLoadCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	load, err := h.loadRepo.PromoteToDraft(ctx, cmd.LoadID)
	if err != nil {
		return nil, fmt.Errorf("promoting load %d: %w", cmd.LoadID, err)
	}
	common.LoggerFromContext(ctx).Log(common.LevelInfo, "load promoted to draft", map[string]interface{}{
		"load_id":     cmd.LoadID,
		"load_number": load.LoadNumber,
	})
	return &PromoteLoadResult{Load: load}, nil
}

// ApproveLoadCommand moves a DRAFT load to APPROVED and finalizes its load
// number
type ApproveLoadCommand struct {
	LoadID uint
}

type ApproveLoadResult struct {
	Load *planning.StoredLoad
}

type ApproveLoadHandler struct {
	loadRepo planning.LoadRepository
}

func NewApproveLoadHandler(loadRepo planning.LoadRepository) *ApproveLoadHandler {
	return &ApproveLoadHandler{loadRepo: loadRepo}
}

func (h *ApproveLoadHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ApproveLoadCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	load, err := h.loadRepo.Approve(ctx, cmd.LoadID)
	if err != nil {
		return nil, fmt.Errorf("approving load %d: %w", cmd.LoadID, err)
	}
	common.LoggerFromContext(ctx).Log(common.LevelInfo, "load approved", map[string]interface{}{
		"load_id":     cmd.LoadID,
		"load_number": load.LoadNumber,
	})
	return &ApproveLoadResult{Load: load}, nil
}

// DeleteLoadCommand removes a planned load and its lines. Approved loads
// are protected by the repository.
type DeleteLoadCommand struct {
	LoadID uint
}

type DeleteLoadResult struct {
	Deleted bool
}

type DeleteLoadHandler struct {
	loadRepo planning.LoadRepository
}

func NewDeleteLoadHandler(loadRepo planning.LoadRepository) *DeleteLoadHandler {
	return &DeleteLoadHandler{loadRepo: loadRepo}
}

func (h *DeleteLoadHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*DeleteLoadCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if err := h.loadRepo.DeleteLoad(ctx, cmd.LoadID); err != nil {
		return nil, fmt.Errorf("deleting load %d: %w", cmd.LoadID, err)
	}
	return &DeleteLoadResult{Deleted: true}, nil
}
