package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
)

// GormLoadRepository implements planning.LoadRepository using GORM. The
// clock feeds the plant-year sequence used when promoting to DRAFT.
type GormLoadRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormLoadRepository creates a new GORM load repository
func NewGormLoadRepository(db *gorm.DB, clock shared.Clock) *GormLoadRepository {
	return &GormLoadRepository{db: db, clock: clock}
}

// ReplaceProposedForPlant atomically swaps the plant's working plan: every
// PROPOSED and DRAFT load is deleted with its lines, then the new set is
// inserted. APPROVED loads are never touched.
func (r *GormLoadRepository) ReplaceProposedForPlant(ctx context.Context, plant, sessionID string, loads []*planning.Load) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var victims []uint
		err := tx.Model(&LoadModel{}).
			Where("origin_plant = ? AND status IN ?", plant, []string{string(planning.StatusProposed), string(planning.StatusDraft)}).
			Pluck("id", &victims).Error
		if err != nil {
			return fmt.Errorf("failed to find replaceable loads: %w", err)
		}

		if len(victims) > 0 {
			if err := tx.Where("load_id IN ?", victims).Delete(&LoadLineModel{}).Error; err != nil {
				return fmt.Errorf("failed to delete old load lines: %w", err)
			}
			if err := tx.Where("id IN ?", victims).Delete(&LoadModel{}).Error; err != nil {
				return fmt.Errorf("failed to delete old loads: %w", err)
			}
		}

		for _, load := range loads {
			model := loadToModel(load)
			model.SessionID = sessionID
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to insert load: %w", err)
			}
			lines := loadLinesToModels(model.ID, load)
			if len(lines) > 0 {
				if err := tx.Create(&lines).Error; err != nil {
					return fmt.Errorf("failed to insert load lines: %w", err)
				}
			}
		}
		return nil
	})
}

// SaveLoad inserts a single load with its lines and returns the new id
func (r *GormLoadRepository) SaveLoad(ctx context.Context, load *planning.Load) (uint, error) {
	model := loadToModel(load)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to insert load: %w", err)
		}
		lines := loadLinesToModels(model.ID, load)
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return fmt.Errorf("failed to insert load lines: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// ListLoads retrieves stored load summaries for a plant, optionally
// narrowed to one status
func (r *GormLoadRepository) ListLoads(ctx context.Context, plant string, status *planning.LoadStatus) ([]planning.StoredLoad, error) {
	query := r.db.WithContext(ctx).Where("origin_plant = ?", plant)
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var models []LoadModel
	if err := query.Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}

	stored := make([]planning.StoredLoad, len(models))
	for i := range models {
		stored[i] = modelToStored(&models[i])
	}
	return stored, nil
}

// GetLoad retrieves one stored load summary
func (r *GormLoadRepository) GetLoad(ctx context.Context, id uint) (*planning.StoredLoad, error) {
	model, err := r.findLoad(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	stored := modelToStored(model)
	return &stored, nil
}

// PromoteToDraft moves a PROPOSED load to DRAFT, assigning its load number
// from the plant-year sequence
func (r *GormLoadRepository) PromoteToDraft(ctx context.Context, id uint) (*planning.StoredLoad, error) {
	var stored planning.StoredLoad
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := r.findLoad(tx, id)
		if err != nil {
			return err
		}
		if !planning.LoadStatus(model.Status).CanAdvanceTo(planning.StatusDraft) {
			return fmt.Errorf("load %d is %s, not %s", id, model.Status, planning.StatusProposed)
		}

		year := r.clock.Now().Year()
		seq, err := nextSequence(tx, model.OriginPlant, year)
		if err != nil {
			return err
		}

		model.Status = string(planning.StatusDraft)
		model.LoadNumber = planning.FormatLoadNumber(model.OriginPlant, year, seq, true)
		if err := tx.Save(model).Error; err != nil {
			return fmt.Errorf("failed to promote load: %w", err)
		}
		stored = modelToStored(model)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Approve moves a DRAFT load to APPROVED and drops the draft marker from
// its load number
func (r *GormLoadRepository) Approve(ctx context.Context, id uint) (*planning.StoredLoad, error) {
	var stored planning.StoredLoad
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := r.findLoad(tx, id)
		if err != nil {
			return err
		}
		if !planning.LoadStatus(model.Status).CanAdvanceTo(planning.StatusApproved) {
			return fmt.Errorf("load %d is %s, not %s", id, model.Status, planning.StatusDraft)
		}

		model.Status = string(planning.StatusApproved)
		model.LoadNumber = planning.PromoteLoadNumber(model.LoadNumber)
		if err := tx.Save(model).Error; err != nil {
			return fmt.Errorf("failed to approve load: %w", err)
		}
		stored = modelToStored(model)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// DeleteLoad removes a load and its lines. Approved loads are protected.
func (r *GormLoadRepository) DeleteLoad(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := r.findLoad(tx, id)
		if err != nil {
			return err
		}
		if model.Status == string(planning.StatusApproved) {
			return fmt.Errorf("load %d is approved and cannot be deleted", id)
		}

		if err := tx.Where("load_id = ?", id).Delete(&LoadLineModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete load lines: %w", err)
		}
		if err := tx.Delete(&LoadModel{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete load: %w", err)
		}
		return nil
	})
}

func (r *GormLoadRepository) findLoad(tx *gorm.DB, id uint) (*LoadModel, error) {
	var model LoadModel
	result := tx.Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load %d not found", id)
		}
		return nil, fmt.Errorf("failed to find load: %w", result.Error)
	}
	return &model, nil
}

func loadToModel(load *planning.Load) *LoadModel {
	model := &LoadModel{
		LoadNumber:           load.LoadNumber,
		OriginPlant:          load.OriginPlant,
		DestinationState:     load.DestinationState,
		TrailerType:          string(load.TrailerType),
		Status:               string(load.Status),
		BuildSource:          string(load.BuildSource),
		UtilizationPct:       load.UtilizationPct,
		EstimatedMiles:       load.EstimatedMiles,
		EstimatedCost:        load.EstimatedCost,
		StandaloneCost:       load.StandaloneCost,
		ConsolidationSavings: load.ConsolidationSavings,
		FragilityScore:       load.FragilityScore,
		Grade:                load.Grade(),
		StopCount:            load.StopCount(),
		OrderCount:           load.OrderCount(),
		ReturnToOrigin:       load.ReturnToOrigin,
		SessionID:            load.SessionID,
		RouteProvider:        load.RouteProvider,
		RouteFallback:        load.RouteFallback,
	}
	if load.HasDueDates {
		min, max := load.DueDateMin, load.DueDateMax
		model.DueDateMin = &min
		model.DueDateMax = &max
	}
	return model
}

func loadLinesToModels(loadID uint, load *planning.Load) []LoadLineModel {
	lines := make([]LoadLineModel, 0, len(load.Groups))
	for _, g := range load.Groups {
		units := 0
		for _, line := range g.Lines {
			units += line.Qty
		}
		m := LoadLineModel{
			LoadID:        loadID,
			SoNum:         g.SoNum,
			StopSeq:       load.GroupStopSeq[g.SoNum],
			State:         g.State,
			Zip:           g.Zip,
			City:          g.City,
			CustName:      g.CustName,
			Units:         units,
			TotalLengthFt: g.TotalLengthFt,
		}
		if g.HasDueDate {
			due := g.DueDate
			m.DueDate = &due
		}
		lines = append(lines, m)
	}
	return lines
}

func modelToStored(m *LoadModel) planning.StoredLoad {
	return planning.StoredLoad{
		ID:               m.ID,
		LoadNumber:       m.LoadNumber,
		OriginPlant:      m.OriginPlant,
		DestinationState: m.DestinationState,
		TrailerType:      m.TrailerType,
		Status:           planning.LoadStatus(m.Status),
		BuildSource:      planning.BuildSource(m.BuildSource),
		UtilizationPct:   m.UtilizationPct,
		EstimatedMiles:   m.EstimatedMiles,
		EstimatedCost:    m.EstimatedCost,
		Grade:            m.Grade,
		StopCount:        m.StopCount,
		OrderCount:       m.OrderCount,
		SessionID:        m.SessionID,
		CreatedAt:        m.CreatedAt,
	}
}
