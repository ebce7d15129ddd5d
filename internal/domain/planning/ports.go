package planning

import (
	"context"
	"time"
)

// StoredLoad is the persisted summary of a planned load
type StoredLoad struct {
	ID               uint
	LoadNumber       string
	OriginPlant      string
	DestinationState string
	TrailerType      string
	Status           LoadStatus
	BuildSource      BuildSource
	UtilizationPct   float64
	EstimatedMiles   float64
	EstimatedCost    float64
	Grade            string
	StopCount        int
	OrderCount       int
	SessionID        string
	CreatedAt        time.Time
}

// LoadRepository persists planned loads and drives their status lifecycle
type LoadRepository interface {
	// ReplaceProposedForPlant atomically deletes the plant's existing
	// PROPOSED and DRAFT loads for the session's scope and inserts the
	// new plan
	ReplaceProposedForPlant(ctx context.Context, plant, sessionID string, loads []*Load) error

	// SaveLoad inserts a single load (manual builds)
	SaveLoad(ctx context.Context, load *Load) (uint, error)

	// ListLoads returns load summaries for a plant, optionally filtered
	// by status
	ListLoads(ctx context.Context, plant string, status *LoadStatus) ([]StoredLoad, error)

	// GetLoad returns one load summary
	GetLoad(ctx context.Context, id uint) (*StoredLoad, error)

	// PromoteToDraft moves PROPOSED to DRAFT, assigning a draft load
	// number from the plant-year sequence
	PromoteToDraft(ctx context.Context, id uint) (*StoredLoad, error)

	// Approve moves DRAFT to APPROVED and drops the draft marker from
	// the load number
	Approve(ctx context.Context, id uint) (*StoredLoad, error)

	// DeleteLoad removes a load and its lines
	DeleteLoad(ctx context.Context, id uint) error
}

// SequenceAllocator hands out the next load number sequence for a plant
// and year
type SequenceAllocator interface {
	NextLoadSequence(ctx context.Context, plant string, year int) (int, error)
}

// SettingsRepository stores admin-edited planning settings
type SettingsRepository interface {
	GetPlanningSetting(ctx context.Context, key string) (string, bool, error)
	UpsertPlanningSetting(ctx context.Context, key, value string) error
}
