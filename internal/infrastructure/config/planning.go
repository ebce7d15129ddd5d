package config

import (
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// PlanningConfig holds optimizer run defaults. Zero-valued knobs leave the
// built-in tuning untouched.
type PlanningConfig struct {
	// Algorithm version for unattended runs: "v2" or "baseline"
	Algorithm string `mapstructure:"algorithm" validate:"required,oneof=v2 baseline"`

	// Request route geometry on optimization runs
	IncludeRouteGeometry bool `mapstructure:"include_route_geometry"`

	// Headline optimizer knobs exposed to operations
	LowUtilThreshold    float64 `mapstructure:"low_util_threshold" validate:"gte=0,lte=100"`
	OrphanUtilThreshold float64 `mapstructure:"orphan_util_threshold" validate:"gte=0,lte=100"`
	NeighborK           int     `mapstructure:"neighbor_k" validate:"min=0"`
	MinSavings          float64 `mapstructure:"min_savings"`
	RescuePasses        int     `mapstructure:"rescue_passes" validate:"min=0"`
	GradeRescuePasses   int     `mapstructure:"grade_rescue_passes" validate:"min=0"`
	FDPasses            int     `mapstructure:"fd_passes" validate:"min=0"`
}

// Tuning overlays the configured knobs onto the default optimizer tuning
func (c PlanningConfig) Tuning() planning.V2Tuning {
	tuning := planning.DefaultV2Tuning()
	if c.LowUtilThreshold > 0 {
		tuning.LowUtilThreshold = c.LowUtilThreshold
	}
	if c.OrphanUtilThreshold > 0 {
		tuning.OrphanUtilThreshold = c.OrphanUtilThreshold
	}
	if c.NeighborK > 0 {
		tuning.NeighborK = c.NeighborK
	}
	if c.MinSavings != 0 {
		tuning.MinSavings = c.MinSavings
	}
	if c.RescuePasses > 0 {
		tuning.RescuePasses = c.RescuePasses
	}
	if c.GradeRescuePasses > 0 {
		tuning.GradeRescuePasses = c.GradeRescuePasses
	}
	if c.FDPasses > 0 {
		tuning.FDPasses = c.FDPasses
	}
	return tuning
}
