package planning

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/stacking"
)

// PlanParams are the inputs of one optimization run. Field names in
// validation errors follow the json tags.
type PlanParams struct {
	OriginPlant  string               `json:"origin_plant" validate:"required,len=2,alpha"`
	CapacityFeet float64              `json:"capacity_feet" validate:"gt=0,lte=120"`
	TrailerType  stacking.TrailerType `json:"trailer_type" validate:"oneof=STEP_DECK FLATBED WEDGE"`

	MaxDetourPct      float64 `json:"max_detour_pct" validate:"gte=0"`
	TimeWindowDays    int     `json:"time_window_days" validate:"gte=0,lte=60"`
	EnforceTimeWindow bool    `json:"enforce_time_window"`
	GeoRadiusMiles    float64 `json:"geo_radius" validate:"gte=0"`

	OrdersStartDate *time.Time `json:"orders_start_date"`
	BatchEndDate    *time.Time `json:"batch_end_date"`

	StackOverflowMaxHeight  int     `json:"stack_overflow_max_height" validate:"gte=0,lte=10"`
	MaxBackOverhangFt       float64 `json:"max_back_overhang_ft" validate:"gte=0,lte=20"`
	PreserveOrderContiguity bool    `json:"preserve_order_contiguity"`

	StateFilters    []string `json:"state_filters" validate:"dive,len=2,alpha"`
	CustomerFilters []string `json:"customer_filters"`
	SelectedSoNums  []string `json:"selected_so_nums"`

	AlgorithmVersion string            `json:"algorithm_version" validate:"oneof=v2 baseline"`
	ReturnToOrigin   bool              `json:"return_to_origin"`
	Objective        routing.Objective `json:"objective" validate:"oneof=distance time"`
	IncludeGeometry  bool              `json:"include_geometry"`

	SessionID string `json:"session_id"`
	DryRun    bool   `json:"dry_run"`

	Tuning V2Tuning `json:"tuning"`
}

// V2Tuning are the optimizer knobs. Defaults come from DefaultV2Tuning;
// min_savings family knobs may be negative to accept cost-increasing
// merges during rescue passes.
type V2Tuning struct {
	LowUtilThreshold     float64 `json:"low_util_threshold" validate:"gte=0,lte=100"`
	VeryLowUtilThreshold float64 `json:"very_low_util_threshold" validate:"gte=0,lte=100"`
	OrphanUtilThreshold  float64 `json:"orphan_util_threshold" validate:"gte=0,lte=100"`

	NeighborK            int `json:"neighbor_k" validate:"gte=1"`
	NeighborKLowUtil     int `json:"neighbor_k_low_util" validate:"gte=1"`
	NeighborKIncremental int `json:"neighbor_k_incremental" validate:"gte=1"`
	FastTuneGroupCount   int `json:"fast_tune_group_count" validate:"gte=1"`
	HugeGroupCount       int `json:"huge_group_count" validate:"gte=1"`

	MinSavings  float64 `json:"min_savings"`
	MinGain     float64 `json:"min_gain"`
	LambdaCount float64 `json:"lambda_count" validate:"gte=0"`
	LambdaDepth float64 `json:"lambda_depth" validate:"gte=0"`

	RescuePasses     int     `json:"rescue_passes" validate:"gte=0"`
	RescueMinSavings float64 `json:"rescue_min_savings"`

	GradeRescuePasses     int     `json:"grade_rescue_passes" validate:"gte=0"`
	GradeRescueMinSavings float64 `json:"grade_rescue_min_savings"`
	GradeRepairLimit      int     `json:"grade_repair_limit" validate:"gte=0"`
	RepairMinSavings      float64 `json:"repair_min_savings"`
	RepairCrossBonus      float64 `json:"repair_cross_bonus"`
	RepairUtilWeight      float64 `json:"repair_util_weight"`
	RepairMinUtilGain     float64 `json:"repair_min_util_gain"`

	FDPasses           int     `json:"fd_passes" validate:"gte=0"`
	FDTargetUtil       float64 `json:"fd_target_util" validate:"gte=0,lte=100"`
	FDCandidateLimit   int     `json:"fd_candidate_limit" validate:"gte=1"`
	FDMaxCostIncreaseF float64 `json:"fd_max_cost_increase_f" validate:"gte=0"`
	FDMaxCostIncreaseD float64 `json:"fd_max_cost_increase_d" validate:"gte=0"`
	FDDetourCapPct     float64 `json:"fd_detour_cap_pct" validate:"gte=0"`
	FDUtilTolerance    float64 `json:"fd_util_tolerance" validate:"gte=0"`

	HomeLengthRadiusMiles float64 `json:"home_length_radius_miles" validate:"gte=0"`
	HomeLengthMinUnitFt   float64 `json:"home_length_min_unit_ft" validate:"gte=0"`
	HomeLengthWeight      float64 `json:"home_length_weight" validate:"gte=0"`
	HomeLengthMaxBonus    float64 `json:"home_length_max_bonus" validate:"gte=0"`

	OnWayBearingDeg        float64 `json:"on_way_bearing_deg" validate:"gte=0,lte=180"`
	OnWayMaxRadialGapMiles float64 `json:"on_way_max_radial_gap_miles" validate:"gte=0"`
	OnWayMinOriginMiles    float64 `json:"on_way_min_origin_miles" validate:"gte=0"`

	DueGapSlackDays float64 `json:"due_gap_slack_days" validate:"gte=0"`
}

// DefaultV2Tuning returns the production optimizer knobs
func DefaultV2Tuning() V2Tuning {
	return V2Tuning{
		LowUtilThreshold:     70,
		VeryLowUtilThreshold: 40,
		OrphanUtilThreshold:  60,

		NeighborK:            18,
		NeighborKLowUtil:     56,
		NeighborKIncremental: 20,
		FastTuneGroupCount:   400,
		HugeGroupCount:       800,

		MinSavings:  0,
		MinGain:     0,
		LambdaCount: 560,
		LambdaDepth: 24,

		RescuePasses:     4,
		RescueMinSavings: -50,

		GradeRescuePasses:     5,
		GradeRescueMinSavings: -90,
		GradeRepairLimit:      12,
		RepairMinSavings:      -350,
		RepairCrossBonus:      450,
		RepairUtilWeight:      8,
		RepairMinUtilGain:     0.25,

		FDPasses:           3,
		FDTargetUtil:       55,
		FDCandidateLimit:   120,
		FDMaxCostIncreaseF: 5000,
		FDMaxCostIncreaseD: 2200,
		FDDetourCapPct:     999,
		FDUtilTolerance:    3,

		HomeLengthRadiusMiles: 250,
		HomeLengthMinUnitFt:   12,
		HomeLengthWeight:      1.5,
		HomeLengthMaxBonus:    12,

		OnWayBearingDeg:        35,
		OnWayMaxRadialGapMiles: 500,
		OnWayMinOriginMiles:    40,

		DueGapSlackDays: 3,
	}
}

// DefaultPlanParams returns a run configuration with every knob at its
// documented default for the given plant
func DefaultPlanParams(plant string) PlanParams {
	return PlanParams{
		OriginPlant:             strings.ToUpper(strings.TrimSpace(plant)),
		CapacityFeet:            stacking.ConfigFor(stacking.TrailerStepDeck).CapacityFeet,
		TrailerType:             stacking.TrailerStepDeck,
		MaxDetourPct:            40,
		TimeWindowDays:          5,
		EnforceTimeWindow:       true,
		GeoRadiusMiles:          150,
		StackOverflowMaxHeight:  5,
		MaxBackOverhangFt:       4.0,
		PreserveOrderContiguity: true,
		AlgorithmVersion:        "v2",
		Objective:               routing.ObjectiveDistance,
		Tuning:                  DefaultV2Tuning(),
	}
}

// Validate checks the run parameters and returns a field-to-message map
// keyed by json field path; an empty map means the params are valid
func (p *PlanParams) Validate() map[string]string {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	problems := map[string]string{}
	if err := validate.Struct(p); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			problems[paramFieldPath(fieldErr)] = paramErrorMessage(fieldErr)
		}
	}
	if p.OrdersStartDate != nil && p.BatchEndDate != nil && p.BatchEndDate.Before(*p.OrdersStartDate) {
		problems["batch_end_date"] = "must not be before orders_start_date"
	}
	return problems
}

func paramFieldPath(err validator.FieldError) string {
	// Namespace looks like "PlanParams.tuning.neighbor_k"; drop the root
	parts := strings.SplitN(err.Namespace(), ".", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return err.Field()
}

func paramErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", err.Param())
	case "alpha":
		return "must contain only letters"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", err.Param())
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}
