package planning

import (
	"time"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/stacking"
)

// LoadStatus is the review state of a planned load
type LoadStatus string

const (
	StatusProposed LoadStatus = "PROPOSED"
	StatusDraft    LoadStatus = "DRAFT"
	StatusApproved LoadStatus = "APPROVED"
)

// CanAdvanceTo reports whether a status transition is allowed. Loads only
// move forward: PROPOSED to DRAFT to APPROVED.
func (s LoadStatus) CanAdvanceTo(next LoadStatus) bool {
	switch s {
	case StatusProposed:
		return next == StatusDraft
	case StatusDraft:
		return next == StatusApproved
	default:
		return false
	}
}

// BuildSource records how a load came to exist
type BuildSource string

const (
	SourceOptimized BuildSource = "OPTIMIZED"
	SourceManual    BuildSource = "MANUAL"
)

// Load is a planned truckload: one or more order groups routed from a
// plant through ordered stops on a single trailer
type Load struct {
	ID               int
	OriginPlant      string
	DestinationState string
	TrailerType      stacking.TrailerType
	Groups           []*orders.OrderGroup
	Stops            []routing.Stop

	// GroupStopSeq maps each order to its 1-based unload position
	GroupStopSeq map[string]int

	Stack           *stacking.Result
	UtilizationPct  float64
	ExceedsCapacity bool

	// OverCapacity marks a single-order load that physically cannot fit;
	// it ships anyway because the freight is indivisible
	OverCapacity bool

	EstimatedMiles       float64
	EstimatedCost        float64
	StandaloneCost       float64
	ConsolidationSavings float64
	FragilityScore       int

	RouteLegs     []float64
	RouteGeometry [][]float64
	RouteProvider string
	RouteProfile  string
	RouteFallback bool

	ReturnToOrigin bool
	ReturnMiles    float64
	ReturnCost     float64

	Status      LoadStatus
	BuildSource BuildSource
	LoadNumber  string
	SessionID   string

	Centroid    geo.Coord
	HasCentroid bool
	OriginMiles float64
	BearingDeg  float64

	DueDateMin          time.Time
	DueDateMax          time.Time
	HasDueDates         bool
	EffectiveWindowDays int
	MaxUnitLenFt        float64

	Warnings []string
}

// StopCount is the number of delivery stops on the load
func (l *Load) StopCount() int {
	return len(l.Stops)
}

// OrderCount is the number of sales orders riding the load
func (l *Load) OrderCount() int {
	return len(l.Groups)
}

// SoNums lists the sales orders on the load in group order
func (l *Load) SoNums() []string {
	nums := make([]string, len(l.Groups))
	for i, g := range l.Groups {
		nums[i] = g.SoNum
	}
	return nums
}

// Grade is the letter grade of the packed trailer
func (l *Load) Grade() string {
	if l.Stack == nil {
		return "F"
	}
	return l.Stack.Grade
}

// DueAnchor is the midpoint of the due range as a day ordinal, or 0 when
// no group carries a due date
func (l *Load) DueAnchor() float64 {
	if !l.HasDueDates {
		return 0
	}
	min := float64(l.DueDateMin.Unix()) / 86400.0
	max := float64(l.DueDateMax.Unix()) / 86400.0
	return (min + max) / 2
}

// DueSpanDays is the spread of the due range in days
func (l *Load) DueSpanDays() float64 {
	if !l.HasDueDates {
		return 0
	}
	return l.DueDateMax.Sub(l.DueDateMin).Hours() / 24
}

// MultiOrderOverCapacity reports the one unshippable combination: more
// than one order on a trailer the freight does not fit
func (l *Load) MultiOrderOverCapacity() bool {
	return l.ExceedsCapacity && len(l.Groups) > 1
}

// HasWarning reports whether the load carries the given warning code
func (l *Load) HasWarning(code string) bool {
	for _, w := range l.Warnings {
		if w == code {
			return true
		}
	}
	return false
}

// Warning codes attached at the load level
const (
	WarnReturnRuleDeviation = "RETURN_RULE_PATTERN_DEVIATION"
	WarnStopMissingCoords   = "STOP_MISSING_COORDS"
)
