package planning

import (
	"context"
	"math"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// Detour escape caps: a blown detour gate may still pass for very-low-util
// pairs or on-way pairs, at these widened limits
const (
	veryLowEscapeCapScale = 3.0
	veryLowEscapeCapFloor = 80.0
	onWayEscapeCapScale   = 4.0
	onWayEscapeCapFloor   = 95.0
)

// mergePolicy is the gate configuration of one optimizer pass
type mergePolicy struct {
	minSavings   float64
	minGain      float64
	radiusMiles  float64
	detourCapPct float64
}

func (o *Optimizer) mainPolicy() mergePolicy {
	return mergePolicy{
		minSavings:   o.tuning.MinSavings,
		minGain:      o.tuning.MinGain,
		radiusMiles:  o.params.GeoRadiusMiles,
		detourCapPct: o.params.MaxDetourPct,
	}
}

// orphanPolicy widens the main gates so stranded low-util loads can pay a
// small cost penalty to merge
func (o *Optimizer) orphanPolicy() mergePolicy {
	base := o.params.GeoRadiusMiles
	return mergePolicy{
		minSavings:   o.tuning.RescueMinSavings,
		minGain:      o.tuning.MinGain,
		radiusMiles:  math.Max(2*base, base+150),
		detourCapPct: math.Max(2*o.params.MaxDetourPct, 35),
	}
}

// gradePolicy is the widest merge configuration, used when hunting partners
// for loads that would otherwise ship with a failing grade
func (o *Optimizer) gradePolicy() mergePolicy {
	return mergePolicy{
		minSavings:   o.tuning.GradeRescueMinSavings,
		minGain:      0,
		radiusMiles:  3 * o.params.GeoRadiusMiles,
		detourCapPct: math.Max(o.params.MaxDetourPct, 160),
	}
}

func (o *Optimizer) repairDetourCapPct() float64 {
	return math.Max(o.params.MaxDetourPct, 160)
}

// mergeOutcome is an accepted pairwise merge, held until commit
type mergeOutcome struct {
	merged  *planning.Load
	savings float64
	gain    float64
}

// evaluateMerge runs a candidate pair through the merge gates and, when the
// pair survives all of them, returns the built merged load with its savings
// and gain
func (o *Optimizer) evaluateMerge(ctx context.Context, a, b *planning.Load, pol mergePolicy) (*mergeOutcome, bool) {
	if !o.structuralMergeOK(a, b) {
		return nil, false
	}
	if !o.geoGateOK(a, b, pol) {
		return nil, false
	}

	merged, ok := o.buildMerged(ctx, a, b)
	if !ok {
		return nil, false
	}

	savings := a.EstimatedCost + b.EstimatedCost - merged.EstimatedCost
	if savings < pol.minSavings {
		return nil, false
	}
	if !o.detourGateOK(a, b, merged, savings, pol) {
		return nil, false
	}

	gain := savings + o.lowUtilObjectiveGain(a, b, merged)
	if gain < pol.minGain {
		return nil, false
	}
	return &mergeOutcome{merged: merged, savings: savings, gain: gain}, true
}

// structuralMergeOK checks the gates that no pass may relax: same plant, mix
// rules, due-range fit, and DUMP isolation
func (o *Optimizer) structuralMergeOK(a, b *planning.Load) bool {
	if a.OriginPlant != b.OriginPlant {
		return false
	}
	groups := make([]*orders.OrderGroup, 0, len(a.Groups)+len(b.Groups))
	groups = append(groups, a.Groups...)
	groups = append(groups, b.Groups...)
	if mixRuleViolated(groups) {
		return false
	}
	if !dateCompatible(a, b, o.params.EnforceTimeWindow) {
		return false
	}
	return !dumpMixViolation(groups)
}

// geoGateOK enforces the radius between the loads' stop sets, with the
// v2 escape for very-low-util pairs and on-way pairs with a low side
func (o *Optimizer) geoGateOK(a, b *planning.Load, pol mergePolicy) bool {
	dist, ok := minStopDistanceMiles(a, b)
	if !ok || dist <= pol.radiusMiles {
		return true
	}
	t := o.tuning
	if a.UtilizationPct < t.VeryLowUtilThreshold && b.UtilizationPct < t.VeryLowUtilThreshold {
		return true
	}
	return onWay(a, b, t) && (a.UtilizationPct < t.LowUtilThreshold || b.UtilizationPct < t.LowUtilThreshold)
}

// detourGateOK enforces the pass's detour cap. The escape requires the merge
// to not cost money and not dilute utilization, then widens the cap for
// very-low-util pairs and on-way pairs with a low side
func (o *Optimizer) detourGateOK(a, b, merged *planning.Load, savings float64, pol mergePolicy) bool {
	detour := o.detourPct(merged)
	if detour <= pol.detourCapPct {
		return true
	}
	if savings < 0 || merged.UtilizationPct < math.Max(a.UtilizationPct, b.UtilizationPct) {
		return false
	}
	t := o.tuning
	if a.UtilizationPct < t.VeryLowUtilThreshold && b.UtilizationPct < t.VeryLowUtilThreshold {
		return detour <= math.Max(veryLowEscapeCapScale*pol.detourCapPct, veryLowEscapeCapFloor)
	}
	if onWay(a, b, t) && (a.UtilizationPct < t.LowUtilThreshold || b.UtilizationPct < t.LowUtilThreshold) {
		return detour <= math.Max(onWayEscapeCapScale*pol.detourCapPct, onWayEscapeCapFloor)
	}
	return false
}

// buildMerged packs both loads' groups onto one trailer. A multi-order load
// that exceeds capacity is unshippable and rejects the merge. Standalone
// cost carries over from the sides so savings survive chained merges.
func (o *Optimizer) buildMerged(ctx context.Context, a, b *planning.Load) (*planning.Load, bool) {
	groups := make([]*orders.OrderGroup, 0, len(a.Groups)+len(b.Groups))
	groups = append(groups, a.Groups...)
	groups = append(groups, b.Groups...)

	merged := o.builder.BuildLoad(ctx, groups)
	if merged.MultiOrderOverCapacity() {
		return nil, false
	}
	merged.StandaloneCost = a.StandaloneCost + b.StandaloneCost
	merged.ConsolidationSavings = merged.StandaloneCost - merged.EstimatedCost
	return merged, true
}

// detourPct measures route stretch against the farthest direct leg: how much
// farther the truck runs than a straight shot to its most distant stop
func (o *Optimizer) detourPct(load *planning.Load) float64 {
	origin, ok := o.builder.Origin()
	if !ok {
		return 0
	}
	maxDirect := 0.0
	for _, s := range load.Stops {
		if !s.HasCoord {
			continue
		}
		if d := geo.HaversineMiles(origin, s.Coord); d > maxDirect {
			maxDirect = d
		}
	}
	if maxDirect <= 0 {
		return 0
	}
	return 100 * (load.EstimatedMiles - maxDirect) / maxDirect
}

// lowUtilObjectiveGain rewards merges that pull loads off the bottom of the
// utilization distribution, weighted by count and by depth below the floor
func (o *Optimizer) lowUtilObjectiveGain(a, b, merged *planning.Load) float64 {
	beforeCount, beforeDepth := o.lowUtilStats(a, b)
	afterCount, afterDepth := o.lowUtilStats(merged)
	return o.tuning.LambdaCount*(beforeCount-afterCount) + o.tuning.LambdaDepth*(beforeDepth-afterDepth)
}

func (o *Optimizer) lowUtilStats(loads ...*planning.Load) (count, depth float64) {
	for _, l := range loads {
		if l.UtilizationPct < o.tuning.LowUtilThreshold {
			count++
			depth += o.tuning.LowUtilThreshold - l.UtilizationPct
		}
	}
	return count, depth
}

func strategicKey(g *orders.OrderGroup) string {
	if g.Strategic != nil {
		return g.Strategic.Key
	}
	return orders.NormalizeCustomerName(g.CustName)
}

// mixRuleViolated rejects combinations where a no-mix account would share
// the trailer with a different account
func mixRuleViolated(groups []*orders.OrderGroup) bool {
	anyNoMix := false
	for _, g := range groups {
		if g.NoMix {
			anyNoMix = true
			break
		}
	}
	if !anyNoMix {
		return false
	}
	key := strategicKey(groups[0])
	for _, g := range groups[1:] {
		if strategicKey(g) != key {
			return true
		}
	}
	return false
}

// dumpMixViolation rejects DUMP freight riding with any other category
func dumpMixViolation(groups []*orders.OrderGroup) bool {
	cats := map[string]bool{}
	for _, g := range groups {
		for _, c := range g.Categories {
			if c != "" {
				cats[c] = true
			}
		}
	}
	return cats["DUMP"] && len(cats) > 1
}

// dateCompatible reports whether two loads' due ranges can share one truck:
// the union of the ranges must fit inside the stricter effective window
func dateCompatible(a, b *planning.Load, enforce bool) bool {
	if !enforce || !a.HasDueDates || !b.HasDueDates {
		return true
	}
	spanStart := a.DueDateMin
	if b.DueDateMin.Before(spanStart) {
		spanStart = b.DueDateMin
	}
	spanEnd := a.DueDateMax
	if b.DueDateMax.After(spanEnd) {
		spanEnd = b.DueDateMax
	}
	window := a.EffectiveWindowDays
	if b.EffectiveWindowDays < window {
		window = b.EffectiveWindowDays
	}
	return spanEnd.Sub(spanStart).Hours()/24 <= float64(window)
}

// minStopDistanceMiles is the closest approach between the loads' stop
// sets; ok=false when either side has no geocoded stops
func minStopDistanceMiles(a, b *planning.Load) (float64, bool) {
	best := math.MaxFloat64
	found := false
	for _, sa := range a.Stops {
		if !sa.HasCoord {
			continue
		}
		for _, sb := range b.Stops {
			if !sb.HasCoord {
				continue
			}
			if d := geo.HaversineMiles(sa.Coord, sb.Coord); d < best {
				best = d
				found = true
			}
		}
	}
	return best, found
}
