package planning

import (
	"context"
	"sort"
	"strings"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/costing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/stacking"
)

// legacyReturnPattern is the customer-name substring the old router matched
// to force return-to-origin. The strategic-customer flag is authoritative
// now; a name that matches while the flag disagrees gets a deviation warning.
const legacyReturnPattern = "LOWES"

// CostEstimator prices a sequenced load. Satisfied by costing.Calculator.
type CostEstimator interface {
	Calculate(ctx context.Context, req costing.Request) *costing.Estimate
}

// IdAllocator hands out run-scoped load ids. Ids restart at 1 for every
// run, so they are stable across identical runs and never shared between
// concurrent ones.
type IdAllocator struct {
	next int
}

func NewIdAllocator() *IdAllocator {
	return &IdAllocator{next: 1}
}

func (a *IdAllocator) Next() int {
	id := a.next
	a.next++
	return id
}

// LoadBuilder turns sets of order groups into fully priced, packed, routed
// Load aggregates. One builder serves one run.
type LoadBuilder struct {
	params    planning.PlanParams
	catalog   *orders.SkuCatalog
	costs     CostEstimator
	origin    geo.Coord
	hasOrigin bool
	ids       *IdAllocator
}

func NewLoadBuilder(params planning.PlanParams, catalog *orders.SkuCatalog, costs CostEstimator, origin geo.Coord, hasOrigin bool, ids *IdAllocator) *LoadBuilder {
	return &LoadBuilder{
		params:    params,
		catalog:   catalog,
		costs:     costs,
		origin:    origin,
		hasOrigin: hasOrigin,
		ids:       ids,
	}
}

// Origin returns the plant coordinates the builder routes from
func (b *LoadBuilder) Origin() (geo.Coord, bool) {
	return b.origin, b.hasOrigin
}

// BuildLoad assembles one load from the given groups: stops deduped by
// zip|state, route and cost from the estimator, trailer chosen by the
// wedge/step-deck/flatbed ladder, stack packed at the routed stop order.
func (b *LoadBuilder) BuildLoad(ctx context.Context, groups []*orders.OrderGroup) *planning.Load {
	load := &planning.Load{
		ID:          b.ids.Next(),
		OriginPlant: b.params.OriginPlant,
		Groups:      groups,
		Status:      planning.StatusProposed,
		BuildSource: planning.SourceOptimized,
	}
	if len(groups) == 0 {
		load.TrailerType = b.params.TrailerType
		return load
	}

	returnToOrigin := b.params.ReturnToOrigin
	for _, g := range groups {
		if g.RequiresReturnToOrigin {
			returnToOrigin = true
		}
		if strings.Contains(orders.NormalizeCustomerName(g.CustName), legacyReturnPattern) != g.RequiresReturnToOrigin {
			if !load.HasWarning(planning.WarnReturnRuleDeviation) {
				load.Warnings = append(load.Warnings, planning.WarnReturnRuleDeviation)
			}
		}
	}

	stops, missingCoords := dedupeStops(groups)
	if missingCoords && !load.HasWarning(planning.WarnStopMissingCoords) {
		load.Warnings = append(load.Warnings, planning.WarnStopMissingCoords)
	}

	estimate := b.costs.Calculate(ctx, costing.Request{
		OriginPlant:     b.params.OriginPlant,
		Origin:          b.origin,
		HasOrigin:       b.hasOrigin,
		Stops:           stops,
		ReturnToOrigin:  returnToOrigin,
		Objective:       b.params.Objective,
		IncludeGeometry: b.params.IncludeGeometry,
	})

	load.Stops = estimate.OrderedStops
	load.GroupStopSeq = groupStopSequences(groups, estimate.OrderedStops)
	load.EstimatedMiles = estimate.TotalMiles
	load.EstimatedCost = estimate.TotalCost
	load.StandaloneCost = estimate.TotalCost
	load.RouteLegs = estimate.RouteLegs
	load.RouteGeometry = estimate.Geometry
	load.RouteProvider = estimate.RouteProvider
	load.RouteProfile = estimate.RouteProfile
	load.RouteFallback = estimate.RouteFallback
	load.ReturnToOrigin = returnToOrigin
	load.ReturnMiles = estimate.ReturnMiles
	load.ReturnCost = estimate.ReturnCost

	trailer, stack := b.packTrailer(groups, load.GroupStopSeq)
	load.TrailerType = trailer
	load.Stack = stack
	load.UtilizationPct = stack.UtilizationPct
	load.ExceedsCapacity = stack.ExceedsCapacity
	load.OverCapacity = stack.ExceedsCapacity && len(groups) == 1
	load.FragilityScore = stack.FragilityScore()

	b.captureGeometry(load, groups)
	captureDates(load, groups, b.params.TimeWindowDays)
	load.DestinationState = modalState(groups)

	return load
}

// packTrailer runs the trailer ladder: WEDGE when any group requires it,
// otherwise the configured trailer, upgrading STEP_DECK to FLATBED when the
// flatbed makes an over-capacity pack fit.
func (b *LoadBuilder) packTrailer(groups []*orders.OrderGroup, stopSeq map[string]int) (stacking.TrailerType, *stacking.Result) {
	preferred := b.params.TrailerType
	wedgeRequired := false
	for _, g := range groups {
		if g.DefaultWedge51 {
			wedgeRequired = true
		}
	}
	if wedgeRequired {
		preferred = stacking.TrailerWedge
	}

	result := b.pack(groups, stopSeq, preferred)
	if preferred == stacking.TrailerStepDeck && result.ExceedsCapacity && !wedgeRequired {
		if flat := b.pack(groups, stopSeq, stacking.TrailerFlatbed); !flat.ExceedsCapacity {
			return stacking.TrailerFlatbed, flat
		}
	}
	return preferred, result
}

func (b *LoadBuilder) pack(groups []*orders.OrderGroup, stopSeq map[string]int, trailer stacking.TrailerType) *stacking.Result {
	config := stacking.ConfigFor(trailer)
	if trailer == b.params.TrailerType {
		// Capacity override applies to the requested trailer only; ladder
		// switches use the standard profile
		config = config.WithCapacity(b.params.CapacityFeet)
	}

	opts := stacking.Options{
		Trailer:                 config,
		PreserveOrderContiguity: b.params.PreserveOrderContiguity,
		OverflowMaxStack:        b.params.StackOverflowMaxHeight,
		BackOverhangFt:          b.params.MaxBackOverhangFt,
	}

	items := make([]stacking.Item, 0, len(groups)*2)
	for _, g := range groups {
		seq := stopSeq[g.SoNum]
		for _, line := range g.Lines {
			if line.Qty <= 0 {
				continue
			}
			maxStack := line.MaxStack
			if fromCatalog, ok := b.catalog.MaxStackFor(line.Sku, trailer); ok {
				maxStack = fromCatalog
			}
			items = append(items, stacking.Item{
				OrderKey:     g.SoNum,
				Sku:          line.Sku,
				Category:     b.catalog.Category(line.Sku),
				Qty:          line.Qty,
				UnitLengthFt: line.UnitLengthFt,
				MaxStack:     maxStack,
				StopSequence: seq,
			})
		}
	}

	return stacking.NewCalculator(opts).Pack(items)
}

func (b *LoadBuilder) captureGeometry(load *planning.Load, groups []*orders.OrderGroup) {
	var latSum, lngSum float64
	n := 0
	for _, g := range groups {
		if g.HasCoord {
			latSum += g.Coord.Lat
			lngSum += g.Coord.Lng
			n++
		}
	}
	if n == 0 {
		return
	}

	load.Centroid = geo.Coord{Lat: latSum / float64(n), Lng: lngSum / float64(n)}
	load.HasCentroid = true
	if b.hasOrigin {
		load.OriginMiles = geo.HaversineMiles(b.origin, load.Centroid)
		load.BearingDeg = geo.BearingDegrees(b.origin, load.Centroid)
	}
}

func captureDates(load *planning.Load, groups []*orders.OrderGroup, baseWindowDays int) {
	window := baseWindowDays
	for _, g := range groups {
		if g.DueDateFlexDays != nil && *g.DueDateFlexDays < window {
			window = *g.DueDateFlexDays
		}
		if !g.HasDueDate {
			continue
		}
		if !load.HasDueDates || g.DueDate.Before(load.DueDateMin) {
			load.DueDateMin = g.DueDate
		}
		if !load.HasDueDates || g.DueDate.After(load.DueDateMax) {
			load.DueDateMax = g.DueDate
		}
		load.HasDueDates = true
	}
	load.EffectiveWindowDays = window

	for _, g := range groups {
		if g.MaxUnitLenFt > load.MaxUnitLenFt {
			load.MaxUnitLenFt = g.MaxUnitLenFt
		}
	}
}

// dedupeStops builds the stop list in first-appearance order, one stop per
// zip|state pair
func dedupeStops(groups []*orders.OrderGroup) ([]routing.Stop, bool) {
	seen := map[string]bool{}
	stops := make([]routing.Stop, 0, len(groups))
	missingCoords := false
	for _, g := range groups {
		if !g.HasCoord {
			missingCoords = true
		}
		key := stopKey(g.Zip, g.State)
		if seen[key] {
			continue
		}
		seen[key] = true
		stops = append(stops, routing.Stop{State: g.State, Zip: g.Zip, Coord: g.Coord, HasCoord: g.HasCoord})
	}
	return stops, missingCoords
}

// groupStopSequences maps each order to its 1-based position in the routed
// stop order
func groupStopSequences(groups []*orders.OrderGroup, ordered []routing.Stop) map[string]int {
	seqByKey := make(map[string]int, len(ordered))
	for i, stop := range ordered {
		seqByKey[stopKey(stop.Zip, stop.State)] = i + 1
	}
	out := make(map[string]int, len(groups))
	for _, g := range groups {
		out[g.SoNum] = seqByKey[stopKey(g.Zip, g.State)]
	}
	return out
}

func stopKey(zip, state string) string {
	return zip + "|" + state
}

// modalState picks the most common destination state among groups, ties
// broken lexically
func modalState(groups []*orders.OrderGroup) string {
	votes := map[string]int{}
	for _, g := range groups {
		if g.State != "" {
			votes[g.State]++
		}
	}
	if len(votes) == 0 {
		return ""
	}
	states := make([]string, 0, len(votes))
	for s := range votes {
		states = append(states, s)
	}
	sort.Strings(states)
	best := states[0]
	for _, s := range states[1:] {
		if votes[s] > votes[best] {
			best = s
		}
	}
	return best
}
