package planning

import (
	"context"
	"sort"
	"time"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// BaselineStrategy packs groups state by state with first-fit-decreasing on
// total length. It is the comparison yardstick for the v2 optimizer and
// applies no routing-aware gates.
type BaselineStrategy struct {
	params  planning.PlanParams
	builder *LoadBuilder
}

func NewBaselineStrategy(params planning.PlanParams, builder *LoadBuilder) *BaselineStrategy {
	return &BaselineStrategy{params: params, builder: builder}
}

type openSlot struct {
	members []*orders.OrderGroup
	load    *planning.Load
}

// BuildLoads places every group exactly once. States are processed in
// alphabetical order and groups longest first, so identical inputs always
// produce the identical plan.
func (s *BaselineStrategy) BuildLoads(ctx context.Context, groups []*orders.OrderGroup) []*planning.Load {
	byState := map[string][]*orders.OrderGroup{}
	for _, g := range groups {
		byState[g.State] = append(byState[g.State], g)
	}
	states := make([]string, 0, len(byState))
	for st := range byState {
		states = append(states, st)
	}
	sort.Strings(states)

	var loads []*planning.Load
	for _, st := range states {
		bucket := append([]*orders.OrderGroup(nil), byState[st]...)
		sort.Slice(bucket, func(i, j int) bool {
			if bucket[i].TotalLengthFt != bucket[j].TotalLengthFt {
				return bucket[i].TotalLengthFt > bucket[j].TotalLengthFt
			}
			return bucket[i].SoNum < bucket[j].SoNum
		})

		var open []openSlot
		for _, g := range bucket {
			placed := false
			for i := range open {
				if trial, ok := s.tryAdd(ctx, open[i].members, g); ok {
					open[i].members = append(open[i].members, g)
					open[i].load = trial
					placed = true
					break
				}
			}
			if !placed {
				open = append(open, openSlot{
					members: []*orders.OrderGroup{g},
					load:    s.builder.BuildLoad(ctx, []*orders.OrderGroup{g}),
				})
			}
		}
		for _, slot := range open {
			loads = append(loads, slot.load)
		}
	}
	return loads
}

// tryAdd tests whether a group fits an open load: mix rules hold, DUMP
// stays isolated, the due span fits the window, and the packed trailer is
// not over capacity with multiple orders aboard
func (s *BaselineStrategy) tryAdd(ctx context.Context, members []*orders.OrderGroup, g *orders.OrderGroup) (*planning.Load, bool) {
	combined := make([]*orders.OrderGroup, 0, len(members)+1)
	combined = append(combined, members...)
	combined = append(combined, g)

	if mixRuleViolated(combined) || dumpMixViolation(combined) {
		return nil, false
	}
	if s.params.EnforceTimeWindow && !groupSpanFitsWindow(combined, s.params.TimeWindowDays) {
		return nil, false
	}

	trial := s.builder.BuildLoad(ctx, combined)
	if trial.MultiOrderOverCapacity() {
		return nil, false
	}
	return trial, true
}

// groupSpanFitsWindow checks the combined due range against the strictest
// effective window of the member groups
func groupSpanFitsWindow(groups []*orders.OrderGroup, baseWindowDays int) bool {
	window := baseWindowDays
	var minDue, maxDue time.Time
	dated := false
	for _, g := range groups {
		if g.DueDateFlexDays != nil && *g.DueDateFlexDays < window {
			window = *g.DueDateFlexDays
		}
		if !g.HasDueDate {
			continue
		}
		if !dated {
			minDue, maxDue = g.DueDate, g.DueDate
			dated = true
			continue
		}
		if g.DueDate.Before(minDue) {
			minDue = g.DueDate
		}
		if g.DueDate.After(maxDue) {
			maxDue = g.DueDate
		}
	}
	if !dated {
		return true
	}
	return maxDue.Sub(minDue).Hours()/24 <= float64(window)
}
