package planning

import (
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// Summary aggregates one plan's headline numbers
type Summary struct {
	TotalLoads     int
	TotalOrders    int
	TotalStops     int
	AvgUtilization float64
	TotalMiles     float64
	EstimatedCost  float64
	TotalSavings   float64
	GradeCounts    map[string]int
}

// Summarize rolls a load set up into plan totals
func Summarize(loads []*planning.Load) Summary {
	s := Summary{
		TotalLoads:  len(loads),
		GradeCounts: map[string]int{},
	}
	for _, l := range loads {
		s.TotalOrders += len(l.Groups)
		s.TotalStops += len(l.Stops)
		s.AvgUtilization += l.UtilizationPct
		s.TotalMiles += l.EstimatedMiles
		s.EstimatedCost += l.EstimatedCost
		s.TotalSavings += l.ConsolidationSavings
		s.GradeCounts[l.Grade()]++
	}
	if len(loads) > 0 {
		s.AvgUtilization /= float64(len(loads))
	}
	return s
}

// Comparison puts the optimized plan side by side with the first-fit
// baseline built from the same groups
type Comparison struct {
	Optimized Summary
	Baseline  Summary

	// Deltas are optimized minus baseline; negative means the optimizer
	// did better
	LoadDelta int
	CostDelta float64
	MileDelta float64
}

func Compare(optimized, baseline Summary) Comparison {
	return Comparison{
		Optimized: optimized,
		Baseline:  baseline,
		LoadDelta: optimized.TotalLoads - baseline.TotalLoads,
		CostDelta: optimized.EstimatedCost - baseline.EstimatedCost,
		MileDelta: optimized.TotalMiles - baseline.TotalMiles,
	}
}
