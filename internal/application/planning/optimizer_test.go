package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

func TestOptimize_SingleOrderShipsAlone(t *testing.T) {
	// Arrange
	params := planning.DefaultPlanParams(testPlant)
	metrics := &recordingMetrics{}
	opt := newTestOptimizer(params, metrics)
	groups := []*orders.OrderGroup{buildGroup(groupSpec{
		so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-10",
	})}

	// Act
	loads, err := opt.Optimize(context.Background(), groups)

	// Assert
	require.NoError(t, err)
	require.Len(t, loads, 1)
	l := loads[0]
	assert.Equal(t, planning.StatusProposed, l.Status)
	assert.Equal(t, planning.SourceOptimized, l.BuildSource)
	assert.InDelta(t, 37.74, l.UtilizationPct, 0.01)
	assert.Equal(t, "F", l.Grade())
	assert.InDelta(t, 350, l.EstimatedCost, 1e-9, "short runs clamp to the minimum load cost")
	assert.Empty(t, metrics.merges)
}

func TestOptimize_MergesNearbyCompatibleOrders(t *testing.T) {
	// Arrange
	params := planning.DefaultPlanParams(testPlant)
	metrics := &recordingMetrics{}
	opt := newTestOptimizer(params, metrics)
	groups := []*orders.OrderGroup{
		buildGroup(groupSpec{so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-10"}),
		buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(12, 1), units: 2, unitFt: 10, due: "2026-01-12"}),
	}

	// Act
	loads, err := opt.Optimize(context.Background(), groups)

	// Assert
	require.NoError(t, err)
	require.Len(t, loads, 1)
	l := loads[0]
	assert.ElementsMatch(t, []string{"1001", "1002"}, l.SoNums())
	assert.InDelta(t, 75.47, l.UtilizationPct, 0.01)
	assert.InDelta(t, 350, l.ConsolidationSavings, 1e-9)
	assert.Equal(t, 2, l.StopCount())
	assert.True(t, l.HasDueDates)
	assert.Equal(t, testDate("2026-01-10"), l.DueDateMin)
	assert.Equal(t, testDate("2026-01-12"), l.DueDateMax)
	assert.Equal(t, map[string]int{passMain: 1}, metrics.mergesByPass())
}

func TestOptimize_NoMixAccountKeepsItsOwnTruck(t *testing.T) {
	// Arrange
	params := planning.DefaultPlanParams(testPlant)
	opt := newTestOptimizer(params, nil)

	lowes := buildGroup(groupSpec{so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-10", cust: "LOWES OF CLEVELAND"})
	lowes.Strategic = &orders.StrategicCustomer{Key: "LOWES", NoMix: true, RequiresReturnToOrigin: true}
	lowes.NoMix = true
	lowes.RequiresReturnToOrigin = true
	generic := buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(12, 1), units: 2, unitFt: 10, due: "2026-01-10", cust: "JOES HARDWARE"})

	// Act
	loads, err := opt.Optimize(context.Background(), []*orders.OrderGroup{lowes, generic})

	// Assert
	require.NoError(t, err)
	require.Len(t, loads, 2)
	byso := map[string]*planning.Load{}
	for _, l := range loads {
		require.Len(t, l.Groups, 1)
		byso[l.Groups[0].SoNum] = l
	}
	assert.True(t, byso["1001"].ReturnToOrigin, "strategic account forces the backhaul")
	assert.False(t, byso["1002"].ReturnToOrigin)
	assert.False(t, byso["1001"].HasWarning(planning.WarnReturnRuleDeviation))
}

func TestOptimize_OrphanRescueAcceptsSmallCostIncrease(t *testing.T) {
	// Arrange
	// Two tiny orders 310 mi apart: outside the main radius and slightly
	// cost-increasing to combine, but both far below the orphan threshold
	params := planning.DefaultPlanParams(testPlant)
	metrics := &recordingMetrics{}
	opt := newTestOptimizer(params, metrics)
	groups := []*orders.OrderGroup{
		buildGroup(groupSpec{so: "2001", state: "OH", zip: "43001", coord: coordAt(100, 0), units: 1, unitFt: 9, due: "2026-01-12"}),
		buildGroup(groupSpec{so: "2002", state: "OH", zip: "43002", coord: coordAt(19.5, 299.4), units: 1, unitFt: 9, due: "2026-01-12"}),
	}

	// Act
	loads, err := opt.Optimize(context.Background(), groups)

	// Assert
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Negative(t, loads[0].ConsolidationSavings, "the rescue pays a small penalty")
	assert.Greater(t, loads[0].ConsolidationSavings, -50.0)
	assert.Equal(t, map[string]int{passOrphan: 1}, metrics.mergesByPass())
}

func TestOptimize_RepairReachesBeyondEveryRadius(t *testing.T) {
	// Arrange
	// Two half-full orders 424 mi apart on perpendicular bearings. Too far
	// for main and orphan, too expensive for grade rescue (-310 savings
	// against the -90 floor), but inside the repair gates.
	params := planning.DefaultPlanParams(testPlant)
	metrics := &recordingMetrics{}
	opt := newTestOptimizer(params, metrics)
	groups := []*orders.OrderGroup{
		buildGroup(groupSpec{so: "3001", state: "OH", zip: "43003", coord: coordAt(0, 300), units: 4, unitFt: 6, due: "2026-01-10"}),
		buildGroup(groupSpec{so: "3002", state: "OH", zip: "43004", coord: coordAt(300, 0), units: 4, unitFt: 6, due: "2026-01-11"}),
	}

	// Act
	loads, err := opt.Optimize(context.Background(), groups)

	// Assert
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.InDelta(t, 98.11, loads[0].UtilizationPct, 0.01)
	assert.Equal(t, map[string]int{passRepair: 1}, metrics.mergesByPass())
}

func TestOptimize_RebalanceDissolvesHopelessLoad(t *testing.T) {
	// Arrange
	// A two-order F-grade load flanked by two date-incompatible peers.
	// Nothing can absorb it whole, but its orders fit the peers one at a
	// time, so the rebalance pass splits it and retires the truck.
	params := planning.DefaultPlanParams(testPlant)
	metrics := &recordingMetrics{}
	opt := newTestOptimizer(params, metrics)
	groups := []*orders.OrderGroup{
		buildGroup(groupSpec{so: "9001", state: "PA", zip: "16801", coord: coordAt(0, 300), units: 1, unitFt: 9, due: "2026-01-14"}),
		buildGroup(groupSpec{so: "9002", state: "PA", zip: "16801", coord: coordAt(0, 300), units: 1, unitFt: 9, due: "2026-01-14"}),
		buildGroup(groupSpec{so: "9003", state: "PA", zip: "16802", coord: coordAt(0, 302), units: 7, unitFt: 6, due: "2026-01-18"}),
		buildGroup(groupSpec{so: "9004", state: "IL", zip: "62901", coord: coordAt(0, -300), units: 4, unitFt: 6, due: "2026-01-10"}),
	}

	// Act
	loads, err := opt.Optimize(context.Background(), groups)

	// Assert
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, map[string]bool{"9001": true, "9002": true, "9003": true, "9004": true}, soNumSet(loads))

	var with9001, with9002 *planning.Load
	totalOrders := 0
	for _, l := range loads {
		totalOrders += l.OrderCount()
		assert.GreaterOrEqual(t, l.UtilizationPct, 55.0, "no weak load survives the rebalance")
		for _, so := range l.SoNums() {
			if so == "9001" {
				with9001 = l
			}
			if so == "9002" {
				with9002 = l
			}
		}
	}
	assert.Equal(t, 4, totalOrders, "every order ships exactly once")
	require.NotNil(t, with9001)
	require.NotNil(t, with9002)
	assert.NotSame(t, with9001, with9002, "the dissolved load's orders split across peers")
	assert.Equal(t, map[string]int{passMain: 1, passRebalance: 2}, metrics.mergesByPass())
}

func TestOptimize_DeterministicAcrossRuns(t *testing.T) {
	// Arrange
	mkGroups := func() []*orders.OrderGroup {
		return []*orders.OrderGroup{
			buildGroup(groupSpec{so: "9001", state: "PA", zip: "16801", coord: coordAt(0, 300), units: 1, unitFt: 9, due: "2026-01-14"}),
			buildGroup(groupSpec{so: "9002", state: "PA", zip: "16801", coord: coordAt(0, 300), units: 1, unitFt: 9, due: "2026-01-14"}),
			buildGroup(groupSpec{so: "9003", state: "PA", zip: "16802", coord: coordAt(0, 302), units: 7, unitFt: 6, due: "2026-01-18"}),
			buildGroup(groupSpec{so: "9004", state: "IL", zip: "62901", coord: coordAt(0, -300), units: 4, unitFt: 6, due: "2026-01-10"}),
			buildGroup(groupSpec{so: "9005", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-12"}),
			buildGroup(groupSpec{so: "9006", state: "OH", zip: "44102", coord: coordAt(12, 1), units: 2, unitFt: 10, due: "2026-01-12"}),
		}
	}
	params := planning.DefaultPlanParams(testPlant)

	run := func() []string {
		loads, err := newTestOptimizer(params, nil).Optimize(context.Background(), mkGroups())
		require.NoError(t, err)
		var shape []string
		for _, l := range loads {
			sig := ""
			for _, so := range l.SoNums() {
				sig += so + ","
			}
			shape = append(shape, sig)
		}
		return shape
	}

	// Act
	first := run()
	second := run()

	// Assert
	assert.Equal(t, first, second, "identical input yields an identical plan")
}

func TestOptimize_CancelledContextStopsTheRun(t *testing.T) {
	// Arrange
	params := planning.DefaultPlanParams(testPlant)
	opt := newTestOptimizer(params, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	loads, err := opt.Optimize(ctx, []*orders.OrderGroup{buildGroup(groupSpec{
		so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-10",
	})})

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, loads)
}
