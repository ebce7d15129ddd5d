package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

func newBaseline(params planning.PlanParams) *BaselineStrategy {
	return NewBaselineStrategy(params, testBuilder(params))
}

func TestBaseline_PacksStateByStateLongestFirst(t *testing.T) {
	// Arrange
	params := planning.DefaultPlanParams(testPlant)
	strategy := newBaseline(params)
	groups := []*orders.OrderGroup{
		buildGroup(groupSpec{so: "1003", state: "OH", zip: "44103", coord: coordAt(10, 2), units: 1, unitFt: 10, due: "2026-01-10"}),
		buildGroup(groupSpec{so: "2001", state: "TX", zip: "75001", coord: coordAt(-500, -500), units: 4, unitFt: 10, due: "2026-01-10"}),
		buildGroup(groupSpec{so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 3, unitFt: 10, due: "2026-01-10"}),
		buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(10, 1), units: 2, unitFt: 10, due: "2026-01-10"}),
	}

	// Act
	loads := strategy.BuildLoads(context.Background(), groups)

	// Assert
	require.Len(t, loads, 3)
	assert.ElementsMatch(t, []string{"1001", "1002"}, loads[0].SoNums(), "50 ft of OH freight shares the first truck")
	assert.Equal(t, []string{"1003"}, loads[1].SoNums(), "the 10 ft remainder overflows to its own truck")
	assert.Equal(t, []string{"2001"}, loads[2].SoNums(), "TX follows OH")
	assert.InDelta(t, 94.34, loads[0].UtilizationPct, 0.01)
}

func TestBaseline_EveryGroupShipsExactlyOnce(t *testing.T) {
	// Arrange
	params := planning.DefaultPlanParams(testPlant)
	strategy := newBaseline(params)
	groups := []*orders.OrderGroup{
		buildGroup(groupSpec{so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 3, unitFt: 10, due: "2026-01-10"}),
		buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(10, 1), units: 3, unitFt: 10, due: "2026-01-10"}),
		buildGroup(groupSpec{so: "1003", state: "OH", zip: "44103", coord: coordAt(10, 2), units: 3, unitFt: 10, due: "2026-01-10"}),
	}

	// Act
	loads := strategy.BuildLoads(context.Background(), groups)

	// Assert
	total := 0
	for _, l := range loads {
		total += l.OrderCount()
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, map[string]bool{"1001": true, "1002": true, "1003": true}, soNumSet(loads))
}

func TestBaseline_TimeWindowSplitsDistantDues(t *testing.T) {
	params := planning.DefaultPlanParams(testPlant)
	strategy := newBaseline(params)
	near := buildGroup(groupSpec{so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-10"})

	t.Run("dues inside the window share a truck", func(t *testing.T) {
		peer := buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(10, 1), units: 2, unitFt: 10, due: "2026-01-13"})

		loads := strategy.BuildLoads(context.Background(), []*orders.OrderGroup{near, peer})

		require.Len(t, loads, 1)
	})

	t.Run("dues beyond the window split", func(t *testing.T) {
		peer := buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(10, 1), units: 2, unitFt: 10, due: "2026-01-20"})

		loads := strategy.BuildLoads(context.Background(), []*orders.OrderGroup{near, peer})

		assert.Len(t, loads, 2)
	})

	t.Run("strategic flex days tighten the window", func(t *testing.T) {
		flex := 1
		peer := buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(10, 1), units: 2, unitFt: 10, due: "2026-01-12"})
		peer.DueDateFlexDays = &flex

		loads := strategy.BuildLoads(context.Background(), []*orders.OrderGroup{near, peer})

		assert.Len(t, loads, 2, "a 2 day span against a 1 day flex window")
	})
}

func TestBaseline_MixRulesHold(t *testing.T) {
	params := planning.DefaultPlanParams(testPlant)
	strategy := newBaseline(params)

	t.Run("no-mix account rides alone", func(t *testing.T) {
		lowes := buildGroup(groupSpec{so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-10", cust: "LOWES OF CLEVELAND"})
		lowes.Strategic = &orders.StrategicCustomer{Key: "LOWES", NoMix: true}
		lowes.NoMix = true
		generic := buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(10, 1), units: 2, unitFt: 10, due: "2026-01-10"})

		loads := strategy.BuildLoads(context.Background(), []*orders.OrderGroup{lowes, generic})

		assert.Len(t, loads, 2)
	})

	t.Run("dump freight rides alone", func(t *testing.T) {
		dump := buildGroup(groupSpec{so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-10"})
		dump.Categories = []string{"DUMP"}
		truss := buildGroup(groupSpec{so: "1002", state: "OH", zip: "44102", coord: coordAt(10, 1), units: 2, unitFt: 10, due: "2026-01-10"})
		truss.Categories = []string{"TRUSS"}

		loads := strategy.BuildLoads(context.Background(), []*orders.OrderGroup{dump, truss})

		assert.Len(t, loads, 2)
	})
}
