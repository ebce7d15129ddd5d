package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

func TestStructuralMergeOK_Gates(t *testing.T) {
	opt := newTestOptimizer(planning.DefaultPlanParams(testPlant), nil)
	lowes := &orders.StrategicCustomer{Key: "LOWES", NoMix: true}

	t.Run("different plants never share a truck", func(t *testing.T) {
		a := testLoad(1, "OH", 80, 100, 0)
		a.Groups = []*orders.OrderGroup{buildGroup(groupSpec{so: "1001", state: "OH"})}
		b := testLoad(2, "OH", 80, 100, 0)
		b.OriginPlant = "TX"
		b.Groups = []*orders.OrderGroup{buildGroup(groupSpec{so: "1002", state: "OH"})}

		assert.False(t, opt.structuralMergeOK(a, b))
	})

	t.Run("no-mix account rejects outside freight", func(t *testing.T) {
		a := testLoad(1, "OH", 80, 100, 0)
		ga := buildGroup(groupSpec{so: "1001", state: "OH", cust: "LOWES OF CLEVELAND"})
		ga.Strategic = lowes
		ga.NoMix = true
		a.Groups = []*orders.OrderGroup{ga}

		b := testLoad(2, "OH", 80, 100, 0)
		b.Groups = []*orders.OrderGroup{buildGroup(groupSpec{so: "1002", state: "OH", cust: "JOES HARDWARE"})}

		assert.False(t, opt.structuralMergeOK(a, b))
	})

	t.Run("no-mix freight from the same account rides together", func(t *testing.T) {
		a := testLoad(1, "OH", 80, 100, 0)
		ga := buildGroup(groupSpec{so: "1001", state: "OH", cust: "LOWES OF CLEVELAND"})
		ga.Strategic = lowes
		ga.NoMix = true
		a.Groups = []*orders.OrderGroup{ga}

		b := testLoad(2, "OH", 80, 100, 0)
		gb := buildGroup(groupSpec{so: "1002", state: "OH", cust: "LOWES OF AKRON"})
		gb.Strategic = lowes
		gb.NoMix = true
		b.Groups = []*orders.OrderGroup{gb}

		assert.True(t, opt.structuralMergeOK(a, b))
	})

	t.Run("due ranges must fit the stricter window", func(t *testing.T) {
		a := withDue(testLoad(1, "OH", 80, 100, 0), "2026-01-10")
		a.Groups = []*orders.OrderGroup{buildGroup(groupSpec{so: "1001", state: "OH"})}
		b := withDue(testLoad(2, "OH", 80, 100, 0), "2026-01-18")
		b.Groups = []*orders.OrderGroup{buildGroup(groupSpec{so: "1002", state: "OH"})}

		assert.False(t, opt.structuralMergeOK(a, b), "8 day span against a 5 day window")

		relaxed := planning.DefaultPlanParams(testPlant)
		relaxed.EnforceTimeWindow = false
		assert.True(t, newTestOptimizer(relaxed, nil).structuralMergeOK(a, b))
	})

	t.Run("dump freight rides alone", func(t *testing.T) {
		a := testLoad(1, "OH", 80, 100, 0)
		ga := buildGroup(groupSpec{so: "1001", state: "OH"})
		ga.Categories = []string{"DUMP"}
		a.Groups = []*orders.OrderGroup{ga}

		b := testLoad(2, "OH", 80, 100, 0)
		gb := buildGroup(groupSpec{so: "1002", state: "OH"})
		gb.Categories = []string{"TRUSS"}
		b.Groups = []*orders.OrderGroup{gb}

		assert.False(t, opt.structuralMergeOK(a, b))

		gb.Categories = []string{"DUMP"}
		assert.True(t, opt.structuralMergeOK(a, b), "dump with dump is fine")
	})
}

func TestGeoGate_RadiusAndEscapes(t *testing.T) {
	opt := newTestOptimizer(planning.DefaultPlanParams(testPlant), nil)
	pol := opt.mainPolicy()

	t.Run("close stops pass", func(t *testing.T) {
		a := withStop(testLoad(1, "OH", 80, 100, 0), coordAt(0, 100))
		b := withStop(testLoad(2, "OH", 80, 120, 0), coordAt(0, 120))

		assert.True(t, opt.geoGateOK(a, b, pol))
	})

	t.Run("distant healthy loads fail", func(t *testing.T) {
		a := withStop(testLoad(1, "OH", 80, 100, 90), coordAt(0, 100))
		b := withStop(testLoad(2, "OH", 80, 400, 90), coordAt(0, 400))

		assert.False(t, opt.geoGateOK(a, b, pol))
	})

	t.Run("two very low loads escape the radius", func(t *testing.T) {
		a := withStop(testLoad(1, "OH", 30, 100, 90), coordAt(0, 100))
		b := withStop(testLoad(2, "OH", 30, 400, 90), coordAt(0, 400))

		assert.True(t, opt.geoGateOK(a, b, pol))
	})

	t.Run("corridor pair with one low side escapes", func(t *testing.T) {
		a := withStop(testLoad(1, "OH", 80, 100, 0), coordAt(100, 0))
		b := withStop(testLoad(2, "OH", 50, 550, 0), coordAt(550, 0))

		assert.True(t, opt.geoGateOK(a, b, pol))

		b.UtilizationPct = 80
		assert.False(t, opt.geoGateOK(a, b, pol), "no low side, no escape")
	})

	t.Run("ungeocoded stops pass through", func(t *testing.T) {
		a := testLoad(1, "OH", 80, 100, 0)
		b := testLoad(2, "OH", 80, 400, 90)

		assert.True(t, opt.geoGateOK(a, b, pol))
	})
}

func TestDateCompatible(t *testing.T) {
	t.Run("union span within the stricter window", func(t *testing.T) {
		a := withDueRange(testLoad(1, "OH", 80, 100, 0), "2026-01-10", "2026-01-12")
		b := withDueRange(testLoad(2, "OH", 80, 100, 0), "2026-01-11", "2026-01-15")

		assert.True(t, dateCompatible(a, b, true), "5 day span fits a 5 day window")
	})

	t.Run("stricter side wins", func(t *testing.T) {
		a := withDueRange(testLoad(1, "OH", 80, 100, 0), "2026-01-10", "2026-01-12")
		b := withDueRange(testLoad(2, "OH", 80, 100, 0), "2026-01-11", "2026-01-14")
		b.EffectiveWindowDays = 3

		assert.False(t, dateCompatible(a, b, true), "4 day span against a 3 day window")
	})

	t.Run("undated side always fits", func(t *testing.T) {
		a := withDue(testLoad(1, "OH", 80, 100, 0), "2026-01-10")
		b := testLoad(2, "OH", 80, 100, 0)

		assert.True(t, dateCompatible(a, b, true))
	})

	t.Run("enforcement off ignores dates", func(t *testing.T) {
		a := withDue(testLoad(1, "OH", 80, 100, 0), "2026-01-01")
		b := withDue(testLoad(2, "OH", 80, 100, 0), "2026-03-01")

		assert.True(t, dateCompatible(a, b, false))
	})
}

func TestMinStopDistanceMiles(t *testing.T) {
	// Arrange
	a := withStop(testLoad(1, "OH", 80, 0, 0), coordAt(0, 10))
	a = withStop(a, coordAt(0, 50))
	b := withStop(testLoad(2, "OH", 80, 0, 0), coordAt(0, 18))

	// Act
	dist, ok := minStopDistanceMiles(a, b)

	// Assert
	require.True(t, ok)
	assert.InDelta(t, 8, dist, 0.2, "closest approach wins")

	_, ok = minStopDistanceMiles(a, testLoad(3, "OH", 80, 0, 0))
	assert.False(t, ok, "no geocoded stops on one side")
}

func TestDetourGate_EscapesNeedSavingsAndUtil(t *testing.T) {
	opt := newTestOptimizer(planning.DefaultPlanParams(testPlant), nil)
	pol := opt.mainPolicy()

	// A merged route half again longer than its farthest stop: ~60% detour
	// against the 40% cap
	newMerged := func(util float64) *planning.Load {
		m := withStop(testLoad(99, "OH", util, 100, 90), coordAt(0, 100))
		m.EstimatedMiles = 160
		return m
	}

	t.Run("within cap passes outright", func(t *testing.T) {
		a := testLoad(1, "OH", 80, 100, 90)
		b := testLoad(2, "OH", 80, 100, 90)
		m := newMerged(85)
		m.EstimatedMiles = 120

		assert.True(t, opt.detourGateOK(a, b, m, -500, pol), "no escape needed, savings do not matter")
	})

	t.Run("negative savings never escape", func(t *testing.T) {
		a := testLoad(1, "OH", 30, 100, 90)
		b := testLoad(2, "OH", 30, 100, 90)

		assert.False(t, opt.detourGateOK(a, b, newMerged(60), -1, pol))
	})

	t.Run("diluting utilization never escapes", func(t *testing.T) {
		a := testLoad(1, "OH", 30, 100, 90)
		b := testLoad(2, "OH", 30, 100, 90)

		assert.False(t, opt.detourGateOK(a, b, newMerged(25), 100, pol))
	})

	t.Run("very low pair rides the widened cap", func(t *testing.T) {
		a := testLoad(1, "OH", 30, 100, 90)
		b := testLoad(2, "OH", 30, 100, 90)

		assert.True(t, opt.detourGateOK(a, b, newMerged(60), 100, pol))
	})

	t.Run("corridor pair with a low side rides the widest cap", func(t *testing.T) {
		a := testLoad(1, "OH", 80, 100, 0)
		b := testLoad(2, "OH", 50, 150, 0)
		m := newMerged(85)
		m.EstimatedMiles = 250

		assert.True(t, opt.detourGateOK(a, b, m, 100, pol), "150% detour under the 160% on-way cap")
	})

	t.Run("healthy pair stays blocked", func(t *testing.T) {
		a := testLoad(1, "OH", 80, 100, 90)
		b := testLoad(2, "OH", 75, 100, 90)

		assert.False(t, opt.detourGateOK(a, b, newMerged(85), 100, pol))
	})
}

func TestEvaluateMerge_BuildsPairAndPrices(t *testing.T) {
	// Arrange
	// Two 20 ft orders nearly collinear from the plant; both singles clamp
	// to the minimum load cost, so the merge saves one full minimum
	params := planning.DefaultPlanParams(testPlant)
	opt := newTestOptimizer(params, nil)
	ctx := context.Background()

	a := opt.builder.BuildLoad(ctx, []*orders.OrderGroup{buildGroup(groupSpec{
		so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 2, unitFt: 10, due: "2026-01-10",
	})})
	b := opt.builder.BuildLoad(ctx, []*orders.OrderGroup{buildGroup(groupSpec{
		so: "1002", state: "OH", zip: "44102", coord: coordAt(12, 1), units: 2, unitFt: 10, due: "2026-01-12",
	})})

	// Act
	out, ok := opt.evaluateMerge(ctx, a, b, opt.mainPolicy())

	// Assert
	require.True(t, ok)
	assert.InDelta(t, 350, out.savings, 1e-9)
	assert.Greater(t, out.gain, out.savings, "pulling two loads off the low-util floor adds objective gain")
	require.Len(t, out.merged.Groups, 2)
	assert.Len(t, out.merged.Stops, 2)
	assert.InDelta(t, 75.47, out.merged.UtilizationPct, 0.01)
	assert.InDelta(t, 700, out.merged.StandaloneCost, 1e-9)
	assert.InDelta(t, 350, out.merged.ConsolidationSavings, 1e-9)
}

func TestEvaluateMerge_RejectsUnshippableCombination(t *testing.T) {
	// Arrange
	params := planning.DefaultPlanParams(testPlant)
	opt := newTestOptimizer(params, nil)
	ctx := context.Background()

	a := opt.builder.BuildLoad(ctx, []*orders.OrderGroup{buildGroup(groupSpec{
		so: "1001", state: "OH", zip: "44101", coord: coordAt(10, 0), units: 3, unitFt: 10, due: "2026-01-10",
	})})
	b := opt.builder.BuildLoad(ctx, []*orders.OrderGroup{buildGroup(groupSpec{
		so: "1002", state: "OH", zip: "44102", coord: coordAt(12, 1), units: 3, unitFt: 10, due: "2026-01-10",
	})})

	// Act
	out, ok := opt.evaluateMerge(ctx, a, b, opt.mainPolicy())

	// Assert
	assert.False(t, ok, "60 ft of freight cannot ride one trailer")
	assert.Nil(t, out)
}

func TestBuildMerged_StandaloneCostSurvivesChains(t *testing.T) {
	// Arrange
	// Three orders at one far stop; every merge collapses to the same
	// routed cost while standalone keeps summing
	params := planning.DefaultPlanParams(testPlant)
	opt := newTestOptimizer(params, nil)
	ctx := context.Background()

	spot := coordAt(0, 100)
	mk := func(so string) *planning.Load {
		return opt.builder.BuildLoad(ctx, []*orders.OrderGroup{buildGroup(groupSpec{
			so: so, state: "OH", zip: "44101", coord: spot, units: 1, unitFt: 10, due: "2026-01-10",
		})})
	}
	a, b, c := mk("1001"), mk("1002"), mk("1003")

	// Act
	ab, ok := opt.buildMerged(ctx, a, b)
	require.True(t, ok)
	abc, ok := opt.buildMerged(ctx, ab, c)
	require.True(t, ok)

	// Assert
	single := a.EstimatedCost
	assert.InDelta(t, 2*single, ab.StandaloneCost, 1e-9)
	assert.InDelta(t, 3*single, abc.StandaloneCost, 1e-9)
	assert.InDelta(t, abc.StandaloneCost-abc.EstimatedCost, abc.ConsolidationSavings, 1e-9)
	assert.Len(t, abc.Stops, 1, "same destination collapses to one stop")
}
