package planning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
)

func newBuildHandler(orderRepo *stubOrderRepo, loadRepo *stubLoadRepo, metrics *recordingMetrics) *BuildLoadsHandler {
	clock := shared.NewMockClock(testDate("2026-01-05"))
	return NewBuildLoadsHandler(orderRepo, loadRepo, testSources(), testRoutes(), testCostParams(), metrics, clock)
}

// twoNearbyOrders ship to adjacent zips two days apart; the optimizer
// should put them on one truck
func twoNearbyOrders() *stubOrderRepo {
	a := testLine("1001", "44101", "OH", 2, 10, "2026-01-10")
	b := testLine("1002", "44102", "OH", 2, 10, "2026-01-12")
	return &stubOrderRepo{
		lines:   []*orders.OrderLine{a, b},
		headers: []orders.Order{testHeader(a), testHeader(b)},
	}
}

func TestBuildLoads_InvalidParamsReturnFieldErrors(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	handler := newBuildHandler(&stubOrderRepo{}, &stubLoadRepo{}, metrics)
	params := planning.DefaultPlanParams("CLE")

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{Params: params})

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildLoadsResult)
	assert.Equal(t, "must be exactly 2 characters", result.Errors["origin_plant"])
	assert.Empty(t, result.Loads)
	assert.False(t, result.Persisted)
	assert.Equal(t, []string{"v2/invalid"}, metrics.runs)
}

func TestBuildLoads_UnknownPlantRejected(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	handler := newBuildHandler(&stubOrderRepo{}, &stubLoadRepo{}, metrics)
	params := planning.DefaultPlanParams("ZZ")
	params.SessionID = "plan-zz-manual"

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{Params: params})

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildLoadsResult)
	assert.Equal(t, map[string]string{"origin_plant": "unknown plant code"}, result.Errors)
	assert.Equal(t, "plan-zz-manual", result.SessionID)
	assert.Equal(t, []string{"v2/invalid"}, metrics.runs)
}

func TestBuildLoads_NoEligibleOrdersReportsReason(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	loadRepo := &stubLoadRepo{}
	handler := newBuildHandler(twoNearbyOrders(), loadRepo, metrics)
	params := planning.DefaultPlanParams(testPlant)
	params.StateFilters = []string{"TX"}

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{Params: params})

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildLoadsResult)
	assert.Empty(t, result.Loads)
	assert.False(t, result.Persisted)
	require.NotNil(t, result.Eligibility)
	assert.Equal(t, 2, result.Eligibility.TotalGroups)
	assert.Equal(t, 0, result.Eligibility.AfterStates)
	assert.Equal(t, "no orders ship to the selected states", result.Eligibility.EmptyReason)
	assert.Empty(t, loadRepo.replacedPlant)
	assert.Equal(t, []string{"v2/empty"}, metrics.runs)
}

func TestBuildLoads_V2RunPersistsPlanAndComparison(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	loadRepo := &stubLoadRepo{}
	handler := newBuildHandler(twoNearbyOrders(), loadRepo, metrics)
	params := planning.DefaultPlanParams(testPlant)

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{Params: params})

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildLoadsResult)
	assert.Empty(t, result.Errors)
	assert.Equal(t, testPlant, result.Plant)
	assert.Equal(t, "v2", result.Algorithm)
	assert.True(t, strings.HasPrefix(result.SessionID, "plan-cl-"))

	require.Len(t, result.Loads, 1)
	load := result.Loads[0]
	assert.ElementsMatch(t, []string{"1001", "1002"}, load.SoNums())
	assert.InDelta(t, 75.47, load.UtilizationPct, 0.01)
	assert.Equal(t, result.SessionID, load.SessionID)

	assert.True(t, result.Persisted)
	assert.Equal(t, testPlant, loadRepo.replacedPlant)
	assert.Equal(t, result.SessionID, loadRepo.replacedSession)
	require.Len(t, loadRepo.replaced, 1)

	require.NotNil(t, result.Comparison)
	assert.Equal(t, 1, result.Comparison.Optimized.TotalLoads)
	assert.Equal(t, 1, result.Comparison.Baseline.TotalLoads)

	assert.Equal(t, 1, result.Summary.TotalLoads)
	assert.Equal(t, 2, result.Eligibility.Eligible)

	assert.Equal(t, []string{"v2/ok"}, metrics.runs)
	assert.Equal(t, 1, metrics.loadsBuilt)
	assert.Equal(t, map[string]int{"main": 1}, metrics.mergesByPass())
	require.Len(t, metrics.utilization, 1)
	assert.InDelta(t, 75.47, metrics.utilization[0], 0.01)
}

func TestBuildLoads_DryRunSkipsPersistence(t *testing.T) {
	// Arrange
	loadRepo := &stubLoadRepo{}
	handler := newBuildHandler(twoNearbyOrders(), loadRepo, &recordingMetrics{})
	params := planning.DefaultPlanParams(testPlant)
	params.DryRun = true

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{Params: params})

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildLoadsResult)
	require.Len(t, result.Loads, 1)
	assert.False(t, result.Persisted)
	assert.Empty(t, loadRepo.replacedPlant)
	assert.Nil(t, loadRepo.replaced)
}

func TestBuildLoads_BaselineAlgorithmSkipsComparison(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	handler := newBuildHandler(twoNearbyOrders(), &stubLoadRepo{}, metrics)
	params := planning.DefaultPlanParams(testPlant)
	params.AlgorithmVersion = "baseline"

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{Params: params})

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildLoadsResult)
	assert.Equal(t, "baseline", result.Algorithm)
	assert.Nil(t, result.Comparison)
	require.Len(t, result.Loads, 1)
	assert.True(t, result.Persisted)
	assert.Equal(t, []string{"baseline/ok"}, metrics.runs)
}

func TestBuildLoads_OrderLoadFailureWrapped(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	feedDown := errors.New("feed unavailable")
	handler := newBuildHandler(&stubOrderRepo{linesErr: feedDown}, &stubLoadRepo{}, metrics)

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{Params: planning.DefaultPlanParams(testPlant)})

	// Assert
	require.ErrorIs(t, err, feedDown)
	assert.ErrorContains(t, err, "loading order lines")
	assert.Nil(t, resp)
	assert.Equal(t, []string{"v2/error"}, metrics.runs)
}

func TestBuildLoads_ReplaceFailurePropagates(t *testing.T) {
	// Arrange
	metrics := &recordingMetrics{}
	dbDown := errors.New("database is locked")
	handler := newBuildHandler(twoNearbyOrders(), &stubLoadRepo{replaceErr: dbDown}, metrics)

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{Params: planning.DefaultPlanParams(testPlant)})

	// Assert
	require.ErrorIs(t, err, dbDown)
	assert.ErrorContains(t, err, "persisting plan")
	assert.Nil(t, resp)
	assert.Equal(t, []string{"v2/error"}, metrics.runs)
}
