package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/stacking"
)

func newManualHandler(orderRepo *stubOrderRepo, loadRepo *stubLoadRepo, sequences *stubSequences, sources SnapshotSources) *BuildManualLoadHandler {
	clock := shared.NewMockClock(testDate("2026-01-05"))
	return NewBuildManualLoadHandler(orderRepo, loadRepo, sequences, sources, testRoutes(), testCostParams(), clock)
}

func TestManualLoad_BuildsDraftWithLoadNumber(t *testing.T) {
	// Arrange
	loadRepo := &stubLoadRepo{}
	sequences := &stubSequences{next: 7}
	handler := newManualHandler(twoNearbyOrders(), loadRepo, sequences, testSources())
	cmd := &BuildManualLoadCommand{
		OriginPlant: "cl",
		SoNums:      []string{"1001", "1002"},
		SessionID:   "manual-session",
	}

	// Act
	resp, err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildManualLoadResult)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "CL26-0007-D", result.LoadNumber)
	assert.Equal(t, uint(1), result.LoadID)

	require.NotNil(t, result.Load)
	assert.Equal(t, planning.StatusDraft, result.Load.Status)
	assert.Equal(t, planning.SourceManual, result.Load.BuildSource)
	assert.Equal(t, "manual-session", result.Load.SessionID)
	assert.ElementsMatch(t, []string{"1001", "1002"}, result.Load.SoNums())
	assert.InDelta(t, 75.47, result.Load.UtilizationPct, 0.01)

	assert.Equal(t, testPlant, sequences.plant)
	assert.Equal(t, 2026, sequences.year)
	require.Len(t, loadRepo.saved, 1)
	assert.Same(t, result.Load, loadRepo.saved[0])
}

func TestManualLoad_RequiresSelection(t *testing.T) {
	// Arrange
	loadRepo := &stubLoadRepo{}
	handler := newManualHandler(twoNearbyOrders(), loadRepo, &stubSequences{next: 1}, testSources())

	// Act
	resp, err := handler.Handle(context.Background(), &BuildManualLoadCommand{OriginPlant: testPlant})

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildManualLoadResult)
	assert.Equal(t, map[string]string{"so_nums": "is required"}, result.Errors)
	assert.Empty(t, loadRepo.saved)
}

func TestManualLoad_UnknownOrdersRejected(t *testing.T) {
	// Arrange
	handler := newManualHandler(twoNearbyOrders(), &stubLoadRepo{}, &stubSequences{next: 1}, testSources())
	cmd := &BuildManualLoadCommand{OriginPlant: testPlant, SoNums: []string{"9999"}}

	// Act
	resp, err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildManualLoadResult)
	assert.Equal(t, map[string]string{"so_nums": "no matching open orders"}, result.Errors)
}

func TestManualLoad_OverCapacitySelectionRejected(t *testing.T) {
	// Arrange
	a := testLine("2001", "44101", "OH", 3, 10, "2026-01-10")
	b := testLine("2002", "44102", "OH", 3, 10, "2026-01-12")
	orderRepo := &stubOrderRepo{
		lines:   []*orders.OrderLine{a, b},
		headers: []orders.Order{testHeader(a), testHeader(b)},
	}
	loadRepo := &stubLoadRepo{}
	handler := newManualHandler(orderRepo, loadRepo, &stubSequences{next: 1}, testSources())
	cmd := &BuildManualLoadCommand{OriginPlant: testPlant, SoNums: []string{"2001", "2002"}}

	// Act
	resp, err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildManualLoadResult)
	assert.Equal(t, map[string]string{"so_nums": "selected orders exceed trailer capacity"}, result.Errors)
	assert.Empty(t, loadRepo.saved)
}

func TestManualLoad_TrailerOverrideChangesDeckMath(t *testing.T) {
	// Arrange: a lone 9 ft unit rides the 10 ft upper deck on a step deck
	// but sits on the single 53 ft deck of a flatbed
	line := testLine("3001", "44101", "OH", 1, 9, "2026-01-10")
	orderRepo := &stubOrderRepo{
		lines:   []*orders.OrderLine{line},
		headers: []orders.Order{testHeader(line)},
	}
	handler := newManualHandler(orderRepo, &stubLoadRepo{}, &stubSequences{next: 1}, testSources())

	// Act
	stepResp, stepErr := handler.Handle(context.Background(), &BuildManualLoadCommand{
		OriginPlant: testPlant,
		SoNums:      []string{"3001"},
	})
	flatResp, flatErr := handler.Handle(context.Background(), &BuildManualLoadCommand{
		OriginPlant: testPlant,
		SoNums:      []string{"3001"},
		TrailerType: stacking.TrailerFlatbed,
	})

	// Assert
	require.NoError(t, stepErr)
	require.NoError(t, flatErr)
	step := stepResp.(*BuildManualLoadResult).Load
	flat := flatResp.(*BuildManualLoadResult).Load
	assert.Equal(t, stacking.TrailerStepDeck, step.TrailerType)
	assert.InDelta(t, 18.87, step.UtilizationPct, 0.01)
	assert.Equal(t, stacking.TrailerFlatbed, flat.TrailerType)
	assert.InDelta(t, 16.98, flat.UtilizationPct, 0.01)
}

func TestManualLoad_IncludeIgnoredKeepsOptOuts(t *testing.T) {
	// Arrange: the account is opted out of optimization runs, but the
	// operator picked it by hand
	line := testLine("4001", "44101", "OH", 2, 10, "2026-01-10")
	line.CustName = "BORALEX ENERGY"
	orderRepo := &stubOrderRepo{
		lines:   []*orders.OrderLine{line},
		headers: []orders.Order{testHeader(line)},
	}
	sources := testSources()
	sources.Strategic = &stubStrategicRepo{customers: []orders.StrategicCustomer{{
		Key:                   "BORALEX",
		Label:                 "Boralex",
		Patterns:              []string{"BORALEX"},
		IgnoreForOptimization: true,
	}}}
	handler := newManualHandler(orderRepo, &stubLoadRepo{}, &stubSequences{next: 1}, sources)

	// Act
	resp, err := handler.Handle(context.Background(), &BuildManualLoadCommand{
		OriginPlant: testPlant,
		SoNums:      []string{"4001"},
	})

	// Assert
	require.NoError(t, err)
	result := resp.(*BuildManualLoadResult)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.Load)
	require.Len(t, result.Load.Groups, 1)
	assert.True(t, result.Load.Groups[0].IgnoreForOptimization)
}

func TestManualLoad_WrongRequestType(t *testing.T) {
	// Arrange
	handler := newManualHandler(&stubOrderRepo{}, &stubLoadRepo{}, &stubSequences{}, testSources())

	// Act
	resp, err := handler.Handle(context.Background(), &BuildLoadsCommand{})

	// Assert
	require.EqualError(t, err, "invalid request type")
	assert.Nil(t, resp)
}
