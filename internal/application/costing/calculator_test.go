package costing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	approuting "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
)

// cannedRoutes returns the stops as given with fixed leg miles
type cannedRoutes struct {
	legs     []float64
	fallback bool
	requests []approuting.BuildRouteRequest
}

func (r *cannedRoutes) BuildRoute(ctx context.Context, req approuting.BuildRouteRequest) *routing.RouteResult {
	r.requests = append(r.requests, req)
	legs := r.legs
	if legs == nil {
		legs = make([]float64, len(req.Stops))
	}
	total := 0.0
	for _, leg := range legs {
		total += leg
	}
	return &routing.RouteResult{
		Stops:        req.Stops,
		LegMiles:     legs,
		TotalMiles:   total,
		Provider:     "test",
		UsedFallback: r.fallback,
	}
}

func testRates() *rating.RateTable {
	return rating.NewRateTable([]rating.RateEntry{
		{OriginPlant: "CL", DestinationState: "OH", EffectiveYear: 2025, RatePerMile: 2.00},
		{OriginPlant: "CL", DestinationState: "KY", EffectiveYear: 2025, RatePerMile: 3.00},
		{OriginPlant: "CL", DestinationState: "CL", EffectiveYear: 2025, RatePerMile: 1.50},
	}, 2.75, 0.35)
}

var (
	originCLE  = geo.Coord{Lat: 41.4993, Lng: -81.6944}
	stopAkron  = routing.Stop{State: "OH", Zip: "44308", Coord: geo.Coord{Lat: 41.0814, Lng: -81.5190}, HasCoord: true}
	stopLouisv = routing.Stop{State: "KY", Zip: "40202", Coord: geo.Coord{Lat: 38.2527, Lng: -85.7585}, HasCoord: true}
)

func TestCalculate_EmptyStopsPriceToZero(t *testing.T) {
	// Arrange
	calc := NewCalculator(&cannedRoutes{}, testRates(), 150, 350)

	// Act
	estimate := calc.Calculate(context.Background(), Request{OriginPlant: "CL"})

	// Assert
	assert.Zero(t, estimate.TotalCost)
	assert.Zero(t, estimate.TotalMiles)
	assert.Zero(t, estimate.StopCount)
	assert.Empty(t, estimate.OrderedStops)
}

func TestCalculate_PricesLegsAtPerStateRates(t *testing.T) {
	// Arrange
	routes := &cannedRoutes{legs: []float64{100, 50}}
	calc := NewCalculator(routes, testRates(), 150, 350)

	// Act
	estimate := calc.Calculate(context.Background(), Request{
		OriginPlant: "CL",
		Origin:      originCLE,
		HasOrigin:   true,
		Stops:       []routing.Stop{stopAkron, stopLouisv},
	})

	// Assert
	// 100 mi at OH 2.35 + 50 mi at KY 3.35 + two stop fees
	assert.InDelta(t, 100*2.35+50*3.35+2*150, estimate.TotalCost, 1e-9)
	assert.Equal(t, 2, estimate.StopCount)
	assert.Equal(t, 150.0, estimate.TotalMiles)
	assert.Zero(t, estimate.ReturnMiles)
}

func TestCalculate_UnknownLaneUsesDefaultRate(t *testing.T) {
	// Arrange
	routes := &cannedRoutes{legs: []float64{200}}
	calc := NewCalculator(routes, testRates(), 150, 350)
	stopTexas := routing.Stop{State: "TX", Zip: "75201", Coord: geo.Coord{Lat: 32.7767, Lng: -96.7970}, HasCoord: true}

	// Act
	estimate := calc.Calculate(context.Background(), Request{
		OriginPlant: "CL",
		Origin:      originCLE,
		HasOrigin:   true,
		Stops:       []routing.Stop{stopTexas},
	})

	// Assert
	assert.InDelta(t, 200*(2.75+0.35)+150, estimate.TotalCost, 1e-9)
}

func TestCalculate_MinimumLoadCostClampsShortRuns(t *testing.T) {
	// Arrange
	routes := &cannedRoutes{legs: []float64{10}}
	calc := NewCalculator(routes, testRates(), 50, 350)

	// Act
	estimate := calc.Calculate(context.Background(), Request{
		OriginPlant: "CL",
		Origin:      originCLE,
		HasOrigin:   true,
		Stops:       []routing.Stop{stopAkron},
	})

	// Assert
	// 10 mi at 2.35 + one 50 stop fee = 73.50, below the floor
	assert.Equal(t, 350.0, estimate.TotalCost)
}

func TestCalculate_ReturnLegPricedAtPlantLane(t *testing.T) {
	// Arrange
	routes := &cannedRoutes{legs: []float64{30}}
	calc := NewCalculator(routes, testRates(), 150, 350)

	// Act
	estimate := calc.Calculate(context.Background(), Request{
		OriginPlant:    "CL",
		Origin:         originCLE,
		HasOrigin:      true,
		Stops:          []routing.Stop{stopAkron},
		ReturnToOrigin: true,
	})

	// Assert
	wantReturnMiles := geo.HaversineMiles(stopAkron.Coord, originCLE)
	require.InDelta(t, wantReturnMiles, estimate.ReturnMiles, 1e-9)
	// CL|CL lane rate 1.50 + 0.35 surcharge
	assert.InDelta(t, wantReturnMiles*1.85, estimate.ReturnCost, 1e-9)
	assert.InDelta(t, 30*2.35+150+estimate.ReturnCost, estimate.TotalCost, 1e-9)
	assert.True(t, estimate.ReturnToOrigin)
}

func TestCalculate_MinimumAppliedAfterReturnLeg(t *testing.T) {
	// Arrange
	// Base cost 10*2.35 + 100 = 123.50; return ~29 mi * 1.85 = ~53.7.
	// Combined stays under the 350 floor, so the floor wins once, not twice.
	routes := &cannedRoutes{legs: []float64{10}}
	calc := NewCalculator(routes, testRates(), 100, 350)

	// Act
	estimate := calc.Calculate(context.Background(), Request{
		OriginPlant:    "CL",
		Origin:         originCLE,
		HasOrigin:      true,
		Stops:          []routing.Stop{stopAkron},
		ReturnToOrigin: true,
	})

	// Assert
	assert.Equal(t, 350.0, estimate.TotalCost)
	assert.Greater(t, estimate.ReturnCost, 0.0, "return cost still reported even when the floor binds")
}

func TestCalculate_NoReturnLegWhenLastStopLacksCoords(t *testing.T) {
	// Arrange
	routes := &cannedRoutes{}
	calc := NewCalculator(routes, testRates(), 150, 350)

	// Act
	estimate := calc.Calculate(context.Background(), Request{
		OriginPlant:    "CL",
		Origin:         originCLE,
		HasOrigin:      true,
		Stops:          []routing.Stop{{State: "OH", Zip: "44308"}},
		ReturnToOrigin: true,
	})

	// Assert
	assert.Zero(t, estimate.ReturnMiles)
	assert.Zero(t, estimate.ReturnCost)
}

func TestCalculate_PassesReturnAndGeometryFlagsToRouting(t *testing.T) {
	// Arrange
	routes := &cannedRoutes{}
	calc := NewCalculator(routes, testRates(), 150, 350)

	// Act
	calc.Calculate(context.Background(), Request{
		OriginPlant:     "CL",
		Origin:          originCLE,
		HasOrigin:       true,
		Stops:           []routing.Stop{stopAkron},
		ReturnToOrigin:  true,
		Objective:       routing.ObjectiveTime,
		IncludeGeometry: true,
	})

	// Assert
	require.Len(t, routes.requests, 1)
	sent := routes.requests[0]
	assert.True(t, sent.ReturnToOrigin)
	assert.True(t, sent.IncludeGeometry)
	assert.Equal(t, routing.ObjectiveTime, sent.Objective)
}
