package costing

import (
	"context"

	approuting "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
)

// RouteBuilder sequences stops and measures legs. Satisfied by the routing
// application service.
type RouteBuilder interface {
	BuildRoute(ctx context.Context, req approuting.BuildRouteRequest) *routing.RouteResult
}

// Request describes one load to price
type Request struct {
	OriginPlant     string
	Origin          geo.Coord
	HasOrigin       bool
	Stops           []routing.Stop
	ReturnToOrigin  bool
	Objective       routing.Objective
	IncludeGeometry bool
}

// Estimate is the priced route for a load
type Estimate struct {
	OrderedStops   []routing.Stop
	RouteLegs      []float64
	TotalMiles     float64
	TotalCost      float64
	StopCount      int
	ReturnToOrigin bool
	ReturnMiles    float64
	ReturnCost     float64
	RouteProvider  string
	RouteProfile   string
	RouteFallback  bool
	Geometry       [][]float64
}

// Calculator prices loads by leg miles and per-lane rates. Instances memoize
// rate lookups and are meant to live for one planning run; they are not safe
// for concurrent use.
type Calculator struct {
	routes      RouteBuilder
	rates       *rating.RateTable
	stopFee     float64
	minLoadCost float64
	rateMemo    map[string]float64
}

// NewCalculator creates a cost calculator for one planning run
func NewCalculator(routes RouteBuilder, rates *rating.RateTable, stopFee, minLoadCost float64) *Calculator {
	return &Calculator{
		routes:      routes,
		rates:       rates,
		stopFee:     stopFee,
		minLoadCost: minLoadCost,
		rateMemo:    make(map[string]float64),
	}
}

// Calculate sequences the stops, prices each leg at the lane rate for the
// stop's state, adds stop fees and the optional return leg, then applies the
// minimum load cost. An empty stop list prices to zero.
func (c *Calculator) Calculate(ctx context.Context, req Request) *Estimate {
	if len(req.Stops) == 0 {
		return &Estimate{ReturnToOrigin: req.ReturnToOrigin}
	}

	route := c.routes.BuildRoute(ctx, approuting.BuildRouteRequest{
		Origin:          req.Origin,
		HasOrigin:       req.HasOrigin,
		Stops:           req.Stops,
		ReturnToOrigin:  req.ReturnToOrigin,
		Objective:       req.Objective,
		IncludeGeometry: req.IncludeGeometry,
	})

	totalCost := 0.0
	for i, stop := range route.Stops {
		if i < len(route.LegMiles) {
			totalCost += route.LegMiles[i] * c.rateFor(req.OriginPlant, stop.State)
		}
	}
	totalCost += c.stopFee * float64(len(route.Stops))

	var returnMiles, returnCost float64
	if req.ReturnToOrigin && req.HasOrigin {
		if last, ok := lastRoutedCoord(route.Stops); ok && last != req.Origin {
			returnMiles = geo.HaversineMiles(last, req.Origin)
			// Origin plant code doubles as the return lane's destination
			returnCost = returnMiles * c.rateFor(req.OriginPlant, req.OriginPlant)
			totalCost += returnCost
		}
	}

	if totalCost < c.minLoadCost {
		totalCost = c.minLoadCost
	}

	return &Estimate{
		OrderedStops:   route.Stops,
		RouteLegs:      route.LegMiles,
		TotalMiles:     route.TotalMiles,
		TotalCost:      totalCost,
		StopCount:      len(route.Stops),
		ReturnToOrigin: req.ReturnToOrigin,
		ReturnMiles:    returnMiles,
		ReturnCost:     returnCost,
		RouteProvider:  route.Provider,
		RouteProfile:   route.Profile,
		RouteFallback:  route.UsedFallback,
		Geometry:       route.Geometry,
	}
}

func (c *Calculator) rateFor(plant, state string) float64 {
	key := plant + "|" + state
	if rate, ok := c.rateMemo[key]; ok {
		return rate
	}
	rate := c.rates.RateFor(plant, state)
	c.rateMemo[key] = rate
	return rate
}

// lastRoutedCoord finds the final stop with coordinates; coordless stops ride
// at the end of the order and cannot anchor a return leg
func lastRoutedCoord(stops []routing.Stop) (geo.Coord, bool) {
	for i := len(stops) - 1; i >= 0; i-- {
		if stops[i].HasCoord {
			return stops[i].Coord, true
		}
	}
	return geo.Coord{}, false
}
