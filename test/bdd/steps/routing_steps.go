package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	approuting "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/helpers"
)

// scriptedRoadProvider answers every leg with a fixed mileage and counts how
// often the service actually reaches it
type scriptedRoadProvider struct {
	legMiles        float64
	fail            bool
	matrixCalls     int
	directionsCalls int
}

func (p *scriptedRoadProvider) Name() string { return "scripted" }

func (p *scriptedRoadProvider) DistanceMatrix(ctx context.Context, points []geo.Coord, profile string) ([][]float64, error) {
	p.matrixCalls++
	if p.fail {
		return nil, fmt.Errorf("scripted provider outage")
	}
	matrix := make([][]float64, len(points))
	for i := range matrix {
		matrix[i] = make([]float64, len(points))
		for j := range matrix[i] {
			if i != j {
				matrix[i][j] = p.legMiles
			}
		}
	}
	return matrix, nil
}

func (p *scriptedRoadProvider) Directions(ctx context.Context, points []geo.Coord, profile string, objective routing.Objective) (*routing.Directions, error) {
	p.directionsCalls++
	if p.fail {
		return nil, fmt.Errorf("scripted provider outage")
	}
	legs := make([]float64, len(points)-1)
	for i := range legs {
		legs[i] = p.legMiles
	}
	return &routing.Directions{LegMiles: legs, TotalMiles: p.legMiles * float64(len(legs))}, nil
}

type routingFallbackContext struct {
	origin       geo.Coord
	hasOrigin    bool
	stops        []routing.Stop
	provider     *scriptedRoadProvider
	cache        routing.RouteCache
	enabled      bool
	geometryOnly bool
	service      *approuting.Service
	first        *routing.RouteResult
	second       *routing.RouteResult
}

func (rc *routingFallbackContext) reset() {
	rc.origin = geo.Coord{}
	rc.hasOrigin = false
	rc.stops = nil
	rc.provider = nil
	rc.cache = nil
	rc.enabled = false
	rc.geometryOnly = false
	rc.service = nil
	rc.first = nil
	rc.second = nil
}

func (rc *routingFallbackContext) newService() *approuting.Service {
	var provider routing.RouteProvider
	if rc.provider != nil {
		provider = rc.provider
	}
	return approuting.NewService(provider, rc.cache, nil, "driving-hgv", rc.enabled, rc.geometryOnly)
}

func (rc *routingFallbackContext) request() approuting.BuildRouteRequest {
	return approuting.BuildRouteRequest{
		Origin:    rc.origin,
		HasOrigin: rc.hasOrigin,
		Stops:     rc.stops,
		Objective: routing.ObjectiveDistance,
	}
}

// Given steps

func (rc *routingFallbackContext) aPlantOriginAt(lat, lng float64) error {
	rc.origin = geo.Coord{Lat: lat, Lng: lng}
	rc.hasOrigin = true
	return nil
}

func (rc *routingFallbackContext) roadRoutingIsDisabled() error {
	rc.enabled = false
	return nil
}

func (rc *routingFallbackContext) roadRoutingIsGeometryOnly() error {
	rc.geometryOnly = true
	return nil
}

func (rc *routingFallbackContext) aRoadProviderThatAlwaysFails() error {
	rc.provider = &scriptedRoadProvider{fail: true}
	rc.enabled = true
	return nil
}

func (rc *routingFallbackContext) aRoadProviderQuotingMileLegs(miles float64) error {
	rc.provider = &scriptedRoadProvider{legMiles: miles}
	rc.enabled = true
	return nil
}

func (rc *routingFallbackContext) aDurableRouteCache() error {
	clock := shared.NewMockClock(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	rc.cache = persistence.NewGormRouteCache(helpers.SharedTestDB, 30*24*time.Hour, clock)
	return nil
}

func (rc *routingFallbackContext) aStopAt(state, zip string, lat, lng float64) error {
	rc.stops = append(rc.stops, routing.Stop{
		State:    state,
		Zip:      zip,
		Coord:    geo.Coord{Lat: lat, Lng: lng},
		HasCoord: true,
	})
	return nil
}

func (rc *routingFallbackContext) aStopWithoutCoordinates(state, zip string) error {
	rc.stops = append(rc.stops, routing.Stop{State: state, Zip: zip})
	return nil
}

// When steps

func (rc *routingFallbackContext) theRouteIsBuilt() error {
	if rc.service == nil {
		rc.service = rc.newService()
	}
	rc.first = rc.service.BuildRoute(context.Background(), rc.request())
	return nil
}

func (rc *routingFallbackContext) theRouteIsBuiltAgain() error {
	if rc.service == nil {
		return fmt.Errorf("no route built yet")
	}
	rc.second = rc.service.BuildRoute(context.Background(), rc.request())
	return nil
}

func (rc *routingFallbackContext) aFreshServiceInstanceBuildsTheSameRoute() error {
	fresh := rc.newService()
	rc.second = fresh.BuildRoute(context.Background(), rc.request())
	return nil
}

// Then steps

func (rc *routingFallbackContext) theRouteShouldBeAFallbackRoute() error {
	if rc.first == nil {
		return fmt.Errorf("no route built")
	}
	if !rc.first.UsedFallback {
		return fmt.Errorf("expected a fallback route, got provider %s", rc.first.Provider)
	}
	return nil
}

func (rc *routingFallbackContext) theRouteProviderShouldBe(want string) error {
	if rc.first == nil {
		return fmt.Errorf("no route built")
	}
	if rc.first.Provider != want {
		return fmt.Errorf("expected provider %s, got %s", want, rc.first.Provider)
	}
	return nil
}

func (rc *routingFallbackContext) theRouteShouldHaveLegs(want int) error {
	if rc.first == nil {
		return fmt.Errorf("no route built")
	}
	if len(rc.first.LegMiles) != want {
		return fmt.Errorf("expected %d legs, got %d", want, len(rc.first.LegMiles))
	}
	return nil
}

func (rc *routingFallbackContext) theLastStopShouldBeZip(zip string) error {
	if rc.first == nil || len(rc.first.Stops) == 0 {
		return fmt.Errorf("no route built")
	}
	last := rc.first.Stops[len(rc.first.Stops)-1]
	if last.Zip != zip {
		return fmt.Errorf("expected last stop zip %s, got %s", zip, last.Zip)
	}
	return nil
}

func (rc *routingFallbackContext) theSecondRouteShouldComeFromTheCache(tier string) error {
	if rc.second == nil {
		return fmt.Errorf("no second route built")
	}
	if rc.second.UsedFallback {
		return fmt.Errorf("second route fell back instead of hitting the cache")
	}
	if rc.second.CacheTier != tier {
		return fmt.Errorf("expected %s cache tier, got %q", tier, rc.second.CacheTier)
	}
	return nil
}

func (rc *routingFallbackContext) theProviderShouldHaveAnsweredMatrixRequests(want int) error {
	if rc.provider == nil {
		return fmt.Errorf("no scripted provider configured")
	}
	if rc.provider.matrixCalls != want {
		return fmt.Errorf("expected %d matrix requests, got %d", want, rc.provider.matrixCalls)
	}
	return nil
}

func InitializeRoutingFallbackScenario(ctx *godog.ScenarioContext) {
	rc := &routingFallbackContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		rc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a plant origin at (-?[0-9.]+), (-?[0-9.]+)$`, rc.aPlantOriginAt)
	ctx.Step(`^road routing is disabled$`, rc.roadRoutingIsDisabled)
	ctx.Step(`^road routing is geometry only$`, rc.roadRoutingIsGeometryOnly)
	ctx.Step(`^a road provider that always fails$`, rc.aRoadProviderThatAlwaysFails)
	ctx.Step(`^a road provider quoting ([0-9.]+) mile legs$`, rc.aRoadProviderQuotingMileLegs)
	ctx.Step(`^a durable route cache$`, rc.aDurableRouteCache)
	ctx.Step(`^a stop in "([A-Z]{2})" zip "(\d+)" at (-?[0-9.]+), (-?[0-9.]+)$`, rc.aStopAt)
	ctx.Step(`^a stop in "([A-Z]{2})" zip "(\d+)" without coordinates$`, rc.aStopWithoutCoordinates)

	// When steps
	ctx.Step(`^the route is built$`, rc.theRouteIsBuilt)
	ctx.Step(`^the route is built again$`, rc.theRouteIsBuiltAgain)
	ctx.Step(`^a fresh service instance builds the same route$`, rc.aFreshServiceInstanceBuildsTheSameRoute)

	// Then steps
	ctx.Step(`^the route should be a fallback route$`, rc.theRouteShouldBeAFallbackRoute)
	ctx.Step(`^the route provider should be "([^"]*)"$`, rc.theRouteProviderShouldBe)
	ctx.Step(`^the route should have (\d+) legs?$`, rc.theRouteShouldHaveLegs)
	ctx.Step(`^the last stop should be zip "(\d+)"$`, rc.theLastStopShouldBeZip)
	ctx.Step(`^the second route should come from the "(memory|durable)" cache$`, rc.theSecondRouteShouldComeFromTheCache)
	ctx.Step(`^the provider should have answered (\d+) matrix requests?$`, rc.theProviderShouldHaveAnsweredMatrixRequests)
}
