package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
)

// FallbackProviderName marks routes computed by great-circle distance when no
// road provider served the request.
const FallbackProviderName = "haversine"

// Fallback reasons reported to metrics
const (
	FallbackNoOrigin      = "no_origin"
	FallbackNoCoords      = "no_coords"
	FallbackDisabled      = "disabled"
	FallbackGeometryOnly  = "geometry_only"
	FallbackProviderError = "provider_error"
)

// MetricsRecorder receives routing counters. Implementations must be safe for
// concurrent use.
type MetricsRecorder interface {
	RecordProviderRequest(provider, operation string)
	RecordProviderError(provider, operation string)
	RecordFallback(reason string)
	RecordCacheHit(tier string)
}

// BuildRouteRequest describes one route to sequence and measure
type BuildRouteRequest struct {
	Origin          geo.Coord
	HasOrigin       bool
	Stops           []routing.Stop
	ReturnToOrigin  bool
	Objective       routing.Objective
	IncludeGeometry bool
}

// Service resolves routes through a layered strategy
//
// Caching Strategy (Two-Tier):
// - Tier 1: In-memory cache (memory) - infinite TTL during process lifetime
// - Tier 2: Durable cache (routes table) - TTL-bounded, persists across restarts
// - Tier 3: Road provider distance matrix + solver ladder
// - Any failure degrades to haversine legs so planning never blocks on routing
type Service struct {
	provider     routing.RouteProvider
	cache        routing.RouteCache
	metrics      MetricsRecorder
	profile      string
	enabled      bool
	geometryOnly bool
	memory       sync.Map // key: cache key -> *routing.CachedRoute
}

// NewService creates a routing service. provider and cache may be nil; the
// service then serves every request from the haversine fallback.
func NewService(provider routing.RouteProvider, cache routing.RouteCache, metrics MetricsRecorder, profile string, enabled, geometryOnly bool) *Service {
	return &Service{
		provider:     provider,
		cache:        cache,
		metrics:      metrics,
		profile:      profile,
		enabled:      enabled,
		geometryOnly: geometryOnly,
	}
}

// BuildRoute sequences the stops from the origin and measures each leg. It
// never fails: provider and cache errors degrade to great-circle distances
// with UsedFallback set.
func (s *Service) BuildRoute(ctx context.Context, req BuildRouteRequest) *routing.RouteResult {
	if !req.HasOrigin || req.Origin.IsZero() {
		return s.fallback(req, FallbackNoOrigin)
	}
	if countWithCoords(req.Stops) == 0 {
		return s.fallback(req, FallbackNoCoords)
	}
	if s.provider == nil || !s.enabled {
		return s.fallback(req, FallbackDisabled)
	}
	if s.geometryOnly && !req.IncludeGeometry {
		return s.fallback(req, FallbackGeometryOnly)
	}

	key := cacheKey(s.provider.Name(), s.profile, req)

	// TIER 1: in-memory cache
	if cached, ok := s.memory.Load(key); ok {
		if result := s.serveCached(ctx, key, cached.(*routing.CachedRoute), req, routing.CacheTierMemory); result != nil {
			return result
		}
	}

	// TIER 2: durable cache
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("Warning: route cache read failed: %v", err)
		} else if found {
			s.memory.Store(key, cached)
			if result := s.serveCached(ctx, key, cached, req, routing.CacheTierDurable); result != nil {
				return result
			}
		}
	}

	// TIER 3: solve against the provider
	result, err := s.solveWithProvider(ctx, key, req)
	if err != nil {
		return s.fallback(req, FallbackProviderError)
	}
	return result
}

// serveCached maps a cached route onto the live stops. Returns nil when the
// entry cannot serve this request, which sends the caller down a tier.
func (s *Service) serveCached(ctx context.Context, key string, cached *routing.CachedRoute, req BuildRouteRequest, tier string) *routing.RouteResult {
	ordered, ok := mapCachedOrder(cached, req.Stops)
	if !ok || len(cached.LegMiles) != len(ordered) {
		return nil
	}

	if req.IncludeGeometry && len(cached.Geometry) == 0 {
		if enriched := s.enrichGeometry(ctx, key, cached, req, ordered); enriched != nil {
			cached = enriched
		}
	}

	s.recordCacheHit(tier)
	return &routing.RouteResult{
		Stops:      ordered,
		LegMiles:   append([]float64(nil), cached.LegMiles...),
		TotalMiles: cached.TotalMiles,
		Geometry:   cached.Geometry,
		Provider:   cached.Provider,
		Profile:    cached.Profile,
		CacheTier:  tier,
	}
}

// solveWithProvider orders stops by provider road miles and persists the
// solved route to both cache tiers.
func (s *Service) solveWithProvider(ctx context.Context, key string, req BuildRouteRequest) (*routing.RouteResult, error) {
	routable, blind := splitByCoords(req.Stops)

	points := make([]geo.Coord, len(routable)+1)
	points[0] = req.Origin
	for i, stop := range routable {
		points[i+1] = stop.Coord
	}

	s.recordProviderRequest("distance_matrix")
	matrix, err := s.provider.DistanceMatrix(ctx, points, s.profile)
	if err != nil {
		s.recordProviderError("distance_matrix")
		return nil, fmt.Errorf("distance matrix: %w", err)
	}
	if len(matrix) != len(points) {
		s.recordProviderError("distance_matrix")
		return nil, fmt.Errorf("distance matrix: %d rows for %d points", len(matrix), len(points))
	}

	// Matrix holes (unroutable pairs) fall back to great-circle per pair
	d := func(i, j int) float64 {
		if len(matrix[i]) == len(points) {
			if v := matrix[i][j]; !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 {
				return v
			}
		}
		return geo.HaversineMiles(points[i], points[j])
	}

	order := routing.SolveStopOrder(len(routable), d, req.ReturnToOrigin)
	ordered := make([]routing.Stop, 0, len(req.Stops))
	legs := make([]float64, 0, len(req.Stops))
	prev := 0
	for _, idx := range order {
		ordered = append(ordered, routable[idx])
		legs = append(legs, d(prev, idx+1))
		prev = idx + 1
	}
	for range blind {
		legs = append(legs, 0)
	}
	ordered = append(ordered, blind...)

	total := sumLegs(legs)
	var geometry [][]float64

	if req.IncludeGeometry {
		routePoints := make([]geo.Coord, 0, len(order)+1)
		routePoints = append(routePoints, req.Origin)
		for _, idx := range order {
			routePoints = append(routePoints, routable[idx].Coord)
		}

		s.recordProviderRequest("directions")
		directions, err := s.provider.Directions(ctx, routePoints, s.profile, req.Objective)
		if err != nil {
			// Matrix legs already road-based; keep them
			s.recordProviderError("directions")
		} else {
			geometry = directions.Geometry
			if len(directions.LegMiles) == len(order) {
				for i, v := range directions.LegMiles {
					if !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 {
						legs[i] = v
					}
				}
			}
			if v := directions.TotalMiles; !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 {
				total = v
			} else {
				total = sumLegs(legs)
			}
		}
	}

	cached := &routing.CachedRoute{
		OrderedSignatures: signatures(ordered),
		LegMiles:          append([]float64(nil), legs...),
		TotalMiles:        total,
		Geometry:          geometry,
		Provider:          s.provider.Name(),
		Profile:           s.profile,
	}
	s.memory.Store(key, cached)
	if s.cache != nil {
		if err := s.cache.Put(ctx, key, cached); err != nil {
			log.Printf("Warning: route cache write failed: %v", err)
		}
	}

	return &routing.RouteResult{
		Stops:      ordered,
		LegMiles:   legs,
		TotalMiles: total,
		Geometry:   geometry,
		Provider:   s.provider.Name(),
		Profile:    s.profile,
	}, nil
}

// enrichGeometry asks the provider for a polyline over an already-ordered
// cached route and refreshes both cache tiers. Returns nil when enrichment is
// not possible; the cached route still serves without geometry.
func (s *Service) enrichGeometry(ctx context.Context, key string, cached *routing.CachedRoute, req BuildRouteRequest, ordered []routing.Stop) *routing.CachedRoute {
	if s.provider == nil {
		return nil
	}

	routePoints := make([]geo.Coord, 0, len(ordered)+1)
	routePoints = append(routePoints, req.Origin)
	for _, stop := range ordered {
		if stop.HasCoord {
			routePoints = append(routePoints, stop.Coord)
		}
	}
	if len(routePoints) < 2 {
		return nil
	}

	s.recordProviderRequest("directions")
	directions, err := s.provider.Directions(ctx, routePoints, s.profile, req.Objective)
	if err != nil {
		s.recordProviderError("directions")
		return nil
	}

	enriched := &routing.CachedRoute{
		OrderedSignatures: cached.OrderedSignatures,
		LegMiles:          cached.LegMiles,
		TotalMiles:        cached.TotalMiles,
		Geometry:          directions.Geometry,
		Provider:          cached.Provider,
		Profile:           cached.Profile,
	}
	s.memory.Store(key, enriched)
	if s.cache != nil {
		if err := s.cache.Put(ctx, key, enriched); err != nil {
			log.Printf("Warning: route cache write failed: %v", err)
		}
	}
	return enriched
}

// fallback sequences stops with great-circle distances only
func (s *Service) fallback(req BuildRouteRequest, reason string) *routing.RouteResult {
	s.recordFallback(reason)

	ordered := routing.OrderStops(req.Origin, req.Stops, req.ReturnToOrigin)
	legs := make([]float64, len(ordered))
	prev := req.Origin
	hasPrev := req.HasOrigin && !req.Origin.IsZero()
	for i, stop := range ordered {
		if !stop.HasCoord {
			continue
		}
		if hasPrev {
			legs[i] = geo.HaversineMiles(prev, stop.Coord)
		}
		prev, hasPrev = stop.Coord, true
	}

	var geometry [][]float64
	if req.IncludeGeometry && req.HasOrigin && !req.Origin.IsZero() {
		geometry = append(geometry, []float64{req.Origin.Lat, req.Origin.Lng})
		for _, stop := range ordered {
			if stop.HasCoord {
				geometry = append(geometry, []float64{stop.Coord.Lat, stop.Coord.Lng})
			}
		}
		if req.ReturnToOrigin {
			geometry = append(geometry, []float64{req.Origin.Lat, req.Origin.Lng})
		}
	}

	return &routing.RouteResult{
		Stops:        ordered,
		LegMiles:     legs,
		TotalMiles:   sumLegs(legs),
		Geometry:     geometry,
		Provider:     FallbackProviderName,
		UsedFallback: true,
	}
}

func (s *Service) recordProviderRequest(operation string) {
	if s.metrics != nil {
		s.metrics.RecordProviderRequest(s.provider.Name(), operation)
	}
}

func (s *Service) recordProviderError(operation string) {
	if s.metrics != nil {
		s.metrics.RecordProviderError(s.provider.Name(), operation)
	}
}

func (s *Service) recordFallback(reason string) {
	if s.metrics != nil {
		s.metrics.RecordFallback(reason)
	}
}

func (s *Service) recordCacheHit(tier string) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(tier)
	}
}

// cacheKey hashes the identity of a route request. Stop signatures are sorted
// so the key is order-independent; the solved order lives in the cached value.
func cacheKey(provider, profile string, req BuildRouteRequest) string {
	sigs := signatures(req.Stops)
	sort.Strings(sigs)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%t|%.6f|%.6f", provider, profile, req.Objective, req.ReturnToOrigin, req.Origin.Lat, req.Origin.Lng)
	for _, sig := range sigs {
		h.Write([]byte{'|'})
		h.Write([]byte(sig))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// mapCachedOrder reorders live stops to match a cached visiting order,
// matching by signature. Signatures repeat only if the caller passed duplicate
// stops, which the bucket walk handles positionally.
func mapCachedOrder(cached *routing.CachedRoute, stops []routing.Stop) ([]routing.Stop, bool) {
	if len(cached.OrderedSignatures) != len(stops) {
		return nil, false
	}

	bySig := make(map[string][]int, len(stops))
	for i, stop := range stops {
		sig := stop.Signature()
		bySig[sig] = append(bySig[sig], i)
	}

	ordered := make([]routing.Stop, 0, len(stops))
	for _, sig := range cached.OrderedSignatures {
		bucket := bySig[sig]
		if len(bucket) == 0 {
			return nil, false
		}
		ordered = append(ordered, stops[bucket[0]])
		bySig[sig] = bucket[1:]
	}
	return ordered, true
}

func signatures(stops []routing.Stop) []string {
	sigs := make([]string, len(stops))
	for i, stop := range stops {
		sigs[i] = stop.Signature()
	}
	return sigs
}

func splitByCoords(stops []routing.Stop) (routable, blind []routing.Stop) {
	for _, stop := range stops {
		if stop.HasCoord {
			routable = append(routable, stop)
		} else {
			blind = append(blind, stop)
		}
	}
	return routable, blind
}

func countWithCoords(stops []routing.Stop) int {
	n := 0
	for _, stop := range stops {
		if stop.HasCoord {
			n++
		}
	}
	return n
}

func sumLegs(legs []float64) float64 {
	total := 0.0
	for _, leg := range legs {
		total += leg
	}
	return total
}
