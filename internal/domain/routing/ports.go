package routing

import (
	"context"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
)

// Objective selects what the router minimizes
type Objective string

const (
	ObjectiveDistance Objective = "distance"
	ObjectiveTime     Objective = "time"
)

// Directions is a provider-computed route over an ordered point sequence.
// LegMiles[i] is the distance of the segment ending at point i+1.
type Directions struct {
	LegMiles   []float64
	TotalMiles float64
	Geometry   [][]float64 // [lat, lng] pairs along the road path
}

// RouteProvider is an external road-routing backend
type RouteProvider interface {
	// Name identifies the backend in cache keys and route metadata
	Name() string

	// DistanceMatrix returns pairwise road miles between points
	DistanceMatrix(ctx context.Context, points []geo.Coord, profile string) ([][]float64, error)

	// Directions computes road legs and geometry through points in the
	// given order
	Directions(ctx context.Context, points []geo.Coord, profile string, objective Objective) (*Directions, error)
}

// CachedRoute is a solved route as stored in the durable route cache
type CachedRoute struct {
	OrderedSignatures []string
	LegMiles          []float64
	TotalMiles        float64
	Geometry          [][]float64
	Provider          string
	Profile           string
}

// RouteCache persists solved routes across planning runs
type RouteCache interface {
	Get(ctx context.Context, key string) (*CachedRoute, bool, error)
	Put(ctx context.Context, key string, route *CachedRoute) error
}

// Cache tiers reported on a route result
const (
	CacheTierMemory  = "memory"
	CacheTierDurable = "durable"
)

// RouteResult is a fully sequenced route from the plant origin through its
// stops. LegMiles has one entry per stop and excludes any return leg; the
// caller prices the return separately.
type RouteResult struct {
	Stops        []Stop
	LegMiles     []float64
	TotalMiles   float64
	Geometry     [][]float64
	Provider     string
	Profile      string
	UsedFallback bool
	CacheTier    string
}
