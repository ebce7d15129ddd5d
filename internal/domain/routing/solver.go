package routing

import (
	"sort"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
)

// Solver tiers. Exhaustive search is exact and affordable through 6 stops,
// Held-Karp stays exact through 11, and larger routes fall back to
// multi-start nearest-neighbor with 2-opt refinement.
const (
	exhaustiveMaxStops = 6
	heldKarpMaxStops   = 11
	twoOptMaxPasses    = 4
	nearestSeedCount   = 4
)

const milesEpsilon = 1e-9

// SolveStopOrder returns a visiting order for n stops that minimizes travel
// from a fixed origin. d is a distance function over n+1 nodes where node 0
// is the origin and node k (k >= 1) is stop k-1. When returnToOrigin is set
// the closing leg back to node 0 counts toward the objective.
//
// The result is deterministic: equal-length routes resolve to the one whose
// stop sequence comes first in input order.
func SolveStopOrder(n int, d func(i, j int) float64, returnToOrigin bool) []int {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []int{0}
	case n <= exhaustiveMaxStops:
		return solveExhaustive(n, d, returnToOrigin)
	case n <= heldKarpMaxStops:
		return solveHeldKarp(n, d, returnToOrigin)
	default:
		return solveNearestNeighbor(n, d, returnToOrigin)
	}
}

// OrderStops sequences stops for travel from the origin using haversine
// distances. Stops without coordinates cannot be routed; they keep their
// relative input order at the end of the route.
func OrderStops(origin geo.Coord, stops []Stop, returnToOrigin bool) []Stop {
	routable := make([]Stop, 0, len(stops))
	var blind []Stop
	for _, s := range stops {
		if s.HasCoord {
			routable = append(routable, s)
		} else {
			blind = append(blind, s)
		}
	}
	if len(routable) > 1 {
		nodes := make([]geo.Coord, len(routable)+1)
		nodes[0] = origin
		for i, s := range routable {
			nodes[i+1] = s.Coord
		}
		d := func(i, j int) float64 { return geo.HaversineMiles(nodes[i], nodes[j]) }
		order := SolveStopOrder(len(routable), d, returnToOrigin)
		sequenced := make([]Stop, 0, len(stops))
		for _, idx := range order {
			sequenced = append(sequenced, routable[idx])
		}
		return append(sequenced, blind...)
	}
	return append(routable, blind...)
}

// RouteMiles totals a visiting order, including the closing leg when
// returnToOrigin is set. Node indexing matches SolveStopOrder.
func RouteMiles(order []int, d func(i, j int) float64, returnToOrigin bool) float64 {
	total := 0.0
	prev := 0
	for _, idx := range order {
		total += d(prev, idx+1)
		prev = idx + 1
	}
	if returnToOrigin && prev != 0 {
		total += d(prev, 0)
	}
	return total
}

// solveExhaustive tries every permutation in lexicographic order, so the
// first optimum found is also the insertion-order tie-break winner.
func solveExhaustive(n int, d func(i, j int) float64, returnToOrigin bool) []int {
	best := make([]int, n)
	for i := range best {
		best[i] = i
	}
	bestMiles := RouteMiles(best, d, returnToOrigin)

	perm := make([]int, 0, n)
	used := make([]bool, n)
	var walk func()
	walk = func() {
		if len(perm) == n {
			if miles := RouteMiles(perm, d, returnToOrigin); miles < bestMiles-milesEpsilon {
				bestMiles = miles
				copy(best, perm)
			}
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			perm = append(perm, i)
			walk()
			perm = perm[:len(perm)-1]
			used[i] = false
		}
	}
	walk()
	return best
}

// solveHeldKarp runs the classic bitmask dynamic program over subsets.
// States track the cheapest way to have visited a subset and be standing at
// its last stop; ties resolve toward the lower stop index.
func solveHeldKarp(n int, d func(i, j int) float64, returnToOrigin bool) []int {
	size := 1 << n
	const unreached = -1.0

	cost := make([][]float64, size)
	parent := make([][]int, size)
	for mask := 0; mask < size; mask++ {
		cost[mask] = make([]float64, n)
		parent[mask] = make([]int, n)
		for j := 0; j < n; j++ {
			cost[mask][j] = unreached
			parent[mask][j] = -1
		}
	}
	for j := 0; j < n; j++ {
		cost[1<<j][j] = d(0, j+1)
	}

	for mask := 1; mask < size; mask++ {
		for last := 0; last < n; last++ {
			if mask&(1<<last) == 0 || cost[mask][last] == unreached {
				continue
			}
			base := cost[mask][last]
			for next := 0; next < n; next++ {
				if mask&(1<<next) != 0 {
					continue
				}
				nextMask := mask | (1 << next)
				candidate := base + d(last+1, next+1)
				if cost[nextMask][next] == unreached || candidate < cost[nextMask][next]-milesEpsilon {
					cost[nextMask][next] = candidate
					parent[nextMask][next] = last
				}
			}
		}
	}

	full := size - 1
	bestLast := 0
	bestMiles := unreached
	for last := 0; last < n; last++ {
		total := cost[full][last]
		if returnToOrigin {
			total += d(last+1, 0)
		}
		if bestMiles == unreached || total < bestMiles-milesEpsilon {
			bestMiles = total
			bestLast = last
		}
	}

	order := make([]int, n)
	mask := full
	last := bestLast
	for i := n - 1; i >= 0; i-- {
		order[i] = last
		prev := parent[mask][last]
		mask ^= 1 << last
		last = prev
	}
	return order
}

// solveNearestNeighbor builds greedy chains from the seeds closest to the
// origin and polishes each with bounded 2-opt passes, keeping the best route
// by (miles, insertion order).
func solveNearestNeighbor(n int, d func(i, j int) float64, returnToOrigin bool) []int {
	seeds := make([]int, n)
	for i := range seeds {
		seeds[i] = i
	}
	sort.SliceStable(seeds, func(a, b int) bool {
		da, db := d(0, seeds[a]+1), d(0, seeds[b]+1)
		if da != db {
			return da < db
		}
		return seeds[a] < seeds[b]
	})
	seedCount := nearestSeedCount
	if seedCount > n {
		seedCount = n
	}

	var best []int
	bestMiles := 0.0
	for s := 0; s < seedCount; s++ {
		order := greedyChain(n, d, seeds[s])
		twoOpt(order, d, returnToOrigin)
		miles := RouteMiles(order, d, returnToOrigin)
		if best == nil || miles < bestMiles-milesEpsilon ||
			(miles <= bestMiles+milesEpsilon && lexLess(order, best)) {
			best = order
			bestMiles = miles
		}
	}
	return best
}

func greedyChain(n int, d func(i, j int) float64, seed int) []int {
	order := make([]int, 0, n)
	visited := make([]bool, n)
	order = append(order, seed)
	visited[seed] = true
	current := seed
	for len(order) < n {
		next := -1
		nextMiles := 0.0
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			miles := d(current+1, j+1)
			if next == -1 || miles < nextMiles-milesEpsilon {
				next = j
				nextMiles = miles
			}
		}
		order = append(order, next)
		visited[next] = true
		current = next
	}
	return order
}

// twoOpt reverses route segments while an improving move exists, capped at
// twoOptMaxPasses full sweeps.
func twoOpt(order []int, d func(i, j int) float64, returnToOrigin bool) {
	n := len(order)
	nodes := make([]int, n+1)
	for i, idx := range order {
		nodes[i+1] = idx + 1
	}

	after := func(k int) float64 {
		if k < n {
			return d(nodes[k], nodes[k+1])
		}
		if returnToOrigin {
			return d(nodes[n], 0)
		}
		return 0
	}

	for pass := 0; pass < twoOptMaxPasses; pass++ {
		improved := false
		for i := 1; i < n; i++ {
			for j := i + 1; j <= n; j++ {
				oldMiles := d(nodes[i-1], nodes[i]) + after(j)
				newMiles := d(nodes[i-1], nodes[j])
				if j < n {
					newMiles += d(nodes[i], nodes[j+1])
				} else if returnToOrigin {
					newMiles += d(nodes[i], 0)
				}
				if newMiles < oldMiles-milesEpsilon {
					for a, b := i, j; a < b; a, b = a+1, b-1 {
						nodes[a], nodes[b] = nodes[b], nodes[a]
					}
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}

	for i := 1; i <= n; i++ {
		order[i-1] = nodes[i] - 1
	}
}

func lexLess(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
