package planning

import (
	"math"
	"sort"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// Pair priority heuristic weights. Lower scores pair first.
const (
	bearingWeight    = 2.2
	radialWeight     = 0.09
	dueGapWeight     = 5.0
	sameStateBonus   = 12.0
	crossStatePenal  = 8.0
	lowUtilBonus     = 10.0
	onWayBonus       = 10.0
	fdCrossStateRank = 20.0
	fdVeryLowPenalty = 8.0
)

// pairScore ranks how promising merging two loads looks before any load is
// actually built. Lower is better. ok=false rejects the pair outright when
// the due gap cannot fit the strictest window plus slack.
func pairScore(a, b *planning.Load, t planning.V2Tuning, enforceWindow bool) (float64, bool) {
	dueGap := dueGapDays(a, b)
	if enforceWindow && a.HasDueDates && b.HasDueDates {
		window := math.Min(float64(a.EffectiveWindowDays), float64(b.EffectiveWindowDays))
		if dueGap > window+t.DueGapSlackDays {
			return 0, false
		}
	}

	score := geo.BearingDeltaDegrees(a.BearingDeg, b.BearingDeg)*bearingWeight +
		math.Abs(a.OriginMiles-b.OriginMiles)*radialWeight +
		dueGap*dueGapWeight

	if a.DestinationState == b.DestinationState {
		score -= sameStateBonus
	} else {
		score += crossStatePenal
	}

	if a.UtilizationPct < t.LowUtilThreshold || b.UtilizationPct < t.LowUtilThreshold {
		score -= lowUtilBonus
	}

	if onWay(a, b, t) {
		score -= onWayBonus
	}

	score -= homeLengthBonus(a, b, t)
	return score, true
}

// dueGapDays is the distance between the loads' due anchors. A load with no
// due dates is fully flexible and gaps to zero.
func dueGapDays(a, b *planning.Load) float64 {
	if !a.HasDueDates || !b.HasDueDates {
		return 0
	}
	return math.Abs(a.DueAnchor() - b.DueAnchor())
}

// onWay reports whether two loads sit on the same outbound corridor: close
// bearings, comparable radial distance, and both far enough from the plant
// that direction means anything
func onWay(a, b *planning.Load, t planning.V2Tuning) bool {
	if !a.HasCentroid || !b.HasCentroid {
		return false
	}
	return geo.BearingDeltaDegrees(a.BearingDeg, b.BearingDeg) <= t.OnWayBearingDeg &&
		math.Abs(a.OriginMiles-b.OriginMiles) <= t.OnWayMaxRadialGapMiles &&
		math.Min(a.OriginMiles, b.OriginMiles) >= t.OnWayMinOriginMiles
}

// homeLengthBonus favors pairing long-unit freight close to the plant, so
// oversize pieces ship on home lanes instead of riding far corridors
func homeLengthBonus(a, b *planning.Load, t planning.V2Tuning) float64 {
	if !a.HasCentroid || !b.HasCentroid {
		return 0
	}
	farthest := math.Max(a.OriginMiles, b.OriginMiles)
	if farthest >= t.HomeLengthRadiusMiles {
		return 0
	}
	maxUnit := math.Max(a.MaxUnitLenFt, b.MaxUnitLenFt)
	if maxUnit <= t.HomeLengthMinUnitFt {
		return 0
	}
	proximity := 1 - farthest/t.HomeLengthRadiusMiles
	bonus := (maxUnit - t.HomeLengthMinUnitFt) * proximity * t.HomeLengthWeight
	return math.Min(bonus, t.HomeLengthMaxBonus)
}

// pairCandidate is a scored unordered pair; aID < bID always
type pairCandidate struct {
	score float64
	aID   int
	bID   int
}

// neighborCandidates keeps, for each load, its k best-scoring partners and
// returns the deduplicated union ordered by (score, aID, bID)
func neighborCandidates(loads []*planning.Load, t planning.V2Tuning, enforceWindow bool, kFor func(*planning.Load) int, accept func(a, b *planning.Load) bool) []pairCandidate {
	type scored struct {
		score float64
		id    int
	}

	best := map[[2]int]float64{}
	for _, a := range loads {
		neighbors := make([]scored, 0, len(loads)-1)
		for _, b := range loads {
			if b.ID == a.ID {
				continue
			}
			if accept != nil && !accept(a, b) {
				continue
			}
			if score, ok := pairScore(a, b, t, enforceWindow); ok {
				neighbors = append(neighbors, scored{score: score, id: b.ID})
			}
		}
		sort.Slice(neighbors, func(i, j int) bool {
			if neighbors[i].score != neighbors[j].score {
				return neighbors[i].score < neighbors[j].score
			}
			return neighbors[i].id < neighbors[j].id
		})

		k := kFor(a)
		if k > len(neighbors) {
			k = len(neighbors)
		}
		for _, n := range neighbors[:k] {
			key := orderedPair(a.ID, n.id)
			if cur, ok := best[key]; !ok || n.score < cur {
				best[key] = n.score
			}
		}
	}

	out := make([]pairCandidate, 0, len(best))
	for key, score := range best {
		out = append(out, pairCandidate{score: score, aID: key[0], bID: key[1]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score < out[j].score
		}
		if out[i].aID != out[j].aID {
			return out[i].aID < out[j].aID
		}
		return out[i].bID < out[j].bID
	})
	return out
}

func orderedPair(a, b int) [2]int {
	if a < b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}

// scaledK shrinks neighbor counts on big plants so candidate generation
// stays tractable
func scaledK(k, groupCount int, t planning.V2Tuning) int {
	switch {
	case groupCount >= t.HugeGroupCount:
		k /= 4
		if k < 6 {
			k = 6
		}
	case groupCount >= t.FastTuneGroupCount:
		k /= 2
	}
	if k < 1 {
		k = 1
	}
	return k
}
