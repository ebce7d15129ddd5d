package planning

import (
	"container/heap"
	"context"
	"sort"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// Pass names used in logs and metrics
const (
	passMain      = "main"
	passOrphan    = "orphan"
	passGrade     = "grade"
	passRepair    = "repair"
	passRebalance = "rebalance"
)

// Rebalance commit scoring
const (
	fdBonusHealthy    = 120.0
	fdBonusAcceptable = 60.0
	fdBonusSameState  = 30.0
	fdUtilWeight      = 4.0
)

// MetricsRecorder receives planning telemetry. All methods must be safe to
// call from concurrent runs.
type MetricsRecorder interface {
	RecordPlanRun(algorithm, status string, seconds float64)
	RecordLoadsBuilt(n int)
	RecordMergeCommitted(pass string)
	RecordLoadUtilization(pct float64)
}

// Optimizer runs the v2 consolidation strategy: one load per group, then
// greedy best-gain merging followed by rescue, repair, and rebalance passes.
// An Optimizer belongs to a single run and must not be shared.
type Optimizer struct {
	params  planning.PlanParams
	tuning  planning.V2Tuning
	builder *LoadBuilder
	metrics MetricsRecorder

	active     map[int]*planning.Load
	groupCount int
}

func NewOptimizer(params planning.PlanParams, builder *LoadBuilder, metrics MetricsRecorder) *Optimizer {
	return &Optimizer{
		params:  params,
		tuning:  params.Tuning,
		builder: builder,
		metrics: metrics,
	}
}

// Optimize seeds one load per group and runs the merge passes in order.
// Cancellation is honored at pass boundaries only, so a cancelled run never
// leaves a half-merged active set behind.
func (o *Optimizer) Optimize(ctx context.Context, groups []*orders.OrderGroup) ([]*planning.Load, error) {
	logger := common.LoggerFromContext(ctx)

	o.groupCount = len(groups)
	o.active = make(map[int]*planning.Load, len(groups))
	for _, g := range groups {
		load := o.builder.BuildLoad(ctx, []*orders.OrderGroup{g})
		o.active[load.ID] = load
	}
	logger.Log(common.LevelInfo, "seeded singleton loads", map[string]interface{}{
		"plant": o.params.OriginPlant,
		"loads": len(o.active),
	})

	passes := []struct {
		name string
		run  func(ctx context.Context) int
	}{
		{passMain, o.runMainPass},
		{passOrphan, o.runOrphanRescue},
		{passGrade, o.runGradeRescue},
		{passRepair, o.runGradeRepair},
		{passRebalance, o.runRebalance},
	}
	for _, pass := range passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merges := pass.run(ctx)
		logger.Log(common.LevelInfo, "optimizer pass finished", map[string]interface{}{
			"pass":   pass.name,
			"merges": merges,
			"loads":  len(o.active),
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return o.activeLoads(), nil
}

func (o *Optimizer) activeLoads() []*planning.Load {
	return sortedLoads(o.active)
}

func sortedLoads(active map[int]*planning.Load) []*planning.Load {
	out := make([]*planning.Load, 0, len(active))
	for _, l := range active {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// heapEntry is an immutable snapshot of an evaluated candidate. Entries go
// stale when either side leaves the active set; staleness is detected on
// pop, so the heap never needs rebuilding.
type heapEntry struct {
	gain    float64
	aID     int
	bID     int
	outcome *mergeOutcome
}

type mergeHeap []heapEntry

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	if h[i].gain != h[j].gain {
		return h[i].gain > h[j].gain
	}
	if h[i].aID != h[j].aID {
		return h[i].aID < h[j].aID
	}
	return h[i].bID < h[j].bID
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }

func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (o *Optimizer) neighborKFor(l *planning.Load) int {
	k := o.tuning.NeighborK
	if l.UtilizationPct < o.tuning.LowUtilThreshold {
		k = o.tuning.NeighborKLowUtil
	}
	return scaledK(k, o.groupCount, o.tuning)
}

// buildPassHeap scores the candidate pairs for one pass and seeds the heap
// with every pair that survives the merge gates
func (o *Optimizer) buildPassHeap(ctx context.Context, pol mergePolicy, kFor func(*planning.Load) int, accept func(a, b *planning.Load) bool) *mergeHeap {
	candidates := neighborCandidates(o.activeLoads(), o.tuning, o.params.EnforceTimeWindow, kFor, accept)
	h := &mergeHeap{}
	heap.Init(h)
	for _, c := range candidates {
		a := o.active[c.aID]
		b := o.active[c.bID]
		if out, ok := o.evaluateMerge(ctx, a, b, pol); ok {
			heap.Push(h, heapEntry{gain: out.gain, aID: c.aID, bID: c.bID, outcome: out})
		}
	}
	return h
}

// drainHeap pops candidates best-gain-first and commits those whose sides
// are both still active. Loads are immutable once built, so a fresh-enough
// entry needs no re-evaluation: membership is the only thing that can
// change under it. Each commit pushes new candidates between the merged
// load and its incremental neighbors.
func (o *Optimizer) drainHeap(ctx context.Context, h *mergeHeap, pol mergePolicy, pass string, accept func(a, b *planning.Load) bool) int {
	merges := 0
	for h.Len() > 0 {
		entry := heap.Pop(h).(heapEntry)
		if _, ok := o.active[entry.aID]; !ok {
			continue
		}
		if _, ok := o.active[entry.bID]; !ok {
			continue
		}
		o.commitMerge(entry.aID, entry.bID, entry.outcome.merged, pass)
		merges++
		o.pushIncremental(ctx, h, entry.outcome.merged, pol, accept)
	}
	return merges
}

func (o *Optimizer) commitMerge(aID, bID int, merged *planning.Load, pass string) {
	delete(o.active, aID)
	delete(o.active, bID)
	o.active[merged.ID] = merged
	if o.metrics != nil {
		o.metrics.RecordMergeCommitted(pass)
	}
}

// pushIncremental re-scores the freshly merged load against its nearest
// active neighbors and pushes the survivors
func (o *Optimizer) pushIncremental(ctx context.Context, h *mergeHeap, merged *planning.Load, pol mergePolicy, accept func(a, b *planning.Load) bool) {
	type scored struct {
		score float64
		id    int
	}
	var neighbors []scored
	for _, x := range o.active {
		if x.ID == merged.ID {
			continue
		}
		if accept != nil && !accept(merged, x) {
			continue
		}
		if score, ok := pairScore(merged, x, o.tuning, o.params.EnforceTimeWindow); ok {
			neighbors = append(neighbors, scored{score: score, id: x.ID})
		}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].score != neighbors[j].score {
			return neighbors[i].score < neighbors[j].score
		}
		return neighbors[i].id < neighbors[j].id
	})

	k := scaledK(o.tuning.NeighborKIncremental, o.groupCount, o.tuning)
	if k > len(neighbors) {
		k = len(neighbors)
	}
	for _, n := range neighbors[:k] {
		a, b := orderLoads(merged, o.active[n.id])
		if out, ok := o.evaluateMerge(ctx, a, b, pol); ok {
			heap.Push(h, heapEntry{gain: out.gain, aID: a.ID, bID: b.ID, outcome: out})
		}
	}
}

func orderLoads(a, b *planning.Load) (*planning.Load, *planning.Load) {
	if a.ID < b.ID {
		return a, b
	}
	return b, a
}

func (o *Optimizer) runMainPass(ctx context.Context) int {
	pol := o.mainPolicy()
	h := o.buildPassHeap(ctx, pol, o.neighborKFor, nil)
	return o.drainHeap(ctx, h, pol, passMain, nil)
}

// runOrphanRescue repeatedly merges pairs with at least one orphan side,
// paying up to the rescue savings floor. Stops when a pass commits nothing.
func (o *Optimizer) runOrphanRescue(ctx context.Context) int {
	pol := o.orphanPolicy()
	isOrphan := func(l *planning.Load) bool {
		return l.UtilizationPct < o.tuning.OrphanUtilThreshold
	}
	accept := func(a, b *planning.Load) bool {
		return isOrphan(a) || isOrphan(b)
	}

	total := 0
	for pass := 0; pass < o.tuning.RescuePasses; pass++ {
		if ctx.Err() != nil {
			break
		}
		h := o.buildPassHeap(ctx, pol, o.neighborKFor, accept)
		merges := o.drainHeap(ctx, h, pol, passOrphan, accept)
		total += merges
		if merges == 0 {
			break
		}
	}
	return total
}

// dateIsolated reports whether no other active load could legally share a
// truck with l under the time window. Isolated loads are left alone by the
// grade and rebalance passes; no merge could help them.
func (o *Optimizer) dateIsolated(l *planning.Load) bool {
	for _, other := range o.active {
		if other.ID == l.ID {
			continue
		}
		if dateCompatible(l, other, o.params.EnforceTimeWindow) {
			return false
		}
	}
	return true
}

// runGradeRescue hunts partners for low-util loads that are not date
// isolated, using the widest gate configuration and widened neighbor counts
func (o *Optimizer) runGradeRescue(ctx context.Context) int {
	pol := o.gradePolicy()
	isTarget := func(l *planning.Load) bool {
		return l.UtilizationPct < o.tuning.LowUtilThreshold && !o.dateIsolated(l)
	}
	accept := func(a, b *planning.Load) bool {
		return isTarget(a) || isTarget(b)
	}
	kFor := func(*planning.Load) int {
		return scaledK(o.tuning.NeighborKLowUtil, o.groupCount, o.tuning)
	}

	total := 0
	for pass := 0; pass < o.tuning.GradeRescuePasses; pass++ {
		if ctx.Err() != nil {
			break
		}
		h := o.buildPassHeap(ctx, pol, kFor, accept)
		merges := o.drainHeap(ctx, h, pol, passGrade, accept)
		total += merges
		if merges == 0 {
			break
		}
	}
	return total
}

// runGradeRepair sweeps the remaining low-util loads one at a time, pairing
// each with its single best date-compatible peer regardless of distance
func (o *Optimizer) runGradeRepair(ctx context.Context) int {
	detourCap := o.repairDetourCapPct()
	total := 0

	for sweep := 0; sweep < o.tuning.GradeRepairLimit; sweep++ {
		if ctx.Err() != nil {
			break
		}
		violators := o.repairViolators()
		if len(violators) == 0 {
			break
		}
		committed := 0
		for _, target := range violators {
			if _, ok := o.active[target.ID]; !ok {
				continue
			}
			merged, peerID, ok := o.bestRepairPeer(ctx, target, detourCap)
			if !ok {
				continue
			}
			o.commitMerge(target.ID, peerID, merged, passRepair)
			committed++
		}
		total += committed
		if committed == 0 {
			break
		}
	}
	return total
}

// repairViolators lists low-util loads worst-first
func (o *Optimizer) repairViolators() []*planning.Load {
	var out []*planning.Load
	for _, l := range o.active {
		if l.UtilizationPct < o.tuning.LowUtilThreshold {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UtilizationPct != out[j].UtilizationPct {
			return out[i].UtilizationPct < out[j].UtilizationPct
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// bestRepairPeer scans every date-compatible peer and keeps the highest
// scoring repair merge; ok=false when no peer passes the gates
func (o *Optimizer) bestRepairPeer(ctx context.Context, target *planning.Load, detourCap float64) (*planning.Load, int, bool) {
	t := o.tuning
	var (
		bestScore  float64
		bestPeerID int
		bestMerged *planning.Load
	)
	for _, peer := range sortedLoads(o.active) {
		if peer.ID == target.ID {
			continue
		}
		if !dateCompatible(target, peer, o.params.EnforceTimeWindow) {
			continue
		}
		a, b := orderLoads(target, peer)
		if !o.structuralMergeOK(a, b) {
			continue
		}
		merged, ok := o.buildMerged(ctx, a, b)
		if !ok {
			continue
		}
		savings := a.EstimatedCost + b.EstimatedCost - merged.EstimatedCost
		if savings < t.RepairMinSavings {
			continue
		}
		if o.detourPct(merged) > detourCap {
			continue
		}
		if merged.UtilizationPct <= target.UtilizationPct+t.RepairMinUtilGain {
			continue
		}

		score := savings
		if target.UtilizationPct < t.LowUtilThreshold && merged.UtilizationPct >= t.LowUtilThreshold {
			score += t.RepairCrossBonus
		}
		score += t.RepairUtilWeight * (merged.UtilizationPct - target.UtilizationPct)

		// Peers iterate in ID order, so strict > keeps the lowest peer on ties
		if bestMerged == nil || score > bestScore {
			bestScore, bestPeerID, bestMerged = score, peer.ID, merged
		}
	}
	if bestMerged == nil {
		return nil, 0, false
	}
	return bestMerged, bestPeerID, true
}

// runRebalance dissolves weak loads entirely, absorbing their groups into
// peers one group at a time. Placement is all-or-nothing per target.
func (o *Optimizer) runRebalance(ctx context.Context) int {
	placed := 0
	for pass := 0; pass < o.tuning.FDPasses; pass++ {
		if ctx.Err() != nil {
			break
		}
		targets := o.rebalanceTargets()
		if len(targets) == 0 {
			break
		}
		moved := 0
		for _, target := range targets {
			if _, ok := o.active[target.ID]; !ok {
				continue
			}
			moved += o.redistributeTarget(ctx, target)
		}
		placed += moved
		if moved == 0 {
			break
		}
	}
	return placed
}

// rebalanceTargets lists the loads worth dissolving, weakest first
func (o *Optimizer) rebalanceTargets() []*planning.Load {
	var out []*planning.Load
	for _, l := range o.active {
		if l.UtilizationPct >= o.tuning.FDTargetUtil {
			continue
		}
		if len(l.Groups) == 0 || o.dateIsolated(l) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UtilizationPct != out[j].UtilizationPct {
			return out[i].UtilizationPct < out[j].UtilizationPct
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// redistributeTarget tries to empty one weak load, largest group first,
// against a cloned active set. Only a full placement is applied; a single
// unplaceable group rolls the whole attempt back.
func (o *Optimizer) redistributeTarget(ctx context.Context, target *planning.Load) int {
	overlay := make(map[int]*planning.Load, len(o.active))
	for id, l := range o.active {
		overlay[id] = l
	}
	delete(overlay, target.ID)

	groups := append([]*orders.OrderGroup(nil), target.Groups...)
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TotalLengthFt != groups[j].TotalLengthFt {
			return groups[i].TotalLengthFt > groups[j].TotalLengthFt
		}
		return groups[i].SoNum < groups[j].SoNum
	})

	budget := o.tuning.FDMaxCostIncreaseD
	if target.Grade() == "F" {
		budget = o.tuning.FDMaxCostIncreaseF
	}

	spent := 0.0
	for _, g := range groups {
		single := o.builder.BuildLoad(ctx, []*orders.OrderGroup{g})
		recipientID, merged, delta, ok := o.bestRecipient(ctx, overlay, single, budget-spent)
		if !ok {
			return 0
		}
		spent += delta
		delete(overlay, recipientID)
		overlay[merged.ID] = merged
	}

	o.active = overlay
	if o.metrics != nil {
		for range groups {
			o.metrics.RecordMergeCommitted(passRebalance)
		}
	}
	return len(groups)
}

// bestRecipient ranks compatible peers for one displaced group and returns
// the best scoring placement within the remaining cost budget
func (o *Optimizer) bestRecipient(ctx context.Context, overlay map[int]*planning.Load, single *planning.Load, budget float64) (int, *planning.Load, float64, bool) {
	t := o.tuning

	type ranked struct {
		score float64
		id    int
	}
	var candidates []ranked
	for _, peer := range overlay {
		if !dateCompatible(single, peer, o.params.EnforceTimeWindow) {
			continue
		}
		score, ok := pairScore(single, peer, t, o.params.EnforceTimeWindow)
		if !ok {
			continue
		}
		if peer.DestinationState != single.DestinationState {
			score -= fdCrossStateRank
		}
		if peer.UtilizationPct < t.VeryLowUtilThreshold {
			score += fdVeryLowPenalty
		}
		candidates = append(candidates, ranked{score: score, id: peer.ID})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) > t.FDCandidateLimit {
		candidates = candidates[:t.FDCandidateLimit]
	}

	var (
		bestScore  float64
		bestPeerID int
		bestMerged *planning.Load
		bestDelta  float64
	)
	for _, c := range candidates {
		peer := overlay[c.id]
		a, b := orderLoads(peer, single)
		if !o.structuralMergeOK(a, b) {
			continue
		}
		merged, ok := o.buildMerged(ctx, a, b)
		if !ok {
			continue
		}
		delta := merged.EstimatedCost - peer.EstimatedCost - single.EstimatedCost
		if delta > budget {
			continue
		}
		if o.detourPct(merged) > t.FDDetourCapPct {
			continue
		}
		if merged.UtilizationPct < peer.UtilizationPct-t.FDUtilTolerance {
			continue
		}

		score := -delta
		if merged.UtilizationPct >= t.LowUtilThreshold {
			score += fdBonusHealthy
		} else if merged.UtilizationPct >= t.FDTargetUtil {
			score += fdBonusAcceptable
		}
		if peer.DestinationState == single.DestinationState {
			score += fdBonusSameState
		}
		score += fdUtilWeight * (merged.UtilizationPct - peer.UtilizationPct)

		// Candidates iterate in rank order, so strict > keeps the best
		// ranked peer on ties
		if bestMerged == nil || score > bestScore {
			bestScore, bestPeerID, bestMerged, bestDelta = score, c.id, merged, delta
		}
	}
	if bestMerged == nil {
		return 0, nil, 0, false
	}
	return bestPeerID, bestMerged, bestDelta, true
}
