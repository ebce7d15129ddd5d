package stacking

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// lengthEpsilon absorbs float drift from summing 1/max_stack fractions
const lengthEpsilon = 1e-6

// Deck identifies which trailer deck a position occupies
type Deck string

const (
	DeckLower Deck = "lower"
	DeckUpper Deck = "upper"
)

// Warning codes raised while packing
const (
	WarnItemHangsOverDeck       = "ITEM_HANGS_OVER_DECK"
	WarnBackOverhangInAllowance = "BACK_OVERHANG_IN_ALLOWANCE"
	WarnStackOverflowUsed       = "STACK_OVERFLOW_ALLOWANCE_USED"
	WarnInvalidStackOrder       = "INVALID_STACK_ORDER"
	WarnIncompatibleCategoryMix = "INCOMPATIBLE_CATEGORY_MIX"
	WarnStackInstability        = "STACK_INSTABILITY"
	WarnVerifyMixedWoody        = "VERIFY_MIXED_WOODY"
)

// Item is a packable order line: Qty identical units of one SKU bound for
// one stop. StopSequence is the 1-based unload position of the stop on the
// route, so lower numbers unload earlier.
type Item struct {
	OrderKey     string
	Sku          string
	Category     string
	Qty          int
	UnitLengthFt float64
	MaxStack     int
	StopSequence int
}

// StackedUnit is a single unit as placed in a position
type StackedUnit struct {
	OrderKey     string
	Sku          string
	Category     string
	UnitLengthFt float64
	MaxStack     int
	StopSequence int
}

// Position is one floor slot holding a vertical stack. Units run bottom to
// top; lengths never grow upward and stop sequences never grow upward, so
// the top of every stack unloads first.
type Position struct {
	Deck         Deck
	LengthFt     float64
	Units        []StackedUnit
	CapacityUsed float64
	TopLengthFt  float64
	TopStop      int
	OverflowUsed bool
}

// Warning flags a packing concern. Position is an index into
// Result.Positions, or -1 for load-wide warnings.
type Warning struct {
	Code     string
	Detail   string
	Position int
}

// Result is the outcome of packing one load
type Result struct {
	Trailer         TrailerConfig
	Positions       []Position
	UtilizationPct  float64
	CreditFeet      float64
	LowerUsedFt     float64
	UpperUsedFt     float64
	OverhangFt      float64
	ExceedsCapacity bool
	Warnings        []Warning
	Grade           string
}

// HasWarning reports whether any warning with the given code was raised
func (r *Result) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// FragilityScore counts the stability and verify warnings on the load
func (r *Result) FragilityScore() int {
	n := 0
	for _, w := range r.Warnings {
		if w.Code == WarnStackInstability || w.Code == WarnVerifyMixedWoody {
			n++
		}
	}
	return n
}

// GradeCuts are the utilization thresholds for letter grades
type GradeCuts struct {
	A float64
	B float64
	C float64
	D float64
}

// Options control the packing pass
type Options struct {
	Trailer TrailerConfig

	// PreserveOrderContiguity keeps each order's units in adjacent
	// positions instead of globally re-sorting by stop
	PreserveOrderContiguity bool

	// OverflowMaxStack enables the singleton overflow pass; 0 disables it
	OverflowMaxStack int

	// BackOverhangFt is how far freight may hang past the rear deck edge
	// before the load is flagged as exceeding capacity
	BackOverhangFt float64

	GradeCuts GradeCuts
}

// DefaultOptions returns the standard packing options for a trailer type
func DefaultOptions(t TrailerType) Options {
	return Options{
		Trailer:                 ConfigFor(t),
		PreserveOrderContiguity: true,
		OverflowMaxStack:        5,
		BackOverhangFt:          4.0,
		GradeCuts:               GradeCuts{A: 85, B: 70, C: 55, D: 40},
	}
}

// Calculator packs items onto a trailer and scores the result
type Calculator struct {
	opts Options
}

func NewCalculator(opts Options) *Calculator {
	if opts.Trailer.CapacityFeet == 0 {
		opts.Trailer = ConfigFor(opts.Trailer.Type)
	}
	if opts.GradeCuts == (GradeCuts{}) {
		opts.GradeCuts = GradeCuts{A: 85, B: 70, C: 55, D: 40}
	}
	return &Calculator{opts: opts}
}

// Pack places every unit of every item, applies the overflow and deck
// assignment passes, and computes utilization, warnings, and grade
func (c *Calculator) Pack(items []Item) *Result {
	result := &Result{Trailer: c.opts.Trailer}

	units := expandUnits(items)
	if len(units) == 0 {
		result.Grade = gradeFor(0, c.opts.GradeCuts)
		return result
	}

	var positions []*Position
	if c.opts.PreserveOrderContiguity && hasOrderKeys(units) {
		positions = c.packContiguous(units)
	} else {
		positions = c.packGlobal(units)
	}

	var warnings []Warning
	positions, warnings = c.applyOverflow(positions)
	c.assignDecks(positions)

	result.Warnings = warnings
	c.finish(result, positions)
	return result
}

func expandUnits(items []Item) [][]StackedUnit {
	// One inner slice per order bucket, buckets ordered by earliest stop
	// then first appearance, lines within a bucket longest and tallest
	// first.
	type bucket struct {
		key     string
		minStop int
		lines   []Item
	}
	var buckets []*bucket
	index := map[string]*bucket{}
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		b, ok := index[it.OrderKey]
		if !ok {
			b = &bucket{key: it.OrderKey, minStop: it.StopSequence}
			index[it.OrderKey] = b
			buckets = append(buckets, b)
		}
		if it.StopSequence < b.minStop {
			b.minStop = it.StopSequence
		}
		b.lines = append(b.lines, it)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].minStop < buckets[j].minStop
	})

	out := make([][]StackedUnit, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.lines, func(i, j int) bool {
			if b.lines[i].UnitLengthFt != b.lines[j].UnitLengthFt {
				return b.lines[i].UnitLengthFt > b.lines[j].UnitLengthFt
			}
			return b.lines[i].MaxStack > b.lines[j].MaxStack
		})
		var units []StackedUnit
		for _, line := range b.lines {
			maxStack := line.MaxStack
			if maxStack < 1 {
				maxStack = 1
			}
			for q := 0; q < line.Qty; q++ {
				units = append(units, StackedUnit{
					OrderKey:     line.OrderKey,
					Sku:          line.Sku,
					Category:     line.Category,
					UnitLengthFt: line.UnitLengthFt,
					MaxStack:     maxStack,
					StopSequence: line.StopSequence,
				})
			}
		}
		out = append(out, units)
	}
	return out
}

func hasOrderKeys(buckets [][]StackedUnit) bool {
	for _, units := range buckets {
		for _, u := range units {
			if u.OrderKey != "" {
				return true
			}
		}
	}
	return false
}

func (p *Position) full() bool {
	return p.CapacityUsed >= 1-lengthEpsilon
}

func (p *Position) accepts(u StackedUnit) bool {
	return p.LengthFt >= u.UnitLengthFt-lengthEpsilon &&
		p.TopLengthFt >= u.UnitLengthFt-lengthEpsilon &&
		p.TopStop >= u.StopSequence &&
		p.CapacityUsed+1.0/float64(u.MaxStack) <= 1+lengthEpsilon
}

func (p *Position) place(u StackedUnit) {
	p.Units = append(p.Units, u)
	p.CapacityUsed += 1.0 / float64(u.MaxStack)
	p.TopLengthFt = u.UnitLengthFt
	p.TopStop = u.StopSequence
}

func newPosition(u StackedUnit) *Position {
	p := &Position{Deck: DeckLower, LengthFt: u.UnitLengthFt}
	p.place(u)
	return p
}

// packContiguous walks order buckets with a left-to-right cursor so each
// order's freight stays together on the deck
func (c *Calculator) packContiguous(buckets [][]StackedUnit) []*Position {
	var positions []*Position
	cursor := 0
	for _, units := range buckets {
		for _, u := range units {
			for cursor < len(positions) && positions[cursor].full() {
				cursor++
			}
			if cursor < len(positions) && positions[cursor].accepts(u) {
				positions[cursor].place(u)
				continue
			}
			positions = append(positions, newPosition(u))
			cursor = len(positions) - 1
		}
	}
	return positions
}

// packGlobal re-sorts all units by stop then size and first-fits each into
// the earliest compatible position
func (c *Calculator) packGlobal(buckets [][]StackedUnit) []*Position {
	var units []StackedUnit
	for _, bu := range buckets {
		units = append(units, bu...)
	}
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].StopSequence != units[j].StopSequence {
			return units[i].StopSequence < units[j].StopSequence
		}
		if units[i].UnitLengthFt != units[j].UnitLengthFt {
			return units[i].UnitLengthFt > units[j].UnitLengthFt
		}
		return units[i].MaxStack > units[j].MaxStack
	})

	var positions []*Position
	for _, u := range units {
		placed := false
		for _, p := range positions {
			if p.accepts(u) {
				p.place(u)
				placed = true
				break
			}
		}
		if !placed {
			positions = append(positions, newPosition(u))
		}
	}
	return positions
}

// applyOverflow moves lone tall-stackable units onto full mixed-length
// positions, freeing their floor slots. Each target absorbs at most one
// overflow unit and is charged 1/overflow_max extra capacity.
func (c *Calculator) applyOverflow(positions []*Position) ([]*Position, []Warning) {
	if c.opts.OverflowMaxStack <= 0 {
		return positions, nil
	}
	var moved []*Position

	for si := 0; si < len(positions); si++ {
		src := positions[si]
		if len(src.Units) != 1 {
			continue
		}
		u := src.Units[0]
		if u.MaxStack < c.opts.OverflowMaxStack {
			continue
		}

		best := -1
		bestDiff := 0.0
		for ti, tgt := range positions {
			if ti == si || !tgt.full() || tgt.OverflowUsed {
				continue
			}
			if distinctLengths(tgt.Units) < 2 {
				continue
			}
			if tgt.LengthFt < u.UnitLengthFt-lengthEpsilon ||
				tgt.TopLengthFt < u.UnitLengthFt-lengthEpsilon ||
				tgt.TopStop < u.StopSequence {
				continue
			}
			diff := math.Abs(tgt.LengthFt - u.UnitLengthFt)
			if best == -1 || diff < bestDiff-lengthEpsilon {
				best = ti
				bestDiff = diff
			}
		}
		if best == -1 {
			continue
		}

		tgt := positions[best]
		tgt.Units = append(tgt.Units, u)
		tgt.CapacityUsed += 1.0 / float64(c.opts.OverflowMaxStack)
		tgt.TopLengthFt = u.UnitLengthFt
		tgt.TopStop = u.StopSequence
		tgt.OverflowUsed = true
		moved = append(moved, tgt)

		positions = append(positions[:si], positions[si+1:]...)
		si--
	}

	var warnings []Warning
	for _, tgt := range moved {
		for i, p := range positions {
			if p == tgt {
				warnings = append(warnings, Warning{
					Code:     WarnStackOverflowUsed,
					Detail:   fmt.Sprintf("position %d absorbed an overflow unit (%s)", i+1, tgt.Units[len(tgt.Units)-1].Sku),
					Position: i,
				})
				break
			}
		}
	}
	return positions, warnings
}

func distinctLengths(units []StackedUnit) int {
	seen := map[float64]struct{}{}
	for _, u := range units {
		seen[u.UnitLengthFt] = struct{}{}
	}
	return len(seen)
}

// assignDecks moves the longest positions that fit onto the upper deck
// until it is full
func (c *Calculator) assignDecks(positions []*Position) {
	upperLen := c.opts.Trailer.UpperDeckFt
	if upperLen <= 0 {
		return
	}
	cands := make([]*Position, 0, len(positions))
	for _, p := range positions {
		if p.LengthFt <= upperLen+lengthEpsilon {
			cands = append(cands, p)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].LengthFt > cands[j].LengthFt
	})
	used := 0.0
	for _, p := range cands {
		if used+p.LengthFt <= upperLen+lengthEpsilon {
			p.Deck = DeckUpper
			used += p.LengthFt
		}
	}
}

// finish computes credits, utilization, overhang, compatibility warnings,
// and the letter grade
func (c *Calculator) finish(result *Result, positions []*Position) {
	trailer := c.opts.Trailer
	lowerCredit, upperCredit := 0.0, 0.0
	lowerUsed, upperUsed := 0.0, 0.0

	for _, p := range positions {
		mult := p.CapacityUsed
		if mult > 1 {
			if p.OverflowUsed && c.opts.OverflowMaxStack > 0 {
				ceiling := 1 + 1.0/float64(c.opts.OverflowMaxStack)
				if mult > ceiling {
					mult = ceiling
				}
			} else {
				mult = 1
			}
		}
		credit := p.LengthFt * mult
		if p.Deck == DeckUpper {
			upperCredit += credit
			upperUsed += p.LengthFt
		} else {
			lowerCredit += credit
			lowerUsed += p.LengthFt
		}
	}

	// A partially filled upper deck blocks the whole shelf, so its credit
	// scales up to the full deck length
	if trailer.UpperDeckFt > 0 && upperUsed > lengthEpsilon && upperUsed < trailer.UpperDeckFt-lengthEpsilon {
		upperCredit *= trailer.UpperDeckFt / upperUsed
	}

	result.LowerUsedFt = lowerUsed
	result.UpperUsedFt = upperUsed
	result.CreditFeet = lowerCredit + upperCredit
	if trailer.CapacityFeet > 0 {
		result.UtilizationPct = 100 * result.CreditFeet / trailer.CapacityFeet
	}

	overhang := lowerUsed - trailer.LowerDeckFt
	if overhang < 0 {
		overhang = 0
	}
	result.OverhangFt = overhang
	if overhang > c.opts.BackOverhangFt+lengthEpsilon {
		result.ExceedsCapacity = true
		result.Warnings = append(result.Warnings, Warning{
			Code:     WarnItemHangsOverDeck,
			Detail:   fmt.Sprintf("freight extends %.1f ft past the lower deck (allowance %.1f ft)", overhang, c.opts.BackOverhangFt),
			Position: -1,
		})
	} else if overhang > lengthEpsilon {
		result.Warnings = append(result.Warnings, Warning{
			Code:     WarnBackOverhangInAllowance,
			Detail:   fmt.Sprintf("%.1f ft of rear overhang within the %.1f ft allowance", overhang, c.opts.BackOverhangFt),
			Position: -1,
		})
	}

	result.Warnings = append(result.Warnings, compatibilityWarnings(positions)...)

	result.Positions = make([]Position, len(positions))
	for i, p := range positions {
		result.Positions[i] = *p
	}
	result.Grade = gradeFor(result.UtilizationPct, c.opts.GradeCuts)
}

func compatibilityWarnings(positions []*Position) []Warning {
	var warnings []Warning
	categories := map[string]struct{}{}

	for i, p := range positions {
		woody, other := false, false
		for ui, u := range p.Units {
			if u.Category != "" {
				categories[u.Category] = struct{}{}
			}
			if strings.Contains(strings.ToUpper(u.Sku), "WOODY") {
				woody = true
			} else {
				other = true
			}
			if ui > 0 && u.UnitLengthFt > p.Units[ui-1].UnitLengthFt+lengthEpsilon {
				warnings = append(warnings, Warning{
					Code:     WarnInvalidStackOrder,
					Detail:   fmt.Sprintf("position %d stacks %s above a shorter unit", i+1, u.Sku),
					Position: i,
				})
			}
		}
		if woody && other && len(p.Units) > 1 {
			warnings = append(warnings, Warning{
				Code:     WarnVerifyMixedWoody,
				Detail:   fmt.Sprintf("position %d mixes a WOODY SKU with other freight", i+1),
				Position: i,
			})
		}
		if len(p.Units) > 5 {
			warnings = append(warnings, Warning{
				Code:     WarnStackInstability,
				Detail:   fmt.Sprintf("position %d stacks %d units high", i+1, len(p.Units)),
				Position: i,
			})
		}
	}

	if _, hasDump := categories["DUMP"]; hasDump && len(categories) > 1 {
		warnings = append(warnings, Warning{
			Code:     WarnIncompatibleCategoryMix,
			Detail:   "DUMP freight cannot ride with other categories",
			Position: -1,
		})
	}
	return warnings
}

func gradeFor(util float64, cuts GradeCuts) string {
	switch {
	case util >= cuts.A:
		return "A"
	case util >= cuts.B:
		return "B"
	case util >= cuts.C:
		return "C"
	case util >= cuts.D:
		return "D"
	default:
		return "F"
	}
}
