package steps

import (
	"context"
	"fmt"
	"math"

	"github.com/cucumber/godog"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/stacking"
)

type stackingContext struct {
	trailer stacking.TrailerType
	items   []stacking.Item
	result  *stacking.Result
}

func (sc *stackingContext) reset() {
	sc.trailer = ""
	sc.items = nil
	sc.result = nil
}

func (sc *stackingContext) addItem(qty int, sku string, length float64, maxStack, stop int) {
	sc.items = append(sc.items, stacking.Item{
		OrderKey:     fmt.Sprintf("SO-%d", len(sc.items)+1),
		Sku:          sku,
		Qty:          qty,
		UnitLengthFt: length,
		MaxStack:     maxStack,
		StopSequence: stop,
	})
}

// Given steps

func (sc *stackingContext) aTrailer(trailerType string) error {
	sc.trailer = stacking.TrailerType(trailerType)
	return nil
}

func (sc *stackingContext) unitsThatDoNotStack(qty int, sku string, length float64) error {
	sc.addItem(qty, sku, length, 1, 1)
	return nil
}

func (sc *stackingContext) unitsStackingHigh(qty int, sku string, length float64, maxStack int) error {
	sc.addItem(qty, sku, length, maxStack, 1)
	return nil
}

func (sc *stackingContext) unitsStackingHighForStop(qty int, sku string, length float64, maxStack, stop int) error {
	sc.addItem(qty, sku, length, maxStack, stop)
	return nil
}

// When steps

func (sc *stackingContext) theFreightIsPacked() error {
	if sc.trailer == "" {
		return fmt.Errorf("no trailer configured")
	}
	calc := stacking.NewCalculator(stacking.DefaultOptions(sc.trailer))
	sc.result = calc.Pack(sc.items)
	return nil
}

// Then steps

func (sc *stackingContext) theDeckUtilizationShouldBe(want float64) error {
	if sc.result == nil {
		return fmt.Errorf("no pack result available")
	}
	if math.Abs(sc.result.UtilizationPct-want) > 0.01 {
		return fmt.Errorf("expected %.2f%% utilization, got %.2f%%", want, sc.result.UtilizationPct)
	}
	return nil
}

func (sc *stackingContext) theStackGradeShouldBe(want string) error {
	if sc.result == nil {
		return fmt.Errorf("no pack result available")
	}
	if sc.result.Grade != want {
		return fmt.Errorf("expected grade %s, got %s", want, sc.result.Grade)
	}
	return nil
}

func (sc *stackingContext) theFreightShouldFitTheTrailer() error {
	if sc.result == nil {
		return fmt.Errorf("no pack result available")
	}
	if sc.result.ExceedsCapacity {
		return fmt.Errorf("freight exceeds trailer capacity: %v", sc.result.Warnings)
	}
	return nil
}

func (sc *stackingContext) theFreightShouldNotFitTheTrailer() error {
	if sc.result == nil {
		return fmt.Errorf("no pack result available")
	}
	if !sc.result.ExceedsCapacity {
		return fmt.Errorf("expected freight to exceed trailer capacity, but it fits")
	}
	return nil
}

func (sc *stackingContext) theFreightShouldOccupyFloorPositions(want int) error {
	if sc.result == nil {
		return fmt.Errorf("no pack result available")
	}
	if len(sc.result.Positions) != want {
		return fmt.Errorf("expected %d floor positions, got %d", want, len(sc.result.Positions))
	}
	return nil
}

func (sc *stackingContext) theRearOverhangShouldBe(want float64) error {
	if sc.result == nil {
		return fmt.Errorf("no pack result available")
	}
	if math.Abs(sc.result.OverhangFt-want) > 1e-6 {
		return fmt.Errorf("expected %.1f ft of overhang, got %.2f ft", want, sc.result.OverhangFt)
	}
	return nil
}

func (sc *stackingContext) higherUnitsUnloadNoLater() error {
	if sc.result == nil {
		return fmt.Errorf("no pack result available")
	}
	for p, pos := range sc.result.Positions {
		for i := 1; i < len(pos.Units); i++ {
			if pos.Units[i].StopSequence > pos.Units[i-1].StopSequence {
				return fmt.Errorf("position %d stacks stop %d above stop %d",
					p, pos.Units[i].StopSequence, pos.Units[i-1].StopSequence)
			}
		}
	}
	return nil
}

func InitializeStackingScenario(ctx *godog.ScenarioContext) {
	sc := &stackingContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		sc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a (STEP_DECK|FLATBED|WEDGE) trailer$`, sc.aTrailer)
	ctx.Step(`^(\d+) units? of "([^"]*)" at ([0-9.]+) ft that (?:do|does) not stack$`, sc.unitsThatDoNotStack)
	ctx.Step(`^(\d+) units? of "([^"]*)" at ([0-9.]+) ft stacking (\d+) high$`, sc.unitsStackingHigh)
	ctx.Step(`^(\d+) units? of "([^"]*)" at ([0-9.]+) ft stacking (\d+) high for stop (\d+)$`, sc.unitsStackingHighForStop)

	// When steps
	ctx.Step(`^the freight is packed$`, sc.theFreightIsPacked)

	// Then steps
	ctx.Step(`^the deck utilization should be ([0-9.]+) percent$`, sc.theDeckUtilizationShouldBe)
	ctx.Step(`^the stack grade should be "([A-F])"$`, sc.theStackGradeShouldBe)
	ctx.Step(`^the freight should fit the trailer$`, sc.theFreightShouldFitTheTrailer)
	ctx.Step(`^the freight should not fit the trailer$`, sc.theFreightShouldNotFitTheTrailer)
	ctx.Step(`^the freight should occupy (\d+) floor positions$`, sc.theFreightShouldOccupyFloorPositions)
	ctx.Step(`^the rear overhang should be ([0-9.]+) ft$`, sc.theRearOverhangShouldBe)
	ctx.Step(`^units higher in a stack should unload no later than units beneath them$`, sc.higherUnitsUnloadNoLater)
}
