package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	appPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/planning"
	domainPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/helpers"
)

type lifecycleContext struct {
	mediator common.Mediator
	repos    *helpers.TestRepositories

	loadIDs []uint
	current *domainPlanning.StoredLoad
	numbers []string
	err     error
}

func (lc *lifecycleContext) reset() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}
	clock := shared.NewMockClock(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	mediator, repos, err := newPlanningMediator(clock)
	if err != nil {
		return err
	}
	lc.mediator = mediator
	lc.repos = repos
	lc.loadIDs = nil
	lc.current = nil
	lc.numbers = nil
	lc.err = nil
	return nil
}

func (lc *lifecycleContext) lastLoadID() (uint, error) {
	if len(lc.loadIDs) == 0 {
		return 0, fmt.Errorf("no load seeded")
	}
	return lc.loadIDs[len(lc.loadIDs)-1], nil
}

// Given steps

func (lc *lifecycleContext) aProposedLoadForPlant(plant string) error {
	model := &persistence.LoadModel{
		OriginPlant:      plant,
		DestinationState: "OH",
		TrailerType:      "STEP_DECK",
		Status:           string(domainPlanning.StatusProposed),
		BuildSource:      string(domainPlanning.SourceOptimized),
		UtilizationPct:   80,
		StopCount:        1,
		OrderCount:       1,
		SessionID:        "bdd-session",
	}
	if err := helpers.SharedTestDB.Create(model).Error; err != nil {
		return fmt.Errorf("failed to seed load: %w", err)
	}
	lc.loadIDs = append(lc.loadIDs, model.ID)
	return nil
}

// When steps

func (lc *lifecycleContext) promote(id uint) {
	resp, err := lc.mediator.Send(context.Background(), &appPlanning.PromoteLoadCommand{LoadID: id})
	lc.err = err
	if err == nil {
		lc.current = resp.(*appPlanning.PromoteLoadResult).Load
	}
}

func (lc *lifecycleContext) theLoadIsPromoted() error {
	id, err := lc.lastLoadID()
	if err != nil {
		return err
	}
	lc.promote(id)
	return nil
}

func (lc *lifecycleContext) loadIsPromoted(id int) error {
	lc.promote(uint(id))
	return nil
}

func (lc *lifecycleContext) bothLoadsArePromoted() error {
	if len(lc.loadIDs) < 2 {
		return fmt.Errorf("expected two seeded loads, have %d", len(lc.loadIDs))
	}
	for _, id := range lc.loadIDs {
		lc.promote(id)
		if lc.err != nil {
			return lc.err
		}
		lc.numbers = append(lc.numbers, lc.current.LoadNumber)
	}
	return nil
}

func (lc *lifecycleContext) theLoadIsApproved() error {
	id, err := lc.lastLoadID()
	if err != nil {
		return err
	}
	resp, sendErr := lc.mediator.Send(context.Background(), &appPlanning.ApproveLoadCommand{LoadID: id})
	lc.err = sendErr
	if sendErr == nil {
		lc.current = resp.(*appPlanning.ApproveLoadResult).Load
	}
	return nil
}

func (lc *lifecycleContext) theLoadIsDeleted() error {
	id, err := lc.lastLoadID()
	if err != nil {
		return err
	}
	_, sendErr := lc.mediator.Send(context.Background(), &appPlanning.DeleteLoadCommand{LoadID: id})
	lc.err = sendErr
	return nil
}

// Then steps

func (lc *lifecycleContext) theLoadStatusShouldBe(status string) error {
	if lc.err != nil {
		return fmt.Errorf("unexpected error: %w", lc.err)
	}
	if lc.current == nil {
		return fmt.Errorf("no load transition recorded")
	}
	if string(lc.current.Status) != status {
		return fmt.Errorf("expected status %s, got %s", status, lc.current.Status)
	}
	return nil
}

func (lc *lifecycleContext) theLoadNumberShouldBe(number string) error {
	if lc.err != nil {
		return fmt.Errorf("unexpected error: %w", lc.err)
	}
	if lc.current == nil {
		return fmt.Errorf("no load transition recorded")
	}
	if lc.current.LoadNumber != number {
		return fmt.Errorf("expected load number %s, got %s", number, lc.current.LoadNumber)
	}
	return nil
}

func (lc *lifecycleContext) theLoadNumbersShouldBe(first, second string) error {
	if len(lc.numbers) != 2 {
		return fmt.Errorf("expected two promoted loads, got %d", len(lc.numbers))
	}
	if lc.numbers[0] != first || lc.numbers[1] != second {
		return fmt.Errorf("expected numbers %s and %s, got %s and %s",
			first, second, lc.numbers[0], lc.numbers[1])
	}
	return nil
}

func (lc *lifecycleContext) theOperationShouldBeRejectedWith(message string) error {
	if lc.err == nil {
		return fmt.Errorf("expected the operation to be rejected")
	}
	if !strings.Contains(lc.err.Error(), message) {
		return fmt.Errorf("expected error mentioning %q, got %q", message, lc.err.Error())
	}
	return nil
}

func (lc *lifecycleContext) thePlanForPlantShouldBeEmpty(plant string) error {
	if lc.err != nil {
		return fmt.Errorf("unexpected error: %w", lc.err)
	}
	stored, err := lc.repos.LoadRepo.ListLoads(context.Background(), plant, nil)
	if err != nil {
		return err
	}
	if len(stored) != 0 {
		return fmt.Errorf("expected an empty plan, found %d loads", len(stored))
	}
	return nil
}

func InitializeLifecycleScenario(ctx *godog.ScenarioContext) {
	lc := &lifecycleContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		return ctx, lc.reset()
	})

	// Given steps
	ctx.Step(`^a proposed load for plant "([^"]*)"$`, lc.aProposedLoadForPlant)
	ctx.Step(`^a second proposed load for plant "([^"]*)"$`, lc.aProposedLoadForPlant)

	// When steps
	ctx.Step(`^the load is promoted$`, lc.theLoadIsPromoted)
	ctx.Step(`^load (\d+) is promoted$`, lc.loadIsPromoted)
	ctx.Step(`^both loads are promoted$`, lc.bothLoadsArePromoted)
	ctx.Step(`^the load is approved$`, lc.theLoadIsApproved)
	ctx.Step(`^the load is deleted$`, lc.theLoadIsDeleted)

	// Then steps
	ctx.Step(`^the load status should be "([^"]*)"$`, lc.theLoadStatusShouldBe)
	ctx.Step(`^the load number should be "([^"]*)"$`, lc.theLoadNumberShouldBe)
	ctx.Step(`^the load numbers should be "([^"]*)" and "([^"]*)"$`, lc.theLoadNumbersShouldBe)
	ctx.Step(`^the operation should be rejected with "([^"]*)"$`, lc.theOperationShouldBeRejectedWith)
	ctx.Step(`^the plan for plant "([^"]*)" should be empty$`, lc.thePlanForPlantShouldBeEmpty)
}
