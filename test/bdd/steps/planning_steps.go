package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/messages/go/v21"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/common"
	appPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/planning"
	approuting "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/setup"
	domainPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/shared"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/helpers"
)

// newPlanningMediator wires the real repositories and planning handlers over
// the shared test database. Routing stays on the haversine fallback so no
// scenario depends on a road provider.
func newPlanningMediator(clock shared.Clock) (common.Mediator, *helpers.TestRepositories, error) {
	repos := helpers.NewTestRepositories(clock)

	sources := appPlanning.SnapshotSources{
		Skus:      repos.SkuRepo,
		Strategic: repos.StrategicRepo,
		Rates:     repos.RateRepo,
		Geo:       repos.GeoRepo,
		Settings:  repos.SettingsRepo,
	}
	costs := appPlanning.CostParams{
		StopFeePerStop:       150,
		MinimumLoadCost:      350,
		DefaultRatePerMile:   2.75,
		FuelSurchargePerMile: 0.35,
	}
	routes := approuting.NewService(nil, nil, nil, "driving-hgv", false, false)

	registry := setup.NewHandlerRegistry(
		repos.OrderRepo, repos.LoadRepo, repos.SequenceRepo,
		sources, routes, costs, nil, clock,
	)
	mediator, err := registry.CreateConfiguredMediator()
	if err != nil {
		return nil, nil, err
	}
	return mediator, repos, nil
}

func splitSoNums(csv string) []string {
	parts := strings.Split(csv, ",")
	soNums := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			soNums = append(soNums, trimmed)
		}
	}
	return soNums
}

type skuSpec struct {
	lengthFt float64
	maxStack int
}

type planningContext struct {
	clock    *shared.MockClock
	mediator common.Mediator
	repos    *helpers.TestRepositories
	skus     map[string]skuSpec

	lastPlant string
	result    *appPlanning.BuildLoadsResult
	manual    *appPlanning.BuildManualLoadResult
}

func (pc *planningContext) reset() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}
	pc.clock = shared.NewMockClock(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	mediator, repos, err := newPlanningMediator(pc.clock)
	if err != nil {
		return err
	}
	pc.mediator = mediator
	pc.repos = repos
	pc.skus = make(map[string]skuSpec)
	pc.lastPlant = ""
	pc.result = nil
	pc.manual = nil
	return nil
}

// Given steps

func (pc *planningContext) plantAt(code string, lat, lng float64) error {
	model := &persistence.PlantModel{Code: code, Name: code + " plant", Lat: lat, Lng: lng}
	if err := helpers.SharedTestDB.Create(model).Error; err != nil {
		return fmt.Errorf("failed to seed plant: %w", err)
	}
	return nil
}

func (pc *planningContext) zipIsAt(zip string, lat, lng float64) error {
	model := &persistence.ZipCoordModel{Zip: zip, Lat: lat, Lng: lng}
	if err := helpers.SharedTestDB.Create(model).Error; err != nil {
		return fmt.Errorf("failed to seed zip: %w", err)
	}
	return nil
}

func (pc *planningContext) skuIs(sku string, lengthFt float64, category string, maxStack int) error {
	model := &persistence.SkuSpecModel{
		Sku:                sku,
		Category:           category,
		LengthWithTongueFt: lengthFt,
		MaxStackStepDeck:   maxStack,
		MaxStackFlatbed:    maxStack,
	}
	if err := helpers.SharedTestDB.Create(model).Error; err != nil {
		return fmt.Errorf("failed to seed sku: %w", err)
	}
	pc.skus[sku] = skuSpec{lengthFt: lengthFt, maxStack: maxStack}
	return nil
}

func (pc *planningContext) anOpenOrder(soNum, custName string, qty int, sku, city, state, zip, due string) error {
	spec, ok := pc.skus[sku]
	if !ok {
		return fmt.Errorf("sku %s was not seeded", sku)
	}
	dueDate, err := time.Parse("2006-01-02", due)
	if err != nil {
		return fmt.Errorf("bad due date %q: %w", due, err)
	}

	line := &persistence.OrderLineModel{
		SoNum:         soNum,
		Plant:         "CL",
		Item:          sku,
		Sku:           sku,
		Qty:           qty,
		UnitLengthFt:  spec.lengthFt,
		TotalLengthFt: float64(qty) * spec.lengthFt,
		MaxStack:      spec.maxStack,
		City:          city,
		State:         state,
		Zip:           zip,
		DueDate:       &dueDate,
		CustName:      custName,
		Status:        "OPEN",
	}
	if err := helpers.SharedTestDB.Create(line).Error; err != nil {
		return fmt.Errorf("failed to seed order line: %w", err)
	}

	header := &persistence.OrderModel{
		SoNum:    soNum,
		Plant:    "CL",
		CustName: custName,
		City:     city,
		State:    state,
		Zip:      zip,
		DueDate:  &dueDate,
	}
	if err := helpers.SharedTestDB.Create(header).Error; err != nil {
		return fmt.Errorf("failed to seed order header: %w", err)
	}
	return nil
}

// tableCell resolves a cell by header name so feature tables can list
// columns in any order.
func tableCell(table *godog.Table, row *messages.PickleTableRow, column string) string {
	for i, header := range table.Rows[0].Cells {
		if header.Value == column {
			return row.Cells[i].Value
		}
	}
	return ""
}

func (pc *planningContext) theFollowingOpenOrders(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("expected a header row and at least one order")
	}
	for _, row := range table.Rows[1:] {
		qty, err := strconv.Atoi(tableCell(table, row, "qty"))
		if err != nil {
			return fmt.Errorf("bad qty in order table: %w", err)
		}
		err = pc.anOpenOrder(
			tableCell(table, row, "so_num"),
			tableCell(table, row, "customer"),
			qty,
			tableCell(table, row, "sku"),
			tableCell(table, row, "city"),
			tableCell(table, row, "state"),
			tableCell(table, row, "zip"),
			tableCell(table, row, "due"),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (pc *planningContext) aStrategicCustomerThatCannotMix(label, pattern string) error {
	model := &persistence.StrategicCustomerModel{
		CustKey:  strings.ToLower(label),
		Label:    label,
		Patterns: pattern,
		NoMix:    true,
	}
	if err := helpers.SharedTestDB.Create(model).Error; err != nil {
		return fmt.Errorf("failed to seed strategic customer: %w", err)
	}
	return nil
}

// When steps

func (pc *planningContext) runOptimizer(plant string, states []string) error {
	params := domainPlanning.DefaultPlanParams(plant)
	params.StateFilters = states

	resp, err := pc.mediator.Send(context.Background(), &appPlanning.BuildLoadsCommand{Params: params})
	if err != nil {
		return err
	}
	result, ok := resp.(*appPlanning.BuildLoadsResult)
	if !ok {
		return fmt.Errorf("unexpected response type %T", resp)
	}
	pc.lastPlant = plant
	pc.result = result
	return nil
}

func (pc *planningContext) theOptimizerRunsForPlant(plant string) error {
	return pc.runOptimizer(plant, nil)
}

func (pc *planningContext) theOptimizerRunsLimitedToStates(plant, states string) error {
	return pc.runOptimizer(plant, splitSoNums(states))
}

func (pc *planningContext) theLoadCarryingIsPromotedAndApproved(soNum string) error {
	var line persistence.LoadLineModel
	if err := helpers.SharedTestDB.Where("so_num = ?", soNum).First(&line).Error; err != nil {
		return fmt.Errorf("no stored load line for order %s: %w", soNum, err)
	}
	if _, err := pc.mediator.Send(context.Background(), &appPlanning.PromoteLoadCommand{LoadID: line.LoadID}); err != nil {
		return err
	}
	if _, err := pc.mediator.Send(context.Background(), &appPlanning.ApproveLoadCommand{LoadID: line.LoadID}); err != nil {
		return err
	}
	return nil
}

func (pc *planningContext) aManualLoadIsBuilt(plant, soNums string) error {
	resp, err := pc.mediator.Send(context.Background(), &appPlanning.BuildManualLoadCommand{
		OriginPlant: plant,
		SoNums:      splitSoNums(soNums),
	})
	if err != nil {
		return err
	}
	result, ok := resp.(*appPlanning.BuildManualLoadResult)
	if !ok {
		return fmt.Errorf("unexpected response type %T", resp)
	}
	pc.lastPlant = plant
	pc.manual = result
	return nil
}

// Then steps

func (pc *planningContext) loadsShouldBePlanned(count int) error {
	if pc.result == nil {
		return fmt.Errorf("no planning run recorded")
	}
	if len(pc.result.Errors) > 0 {
		return fmt.Errorf("planning run rejected: %v", pc.result.Errors)
	}
	if len(pc.result.Loads) != count {
		return fmt.Errorf("expected %d loads, got %d", count, len(pc.result.Loads))
	}
	return nil
}

func (pc *planningContext) noLoadsShouldBePlanned() error {
	return pc.loadsShouldBePlanned(0)
}

func (pc *planningContext) loadShouldCarryOrders(index int, csv string) error {
	if pc.result == nil || index < 1 || index > len(pc.result.Loads) {
		return fmt.Errorf("no load %d in the plan", index)
	}
	load := pc.result.Loads[index-1]
	carried := make(map[string]bool, len(load.Groups))
	for _, g := range load.Groups {
		carried[g.SoNum] = true
	}
	wanted := splitSoNums(csv)
	if len(carried) != len(wanted) {
		return fmt.Errorf("expected %d orders on load %d, got %d", len(wanted), index, len(carried))
	}
	for _, so := range wanted {
		if !carried[so] {
			return fmt.Errorf("load %d does not carry order %s", index, so)
		}
	}
	return nil
}

func (pc *planningContext) loadShouldHaveStopsAndUtilization(index, stops int, util float64) error {
	if pc.result == nil || index < 1 || index > len(pc.result.Loads) {
		return fmt.Errorf("no load %d in the plan", index)
	}
	load := pc.result.Loads[index-1]
	if len(load.Stops) != stops {
		return fmt.Errorf("expected %d stops, got %d", stops, len(load.Stops))
	}
	if diff := load.UtilizationPct - util; diff > 0.01 || diff < -0.01 {
		return fmt.Errorf("expected %.2f%% utilization, got %.2f%%", util, load.UtilizationPct)
	}
	return nil
}

func (pc *planningContext) thePlanShouldBeStoredAsProposed() error {
	if pc.result == nil {
		return fmt.Errorf("no planning run recorded")
	}
	if !pc.result.Persisted {
		return fmt.Errorf("planning run did not persist")
	}
	status := domainPlanning.StatusProposed
	stored, err := pc.repos.LoadRepo.ListLoads(context.Background(), pc.lastPlant, &status)
	if err != nil {
		return err
	}
	if len(stored) != len(pc.result.Loads) {
		return fmt.Errorf("expected %d stored PROPOSED loads, got %d", len(pc.result.Loads), len(stored))
	}
	return nil
}

func (pc *planningContext) ordersShouldRideSeparateLoads(first, second string) error {
	if pc.result == nil {
		return fmt.Errorf("no planning run recorded")
	}
	loadOf := func(soNum string) int {
		for i, load := range pc.result.Loads {
			for _, g := range load.Groups {
				if g.SoNum == soNum {
					return i
				}
			}
		}
		return -1
	}
	a, b := loadOf(first), loadOf(second)
	if a < 0 || b < 0 {
		return fmt.Errorf("orders %s and %s are not both planned (%d, %d)", first, second, a, b)
	}
	if a == b {
		return fmt.Errorf("orders %s and %s share load %d", first, second, a+1)
	}
	return nil
}

func (pc *planningContext) theEmptyReasonShouldBe(reason string) error {
	if pc.result == nil || pc.result.Eligibility == nil {
		return fmt.Errorf("no eligibility report recorded")
	}
	if pc.result.Eligibility.EmptyReason != reason {
		return fmt.Errorf("expected empty reason %q, got %q", reason, pc.result.Eligibility.EmptyReason)
	}
	return nil
}

func (pc *planningContext) nothingShouldBePersisted() error {
	if pc.result == nil {
		return fmt.Errorf("no planning run recorded")
	}
	if pc.result.Persisted {
		return fmt.Errorf("planning run persisted unexpectedly")
	}
	stored, err := pc.repos.LoadRepo.ListLoads(context.Background(), pc.lastPlant, nil)
	if err != nil {
		return err
	}
	if len(stored) != 0 {
		return fmt.Errorf("expected an empty plan, found %d stored loads", len(stored))
	}
	return nil
}

func (pc *planningContext) plantShouldHaveApprovedAndProposedLoads(plant string, approved, proposed int) error {
	approvedStatus := domainPlanning.StatusApproved
	proposedStatus := domainPlanning.StatusProposed

	approvedLoads, err := pc.repos.LoadRepo.ListLoads(context.Background(), plant, &approvedStatus)
	if err != nil {
		return err
	}
	proposedLoads, err := pc.repos.LoadRepo.ListLoads(context.Background(), plant, &proposedStatus)
	if err != nil {
		return err
	}
	if len(approvedLoads) != approved || len(proposedLoads) != proposed {
		return fmt.Errorf("expected %d APPROVED and %d PROPOSED, got %d and %d",
			approved, proposed, len(approvedLoads), len(proposedLoads))
	}
	return nil
}

func (pc *planningContext) theApprovedLoadNumberShouldStillBe(number string) error {
	status := domainPlanning.StatusApproved
	stored, err := pc.repos.LoadRepo.ListLoads(context.Background(), pc.lastPlant, &status)
	if err != nil {
		return err
	}
	if len(stored) != 1 {
		return fmt.Errorf("expected exactly one approved load, got %d", len(stored))
	}
	if stored[0].LoadNumber != number {
		return fmt.Errorf("expected load number %s, got %s", number, stored[0].LoadNumber)
	}
	return nil
}

func (pc *planningContext) theManualLoadShouldCarryOrders(csv string) error {
	if pc.manual == nil || pc.manual.Load == nil {
		return fmt.Errorf("no manual load built")
	}
	carried := make(map[string]bool, len(pc.manual.Load.Groups))
	for _, g := range pc.manual.Load.Groups {
		carried[g.SoNum] = true
	}
	wanted := splitSoNums(csv)
	if len(carried) != len(wanted) {
		return fmt.Errorf("expected %d orders on the manual load, got %d", len(wanted), len(carried))
	}
	for _, so := range wanted {
		if !carried[so] {
			return fmt.Errorf("manual load does not carry order %s", so)
		}
	}
	return nil
}

func (pc *planningContext) theManualLoadShouldBeADraftNumbered(number string) error {
	if pc.manual == nil || pc.manual.Load == nil {
		return fmt.Errorf("no manual load built")
	}
	if pc.manual.Load.Status != domainPlanning.StatusDraft {
		return fmt.Errorf("expected DRAFT status, got %s", pc.manual.Load.Status)
	}
	if pc.manual.LoadNumber != number {
		return fmt.Errorf("expected load number %s, got %s", number, pc.manual.LoadNumber)
	}
	if pc.manual.Load.BuildSource != domainPlanning.SourceManual {
		return fmt.Errorf("expected MANUAL build source, got %s", pc.manual.Load.BuildSource)
	}
	return nil
}

func (pc *planningContext) theManualBuildShouldBeRejectedWith(message string) error {
	if pc.manual == nil {
		return fmt.Errorf("no manual build recorded")
	}
	if len(pc.manual.Errors) == 0 {
		return fmt.Errorf("expected the manual build to be rejected, got load %d", pc.manual.LoadID)
	}
	for _, problem := range pc.manual.Errors {
		if strings.Contains(problem, message) {
			return nil
		}
	}
	return fmt.Errorf("no rejection mentioning %q in %v", message, pc.manual.Errors)
}

func InitializePlanningScenario(ctx *godog.ScenarioContext) {
	pc := &planningContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		return ctx, pc.reset()
	})

	// Given steps
	ctx.Step(`^plant "([^"]*)" at (-?[0-9.]+), (-?[0-9.]+)$`, pc.plantAt)
	ctx.Step(`^zip "(\d+)" is at (-?[0-9.]+), (-?[0-9.]+)$`, pc.zipIsAt)
	ctx.Step(`^sku "([^"]*)" is ([0-9.]+) ft in category "([^"]*)" stacking (\d+) high$`, pc.skuIs)
	ctx.Step(`^an open order "([^"]*)" for "([^"]*)" shipping (\d+) "([^"]*)" to "([^"]*)" "([A-Z]{2})" zip "(\d+)" due "(\d{4}-\d{2}-\d{2})"$`, pc.anOpenOrder)
	ctx.Step(`^the following open orders:$`, pc.theFollowingOpenOrders)
	ctx.Step(`^a strategic customer "([^"]*)" matching "([^"]*)" that cannot mix$`, pc.aStrategicCustomerThatCannotMix)

	// When steps
	ctx.Step(`^the optimizer runs for plant "([^"]*)"$`, pc.theOptimizerRunsForPlant)
	ctx.Step(`^the optimizer runs for plant "([^"]*)" limited to states "([^"]*)"$`, pc.theOptimizerRunsLimitedToStates)
	ctx.Step(`^the load carrying "([^"]*)" is promoted and approved$`, pc.theLoadCarryingIsPromotedAndApproved)
	ctx.Step(`^a manual load is built for plant "([^"]*)" with orders "([^"]*)"$`, pc.aManualLoadIsBuilt)

	// Then steps
	ctx.Step(`^(\d+) loads? should be planned$`, pc.loadsShouldBePlanned)
	ctx.Step(`^no loads should be planned$`, pc.noLoadsShouldBePlanned)
	ctx.Step(`^load (\d+) should carry orders "([^"]*)"$`, pc.loadShouldCarryOrders)
	ctx.Step(`^load (\d+) should have (\d+) stops? and utilization ([0-9.]+) percent$`, pc.loadShouldHaveStopsAndUtilization)
	ctx.Step(`^the plan should be stored as PROPOSED$`, pc.thePlanShouldBeStoredAsProposed)
	ctx.Step(`^orders "([^"]*)" and "([^"]*)" should ride separate loads$`, pc.ordersShouldRideSeparateLoads)
	ctx.Step(`^the empty reason should be "([^"]*)"$`, pc.theEmptyReasonShouldBe)
	ctx.Step(`^nothing should be persisted$`, pc.nothingShouldBePersisted)
	ctx.Step(`^plant "([^"]*)" should have (\d+) APPROVED loads? and (\d+) PROPOSED loads?$`, pc.plantShouldHaveApprovedAndProposedLoads)
	ctx.Step(`^the approved load number should still be "([^"]*)"$`, pc.theApprovedLoadNumberShouldStillBe)
	ctx.Step(`^the manual load should carry orders "([^"]*)"$`, pc.theManualLoadShouldCarryOrders)
	ctx.Step(`^the manual load should be a DRAFT numbered "([^"]*)"$`, pc.theManualLoadShouldBeADraftNumbered)
	ctx.Step(`^the manual build should be rejected with "([^"]*)"$`, pc.theManualBuildShouldBeRejectedWith)
}
