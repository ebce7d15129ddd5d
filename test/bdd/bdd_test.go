package bdd

import (
	"os"
	"testing"

	"github.com/cucumber/godog"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/bdd/steps"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/test/helpers"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/domain", "features/application"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	// Domain layer scenarios
	steps.InitializeStackingScenario(sc)
	steps.InitializeRoutingFallbackScenario(sc)

	// Application layer scenarios against the shared database
	steps.InitializePlanningScenario(sc)
	steps.InitializeLifecycleScenario(sc)
}

func TestMain(m *testing.M) {
	// One shared database for every integration scenario; each scenario
	// truncates in its Before hook instead of migrating a fresh schema
	if err := helpers.InitializeSharedTestDB(); err != nil {
		panic("Failed to initialize shared test database: " + err.Error())
	}
	defer helpers.CloseSharedTestDB()

	os.Exit(m.Run())
}
