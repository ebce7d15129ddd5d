package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	appPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/stacking"
)

// NewPlanCommand creates the plan command with subcommands
func NewPlanCommand() *cobra.Command {
	var (
		trailer        string
		capacity       float64
		algorithm      string
		statesCsv      string
		customersCsv   string
		soNumsCsv      string
		startDate      string
		endDate        string
		windowDays     int
		noTimeWindow   bool
		detourPct      float64
		geoRadius      float64
		objective      string
		geometry       bool
		returnToOrigin bool
		sessionID      string
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run an optimization pass over open orders",
		Long: `Build a load plan for a plant's open sales orders.

The optimizer groups order lines by sales order, stacks them onto trailers,
and merges compatible loads to cut cost. The resulting plan replaces the
plant's current PROPOSED loads; DRAFT and APPROVED loads are left alone.

Examples:
  loadplan plan --plant CL
  loadplan plan --plant CL --states OH,PA,NY
  loadplan plan --plant CL --trailer FLATBED --algorithm baseline
  loadplan plan --plant CL --start-date 2026-01-05 --end-date 2026-01-16
  loadplan plan --plant CL --so-nums SO1001,SO1002 --dry-run
  loadplan plan --plant CL --geometry --objective time`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(planFlags{
				trailer:        trailer,
				capacity:       capacity,
				algorithm:      algorithm,
				states:         parseCsvList(statesCsv),
				customers:      parseCsvList(customersCsv),
				soNums:         parseCsvList(soNumsCsv),
				startDate:      startDate,
				endDate:        endDate,
				windowDays:     windowDays,
				noTimeWindow:   noTimeWindow,
				detourPct:      detourPct,
				geoRadius:      geoRadius,
				objective:      objective,
				geometry:       geometry,
				returnToOrigin: returnToOrigin,
				sessionID:      sessionID,
				dryRun:         dryRun,
			})
		},
	}

	cmd.Flags().StringVar(&trailer, "trailer", "STEP_DECK", "Trailer type (STEP_DECK, FLATBED, WEDGE)")
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "Trailer capacity in feet (0 uses the trailer default)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "v2", "Planning algorithm (v2, baseline)")
	cmd.Flags().StringVar(&statesCsv, "states", "", "Only plan orders shipping to these states (CSV)")
	cmd.Flags().StringVar(&customersCsv, "customers", "", "Only plan orders for these customers (CSV)")
	cmd.Flags().StringVar(&soNumsCsv, "so-nums", "", "Only plan these sales orders (CSV)")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Skip order lines due before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Skip order lines due after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&windowDays, "window-days", 5, "Max due-date spread within one load")
	cmd.Flags().BoolVar(&noTimeWindow, "no-time-window", false, "Disable the due-date window constraint")
	cmd.Flags().Float64Var(&detourPct, "detour-pct", 40, "Max detour over direct miles when merging")
	cmd.Flags().Float64Var(&geoRadius, "geo-radius", 150, "Max miles between stops considered for merging")
	cmd.Flags().StringVar(&objective, "objective", "distance", "Routing objective (distance, time)")
	cmd.Flags().BoolVar(&geometry, "geometry", false, "Fetch road geometry for planned routes")
	cmd.Flags().BoolVar(&returnToOrigin, "return-to-origin", false, "Price the empty return leg back to the plant")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (generated when empty)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan without persisting")

	cmd.AddCommand(newPlanManualCommand())

	return cmd
}

// planFlags carries the parsed plan command flags
type planFlags struct {
	trailer        string
	capacity       float64
	algorithm      string
	states         []string
	customers      []string
	soNums         []string
	startDate      string
	endDate        string
	windowDays     int
	noTimeWindow   bool
	detourPct      float64
	geoRadius      float64
	objective      string
	geometry       bool
	returnToOrigin bool
	sessionID      string
	dryRun         bool
}

// newPlanManualCommand creates the plan manual subcommand
func newPlanManualCommand() *cobra.Command {
	var (
		soNumsCsv string
		trailer   string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Build one load from hand-picked sales orders",
		Long: `Build a single load from operator-selected sales orders.

Manual loads bypass the optimizer: the selected orders go onto one trailer,
the stops are sequenced, and the load is saved as DRAFT with a load number
already assigned. Strategic-customer opt-outs are honored for automatic
planning only; a manual selection always loads.

Examples:
  loadplan plan manual --plant CL --so-nums SO1001,SO1002
  loadplan plan manual --plant CL --so-nums SO1003 --trailer FLATBED`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanManual(parseCsvList(soNumsCsv), trailer, sessionID)
		},
	}

	cmd.Flags().StringVar(&soNumsCsv, "so-nums", "", "Sales orders to load (CSV) [required]")
	cmd.Flags().StringVar(&trailer, "trailer", "", "Trailer type (STEP_DECK, FLATBED, WEDGE)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (generated when empty)")
	cmd.MarkFlagRequired("so-nums")

	return cmd
}

// runPlan executes the plan command
func runPlan(flags planFlags) error {
	plant, err := resolvePlant()
	if err != nil {
		return err
	}

	params := planning.DefaultPlanParams(plant)
	params.TrailerType = stacking.TrailerType(strings.ToUpper(strings.TrimSpace(flags.trailer)))
	if flags.capacity > 0 {
		params.CapacityFeet = flags.capacity
	} else {
		params.CapacityFeet = stacking.ConfigFor(params.TrailerType).CapacityFeet
	}
	params.AlgorithmVersion = flags.algorithm
	params.StateFilters = upperAll(flags.states)
	params.CustomerFilters = flags.customers
	params.SelectedSoNums = flags.soNums
	params.TimeWindowDays = flags.windowDays
	params.EnforceTimeWindow = !flags.noTimeWindow
	params.MaxDetourPct = flags.detourPct
	params.GeoRadiusMiles = flags.geoRadius
	params.Objective = routing.Objective(flags.objective)
	params.IncludeGeometry = flags.geometry
	params.ReturnToOrigin = flags.returnToOrigin
	params.SessionID = flags.sessionID
	params.DryRun = flags.dryRun

	if flags.startDate != "" {
		parsed, err := time.Parse("2006-01-02", flags.startDate)
		if err != nil {
			return fmt.Errorf("invalid start date format: %w", err)
		}
		params.OrdersStartDate = &parsed
	}
	if flags.endDate != "" {
		parsed, err := time.Parse("2006-01-02", flags.endDate)
		if err != nil {
			return fmt.Errorf("invalid end date format: %w", err)
		}
		// Set to end of day
		endOfDay := parsed.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		params.BatchEndDate = &endOfDay
	}

	app, err := newPlannerApp()
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.mediator.Send(app.context(), &appPlanning.BuildLoadsCommand{Params: params})
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	response := result.(*appPlanning.BuildLoadsResult)
	if len(response.Errors) > 0 {
		displayFieldErrors(response.Errors)
		return fmt.Errorf("invalid plan parameters")
	}

	displayPlanResult(response)
	return nil
}

// runPlanManual executes the plan manual command
func runPlanManual(soNums []string, trailer, sessionID string) error {
	plant, err := resolvePlant()
	if err != nil {
		return err
	}

	app, err := newPlannerApp()
	if err != nil {
		return err
	}
	defer app.close()

	command := &appPlanning.BuildManualLoadCommand{
		OriginPlant: plant,
		SoNums:      soNums,
		SessionID:   sessionID,
	}
	if trailer != "" {
		command.TrailerType = stacking.TrailerType(strings.ToUpper(strings.TrimSpace(trailer)))
	}

	result, err := app.mediator.Send(app.context(), command)
	if err != nil {
		return fmt.Errorf("manual load failed: %w", err)
	}

	response := result.(*appPlanning.BuildManualLoadResult)
	if len(response.Errors) > 0 {
		displayFieldErrors(response.Errors)
		return fmt.Errorf("invalid manual load selection")
	}

	load := response.Load
	fmt.Println("✓ Manual load created")
	fmt.Printf("  Load Number:  %s\n", response.LoadNumber)
	fmt.Printf("  Load ID:      %d\n", response.LoadID)
	fmt.Printf("  Destination:  %s\n", load.DestinationState)
	fmt.Printf("  Orders:       %d\n", len(load.Groups))
	fmt.Printf("  Stops:        %d\n", len(load.Stops))
	fmt.Printf("  Utilization:  %s\n", formatPct(load.UtilizationPct))
	fmt.Printf("  Miles:        %.1f\n", load.EstimatedMiles)
	fmt.Printf("  Cost:         %s\n", formatMoney(load.EstimatedCost))
	if load.ExceedsCapacity {
		fmt.Println("\nWarning: single-order load exceeds trailer capacity; ship as-is or split upstream.")
	}

	return nil
}

// displayFieldErrors prints parameter problems keyed by field path
func displayFieldErrors(problems map[string]string) {
	fmt.Println("Plan rejected:")
	for field, message := range problems {
		fmt.Printf("  %-22s %s\n", field, message)
	}
}

// displayPlanResult formats and displays a full planning run outcome
func displayPlanResult(result *appPlanning.BuildLoadsResult) {
	if len(result.Loads) == 0 {
		fmt.Printf("\nNo loads planned for %s\n", result.Plant)
		if result.Eligibility != nil {
			displayEligibility(result.Eligibility)
		}
		return
	}

	fmt.Printf("\nPLAN %s (%s, algorithm %s)\n", result.SessionID, result.Plant, result.Algorithm)
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDest\tTrailer\tOrders\tStops\tUtil\tGrade\tMiles\tCost")
	fmt.Fprintln(w, "──\t────\t───────\t──────\t─────\t────\t─────\t─────\t────")
	for _, l := range result.Loads {
		grade := "-"
		if l.Stack != nil {
			grade = l.Stack.Grade
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\t%.1f\t%s\n",
			l.ID,
			l.DestinationState,
			l.TrailerType,
			len(l.Groups),
			len(l.Stops),
			formatPct(l.UtilizationPct),
			grade,
			l.EstimatedMiles,
			formatMoney(l.EstimatedCost),
		)
	}
	w.Flush()

	s := result.Summary
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
	fmt.Printf("Loads: %d   Orders: %d   Stops: %d   Avg Util: %s   Miles: %.1f   Cost: %s\n",
		s.TotalLoads, s.TotalOrders, s.TotalStops, formatPct(s.AvgUtilization),
		s.TotalMiles, formatMoney(s.EstimatedCost))
	if s.TotalSavings > 0 {
		fmt.Printf("Consolidation savings: %s\n", formatMoney(s.TotalSavings))
	}

	if result.Comparison != nil {
		c := result.Comparison
		fmt.Println("\nVS BASELINE (one load per order)")
		fmt.Printf("  Loads:  %d -> %d (%+d)\n", c.Baseline.TotalLoads, c.Optimized.TotalLoads, c.LoadDelta)
		fmt.Printf("  Miles:  %.1f -> %.1f (%+.1f)\n", c.Baseline.TotalMiles, c.Optimized.TotalMiles, c.MileDelta)
		fmt.Printf("  Cost:   %s -> %s (%+.2f)\n",
			formatMoney(c.Baseline.EstimatedCost), formatMoney(c.Optimized.EstimatedCost), c.CostDelta)
	}

	fmt.Println()
	if result.Persisted {
		fmt.Println("✓ Plan stored as PROPOSED")
	} else {
		fmt.Println("Dry run - nothing persisted")
	}
	fmt.Printf("Elapsed: %s\n", result.Elapsed.Round(time.Millisecond))
}

// displayEligibility prints the filter funnel so the operator can see where
// orders dropped out
func displayEligibility(report *orders.EligibilityReport) {
	fmt.Printf("  Reason: %s\n", report.EmptyReason)
	fmt.Println("\n  Filter funnel:")
	fmt.Printf("    Open order groups:     %d\n", report.TotalGroups)
	fmt.Printf("    After order selection: %d\n", report.AfterSelection)
	fmt.Printf("    After state filters:   %d\n", report.AfterStates)
	fmt.Printf("    After customer filter: %d\n", report.AfterCustomers)
	fmt.Printf("    After batch window:    %d\n", report.AfterWindow)
	fmt.Printf("    Eligible:              %d\n", report.Eligible)
}

// upperAll uppercases every entry of a list
func upperAll(values []string) []string {
	result := make([]string, len(values))
	for i, v := range values {
		result[i] = strings.ToUpper(v)
	}
	return result
}

// parseCsvList parses a CSV string into a slice of trimmed strings
func parseCsvList(csv string) []string {
	parts := strings.Split(csv, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// formatMoney formats a dollar amount with thousands separators
func formatMoney(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	whole := int(amount)
	cents := int((amount-float64(whole))*100 + 0.5)
	if cents >= 100 {
		whole++
		cents -= 100
	}
	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s.%02d", sign, addThousandsSeparator(whole), cents)
}

// formatPct formats a utilization percentage
func formatPct(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// addThousandsSeparator adds commas to a number (e.g., 1234567 -> "1,234,567")
func addThousandsSeparator(n int) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	// Insert commas from right to left
	var result []byte
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}
