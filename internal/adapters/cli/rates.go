package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
)

// NewRatesCommand creates the rates command with subcommands
func NewRatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "View the freight rate matrix",
		Long: `View the per-mile linehaul rates by origin plant and destination state.

Lanes without a rate row fall back to the configured default rate. The fuel
surcharge applies on top of every lane.

Examples:
  loadplan rates list
  loadplan rates list --plant CL`,
	}

	cmd.AddCommand(newRatesListCommand())

	return cmd
}

// newRatesListCommand creates the rates list subcommand
func newRatesListCommand() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rate matrix rows",
		Long: `List the rate matrix, optionally narrowed to one plant or state.

The --plant global flag filters by origin; --state filters by destination.

Examples:
  loadplan rates list
  loadplan rates list --plant CL --state OH`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRatesList(state)
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by destination state")

	return cmd
}

// runRatesList executes the rates list command
func runRatesList(state string) error {
	app, err := newPlannerApp()
	if err != nil {
		return err
	}
	defer app.close()

	entries, err := app.rateRepo.ListRates(app.context())
	if err != nil {
		return fmt.Errorf("failed to load rate matrix: %w", err)
	}

	plantFilter := strings.ToUpper(strings.TrimSpace(plantCode))
	stateFilter := strings.ToUpper(strings.TrimSpace(state))
	filtered := make([]rating.RateEntry, 0, len(entries))
	for _, e := range entries {
		if plantFilter != "" && e.OriginPlant != plantFilter {
			continue
		}
		if stateFilter != "" && e.DestinationState != stateFilter {
			continue
		}
		filtered = append(filtered, e)
	}

	displayRateList(filtered, app.cfg.Costing.DefaultRatePerMile, app.cfg.Costing.FuelSurchargePerMile)
	return nil
}

// displayRateList formats and displays rate matrix rows
func displayRateList(entries []rating.RateEntry, defaultRate, fuelSurcharge float64) {
	if len(entries) == 0 {
		fmt.Println("No rate rows found")
		fmt.Printf("Unrated lanes use the default %.2f $/mile plus %.2f fuel surcharge.\n",
			defaultRate, fuelSurcharge)
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].OriginPlant != entries[j].OriginPlant {
			return entries[i].OriginPlant < entries[j].OriginPlant
		}
		if entries[i].DestinationState != entries[j].DestinationState {
			return entries[i].DestinationState < entries[j].DestinationState
		}
		return entries[i].EffectiveYear < entries[j].EffectiveYear
	})

	fmt.Printf("\nRATE MATRIX (%d rows)\n", len(entries))
	fmt.Println("─────────────────────────────────────────────")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Plant\tState\tYear\t$/Mile")
	fmt.Fprintln(w, "─────\t─────\t────\t──────")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n",
			e.OriginPlant, e.DestinationState, e.EffectiveYear, e.RatePerMile)
	}
	w.Flush()

	fmt.Println("─────────────────────────────────────────────")
	fmt.Printf("Default rate: %.2f $/mile   Fuel surcharge: %.2f $/mile\n",
		defaultRate, fuelSurcharge)
}
