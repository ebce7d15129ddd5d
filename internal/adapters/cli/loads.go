package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appPlanning "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
)

// NewLoadsCommand creates the loads command with subcommands
func NewLoadsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loads",
		Short: "View and manage planned loads",
		Long: `View the stored plan and move loads through their lifecycle.

Loads start as PROPOSED when the optimizer writes a plan. Promoting a load
assigns its load number and marks it DRAFT; approving finalizes the number
and locks the load. Approved loads cannot be deleted and survive re-planning.

Examples:
  loadplan loads list --plant CL
  loadplan loads list --plant CL --status PROPOSED
  loadplan loads summary --plant CL
  loadplan loads promote --id 12
  loadplan loads approve --id 12
  loadplan loads delete --id 12`,
	}

	cmd.AddCommand(newLoadsListCommand())
	cmd.AddCommand(newLoadsSummaryCommand())
	cmd.AddCommand(newLoadsPromoteCommand())
	cmd.AddCommand(newLoadsApproveCommand())
	cmd.AddCommand(newLoadsDeleteCommand())

	return cmd
}

// newLoadsListCommand creates the loads list subcommand
func newLoadsListCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List planned loads for a plant",
		Long: `List the stored loads for a plant, optionally narrowed to one status.

Examples:
  loadplan loads list --plant CL
  loadplan loads list --plant CL --status DRAFT`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadsList(status)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PROPOSED, DRAFT, APPROVED)")

	return cmd
}

// newLoadsSummaryCommand creates the loads summary subcommand
func newLoadsSummaryCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show plan totals for a plant",
		Long: `Aggregate the stored plan: load counts by status and grade, total
orders, stops, miles, and estimated cost.

Example:
  loadplan loads summary --plant CL`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadsSummary(status)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Restrict the rollup to one status")

	return cmd
}

// newLoadsPromoteCommand creates the loads promote subcommand
func newLoadsPromoteCommand() *cobra.Command {
	var loadID uint

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote a PROPOSED load to DRAFT",
		Long: `Promote a PROPOSED load to DRAFT, assigning its load number from the
plant-year sequence. Draft numbers carry a -D suffix until approval.

Example:
  loadplan loads promote --id 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadsPromote(loadID)
		},
	}

	cmd.Flags().UintVar(&loadID, "id", 0, "Load ID [required]")
	cmd.MarkFlagRequired("id")

	return cmd
}

// newLoadsApproveCommand creates the loads approve subcommand
func newLoadsApproveCommand() *cobra.Command {
	var loadID uint

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve a DRAFT load",
		Long: `Approve a DRAFT load. The -D suffix drops from the load number and the
load is locked: it survives re-planning and cannot be deleted.

Example:
  loadplan loads approve --id 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadsApprove(loadID)
		},
	}

	cmd.Flags().UintVar(&loadID, "id", 0, "Load ID [required]")
	cmd.MarkFlagRequired("id")

	return cmd
}

// newLoadsDeleteCommand creates the loads delete subcommand
func newLoadsDeleteCommand() *cobra.Command {
	var loadID uint

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a planned load",
		Long: `Delete a PROPOSED or DRAFT load and its lines. Approved loads are
protected and cannot be deleted.

Example:
  loadplan loads delete --id 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadsDelete(loadID)
		},
	}

	cmd.Flags().UintVar(&loadID, "id", 0, "Load ID [required]")
	cmd.MarkFlagRequired("id")

	return cmd
}

// parseStatusFilter validates and converts the status flag; empty means all
func parseStatusFilter(status string) (*planning.LoadStatus, error) {
	if status == "" {
		return nil, nil
	}
	s := planning.LoadStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch s {
	case planning.StatusProposed, planning.StatusDraft, planning.StatusApproved:
		return &s, nil
	}
	return nil, fmt.Errorf("invalid status %q (PROPOSED, DRAFT, APPROVED)", status)
}

// runLoadsList executes the loads list command
func runLoadsList(status string) error {
	plant, err := resolvePlant()
	if err != nil {
		return err
	}
	statusFilter, err := parseStatusFilter(status)
	if err != nil {
		return err
	}

	app, err := newPlannerApp()
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.mediator.Send(app.context(), &appPlanning.ListLoadsQuery{
		Plant:  plant,
		Status: statusFilter,
	})
	if err != nil {
		return fmt.Errorf("failed to list loads: %w", err)
	}

	response := result.(*appPlanning.ListLoadsResponse)
	displayLoadList(plant, response.Loads)
	return nil
}

// runLoadsSummary executes the loads summary command
func runLoadsSummary(status string) error {
	plant, err := resolvePlant()
	if err != nil {
		return err
	}
	statusFilter, err := parseStatusFilter(status)
	if err != nil {
		return err
	}

	app, err := newPlannerApp()
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.mediator.Send(app.context(), &appPlanning.GetPlanSummaryQuery{
		Plant:  plant,
		Status: statusFilter,
	})
	if err != nil {
		return fmt.Errorf("failed to summarize plan: %w", err)
	}

	displayPlanSummary(result.(*appPlanning.PlanSummaryResponse))
	return nil
}

// runLoadsPromote executes the loads promote command
func runLoadsPromote(loadID uint) error {
	app, err := newPlannerApp()
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.mediator.Send(app.context(), &appPlanning.PromoteLoadCommand{LoadID: loadID})
	if err != nil {
		return err
	}

	load := result.(*appPlanning.PromoteLoadResult).Load
	fmt.Println("✓ Load promoted to DRAFT")
	fmt.Printf("  Load ID:      %d\n", load.ID)
	fmt.Printf("  Load Number:  %s\n", load.LoadNumber)
	return nil
}

// runLoadsApprove executes the loads approve command
func runLoadsApprove(loadID uint) error {
	app, err := newPlannerApp()
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.mediator.Send(app.context(), &appPlanning.ApproveLoadCommand{LoadID: loadID})
	if err != nil {
		return err
	}

	load := result.(*appPlanning.ApproveLoadResult).Load
	fmt.Println("✓ Load approved")
	fmt.Printf("  Load ID:      %d\n", load.ID)
	fmt.Printf("  Load Number:  %s\n", load.LoadNumber)
	return nil
}

// runLoadsDelete executes the loads delete command
func runLoadsDelete(loadID uint) error {
	app, err := newPlannerApp()
	if err != nil {
		return err
	}
	defer app.close()

	if _, err := app.mediator.Send(app.context(), &appPlanning.DeleteLoadCommand{LoadID: loadID}); err != nil {
		return err
	}

	fmt.Printf("✓ Load %d deleted\n", loadID)
	return nil
}

// displayLoadList formats and displays stored loads
func displayLoadList(plant string, loads []planning.StoredLoad) {
	if len(loads) == 0 {
		fmt.Printf("No loads stored for %s\n", plant)
		return
	}

	fmt.Printf("\nLOADS (%s, %d total)\n", plant, len(loads))
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNumber\tStatus\tSource\tDest\tTrailer\tOrders\tStops\tUtil\tMiles\tCost\tGrade")
	fmt.Fprintln(w, "──\t──────\t──────\t──────\t────\t───────\t──────\t─────\t────\t─────\t────\t─────")

	for _, l := range loads {
		number := l.LoadNumber
		if number == "" {
			number = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%.1f\t%s\t%s\n",
			l.ID,
			number,
			l.Status,
			l.BuildSource,
			l.DestinationState,
			l.TrailerType,
			l.OrderCount,
			l.StopCount,
			formatPct(l.UtilizationPct),
			l.EstimatedMiles,
			formatMoney(l.EstimatedCost),
			l.Grade,
		)
	}

	w.Flush()
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
}

// displayPlanSummary formats and displays the plan rollup
func displayPlanSummary(summary *appPlanning.PlanSummaryResponse) {
	fmt.Printf("\nPLAN SUMMARY (%s)\n", summary.Plant)
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
	fmt.Printf("  Loads:            %d\n", summary.TotalLoads)
	fmt.Printf("  Orders:           %d\n", summary.TotalOrders)
	fmt.Printf("  Stops:            %d\n", summary.TotalStops)
	fmt.Printf("  Avg Utilization:  %s\n", formatPct(summary.AvgUtilization))
	fmt.Printf("  Total Miles:      %.1f\n", summary.TotalMiles)
	fmt.Printf("  Estimated Cost:   %s\n", formatMoney(summary.EstimatedCost))

	if len(summary.StatusCounts) > 0 {
		fmt.Println("\n  By status:")
		for _, status := range []planning.LoadStatus{planning.StatusProposed, planning.StatusDraft, planning.StatusApproved} {
			if count, ok := summary.StatusCounts[status]; ok {
				fmt.Printf("    %-10s %d\n", status, count)
			}
		}
	}

	if len(summary.GradeCounts) > 0 {
		grades := make([]string, 0, len(summary.GradeCounts))
		for grade := range summary.GradeCounts {
			grades = append(grades, grade)
		}
		sort.Strings(grades)
		fmt.Println("\n  By grade:")
		for _, grade := range grades {
			fmt.Printf("    %-10s %d\n", grade, summary.GradeCounts[grade])
		}
	}
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")
}
