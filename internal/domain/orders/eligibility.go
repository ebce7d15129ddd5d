package orders

import (
	"strings"
	"time"
)

// EligibilityFilter narrows planning groups before optimization
type EligibilityFilter struct {
	States    []string
	Customers []string
	StartDate *time.Time
	EndDate   *time.Time

	// SelectedSoNums switches to manual selection; result order follows
	// this list instead of feed order
	SelectedSoNums []string

	// IncludeIgnored keeps groups whose strategic account opts out of
	// optimization (manual builds still plan them)
	IncludeIgnored bool
}

// EligibilityReport explains what each filter stage removed, so an empty
// plan can say why instead of silently producing nothing
type EligibilityReport struct {
	TotalGroups    int
	AfterSelection int
	AfterStates    int
	AfterCustomers int
	AfterWindow    int
	Eligible       int
	EmptyReason    string
}

// FilterEligible applies selection, state, customer, due-window, and
// opt-out filters in order and reports where groups dropped out
func FilterEligible(groups []*OrderGroup, f EligibilityFilter) ([]*OrderGroup, *EligibilityReport) {
	report := &EligibilityReport{TotalGroups: len(groups)}

	current := groups
	if len(f.SelectedSoNums) > 0 {
		bySo := make(map[string]*OrderGroup, len(current))
		for _, g := range current {
			bySo[g.SoNum] = g
		}
		picked := make([]*OrderGroup, 0, len(f.SelectedSoNums))
		for _, so := range f.SelectedSoNums {
			if g, ok := bySo[so]; ok {
				picked = append(picked, g)
			}
		}
		current = picked
	}
	report.AfterSelection = len(current)

	if len(f.States) > 0 {
		wanted := map[string]bool{}
		for _, s := range f.States {
			wanted[strings.ToUpper(strings.TrimSpace(s))] = true
		}
		current = keep(current, func(g *OrderGroup) bool { return wanted[g.State] })
	}
	report.AfterStates = len(current)

	if len(f.Customers) > 0 {
		wanted := map[string]bool{}
		for _, c := range f.Customers {
			wanted[NormalizeCustomerName(c)] = true
		}
		current = keep(current, func(g *OrderGroup) bool {
			return wanted[NormalizeCustomerName(g.CustName)]
		})
	}
	report.AfterCustomers = len(current)

	if f.StartDate != nil || f.EndDate != nil {
		current = keep(current, func(g *OrderGroup) bool {
			if !g.HasDueDate {
				return true
			}
			if f.StartDate != nil && g.DueDate.Before(*f.StartDate) {
				return false
			}
			if f.EndDate != nil && g.DueDate.After(*f.EndDate) {
				return false
			}
			return true
		})
	}
	report.AfterWindow = len(current)

	if !f.IncludeIgnored {
		current = keep(current, func(g *OrderGroup) bool { return !g.IgnoreForOptimization })
	}
	report.Eligible = len(current)

	if report.Eligible == 0 {
		report.EmptyReason = emptyReason(report)
	}
	return current, report
}

func keep(groups []*OrderGroup, pred func(*OrderGroup) bool) []*OrderGroup {
	kept := groups[:0:0]
	for _, g := range groups {
		if pred(g) {
			kept = append(kept, g)
		}
	}
	return kept
}

func emptyReason(r *EligibilityReport) string {
	switch {
	case r.TotalGroups == 0:
		return "no open orders for this plant"
	case r.AfterSelection == 0:
		return "none of the selected order numbers are available"
	case r.AfterStates == 0:
		return "no orders ship to the selected states"
	case r.AfterCustomers == 0:
		return "no orders belong to the selected customers"
	case r.AfterWindow == 0:
		return "no orders are due inside the date window"
	default:
		return "all matching orders are opted out of optimization"
	}
}
