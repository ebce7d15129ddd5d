package orders

import (
	"time"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
)

// OrderGroup is all lines of one sales order, the indivisible planning
// unit: a group is always placed on exactly one load
type OrderGroup struct {
	SoNum         string
	Plant         string
	Lines         []*OrderLine
	TotalLengthFt float64
	MaxUnitLenFt  float64
	Zip           string
	State         string
	City          string
	Coord         geo.Coord
	HasCoord      bool
	DueDate       time.Time
	HasDueDate    bool
	CustName      string
	Categories    []string

	Strategic              *StrategicCustomer
	NoMix                  bool
	RequiresReturnToOrigin bool
	DefaultWedge51         bool
	IgnoreForOptimization  bool
	DueDateFlexDays        *int
}

// DueOrdinal is the due date as a day number, used for window math.
// Groups without a due date report 0 and are treated as flexible.
func (g *OrderGroup) DueOrdinal() float64 {
	if !g.HasDueDate {
		return 0
	}
	return float64(g.DueDate.Unix()) / 86400.0
}

// HasCategory reports whether any line in the group carries the category
func (g *OrderGroup) HasCategory(category string) bool {
	for _, c := range g.Categories {
		if c == category {
			return true
		}
	}
	return false
}
