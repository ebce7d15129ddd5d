package orders

import (
	"math"
	"time"
)

// OrderLine is one shippable line of a sales order
type OrderLine struct {
	ID            uint
	SoNum         string
	Plant         string
	Item          string
	Sku           string
	Qty           int
	UnitLengthFt  float64
	TotalLengthFt float64
	MaxStack      int
	City          string
	State         string
	Zip           string
	DueDate       *time.Time
	CustName      string
	IsExcluded    bool
}

// Order is a sales order header
type Order struct {
	SoNum    string
	Plant    string
	CustName string
	City     string
	State    string
	Zip      string
	DueDate  *time.Time
}

// FloorLengthFt is the deck footage a line needs at a given stack height:
// full stacks side by side plus a final partial stack
func FloorLengthFt(qty, maxStack int, unitLengthFt float64) float64 {
	if qty <= 0 || unitLengthFt <= 0 {
		return 0
	}
	if maxStack < 1 {
		maxStack = 1
	}
	stacks := math.Ceil(float64(qty) / float64(maxStack))
	return stacks * unitLengthFt
}

// EffectiveTotalLengthFt returns the stored total length, recomputing it
// from qty and stack height when the feed left it empty
func (l *OrderLine) EffectiveTotalLengthFt() float64 {
	if l.TotalLengthFt > 0 {
		return l.TotalLengthFt
	}
	return FloorLengthFt(l.Qty, l.MaxStack, l.UnitLengthFt)
}
