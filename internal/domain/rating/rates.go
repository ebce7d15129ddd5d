package rating

import (
	"context"
	"fmt"
	"strings"
)

// RateEntry is one row of the rate matrix: dollars per mile from an origin
// plant into a destination state for a given effective year
type RateEntry struct {
	OriginPlant      string
	DestinationState string
	EffectiveYear    int
	RatePerMile      float64
}

// Repository loads the rate matrix
type Repository interface {
	ListRates(ctx context.Context) ([]RateEntry, error)
}

// RateTable is an immutable per-run snapshot of the rate matrix. Lookups
// return the most recent effective year for a lane plus the fuel
// surcharge; unknown lanes fall back to the default linehaul rate.
type RateTable struct {
	rates         map[string]RateEntry
	defaultRate   float64
	fuelSurcharge float64
}

func laneKey(plant, state string) string {
	return strings.ToUpper(strings.TrimSpace(plant)) + "|" + strings.ToUpper(strings.TrimSpace(state))
}

// NewRateTable indexes entries by lane, keeping the newest effective year
func NewRateTable(entries []RateEntry, defaultRatePerMile, fuelSurchargePerMile float64) *RateTable {
	t := &RateTable{
		rates:         make(map[string]RateEntry, len(entries)),
		defaultRate:   defaultRatePerMile,
		fuelSurcharge: fuelSurchargePerMile,
	}
	for _, e := range entries {
		key := laneKey(e.OriginPlant, e.DestinationState)
		if cur, ok := t.rates[key]; !ok || e.EffectiveYear > cur.EffectiveYear {
			t.rates[key] = e
		}
	}
	return t
}

// RateFor returns the all-in per-mile rate for a lane. The destination may
// be a state code or, for return legs, the origin plant code itself.
func (t *RateTable) RateFor(plant, state string) float64 {
	if e, ok := t.rates[laneKey(plant, state)]; ok {
		return e.RatePerMile + t.fuelSurcharge
	}
	return t.defaultRate + t.fuelSurcharge
}

// HasLane reports whether a lane has an explicit rate
func (t *RateTable) HasLane(plant, state string) bool {
	_, ok := t.rates[laneKey(plant, state)]
	return ok
}

func (t *RateTable) String() string {
	return fmt.Sprintf("RateTable(%d lanes, default %.2f, surcharge %.2f)", len(t.rates), t.defaultRate, t.fuelSurcharge)
}
