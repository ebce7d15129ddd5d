package planning

import (
	"fmt"
	"math"
	"time"

	approuting "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/costing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/routing"
)

const testPlant = "CL"

// testOrigin anchors every fixture; stops are placed by straight-line
// offsets from here so distances and bearings are easy to reason about.
var testOrigin = geo.Coord{Lat: 40.0, Lng: -83.0}

// coordAt returns a point the given miles north and east of testOrigin
func coordAt(milesNorth, milesEast float64) geo.Coord {
	const milesPerDegLat = 69.09
	return geo.Coord{
		Lat: testOrigin.Lat + milesNorth/milesPerDegLat,
		Lng: testOrigin.Lng + milesEast/(milesPerDegLat*math.Cos(testOrigin.Lat*math.Pi/180)),
	}
}

func testDate(day string) time.Time {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return d
}

// testCalculator prices with the great-circle fallback router, a flat
// $2.50/mi rate, $150 stop fee and a $350 minimum load cost
func testCalculator() *costing.Calculator {
	routes := approuting.NewService(nil, nil, nil, "driving-hgv", false, true)
	rates := rating.NewRateTable(nil, 2.5, 0)
	return costing.NewCalculator(routes, rates, 150, 350)
}

func testBuilder(params planning.PlanParams) *LoadBuilder {
	return NewLoadBuilder(params, orders.NewSkuCatalog(nil), testCalculator(), testOrigin, true, NewIdAllocator())
}

// groupSpec is the shorthand the fixtures below expand into a full order
// group: one line of units*unitFt footage, MaxStack 1, at the given spot
type groupSpec struct {
	so     string
	state  string
	zip    string
	coord  geo.Coord
	units  int
	unitFt float64
	due    string
	cust   string
}

func buildGroup(s groupSpec) *orders.OrderGroup {
	cust := s.cust
	if cust == "" {
		cust = "ACME SUPPLY CO"
	}
	total := float64(s.units) * s.unitFt
	g := &orders.OrderGroup{
		SoNum:         s.so,
		Plant:         testPlant,
		Zip:           s.zip,
		State:         s.state,
		Coord:         s.coord,
		HasCoord:      true,
		CustName:      cust,
		TotalLengthFt: total,
		MaxUnitLenFt:  s.unitFt,
		Lines: []*orders.OrderLine{{
			SoNum:         s.so,
			Plant:         testPlant,
			Sku:           "TRS-" + s.so,
			Qty:           s.units,
			UnitLengthFt:  s.unitFt,
			TotalLengthFt: total,
			MaxStack:      1,
			State:         s.state,
			Zip:           s.zip,
			CustName:      cust,
		}},
	}
	if s.due != "" {
		g.DueDate = testDate(s.due)
		g.HasDueDate = true
	}
	return g
}

// testLoad builds a bare load for gate and scoring tests that never touch
// the builder
func testLoad(id int, state string, utilPct, originMiles, bearingDeg float64) *planning.Load {
	return &planning.Load{
		ID:                  id,
		OriginPlant:         testPlant,
		DestinationState:    state,
		UtilizationPct:      utilPct,
		Centroid:            coordAt(originMiles*math.Cos(bearingDeg*math.Pi/180), originMiles*math.Sin(bearingDeg*math.Pi/180)),
		HasCentroid:         true,
		OriginMiles:         originMiles,
		BearingDeg:          bearingDeg,
		EffectiveWindowDays: 5,
		MaxUnitLenFt:        10,
	}
}

func withDue(l *planning.Load, day string) *planning.Load {
	d := testDate(day)
	l.DueDateMin = d
	l.DueDateMax = d
	l.HasDueDates = true
	return l
}

func withDueRange(l *planning.Load, first, last string) *planning.Load {
	l.DueDateMin = testDate(first)
	l.DueDateMax = testDate(last)
	l.HasDueDates = true
	return l
}

func withStop(l *planning.Load, c geo.Coord) *planning.Load {
	l.Stops = append(l.Stops, routing.Stop{State: l.DestinationState, Coord: c, HasCoord: true})
	return l
}

func newTestOptimizer(params planning.PlanParams, metrics MetricsRecorder) *Optimizer {
	return NewOptimizer(params, testBuilder(params), metrics)
}

// recordingMetrics captures every optimizer signal for assertions
type recordingMetrics struct {
	runs        []string
	loadsBuilt  int
	merges      []string
	utilization []float64
}

func (m *recordingMetrics) RecordPlanRun(algorithm, status string, seconds float64) {
	m.runs = append(m.runs, fmt.Sprintf("%s/%s", algorithm, status))
}

func (m *recordingMetrics) RecordLoadsBuilt(n int) { m.loadsBuilt += n }

func (m *recordingMetrics) RecordMergeCommitted(pass string) { m.merges = append(m.merges, pass) }

func (m *recordingMetrics) RecordLoadUtilization(pct float64) {
	m.utilization = append(m.utilization, pct)
}

func (m *recordingMetrics) mergesByPass() map[string]int {
	counts := map[string]int{}
	for _, p := range m.merges {
		counts[p]++
	}
	return counts
}

func soNumSet(loads []*planning.Load) map[string]bool {
	set := map[string]bool{}
	for _, l := range loads {
		for _, so := range l.SoNums() {
			set[so] = true
		}
	}
	return set
}
