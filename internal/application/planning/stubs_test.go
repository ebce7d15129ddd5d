package planning

import (
	"context"
	"time"

	approuting "github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/routing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/application/costing"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/planning"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
)

// Hand-rolled port stubs for the handler tests. Each records the calls the
// handler makes so assertions can check what was written, not just what
// came back.

type stubOrderRepo struct {
	lines      []*orders.OrderLine
	headers    []orders.Order
	linesErr   error
	headersErr error
}

func (s *stubOrderRepo) ListLinesForPlanning(ctx context.Context, plant string, startDate *time.Time) ([]*orders.OrderLine, error) {
	if s.linesErr != nil {
		return nil, s.linesErr
	}
	return s.lines, nil
}

func (s *stubOrderRepo) ListOrders(ctx context.Context, plant string) ([]orders.Order, error) {
	if s.headersErr != nil {
		return nil, s.headersErr
	}
	return s.headers, nil
}

type stubLoadRepo struct {
	stored  []planning.StoredLoad
	listErr error

	replacedPlant   string
	replacedSession string
	replaced        []*planning.Load
	replaceErr      error

	saved   []*planning.Load
	saveErr error

	promoted     []uint
	approved     []uint
	deleted      []uint
	lifecycleErr error
}

func (s *stubLoadRepo) ReplaceProposedForPlant(ctx context.Context, plant, sessionID string, loads []*planning.Load) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replacedPlant = plant
	s.replacedSession = sessionID
	s.replaced = loads
	return nil
}

func (s *stubLoadRepo) SaveLoad(ctx context.Context, load *planning.Load) (uint, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	s.saved = append(s.saved, load)
	return uint(len(s.saved)), nil
}

func (s *stubLoadRepo) ListLoads(ctx context.Context, plant string, status *planning.LoadStatus) ([]planning.StoredLoad, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if status == nil {
		return s.stored, nil
	}
	var out []planning.StoredLoad
	for _, l := range s.stored {
		if l.Status == *status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubLoadRepo) GetLoad(ctx context.Context, id uint) (*planning.StoredLoad, error) {
	for i := range s.stored {
		if s.stored[i].ID == id {
			return &s.stored[i], nil
		}
	}
	return nil, nil
}

func (s *stubLoadRepo) PromoteToDraft(ctx context.Context, id uint) (*planning.StoredLoad, error) {
	if s.lifecycleErr != nil {
		return nil, s.lifecycleErr
	}
	s.promoted = append(s.promoted, id)
	return &planning.StoredLoad{ID: id, Status: planning.StatusDraft, LoadNumber: "CL26-0001-D"}, nil
}

func (s *stubLoadRepo) Approve(ctx context.Context, id uint) (*planning.StoredLoad, error) {
	if s.lifecycleErr != nil {
		return nil, s.lifecycleErr
	}
	s.approved = append(s.approved, id)
	return &planning.StoredLoad{ID: id, Status: planning.StatusApproved, LoadNumber: "CL26-0001"}, nil
}

func (s *stubLoadRepo) DeleteLoad(ctx context.Context, id uint) error {
	if s.lifecycleErr != nil {
		return s.lifecycleErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubSequences struct {
	next  int
	err   error
	plant string
	year  int
}

func (s *stubSequences) NextLoadSequence(ctx context.Context, plant string, year int) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.plant = plant
	s.year = year
	return s.next, nil
}

type stubSettings struct {
	values map[string]string
	err    error
}

func (s *stubSettings) GetPlanningSetting(ctx context.Context, key string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

type stubSkuRepo struct{ specs []orders.SkuSpec }

func (s *stubSkuRepo) ListSkuSpecs(ctx context.Context) ([]orders.SkuSpec, error) {
	return s.specs, nil
}

type stubStrategicRepo struct{ customers []orders.StrategicCustomer }

func (s *stubStrategicRepo) ListStrategicCustomers(ctx context.Context) ([]orders.StrategicCustomer, error) {
	return s.customers, nil
}

type stubRateRepo struct{ rates []rating.RateEntry }

func (s *stubRateRepo) ListRates(ctx context.Context) ([]rating.RateEntry, error) {
	return s.rates, nil
}

type stubGeoRepo struct {
	plants []geo.Plant
	zips   []geo.ZipCoordinate
}

func (s *stubGeoRepo) ListPlants(ctx context.Context) ([]geo.Plant, error) {
	return s.plants, nil
}

func (s *stubGeoRepo) ListZipCoordinates(ctx context.Context) ([]geo.ZipCoordinate, error) {
	return s.zips, nil
}

// testSources snapshots the CL plant at testOrigin with two geocoded
// Cleveland-area zips the line fixtures ship to
func testSources() SnapshotSources {
	return SnapshotSources{
		Skus:      &stubSkuRepo{},
		Strategic: &stubStrategicRepo{},
		Rates:     &stubRateRepo{},
		Geo: &stubGeoRepo{
			plants: []geo.Plant{{Code: testPlant, Coord: testOrigin}},
			zips: []geo.ZipCoordinate{
				{Zip: "44101", Coord: coordAt(10, 0)},
				{Zip: "44102", Coord: coordAt(12, 1)},
			},
		},
		Settings: &stubSettings{},
	}
}

func testRoutes() costing.RouteBuilder {
	return approuting.NewService(nil, nil, nil, "driving-hgv", false, true)
}

func testCostParams() CostParams {
	return CostParams{
		StopFeePerStop:     150,
		MinimumLoadCost:    350,
		DefaultRatePerMile: 2.5,
	}
}

// testLine is one open line shipping to a fixture zip
func testLine(so, zip, state string, qty int, unitFt float64, due string) *orders.OrderLine {
	d := testDate(due)
	return &orders.OrderLine{
		SoNum:         so,
		Plant:         testPlant,
		Sku:           "TRS-" + so,
		Qty:           qty,
		UnitLengthFt:  unitFt,
		TotalLengthFt: float64(qty) * unitFt,
		MaxStack:      1,
		State:         state,
		Zip:           zip,
		DueDate:       &d,
		CustName:      "ACME SUPPLY CO",
	}
}

func testHeader(line *orders.OrderLine) orders.Order {
	return orders.Order{
		SoNum:    line.SoNum,
		Plant:    line.Plant,
		CustName: line.CustName,
		City:     "CLEVELAND",
		State:    line.State,
		Zip:      line.Zip,
		DueDate:  line.DueDate,
	}
}
