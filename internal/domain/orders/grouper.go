package orders

import (
	"sort"
	"strings"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
)

// Grouper folds order lines into per-order planning groups
type Grouper struct {
	catalog   *SkuCatalog
	strategic []StrategicCustomer
	gazetteer *geo.Gazetteer
}

func NewGrouper(catalog *SkuCatalog, strategic []StrategicCustomer, gazetteer *geo.Gazetteer) *Grouper {
	return &Grouper{catalog: catalog, strategic: strategic, gazetteer: gazetteer}
}

// BuildGroups groups lines by sales order in first-appearance order.
// Headers fill in customer and due date when lines lack them. Unit lengths
// missing from the feed default from the SKU catalog.
func (g *Grouper) BuildGroups(lines []*OrderLine, headers []Order) []*OrderGroup {
	headerBySo := make(map[string]Order, len(headers))
	for _, h := range headers {
		headerBySo[h.SoNum] = h
	}

	var groups []*OrderGroup
	index := map[string]*OrderGroup{}
	for _, line := range lines {
		if line.Qty <= 0 {
			continue
		}
		if line.UnitLengthFt <= 0 {
			if length, ok := g.catalog.UnitLength(line.Sku); ok {
				line.UnitLengthFt = length
			}
		}

		grp, ok := index[line.SoNum]
		if !ok {
			grp = &OrderGroup{SoNum: line.SoNum, Plant: line.Plant}
			index[line.SoNum] = grp
			groups = append(groups, grp)
		}
		grp.Lines = append(grp.Lines, line)
	}

	for _, grp := range groups {
		g.summarize(grp, headerBySo[grp.SoNum])
	}
	return groups
}

func (g *Grouper) summarize(grp *OrderGroup, header Order) {
	zipVotes := map[string]int{}
	stateVotes := map[string]int{}
	catSet := map[string]struct{}{}

	for _, line := range grp.Lines {
		grp.TotalLengthFt += line.EffectiveTotalLengthFt()
		if line.UnitLengthFt > grp.MaxUnitLenFt {
			grp.MaxUnitLenFt = line.UnitLengthFt
		}
		if z := geo.NormalizeZip(line.Zip); z != "" {
			zipVotes[z]++
		}
		if s := strings.ToUpper(strings.TrimSpace(line.State)); s != "" {
			stateVotes[s]++
		}
		if grp.City == "" {
			grp.City = line.City
		}
		if grp.CustName == "" {
			grp.CustName = line.CustName
		}
		if line.DueDate != nil && (!grp.HasDueDate || line.DueDate.Before(grp.DueDate)) {
			grp.DueDate = *line.DueDate
			grp.HasDueDate = true
		}
		if cat := g.catalog.Category(line.Sku); cat != "" {
			catSet[cat] = struct{}{}
		}
	}

	grp.Zip = modalValue(zipVotes)
	grp.State = modalValue(stateVotes)
	if grp.CustName == "" {
		grp.CustName = header.CustName
	}
	if !grp.HasDueDate && header.DueDate != nil {
		grp.DueDate = *header.DueDate
		grp.HasDueDate = true
	}
	if grp.State == "" {
		grp.State = strings.ToUpper(strings.TrimSpace(header.State))
	}
	if grp.Zip == "" {
		grp.Zip = geo.NormalizeZip(header.Zip)
	}

	grp.Categories = make([]string, 0, len(catSet))
	for cat := range catSet {
		grp.Categories = append(grp.Categories, cat)
	}
	sort.Strings(grp.Categories)

	if grp.Zip != "" && g.gazetteer != nil {
		if coord, ok := g.gazetteer.ZipCoords(grp.Zip); ok {
			grp.Coord = coord
			grp.HasCoord = true
		}
	}

	if sc := MatchStrategic(g.strategic, grp.CustName); sc != nil {
		grp.Strategic = sc
		grp.NoMix = sc.NoMix
		grp.RequiresReturnToOrigin = sc.RequiresReturnToOrigin
		grp.DefaultWedge51 = sc.DefaultWedge51
		grp.IgnoreForOptimization = sc.IgnoreForOptimization
		grp.DueDateFlexDays = sc.DueDateFlexDays
	}
}

// modalValue returns the most frequent key, breaking ties toward the
// lexicographically smallest so grouping is reproducible
func modalValue(votes map[string]int) string {
	best := ""
	bestCount := 0
	keys := make([]string, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if votes[k] > bestCount {
			best = k
			bestCount = votes[k]
		}
	}
	return best
}
