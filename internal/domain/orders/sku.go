package orders

import (
	"strings"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/stacking"
)

// SkuSpec is the catalog row describing how a SKU ships
type SkuSpec struct {
	Sku                string
	Category           string
	LengthWithTongueFt float64
	MaxStackStepDeck   int
	MaxStackFlatbed    int
}

// SkuCatalog indexes SKU specs for enrichment lookups
type SkuCatalog struct {
	specs map[string]SkuSpec
}

func NewSkuCatalog(specs []SkuSpec) *SkuCatalog {
	c := &SkuCatalog{specs: make(map[string]SkuSpec, len(specs))}
	for _, s := range specs {
		c.specs[strings.ToUpper(strings.TrimSpace(s.Sku))] = s
	}
	return c
}

func (c *SkuCatalog) lookup(sku string) (SkuSpec, bool) {
	s, ok := c.specs[strings.ToUpper(strings.TrimSpace(sku))]
	return s, ok
}

// Category returns the freight category of a SKU, or "" when uncataloged
func (c *SkuCatalog) Category(sku string) string {
	if s, ok := c.lookup(sku); ok {
		return s.Category
	}
	return ""
}

// UnitLength returns the catalog unit length including tongue
func (c *SkuCatalog) UnitLength(sku string) (float64, bool) {
	if s, ok := c.lookup(sku); ok && s.LengthWithTongueFt > 0 {
		return s.LengthWithTongueFt, true
	}
	return 0, false
}

// MaxStackFor returns the stack height a SKU allows on a trailer type.
// Wedge trailers stack like flatbeds.
func (c *SkuCatalog) MaxStackFor(sku string, trailer stacking.TrailerType) (int, bool) {
	s, ok := c.lookup(sku)
	if !ok {
		return 0, false
	}
	height := s.MaxStackStepDeck
	if trailer == stacking.TrailerFlatbed || trailer == stacking.TrailerWedge {
		height = s.MaxStackFlatbed
	}
	if height < 1 {
		return 0, false
	}
	return height, true
}
