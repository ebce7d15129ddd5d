package geo

import "context"

// Plant is a shipping origin with its ground coordinates
type Plant struct {
	Code string
	Name string
	Coord
}

// ZipCoordinate maps a normalized 5-digit ZIP to its centroid
type ZipCoordinate struct {
	Zip string
	Coord
}

// Repository loads geographic reference data
type Repository interface {
	ListPlants(ctx context.Context) ([]Plant, error)
	ListZipCoordinates(ctx context.Context) ([]ZipCoordinate, error)
}

// Gazetteer resolves plants and ZIP codes to coordinates from an in-memory
// snapshot loaded once per planning run
type Gazetteer struct {
	plants map[string]Coord
	zips   map[string]Coord
}

// NewGazetteer builds a gazetteer from reference rows. ZIPs are normalized
// on the way in so lookups tolerate ZIP+4 and short codes
func NewGazetteer(plants []Plant, zips []ZipCoordinate) *Gazetteer {
	g := &Gazetteer{
		plants: make(map[string]Coord, len(plants)),
		zips:   make(map[string]Coord, len(zips)),
	}
	for _, p := range plants {
		if !p.Coord.IsZero() {
			g.plants[p.Code] = p.Coord
		}
	}
	for _, z := range zips {
		key := NormalizeZip(z.Zip)
		if key != "" && !z.Coord.IsZero() {
			g.zips[key] = z.Coord
		}
	}
	return g
}

// PlantCoords returns the coordinates of a plant by code
func (g *Gazetteer) PlantCoords(code string) (Coord, bool) {
	c, ok := g.plants[code]
	return c, ok
}

// ZipCoords returns the centroid of a ZIP code, normalizing first
func (g *Gazetteer) ZipCoords(zip string) (Coord, bool) {
	c, ok := g.zips[NormalizeZip(zip)]
	return c, ok
}

// ZipCount reports how many ZIP centroids are loaded
func (g *Gazetteer) ZipCount() int {
	return len(g.zips)
}
