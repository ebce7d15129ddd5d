package routing

import (
	"fmt"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
)

// Stop is a delivery point on a route
type Stop struct {
	State    string
	Zip      string
	Coord    geo.Coord
	HasCoord bool
}

// Signature returns the stable identity of a stop used in cache keys and
// for mapping cached stop orders back onto live stops
func (s Stop) Signature() string {
	if !s.HasCoord {
		return fmt.Sprintf("%s|%s||", s.State, s.Zip)
	}
	return fmt.Sprintf("%s|%s|%.6f|%.6f", s.State, s.Zip, s.Coord.Lat, s.Coord.Lng)
}
