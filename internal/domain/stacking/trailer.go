package stacking

// TrailerType identifies a trailer profile
type TrailerType string

const (
	TrailerStepDeck TrailerType = "STEP_DECK"
	TrailerFlatbed  TrailerType = "FLATBED"
	TrailerWedge    TrailerType = "WEDGE"
)

// TrailerConfig describes the usable deck space of a trailer
type TrailerConfig struct {
	Type         TrailerType
	CapacityFeet float64
	LowerDeckFt  float64
	UpperDeckFt  float64
}

// ConfigFor returns the standard deck layout for a trailer type.
// Unknown types fall back to the step deck profile.
func ConfigFor(t TrailerType) TrailerConfig {
	switch t {
	case TrailerFlatbed:
		return TrailerConfig{Type: TrailerFlatbed, CapacityFeet: 53, LowerDeckFt: 53}
	case TrailerWedge:
		return TrailerConfig{Type: TrailerWedge, CapacityFeet: 51, LowerDeckFt: 51}
	default:
		return TrailerConfig{Type: TrailerStepDeck, CapacityFeet: 53, LowerDeckFt: 43, UpperDeckFt: 10}
	}
}

// WithCapacity overrides total capacity. The upper deck keeps its physical
// length; the lower deck absorbs the difference.
func (c TrailerConfig) WithCapacity(capacityFeet float64) TrailerConfig {
	if capacityFeet <= 0 || capacityFeet == c.CapacityFeet {
		return c
	}
	lower := capacityFeet - c.UpperDeckFt
	if lower < 0 {
		lower = 0
	}
	c.CapacityFeet = capacityFeet
	c.LowerDeckFt = lower
	return c
}
