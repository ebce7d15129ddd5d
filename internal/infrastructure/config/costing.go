package config

// CostingConfig holds freight pricing configuration
type CostingConfig struct {
	// Linehaul rate used when no lane rate exists, dollars per mile
	DefaultRatePerMile float64 `mapstructure:"default_rate_per_mile" validate:"min=0"`

	// Fuel surcharge added to every lane rate, dollars per mile
	FuelSurchargePerMile float64 `mapstructure:"fuel_surcharge_per_mile" validate:"min=0"`

	// Flat fee per delivery stop
	StopFee float64 `mapstructure:"stop_fee" validate:"min=0"`

	// Floor applied to every priced load
	MinLoadCost float64 `mapstructure:"min_load_cost" validate:"min=0"`
}
