package config

import "time"

// RoutingConfig holds road-routing provider configuration
type RoutingConfig struct {
	// Provider backend: "ors" or "none" (haversine only)
	Provider string `mapstructure:"provider" validate:"required,oneof=ors none"`

	// Provider API base URL
	BaseURL string `mapstructure:"base_url"`

	// Provider API key (ORS_API_KEY also honored without prefix)
	APIKey string `mapstructure:"api_key"`

	// Routing profile, e.g. driving-hgv
	Profile string `mapstructure:"profile" validate:"required"`

	// Per-request timeout
	Timeout time.Duration `mapstructure:"timeout"`

	// Retries after the first failed attempt (429/5xx only)
	MaxRetries int `mapstructure:"max_retries" validate:"min=0"`

	// Base delay for exponential backoff between retries
	BackoffBase time.Duration `mapstructure:"backoff_base"`

	// Road-snap search radius per coordinate, in meters
	SnapRadiusMeters float64 `mapstructure:"snap_radius_meters" validate:"min=0"`

	// Provider quota guard
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"min=0"`

	// Durable route cache lifetime in days
	CacheTTLDays int `mapstructure:"cache_ttl_days" validate:"min=0"`

	// Enabled gates all provider traffic; false serves every route from
	// the haversine fallback
	Enabled bool `mapstructure:"enabled"`

	// GeometryOnlyMode engages the provider only when the caller asks for
	// polyline geometry, conserving quota on cost-only runs
	GeometryOnlyMode bool `mapstructure:"geometry_only_mode"`
}
