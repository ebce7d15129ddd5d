package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "cotplan"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "cotplan"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Routing defaults
	if cfg.Routing.Provider == "" {
		cfg.Routing.Provider = "ors"
	}
	if cfg.Routing.BaseURL == "" {
		cfg.Routing.BaseURL = "https://api.openrouteservice.org"
	}
	if cfg.Routing.Profile == "" {
		cfg.Routing.Profile = "driving-hgv"
	}
	if cfg.Routing.Timeout == 0 {
		cfg.Routing.Timeout = 5 * time.Second
	}
	if cfg.Routing.MaxRetries == 0 {
		cfg.Routing.MaxRetries = 1
	}
	if cfg.Routing.BackoffBase == 0 {
		cfg.Routing.BackoffBase = 500 * time.Millisecond
	}
	if cfg.Routing.SnapRadiusMeters == 0 {
		cfg.Routing.SnapRadiusMeters = 350
	}
	if cfg.Routing.RequestsPerMinute == 0 {
		cfg.Routing.RequestsPerMinute = 40
	}
	if cfg.Routing.CacheTTLDays == 0 {
		cfg.Routing.CacheTTLDays = 30
	}

	// Costing defaults
	if cfg.Costing.DefaultRatePerMile == 0 {
		cfg.Costing.DefaultRatePerMile = 2.75
	}
	if cfg.Costing.FuelSurchargePerMile == 0 {
		cfg.Costing.FuelSurchargePerMile = 0.35
	}
	if cfg.Costing.StopFee == 0 {
		cfg.Costing.StopFee = 150
	}
	if cfg.Costing.MinLoadCost == 0 {
		cfg.Costing.MinLoadCost = 350
	}

	// Planning defaults
	if cfg.Planning.Algorithm == "" {
		cfg.Planning.Algorithm = "v2"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}
}
