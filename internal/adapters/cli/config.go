package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/adapters/persistence"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/infrastructure/config"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/infrastructure/database"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage load planner configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (COT_* prefix)
2. Config file (config.yaml)
3. Default values

User preferences (default plant) are stored in ~/.cotplan/config.json

Examples:
  loadplan config show
  loadplan config set-plant --plant CL
  loadplan config clear-plant`,
	}

	// Add subcommands
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetPlantCommand())
	cmd.AddCommand(newConfigClearPlantCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Display the current configuration settings.

Shows both system configuration and user preferences.

Example:
  loadplan config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load system config
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				fmt.Printf("Warning: Failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault(configFile)
			}

			// Load user config
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			userCfg, err := userConfigHandler.Load()
			if err != nil {
				fmt.Printf("Warning: Failed to load user config: %v\n\n", err)
				userCfg = &config.UserConfig{}
			}

			// Display configuration
			fmt.Println("Load Planner Configuration")
			fmt.Println("==========================")

			fmt.Println("User Preferences:")
			fmt.Printf("  Config file:      %s\n", userConfigHandler.GetConfigPath())
			if userCfg.DefaultPlant != "" {
				fmt.Printf("  Default Plant:    %s\n", userCfg.DefaultPlant)
			} else {
				fmt.Printf("  Default Plant:    (not set)\n")
			}

			fmt.Println("\nDatabase:")
			fmt.Printf("  Type:             %s\n", cfg.Database.Type)
			if cfg.Database.URL != "" {
				fmt.Printf("  URL:              %s\n", maskPassword(cfg.Database.URL))
			} else {
				fmt.Printf("  Host:             %s\n", cfg.Database.Host)
				fmt.Printf("  Port:             %d\n", cfg.Database.Port)
				fmt.Printf("  Database:         %s\n", cfg.Database.Name)
				fmt.Printf("  User:             %s\n", cfg.Database.User)
			}
			fmt.Printf("  Max Connections:  %d\n", cfg.Database.Pool.MaxOpen)

			fmt.Println("\nRouting Provider:")
			fmt.Printf("  Provider:         %s\n", cfg.Routing.Provider)
			fmt.Printf("  Base URL:         %s\n", cfg.Routing.BaseURL)
			fmt.Printf("  Profile:          %s\n", cfg.Routing.Profile)
			fmt.Printf("  API Key:          %s\n", maskSecret(cfg.Routing.APIKey))
			fmt.Printf("  Timeout:          %s\n", cfg.Routing.Timeout)
			fmt.Printf("  Max Retries:      %d\n", cfg.Routing.MaxRetries)
			fmt.Printf("  Cache TTL:        %d days\n", cfg.Routing.CacheTTLDays)
			fmt.Printf("  Enabled:          %t\n", cfg.Routing.Enabled)
			fmt.Printf("  Geometry Only:    %t\n", cfg.Routing.GeometryOnlyMode)

			fmt.Println("\nCosting:")
			fmt.Printf("  Default Rate:     %.2f $/mile\n", cfg.Costing.DefaultRatePerMile)
			fmt.Printf("  Fuel Surcharge:   %.2f $/mile\n", cfg.Costing.FuelSurchargePerMile)
			fmt.Printf("  Stop Fee:         %.2f\n", cfg.Costing.StopFee)
			fmt.Printf("  Minimum Cost:     %.2f\n", cfg.Costing.MinLoadCost)

			fmt.Println("\nPlanning:")
			fmt.Printf("  Algorithm:        %s\n", cfg.Planning.Algorithm)

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:           %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:           %s\n", cfg.Logging.Output)

			return nil
		},
	}

	return cmd
}

// newConfigSetPlantCommand creates the config set-plant subcommand
func newConfigSetPlantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-plant",
		Short: "Set default plant",
		Long: `Set the default origin plant to use for commands.

The default plant will be used when no --plant flag is given.

Example:
  loadplan config set-plant --plant CL`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if plantCode == "" {
				return fmt.Errorf("--plant flag is required")
			}
			plant := strings.ToUpper(strings.TrimSpace(plantCode))

			// Create user config handler
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			// Verify plant exists in database
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close(db)

			var model persistence.PlantModel
			if err := db.Where("code = ?", plant).First(&model).Error; err != nil {
				return fmt.Errorf("plant %q not found", plant)
			}

			if err := userConfigHandler.SetDefaultPlant(plant); err != nil {
				return fmt.Errorf("failed to set default plant: %w", err)
			}

			fmt.Println("✓ Default plant set successfully")
			fmt.Printf("  Plant Code:   %s\n", model.Code)
			fmt.Printf("  Plant Name:   %s\n", model.Name)
			fmt.Printf("\nCommands will now use this plant by default.\n")
			fmt.Printf("Override with the --plant flag.\n")

			return nil
		},
	}

	return cmd
}

// newConfigClearPlantCommand creates the config clear-plant subcommand
func newConfigClearPlantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-plant",
		Short: "Clear default plant setting",
		Long: `Remove the default plant setting.

After clearing, you must explicitly specify --plant for all commands
that need an origin plant.

Example:
  loadplan config clear-plant`,
		RunE: func(cmd *cobra.Command, args []string) error {
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			if err := userConfigHandler.ClearDefaultPlant(); err != nil {
				return fmt.Errorf("failed to clear default plant: %w", err)
			}

			fmt.Println("✓ Default plant cleared")
			fmt.Println("\nYou must now specify --plant for commands that need one.")

			return nil
		},
	}

	return cmd
}

// maskPassword masks the password segment of a connection URL for display
func maskPassword(url string) string {
	at := strings.LastIndex(url, "@")
	if at < 0 {
		return url
	}
	scheme := strings.Index(url, "://")
	if scheme < 0 {
		return url
	}
	creds := url[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return url
	}
	return url[:scheme+3] + creds[:colon] + ":****" + url[at:]
}

// maskSecret hides all but the first characters of a secret
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
