package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	plantCode  string
	configFile string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "loadplan",
		Short: "Load planner CLI - Build and manage outbound freight loads",
		Long: `Load planner CLI consolidates open sales orders into trailer loads.
Plans are written to the planning database and move through the
PROPOSED -> DRAFT -> APPROVED lifecycle.

Examples:
  loadplan plan --plant CL
  loadplan plan --plant CL --states OH,PA --algorithm v2
  loadplan plan manual --plant CL --so-nums SO1001,SO1002
  loadplan loads list --plant CL --status PROPOSED
  loadplan loads promote --id 12
  loadplan loads approve --id 12
  loadplan rates list --plant CL
  loadplan config set-plant --plant CL`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&plantCode, "plant", "",
		"Origin plant code (2 letters, default from user config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to config file or directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	// Add command groups
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewLoadsCommand())
	rootCmd.AddCommand(NewRatesCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
