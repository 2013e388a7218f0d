// Package cli implements the pawtrack command line interface.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eleven-am/pawtrack/internal/logger"
	"github.com/eleven-am/pawtrack/pkg/pawtrack"
)

// Global configuration variables
var (
	configFile  string
	appConfig   *PawtrackConfig
	databaseURL string
	debug       bool
	verbose     bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pawtrack",
		Short: "Pawtrack - Pet Care Tracking Service",
		Long: `Pawtrack keeps pet-care reminders and personal todos in one place.

It provides:
- Recurring pet reminders that advance on completion
- A merged calendar view across reminders and todos
- Today, week, and overdue views with read-time stats
- Schema migrations driven by the embedded target schema`,
		Version: pawtrack.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			godotenv.Load()

			var err error
			appConfig, err = LoadPawtrackConfig(configFile)
			if err != nil && verbose {
				cmd.Printf("Warning: Failed to load config file: %v\n", err)
			}

			level := "info"
			if appConfig != nil {
				if databaseURL == "" && appConfig.Database.URL != "" {
					databaseURL = appConfig.Database.URL
				}
				if appConfig.Logging.Level != "" {
					level = appConfig.Logging.Level
				}
			}
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if debug {
				level = "debug"
			}

			console := appConfig == nil || appConfig.Logging.Console
			logger.Init(level, console)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: pawtrack.yaml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}
