package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emberops/firefleet/pkg/config"
	"github.com/emberops/firefleet/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "firefleet",
	Short: "Fire-suppression fleet coordination",
	Long: `Firefleet coordinates a fleet of autonomous aerial fire-suppression
units: a central coordinator dispatches units against detected fires,
units fly missions and stream telemetry back, and an ingestion process
replays fire events from a file.

The three roles run as separate processes: coordinator, unit, ingest.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./firefleet.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add commands
	rootCmd.AddCommand(coordinatorCmd)
	rootCmd.AddCommand(unitCmd)
	rootCmd.AddCommand(ingestCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in the working directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("firefleet")
	}

	viper.SetEnvPrefix("FIREFLEET")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	_ = viper.ReadInConfig()
}

// loadConfig builds the process configuration: file (if found), environment
// overrides, then command-line flags on top.
func loadConfig() *config.Config {
	cfg := config.LoadConfigOrDefault(viper.ConfigFileUsed())

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if noColor {
		cfg.Logging.NoColor = true
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetNoColor(cfg.Logging.NoColor)
	return cfg
}
