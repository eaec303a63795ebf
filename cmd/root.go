// Package cmd defines the doctrans command line interface.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"doctrans/internal/config"
	"doctrans/internal/logger"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "doctrans",
		Short: "Structure-preserving document translation pipeline",
		Long: `doctrans translates extracted paginated documents into multiple target
languages while preserving asset anchoring geometry and fragile substrings
(URLs, emails, numbers, asset markers) byte-for-byte.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env if present; credentials may live there.
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newTranslateCmd(&configPath, &logLevel))
	cmd.AddCommand(newAnchorCmd(&configPath, &logLevel))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig loads configuration and initializes logging for a subcommand.
func loadConfig(configPath, logLevel string) (*config.Config, error) {
	manager, err := config.NewManager(configPath)
	if err != nil {
		return nil, err
	}
	if err := manager.Load(); err != nil {
		return nil, err
	}
	cfg := manager.Get()

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(level)
	logCfg.EnableConsole = true
	if err := logger.Init(logCfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
