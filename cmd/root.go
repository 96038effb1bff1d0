package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/twiglight/internal/config"
	"github.com/conneroisu/twiglight/internal/logging"
)

// NewRootCommand builds the twiglight command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "twiglight",
		Short: "Substitute {{dotted.path}} placeholders in text templates",
		Long: `Twiglight renders text templates by replacing {{dotted.path}} placeholders
with values from YAML files and command-line overrides.

Nested values are flattened into dotted paths: {"user": {"name": "Ada"}}
resolves {{user.name}}. Placeholders without a value are left untouched.

Quick Start:
  twiglight render page.tpl -f values.yml    Render to stdout
  twiglight flatten -f values.yml            Show available paths
  twiglight serve page.tpl -f values.yml     Preview with live reload

Documentation: https://github.com/conneroisu/twiglight`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			initConfig(cfgFile, cmd.ErrOrStderr())
			return bindFlags(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default is .twiglight.yml, can also use TWIGLIGHT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(
		newRenderCommand(),
		newFlattenCommand(),
		newInspectCommand(),
		newWatchCommand(),
		newServeCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// initConfig selects the configuration file and enables TWIGLIGHT_*
// environment overrides.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. TWIGLIGHT_CONFIG_FILE environment variable
//  3. .twiglight.yml in the current directory
func initConfig(cfgFile string, stderr io.Writer) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("TWIGLIGHT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".twiglight")
	}

	viper.SetEnvPrefix("TWIGLIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *logging.TwigLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (*logging.TwigLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    strings.ToLower(cfg.Format),
		Output:    out,
		Component: "cli",
	}), nil
}
