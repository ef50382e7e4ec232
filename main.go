package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/mintyvpk/internal/config"
	"github.com/ossyrian/mintyvpk/internal/logging"
)

var (
	cfgFile      string
	cfg          *config.Config
	closeLogFile = func() error { return nil }
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "mintyvpk",
	Short:         "Inspect, extract and create VPK archives",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogFile()
	},
}

// flagKeys maps flag names to config keys. Flags are bound per command
// because several commands share a name (e.g. --output).
var flagKeys = map[string]string{
	"output":         "output",
	"format-version": "format_version",
	"workers":        "workers",
	"dry-run":        "dry_run",
	"log-level":      "log_level",
	"log-output-dir": "log_output_dir",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stdout and file)")

	rootCmd.AddCommand(infoCmd, listCmd, extractCmd, createCmd, verifyCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mintyvpk"))
		}
		viper.AddConfigPath("/etc/mintyvpk")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("MINTYVPK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setup binds the running command's flags, loads the config and
// configures logging before any subcommand runs
func setup(cmd *cobra.Command, args []string) error {
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}

	c, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if len(args) > 0 {
		c.Input = args[0]
	}
	cfg = c

	closer, err := logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogOutputDir)
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}
	closeLogFile = closer

	return nil
}

// loadConfig unmarshals and validates the config held by v
func loadConfig(v *viper.Viper) (*config.Config, error) {
	c := &config.Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
