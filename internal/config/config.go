package config

import "fmt"

// Config holds app configuration
type Config struct {
	// Input is the archive or source directory named on the command line
	Input string `mapstructure:"input"`

	// Output is the extraction directory for extract, or the directory file
	// path (ending in _dir.vpk) for create
	Output string `mapstructure:"output"`

	// FormatVersion is the VPK version written by create. Only 1 is supported.
	FormatVersion uint32 `mapstructure:"format_version"`

	// Workers bounds the number of files checked concurrently by verify
	Workers int `mapstructure:"workers"`

	DryRun       bool   `mapstructure:"dry_run"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// Validate checks values that flags and config files cannot constrain
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.FormatVersion != 0 && c.FormatVersion != 1 {
		return fmt.Errorf("only format version 1 can be written, got %d", c.FormatVersion)
	}
	return nil
}
