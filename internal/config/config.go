package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete deadlock configuration
type Config struct {
	Scan     ScanConfig     `mapstructure:"scan"`
	Identity IdentityConfig `mapstructure:"identity"`
	Output   OutputConfig   `mapstructure:"output"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScanConfig controls handle enumeration and directory traversal
type ScanConfig struct {
	// QueryTimeout bounds each path-name query that may block in the kernel
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	// IncludeMaps also reports processes that have a file memory-mapped
	IncludeMaps bool `mapstructure:"include_maps"`
	// IncludeCwd also reports processes whose working directory is the path
	// or lies below it
	IncludeCwd bool `mapstructure:"include_cwd"`
	// MaxFiles stops a directory scan after this many files (0 = unlimited)
	MaxFiles int `mapstructure:"max_files"`
}

// IdentityConfig controls executable path resolution
type IdentityConfig struct {
	// InventoryTimeout bounds the last, slowest lookup strategy
	InventoryTimeout time.Duration `mapstructure:"inventory_timeout"`
	// Sentinel is reported when no strategy could resolve the executable
	Sentinel string `mapstructure:"sentinel"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	// Color is one of "auto", "always", "never"
	Color string `mapstructure:"color"`
	// Format is one of "standard", "short", "tree", "json", "yaml"
	Format string `mapstructure:"format"`
}

// WatchConfig controls the watch command
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// File receives log lines; empty means stderr
	File string `mapstructure:"file"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			QueryTimeout: 500 * time.Millisecond,
			IncludeMaps:  true,
			IncludeCwd:   true,
			MaxFiles:     0,
		},
		Identity: IdentityConfig{
			InventoryTimeout: 5 * time.Second,
			Sentinel:         "Access denied",
		},
		Output: OutputConfig{
			Color:  "auto",
			Format: "standard",
		},
		Watch: WatchConfig{
			Interval: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("scan.query_timeout", defaults.Scan.QueryTimeout)
	viper.SetDefault("scan.include_maps", defaults.Scan.IncludeMaps)
	viper.SetDefault("scan.include_cwd", defaults.Scan.IncludeCwd)
	viper.SetDefault("scan.max_files", defaults.Scan.MaxFiles)

	viper.SetDefault("identity.inventory_timeout", defaults.Identity.InventoryTimeout)
	viper.SetDefault("identity.sentinel", defaults.Identity.Sentinel)

	viper.SetDefault("output.color", defaults.Output.Color)
	viper.SetDefault("output.format", defaults.Output.Format)

	viper.SetDefault("watch.interval", defaults.Watch.Interval)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "deadlock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deadlock"
	}
	return filepath.Join(home, ".config", "deadlock")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
