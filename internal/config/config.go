// Package config handles loading and parsing of the mako maintenance layer
// configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the maintenance tools look for their configuration
// when no -config flag is given.
const DefaultPath = "/etc/mako/maintenance.yaml"

// Config is the top-level configuration shared by the maintenance binaries.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig locates the object store tree on this node.
type StoreConfig struct {
	// Root is the object store root directory. Every account's objects
	// live below it, in either the legacy or the v2 layout.
	Root string `yaml:"root"`
}

// LedgerConfig holds byte-accounting ledger settings.
type LedgerConfig struct {
	// Path is the append-only ledger file. It is a fixed external
	// location shared with earlier tooling and is never rotated by this
	// system.
	Path string `yaml:"path"`
	// Program is the program tag written into each ledger line. It is
	// configurable so deployments migrating from earlier tooling can keep
	// the tag their ledger consumers already grep for.
	Program string `yaml:"program"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: text, json.
	Format string `yaml:"format"`
}

// Load reads a YAML configuration file from the given path and returns a
// parsed Config with defaults applied for unset fields. A missing file is
// not an error: the maintenance tools run with built-in defaults, matching
// the fixed paths the historical tooling hardcoded. Any other read failure,
// and any parse failure, is a configuration fault.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for empty fields that YAML didn't set.
	applyDefaults(cfg)

	return cfg, nil
}

// defaultConfig returns a Config with the fixed locations the node's
// maintenance jobs have always used.
func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Root: "/manta",
		},
		Ledger: LedgerConfig{
			Path:    "/var/tmp/bytes_processed",
			Program: "mako-gc",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyDefaults fills in any fields that are still at their zero value
// after YAML unmarshaling.
func applyDefaults(cfg *Config) {
	if cfg.Store.Root == "" {
		cfg.Store.Root = "/manta"
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "/var/tmp/bytes_processed"
	}
	if cfg.Ledger.Program == "" {
		cfg.Ledger.Program = "mako-gc"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
