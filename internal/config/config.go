// Package config loads the optional YAML configuration file. Every field
// has a sensible default; command-line flags override whatever the file
// sets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tool configuration.
type Config struct {
	// Workers is the number of search goroutines. Zero means one per CPU.
	Workers int `yaml:"workers"`
	// ReportInterval is the progress-line interval.
	ReportInterval Duration `yaml:"report_interval"`
	// OutputDir is where keypair files are written.
	OutputDir string `yaml:"output_dir"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Workers:        0,
		ReportInterval: Duration(time.Second),
		OutputDir:      ".",
	}
}

// Load reads path over the defaults. An empty path returns the defaults
// unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.ReportInterval < 0 {
		return fmt.Errorf("report_interval must not be negative, got %s", c.ReportInterval)
	}
	if c.ReportInterval > 0 && c.ReportInterval.Std() < 250*time.Millisecond {
		return fmt.Errorf("report_interval below 250ms would spam the console, got %s", c.ReportInterval)
	}
	return nil
}
