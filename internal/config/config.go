// Package config provides configuration loading for fixpoint: defaults
// merged with a project YAML file, environment variables, and CLI flags,
// in ascending precedence.
package config

import (
	"fmt"

	"github.com/fixpoint-dev/fixpoint/pkg/pipeline"
)

// Config is the resolved fixpoint configuration.
type Config struct {
	// Analyzer is the external static analyzer binary.
	Analyzer string `yaml:"analyzer"`

	// AnalyzerArgs are passed to the analyzer verbatim.
	AnalyzerArgs []string `yaml:"analyzer_args"`

	// StateDir holds the database and backups, relative to the project root
	// unless absolute.
	StateDir string `yaml:"state_dir"`

	// MaxFixes caps fix attempts per run, 0 means unlimited.
	MaxFixes int `yaml:"max_fixes"`

	// DryRun computes fixes without writing files.
	DryRun bool `yaml:"dry_run"`

	// Workers bounds fix-phase parallelism.
	Workers int `yaml:"workers"`

	// FailureWindow sizes the fix-phase circuit breaker.
	FailureWindow int `yaml:"failure_window"`

	Backups BackupsConfig `yaml:"backups"`
	Oracle  OracleConfig  `yaml:"oracle"`
}

// BackupsConfig controls pre-mutation file copies.
type BackupsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Strict turns a failed backup into a failed fix attempt.
	Strict bool `yaml:"strict"`
}

// OracleConfig controls the advisory oracle client.
type OracleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`

	// TimeoutSeconds bounds one oracle request.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Quota caps oracle consultations per run.
	Quota int `yaml:"quota"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		StateDir:      ".fixpoint",
		Workers:       pipeline.DefaultWorkers,
		FailureWindow: pipeline.DefaultFailureWindow,
		Backups:       BackupsConfig{Enabled: true},
		Oracle:        OracleConfig{TimeoutSeconds: 30, Quota: 50},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Analyzer == "" {
		return fmt.Errorf("analyzer binary is not configured")
	}
	if c.MaxFixes < 0 {
		return fmt.Errorf("max_fixes must be >= 0, got %d", c.MaxFixes)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Oracle.Enabled && c.Oracle.Endpoint == "" {
		return fmt.Errorf("oracle.endpoint is required when the oracle is enabled")
	}
	return nil
}
