package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPrefix is the prefix for all fixpoint environment variables.
const envVarPrefix = "FIXPOINT_"

// configFileNames are searched in the working directory, first hit wins.
var configFileNames = []string{
	".fixpoint.yaml",
	".fixpoint.yml",
	"fixpoint.yaml",
	"fixpoint.yml",
}

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// WorkingDir is the directory searched for a project config file.
	// Defaults to the current working directory.
	WorkingDir string

	// ExplicitPath skips discovery and loads exactly this file.
	ExplicitPath string

	// IgnoreEnv skips the .env file and FIXPOINT_* variables.
	IgnoreEnv bool
}

// Load resolves the configuration. Precedence, lowest to highest:
// defaults, project config file, environment variables. CLI flags are
// applied by the caller on top of the result.
func Load(opts LoadOptions) (*Config, error) {
	workDir := opts.WorkingDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}

	cfg := NewConfig()

	path := opts.ExplicitPath
	if path == "" {
		path = discoverConfigFile(workDir)
	}
	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if !opts.IgnoreEnv {
		// A .env in the working directory seeds the process environment
		// without overriding variables already set.
		if err := godotenv.Load(filepath.Join(workDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		if err := loadFromEnv(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// discoverConfigFile returns the first config file present in dir, or "".
func discoverConfigFile(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func loadConfigFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadFromEnv applies FIXPOINT_* overrides to the configuration.
func loadFromEnv(cfg *Config) error {
	if v, ok := lookup("ANALYZER"); ok {
		cfg.Analyzer = v
	}
	if v, ok := lookup("STATE_DIR"); ok {
		cfg.StateDir = v
	}
	if v, ok := lookup("MAX_FIXES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer for %sMAX_FIXES: %q", envVarPrefix, v)
		}
		cfg.MaxFixes = n
	}
	if v, ok := lookup("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer for %sWORKERS: %q", envVarPrefix, v)
		}
		cfg.Workers = n
	}
	if v, ok := lookup("FAILURE_WINDOW"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer for %sFAILURE_WINDOW: %q", envVarPrefix, v)
		}
		cfg.FailureWindow = n
	}
	if v, ok := lookup("DRY_RUN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean for %sDRY_RUN: %q", envVarPrefix, v)
		}
		cfg.DryRun = b
	}
	if v, ok := lookup("BACKUPS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean for %sBACKUPS_ENABLED: %q", envVarPrefix, v)
		}
		cfg.Backups.Enabled = b
	}
	if v, ok := lookup("ORACLE_ENDPOINT"); ok {
		cfg.Oracle.Endpoint = v
		cfg.Oracle.Enabled = true
	}
	if v, ok := lookup("ORACLE_QUOTA"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer for %sORACLE_QUOTA: %q", envVarPrefix, v)
		}
		cfg.Oracle.Quota = n
	}
	return nil
}

func lookup(suffix string) (string, bool) {
	v := os.Getenv(envVarPrefix + suffix)
	return v, v != ""
}
