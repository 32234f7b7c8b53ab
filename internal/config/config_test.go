package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	assert.Equal(t, ".fixpoint", cfg.StateDir)
	assert.True(t, cfg.Backups.Enabled)
	assert.Zero(t, cfg.MaxFixes)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.Oracle.Enabled)
}

func TestLoadProjectFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `
analyzer: rustc-json
analyzer_args: ["--edition", "2021"]
max_fixes: 10
backups:
  enabled: false
oracle:
  enabled: true
  endpoint: http://localhost:9000/analyze
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fixpoint.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoadOptions{WorkingDir: dir, IgnoreEnv: true})
	require.NoError(t, err)

	assert.Equal(t, "rustc-json", cfg.Analyzer)
	assert.Equal(t, []string{"--edition", "2021"}, cfg.AnalyzerArgs)
	assert.Equal(t, 10, cfg.MaxFixes)
	assert.False(t, cfg.Backups.Enabled)
	assert.True(t, cfg.Oracle.Enabled)
	assert.Equal(t, "http://localhost:9000/analyze", cfg.Oracle.Endpoint)
}

func TestLoadExplicitPathWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fixpoint.yaml"), []byte("analyzer: from-project\n"), 0o644))
	explicit := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("analyzer: from-explicit\n"), 0o644))

	cfg, err := Load(LoadOptions{WorkingDir: dir, ExplicitPath: explicit, IgnoreEnv: true})
	require.NoError(t, err)
	assert.Equal(t, "from-explicit", cfg.Analyzer)
}

func TestLoadMalformedFileFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fixpoint.yaml"), []byte("analyzer: [unclosed\n"), 0o644))

	_, err := Load(LoadOptions{WorkingDir: dir, IgnoreEnv: true})
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fixpoint.yaml"), []byte("analyzer: from-file\nmax_fixes: 3\n"), 0o644))

	t.Setenv("FIXPOINT_ANALYZER", "from-env")
	t.Setenv("FIXPOINT_MAX_FIXES", "7")
	t.Setenv("FIXPOINT_DRY_RUN", "true")

	cfg, err := Load(LoadOptions{WorkingDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Analyzer)
	assert.Equal(t, 7, cfg.MaxFixes)
	assert.True(t, cfg.DryRun)
}

func TestEnvRejectsBadValues(t *testing.T) {
	t.Setenv("FIXPOINT_MAX_FIXES", "many")

	_, err := Load(LoadOptions{WorkingDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIXPOINT_MAX_FIXES")
}

func TestDotEnvSeedsEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FIXPOINT_ANALYZER=from-dotenv\n"), 0o644))

	cfg, err := Load(LoadOptions{WorkingDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Analyzer)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) { c.Analyzer = "rustc-json" }},
		{name: "missing analyzer", mutate: func(*Config) {}, wantErr: true},
		{
			name:    "negative max fixes",
			mutate:  func(c *Config) { c.Analyzer = "a"; c.MaxFixes = -1 },
			wantErr: true,
		},
		{
			name:    "oracle enabled without endpoint",
			mutate:  func(c *Config) { c.Analyzer = "a"; c.Oracle.Enabled = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
