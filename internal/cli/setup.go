package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fixpoint-dev/fixpoint/internal/config"
	"github.com/fixpoint-dev/fixpoint/internal/ui/pretty"
	"github.com/fixpoint-dev/fixpoint/pkg/fsutil"
	"github.com/fixpoint-dev/fixpoint/pkg/oracle"
	"github.com/fixpoint-dev/fixpoint/pkg/pipeline"
	"github.com/fixpoint-dev/fixpoint/pkg/store"
)

// commonFlags are shared by the phase subcommands.
type commonFlags struct {
	projectRoot string
	reportPath  string
	dryRun      bool
	maxErrors   int
	noBackup    bool
}

func addCommonFlags(cmd *cobra.Command, flags *commonFlags) {
	cmd.Flags().StringVar(&flags.projectRoot, "project-root", "", "project root to operate on (default: current directory)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "write a JSON run report to this path")
}

func addFixFlags(cmd *cobra.Command, flags *commonFlags) {
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "compute fixes without writing files")
	cmd.Flags().IntVar(&flags.maxErrors, "max-errors", 0, "cap fix attempts per run (0 = unlimited)")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "skip pre-mutation backups")
}

// app bundles everything a phase command needs.
type app struct {
	cfg    *config.Config
	store  *store.Store
	pipe   *pipeline.Pipeline
	styles *pretty.Styles
}

func (a *app) close() {
	_ = a.store.Close()
}

// setup loads configuration, opens the store, and wires the pipeline.
// Flag values override file and environment configuration.
func setup(cmd *cobra.Command, flags *commonFlags) (*app, error) {
	projectRoot := flags.projectRoot
	if projectRoot == "" {
		var err error
		projectRoot, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		WorkingDir:   projectRoot,
		ExplicitPath: configPath,
	})
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if cmd.Flags().Changed("max-errors") {
		cfg.MaxFixes = flags.maxErrors
	}
	if flags.noBackup {
		cfg.Backups.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stateDir := cfg.StateDir
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(projectRoot, stateDir)
	}

	st, err := store.Open(stateDir)
	if err != nil {
		return nil, err
	}

	backup := fsutil.DefaultBackupConfig(stateDir)
	backup.Enabled = cfg.Backups.Enabled
	backup.Strict = cfg.Backups.Strict

	var advisor oracle.Advisor
	if cfg.Oracle.Enabled {
		advisor = oracle.NewClient(oracle.ClientConfig{
			Endpoint: cfg.Oracle.Endpoint,
			Timeout:  time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
			Quota:    cfg.Oracle.Quota,
		})
	}

	pipe := pipeline.New(st, pipeline.Config{
		ProjectRoot:   projectRoot,
		Analyzer:      cfg.Analyzer,
		AnalyzerArgs:  cfg.AnalyzerArgs,
		MaxFixes:      cfg.MaxFixes,
		DryRun:        cfg.DryRun,
		Backup:        backup,
		FailureWindow: cfg.FailureWindow,
		Workers:       cfg.Workers,
		Advisor:       advisor,
	})

	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		return nil, fmt.Errorf("get color flag: %w", err)
	}

	return &app{
		cfg:    cfg,
		store:  st,
		pipe:   pipe,
		styles: pretty.NewStyles(pretty.IsColorEnabled(colorMode, os.Stdout)),
	}, nil
}
