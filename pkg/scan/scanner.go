// Package scan invokes the external static analyzer over a project tree and
// reconciles its raw output into persistent diagnostics.
package scan

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/fixpoint-dev/fixpoint/internal/logging"
	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// Sentinel errors for fatal scan failures.
var (
	// ErrProjectRoot indicates the project root is missing or unreadable.
	ErrProjectRoot = errors.New("project root not readable")

	// ErrAnalyzer indicates the analyzer binary could not be started.
	ErrAnalyzer = errors.New("analyzer failed to start")
)

// maxLineSize bounds a single analyzer output line.
const maxLineSize = 1 << 20

// Recorder is the slice of the store the scanner writes through.
type Recorder interface {
	UpsertDiagnostic(*diag.Diagnostic) (*diag.Diagnostic, bool, error)
}

// Options configures one scan.
type Options struct {
	// Analyzer is the analyzer binary name or path.
	Analyzer string

	// Args are passed to the analyzer verbatim.
	Args []string
}

// Result summarizes one completed scan.
type Result struct {
	Total      int            `json:"total"`
	New        int            `json:"new"`
	Existing   int            `json:"existing"`
	Skipped    int            `json:"skipped"`
	BySeverity map[string]int `json:"by_severity"`
	ByCategory map[string]int `json:"by_category"`
	ByFile     map[string]int `json:"by_file"`
	ByLanguage map[string]int `json:"by_language"`
	Duration   time.Duration  `json:"duration"`

	// Diagnostics holds the reconciled records, in analyzer output order.
	Diagnostics []*diag.Diagnostic `json:"-"`
}

// Scanner runs the analyzer and reconciles its findings.
type Scanner struct {
	recorder Recorder
}

// New creates a scanner recording through recorder.
func New(recorder Recorder) *Scanner {
	return &Scanner{recorder: recorder}
}

// Scan runs the analyzer against projectRoot and upserts every parsed
// diagnostic.
//
// The analyzer is expected to emit one JSON object per stdout line. A
// malformed or incomplete line is logged and skipped; it never aborts the
// scan. A non-zero analyzer exit is tolerated as long as output was
// parseable, since analyzers conventionally exit non-zero when they find
// problems.
func (s *Scanner) Scan(ctx context.Context, projectRoot string, opts Options) (*Result, error) {
	start := time.Now()
	log := logging.FromContext(ctx)

	stat, err := os.Stat(projectRoot)
	if err != nil || !stat.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProjectRoot, projectRoot)
	}

	cmd := exec.CommandContext(ctx, opts.Analyzer, opts.Args...)
	cmd.Dir = projectRoot
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("analyzer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAnalyzer, opts.Analyzer, err)
	}

	result := &Result{
		BySeverity: map[string]int{},
		ByCategory: map[string]int{},
		ByFile:     map[string]int{},
		ByLanguage: map[string]int{},
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw rawDiagnostic
		if err := json.Unmarshal(line, &raw); err != nil {
			result.Skipped++
			log.Warn("skipping malformed analyzer line", logging.FieldError, err)
			continue
		}
		if !raw.valid() {
			result.Skipped++
			log.Warn("skipping incomplete analyzer line", logging.FieldFile, raw.File, logging.FieldLine, raw.Line)
			continue
		}

		d, created, err := s.recorder.UpsertDiagnostic(normalize(&raw))
		if err != nil {
			_ = cmd.Wait()
			return nil, fmt.Errorf("record diagnostic: %w", err)
		}
		result.tally(d, created, projectRoot)
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("read analyzer output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("analyzer: %w", err)
		}
		log.Debug("analyzer exited non-zero", logging.FieldAnalyzer, opts.Analyzer, logging.FieldError, err)
	}

	result.Duration = time.Since(start)
	log.Info("scan complete",
		logging.FieldAnalyzer, opts.Analyzer,
		logging.FieldDiagnosticsNew, result.New,
		logging.FieldDiagnosticsSeen, result.Existing,
		logging.FieldLinesSkipped, result.Skipped,
		logging.FieldDuration, result.Duration,
	)
	return result, nil
}

func (r *Result) tally(d *diag.Diagnostic, created bool, projectRoot string) {
	r.Total++
	if created {
		r.New++
	} else {
		r.Existing++
	}
	r.BySeverity[string(d.Severity)]++
	r.ByCategory[string(d.Category)]++
	r.ByFile[d.File]++
	r.ByLanguage[languageOf(projectRoot, d.File)]++
	r.Diagnostics = append(r.Diagnostics, d)
}
