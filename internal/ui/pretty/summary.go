package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
	"github.com/fixpoint-dev/fixpoint/pkg/pipeline"
	"github.com/fixpoint-dev/fixpoint/pkg/scan"
)

const summaryDividerWidth = 40

// FormatDiagnostic renders one diagnostic as a single line.
func (s *Styles) FormatDiagnostic(d *diag.Diagnostic) string {
	severity := s.severityStyle(d.Severity).Render(string(d.Severity))
	return fmt.Sprintf("%s %s %s %s",
		s.Location.Render(d.Location()),
		severity,
		s.Code.Render(d.Code),
		s.Message.Render(d.Message))
}

func (s *Styles) severityStyle(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SeverityCritical:
		return s.Critical
	case diag.SeverityHigh:
		return s.High
	case diag.SeverityMedium:
		return s.Medium
	default:
		return s.Low
	}
}

// FormatScanSummaryOneLine formats scan results as a single line.
// Example: "7 diagnostics (3 new, 4 seen before) in 2 files".
func (s *Styles) FormatScanSummaryOneLine(result *scan.Result) string {
	if result.Total == 0 {
		return s.Success.Render("No diagnostics found") + "\n"
	}

	word := "diagnostics"
	if result.Total == 1 {
		word = "diagnostic"
	}
	fileWord := "files"
	if len(result.ByFile) == 1 {
		fileWord = "file"
	}

	line := fmt.Sprintf("%d %s (%s, %s) in %d %s",
		result.Total, word,
		s.Warning.Render(fmt.Sprintf("%d new", result.New)),
		s.Dim.Render(fmt.Sprintf("%d seen before", result.Existing)),
		len(result.ByFile), fileWord)
	if result.Skipped > 0 {
		line += s.Dim.Render(fmt.Sprintf(", %d lines skipped", result.Skipped))
	}
	return line + "\n"
}

// FormatRunSummary formats a full pipeline run as a summary block.
func (s *Styles) FormatRunSummary(summary *pipeline.Summary) string {
	var builder strings.Builder

	builder.WriteString("\n")
	builder.WriteString(s.SummaryTitle.Render("Summary"))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth))
	builder.WriteString("\n")

	if summary.Scan != nil {
		builder.WriteString("  Diagnostics found: " +
			s.SummaryValue.Render(strconv.Itoa(summary.Scan.Total)) + "\n")
		builder.WriteString("    New:             " +
			s.Warning.Render(strconv.Itoa(summary.Scan.New)) + "\n")
		builder.WriteString("    Seen before:     " +
			s.SummaryValue.Render(strconv.Itoa(summary.Scan.Existing)) + "\n")
	}

	if summary.Analyze != nil {
		builder.WriteString("  Causal edges:      " +
			s.SummaryValue.Render(strconv.Itoa(summary.Analyze.Edges)) + "\n")
		builder.WriteString("  Clusters:          " +
			s.SummaryValue.Render(strconv.Itoa(len(summary.Analyze.Clusters))) + "\n")
		if summary.Analyze.CyclesBroken > 0 {
			builder.WriteString("  Cycles broken:     " +
				s.Warning.Render(strconv.Itoa(summary.Analyze.CyclesBroken)) + "\n")
		}
	}

	if summary.Fix != nil {
		builder.WriteString("  Fixes attempted:   " +
			s.SummaryValue.Render(strconv.Itoa(summary.Fix.Attempts)) + "\n")
		builder.WriteString("    Applied:         " +
			s.Success.Render(strconv.Itoa(summary.Fix.Applied)) + "\n")
		if summary.Fix.Failed > 0 {
			builder.WriteString("    Failed:          " +
				s.Failure.Render(strconv.Itoa(summary.Fix.Failed)) + "\n")
		}
		if summary.Fix.Skipped > 0 {
			builder.WriteString("    Skipped:         " +
				s.Dim.Render(strconv.Itoa(summary.Fix.Skipped)) + "\n")
		}
	}

	builder.WriteString("\n")

	switch summary.Status() {
	case pipeline.RunCircuitBroken:
		builder.WriteString(s.Warning.Render("Run halted by circuit breaker"))
	case pipeline.RunAborted:
		builder.WriteString(s.Failure.Render("Run aborted"))
	default:
		builder.WriteString(s.Success.Render("Run completed"))
	}
	builder.WriteString("\n")

	return builder.String()
}
