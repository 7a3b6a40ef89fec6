// Package issue provides structured diagnostic records and reporters for
// surfacing per-file analysis problems without aborting a run.
package issue

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Severity classifies how serious an issue is.
type Severity int

// Severity levels, mildest first.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the lowercase display name of the severity.
func (severity Severity) String() string {
	switch severity {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Issue is one diagnostic record attached to a file path.
type Issue struct {
	Severity    Severity
	Category    string
	Path        string
	Title       string
	Description string
}

// Reporter consumes issues. Implementations must be safe for concurrent use;
// reporting is fire-and-forget.
type Reporter interface {
	Report(issue Issue)
}

// ConsoleReporter writes issues to a writer, one line per issue, with the
// severity colorized unless disabled.
type ConsoleReporter struct {
	writer  io.Writer
	noColor bool
	mu      sync.Mutex
}

// NewConsoleReporter creates a ConsoleReporter writing to w.
func NewConsoleReporter(w io.Writer, noColor bool) *ConsoleReporter {
	return &ConsoleReporter{writer: w, noColor: noColor}
}

// Report writes the issue as "severity [category] path: title".
func (reporter *ConsoleReporter) Report(reported Issue) {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()

	label := reported.Severity.String()
	if !reporter.noColor {
		label = severityColor(reported.Severity).Sprint(label)
	}

	fmt.Fprintf(reporter.writer, "%s [%s] %s: %s\n", label, reported.Category, reported.Path, reported.Title)
}

func severityColor(severity Severity) *color.Color {
	if severity == SeverityError {
		return color.New(color.FgRed)
	}

	return color.New(color.FgYellow)
}

// discardReporter drops every issue.
type discardReporter struct{}

func (discardReporter) Report(Issue) {}

// Discard returns a Reporter that drops every issue.
func Discard() Reporter {
	return discardReporter{}
}

// CollectingReporter accumulates issues in memory. Useful in tests and for
// summarizing a run after the fact.
type CollectingReporter struct {
	mu     sync.Mutex
	issues []Issue
}

// NewCollectingReporter creates an empty CollectingReporter.
func NewCollectingReporter() *CollectingReporter {
	return &CollectingReporter{}
}

// Report appends the issue.
func (reporter *CollectingReporter) Report(reported Issue) {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()

	reporter.issues = append(reporter.issues, reported)
}

// Issues returns a copy of the collected issues in report order.
func (reporter *CollectingReporter) Issues() []Issue {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()

	out := make([]Issue, len(reporter.issues))
	copy(out, reporter.issues)

	return out
}
