package issue_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkscout/chunkscout/pkg/issue"
)

func TestSeverityString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "warning", issue.SeverityWarning.String())
	assert.Equal(t, "error", issue.SeverityError.String())
	assert.Equal(t, "unknown", issue.Severity(99).String())
}

func TestConsoleReporter_FormatsOneLinePerIssue(t *testing.T) {
	t.Parallel()

	var buf strings.Builder

	reporter := issue.NewConsoleReporter(&buf, true)
	reporter.Report(issue.Issue{
		Severity: issue.SeverityWarning,
		Category: "parsing",
		Path:     "/p/broken.js",
		Title:    "Unable to parse source file",
	})

	assert.Equal(t, "warning [parsing] /p/broken.js: Unable to parse source file\n", buf.String())
}

func TestConsoleReporter_ErrorSeverity(t *testing.T) {
	t.Parallel()

	var buf strings.Builder

	reporter := issue.NewConsoleReporter(&buf, true)
	reporter.Report(issue.Issue{
		Severity: issue.SeverityError,
		Category: "resolution",
		Path:     "/p/app.js",
		Title:    "boom",
	})

	assert.True(t, strings.HasPrefix(buf.String(), "error "))
}

func TestCollectingReporter_KeepsReportOrder(t *testing.T) {
	t.Parallel()

	reporter := issue.NewCollectingReporter()
	reporter.Report(issue.Issue{Path: "/p/a.js"})
	reporter.Report(issue.Issue{Path: "/p/b.js"})

	issues := reporter.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, "/p/a.js", issues[0].Path)
	assert.Equal(t, "/p/b.js", issues[1].Path)
}

func TestCollectingReporter_IssuesReturnsACopy(t *testing.T) {
	t.Parallel()

	reporter := issue.NewCollectingReporter()
	reporter.Report(issue.Issue{Path: "/p/a.js"})

	first := reporter.Issues()
	first[0].Path = "/p/mutated.js"

	assert.Equal(t, "/p/a.js", reporter.Issues()[0].Path)
}

func TestCollectingReporter_ConcurrentReports(t *testing.T) {
	t.Parallel()

	reporter := issue.NewCollectingReporter()

	var wg sync.WaitGroup

	workers := 8
	perWorker := 50

	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()

			for range perWorker {
				reporter.Report(issue.Issue{Path: "/p/x.js"})
			}
		}()
	}

	wg.Wait()

	assert.Len(t, reporter.Issues(), workers*perWorker)
}

func TestDiscard_DropsEverything(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		issue.Discard().Report(issue.Issue{Path: "/p/a.js"})
	})
}
