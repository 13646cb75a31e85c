// Package render prints issues and run outcomes as plain terminal text.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/newhook/issuerun/internal/api"
)

const (
	ruleWidth    = 80
	summaryWidth = 74
	bodyWidth    = 78
	maxFiles     = 8
	maxCommits   = 5
	maxCommitLen = 200
)

// Printer writes human-readable output to w. Colors are used only when w
// is a terminal that supports them.
type Printer struct {
	w io.Writer

	heading lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		heading: r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Rule prints a full-width separator made of char.
func (p *Printer) Rule(char string) {
	p.printf("%s\n", strings.Repeat(char, ruleWidth))
}

// IssueList prints the issues of repo sorted by number, or the server's
// message when there are none.
func (p *Printer) IssueList(repo string, list *api.IssueList) {
	if list == nil || len(list.Issues) == 0 {
		msg := "No issues found."
		if list != nil && list.Message != "" {
			msg = list.Message
		}
		p.printf("%s\n", msg)
		return
	}

	issues := make([]api.IssueSummary, len(list.Issues))
	copy(issues, list.Issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Number < issues[j].Number })

	p.printf("\n%s\n", p.heading.Render(fmt.Sprintf("Issues for repo '%s':", repo)))
	p.Rule("-")
	for _, issue := range issues {
		p.printf("#%-5d [%-6s] %s\n", issue.Number, issue.State, issue.Title)
		p.printf("     URL: %s\n", issue.URL)
	}
	p.Rule("-")
}

// IssueDetail prints one issue with its body wrapped.
func (p *Printer) IssueDetail(issue *api.IssueDetail) {
	body := issue.Body
	if strings.TrimSpace(body) == "" {
		body = "(no body)"
	}

	p.printf("\n%s\n", p.heading.Render(fmt.Sprintf("#%d [%s] %s", issue.Number, issue.State, issue.Title)))
	p.Rule("=")
	p.printf("%s\n", wordwrap.String(body, bodyWidth))
	p.Rule("=")
	p.printf("URL: %s\n\n", issue.URL)
}

// Outcome prints a run's summary line, the batch header and every result.
func (p *Printer) Outcome(summary string, result *api.BatchRunResult) {
	if summary != "" {
		p.printf("%s\n", p.summaryStyle(result).Render(summary))
	}
	if result == nil {
		return
	}

	selected := fmt.Sprint(len(result.Results))
	if result.TotalSelected != nil {
		selected = fmt.Sprint(*result.TotalSelected)
	}
	p.printf("Selected issues: %s   Succeeded: %d   Failed: %d\n", selected, result.Succeeded, result.Failed)
	p.Rule("-")
	for _, r := range result.Results {
		p.Result(r)
	}
}

func (p *Printer) summaryStyle(result *api.BatchRunResult) lipgloss.Style {
	if result != nil && result.Failed > 0 {
		return p.failure
	}
	return p.success
}

// Result prints one issue's outcome followed by a rule.
func (p *Printer) Result(r api.ExecutionResult) {
	status := r.Status
	if status == "" {
		status = api.StatusSuccess
	}
	p.printf("Issue #%d: %s\n", r.IssueNumber, p.statusStyle(status).Render(strings.ToUpper(string(status))))

	switch status {
	case api.StatusFailed:
		p.printf("  • Error: %s\n", r.ErrorText())
	case api.StatusSkipped:
		if r.Reason != "" {
			p.printf("  • Skipped: %s\n", r.Reason)
		}
	}

	if s := r.Scoped; s != nil {
		if s.Summary != "" {
			p.printf("  • Summary:\n")
			for _, line := range wrapLines(s.Summary, summaryWidth) {
				p.printf("     %s\n", line)
			}
		}
		if len(s.ConfidenceScore) > 0 {
			p.printf("  • Confidence: %s\n", s.ConfidenceScore)
		}
		if s.ActionPlan != nil {
			p.printf("  • Plan steps: %d\n", len(s.ActionPlan))
		}
	}

	if e := r.Executed; e != nil {
		if e.PullRequestURL != "" {
			p.printf("  • Pull Request: %s\n", e.PullRequestURL)
		}
		if e.BranchName != "" {
			p.printf("  • Branch: %s\n", e.BranchName)
		}
		if len(e.Files) > 0 {
			p.printf("  • Files:\n")
			for _, f := range head(e.Files, maxFiles) {
				p.printf("     - %s\n", f)
			}
			if extra := len(e.Files) - maxFiles; extra > 0 {
				p.printf("     - …and %d more\n", extra)
			}
		}
		if len(e.Commits) > 0 {
			p.printf("  • Commits:\n")
			for _, c := range head(e.Commits, maxCommits) {
				p.printf("     - %s\n", truncate.String(strings.TrimSpace(c.String()), maxCommitLen))
			}
		}
	}

	p.Rule("-")
}

func (p *Printer) statusStyle(status api.RunStatus) lipgloss.Style {
	switch status {
	case api.StatusSuccess:
		return p.success
	case api.StatusFailed:
		return p.failure
	default:
		return p.muted
	}
}

// wrapLines collapses whitespace in s and wraps it at width.
func wrapLines(s string, width int) []string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		return nil
	}
	return strings.Split(wordwrap.String(collapsed, width), "\n")
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
