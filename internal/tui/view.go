package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/newhook/issuerun/internal/api"
)

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("issuerun") + dimStyle.Render(" · "+m.deps.Repo))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.issues) == 0:
		b.WriteString(m.emptyState("Loading issues…", ""))
	case m.loadErr != nil:
		b.WriteString(m.emptyState("Couldn’t load issues", m.loadErr.Error()))
	case len(m.issues) == 0:
		b.WriteString(m.emptyState("No issues found", "This repository has no issues (or only PRs)."))
	default:
		b.WriteString(m.renderRows())
		b.WriteString("\n")
		b.WriteString(m.renderActions())
	}

	if outcome := m.renderOutcome(); outcome != "" {
		b.WriteString("\n\n")
		b.WriteString(outcome)
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())

	return m.zones.Scan(b.String())
}

func (m Model) emptyState(title, detail string) string {
	out := labelStyle.Render(title)
	if detail != "" {
		out += "\n" + dimStyle.Render(detail)
	}
	return out
}

// visibleRange returns the slice of rows that fits the window, keeping the
// cursor in view.
func (m Model) visibleRange() (int, int) {
	rows := max(m.height-14, 5)
	if len(m.issues) <= rows {
		return 0, len(m.issues)
	}
	start := max(m.cursor-rows/2, 0)
	end := start + rows
	if end > len(m.issues) {
		end = len(m.issues)
		start = end - rows
	}
	return start, end
}

func (m Model) renderRows() string {
	var b strings.Builder
	start, end := m.visibleRange()
	titleWidth := max(m.width-30, 10)

	for i := start; i < end; i++ {
		issue := m.issues[i]

		check := "[ ]"
		if m.sel.Has(issue.Number) {
			check = checkStyle.Render("[x]")
		}

		title := ansi.Truncate(issue.Title, titleWidth, "…")
		row := fmt.Sprintf("%s %s %s %s",
			check,
			issueIDStyle.Render(fmt.Sprintf("#%-5d", issue.Number)),
			labelStyle.Render(fmt.Sprintf("%-6s", issue.State)),
			title,
		)
		if i == m.cursor {
			row = cursorStyle.Render("›") + " " + row
		} else {
			row = "  " + row
		}
		if m.deps.Orchestrator.Running(issue.Number) {
			row += "  " + m.runningLabel()
		}

		b.WriteString(m.zones.Mark(m.rowZone(issue.Number), row))
		b.WriteString("\n")
	}

	if start > 0 || end < len(m.issues) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d–%d of %d", start+1, end, len(m.issues))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) runningLabel() string {
	if m.deps.ShowSpinner {
		return m.spinner.View() + runningStyle.Render("Running…")
	}
	return runningStyle.Render("Running…")
}

func (m Model) renderActions() string {
	busy := m.deps.Orchestrator.GroupBusy()
	selected := fmt.Sprintf("[s] Run selected (%d)", m.sel.Len())
	all := "[A] Run all"
	if busy {
		selected = "[s] Running…"
		all = "[A] Running…"
	}

	styleButton := func(label string, enabled bool) string {
		if enabled {
			return hotkeyStyle.Render(label)
		}
		return dimStyle.Render(label)
	}

	return strings.Join([]string{
		m.zones.Mark(m.prefix+"btn-s", styleButton(selected, m.sel.Len() > 0 && !busy)),
		m.zones.Mark(m.prefix+"btn-A", styleButton(all, !busy)),
		m.zones.Mark(m.prefix+"btn-r", styleButton("[r] Reload", true)),
	}, "   ")
}

func (m Model) renderOutcome() string {
	summary, result := m.deps.Orchestrator.Display()
	if summary == "" && result == nil {
		return ""
	}

	var b strings.Builder
	if summary != "" {
		style := statusSuccess
		if result != nil && result.Failed > 0 {
			style = statusFailed
		}
		b.WriteString(style.Render(summary))
	}
	if result == nil || len(result.Results) == 0 {
		return b.String()
	}

	width := max(min(m.width-2, 100), 30)
	for _, r := range result.Results {
		b.WriteString("\n")
		b.WriteString(cardStyle.Width(width).Render(renderCard(r, width-4)))
	}
	return b.String()
}

// renderCard renders the details of one issue's result.
func renderCard(r api.ExecutionResult, width int) string {
	var lines []string

	status := strings.ToUpper(string(r.Status))
	lines = append(lines, issueIDStyle.Render(fmt.Sprintf("#%d", r.IssueNumber))+" "+statusStyle(r.Status).Render(status))

	field := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, labelStyle.Render(label+": ")+ansi.Truncate(value, max(width-len(label)-2, 10), "…"))
	}

	switch r.Status {
	case api.StatusFailed:
		field("Error", r.ErrorText())
	case api.StatusSkipped:
		field("Skipped", r.Reason)
	}

	if r.Scoped != nil {
		field("Summary", r.Scoped.Summary)
		field("Confidence", r.Scoped.ConfidenceScore.String())
	}
	if r.Executed != nil {
		field("Pull Request", r.Executed.PullRequestURL)
		field("Branch", r.Executed.BranchName)
		if n := len(r.Executed.Files); n > 0 {
			field("Files", fmt.Sprintf("%d changed", n))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statusStyle(status api.RunStatus) lipgloss.Style {
	switch status {
	case api.StatusSuccess:
		return statusSuccess
	case api.StatusFailed:
		return statusFailed
	default:
		return statusOther
	}
}

func (m Model) renderStatusBar() string {
	hints := dimStyle.Render("↑/↓ move  space toggle  a all  enter run  s run selected  A run all  r reload  q quit")
	bar := hints
	if m.notice != "" {
		bar = errorStyle.Render(m.notice) + "  " + hints
	}
	return statusBarStyle.Width(max(m.width, 20)).Render(ansi.Truncate(bar, max(m.width-2, 18), "…"))
}
