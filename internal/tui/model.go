// Package tui is the interactive issues view: pick issues, run them one at
// a time or in bulk, and watch the outcome of the latest run.
package tui

import (
	"context"
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/newhook/issuerun/internal/api"
	"github.com/newhook/issuerun/internal/logging"
	"github.com/newhook/issuerun/internal/resultcache"
	"github.com/newhook/issuerun/internal/runner"
	"github.com/newhook/issuerun/internal/selection"
)

// IssueLister loads the issue list. *api.Client implements it.
type IssueLister interface {
	ListIssues(ctx context.Context, repo string) (*api.IssueList, error)
}

// Restorer reads the cached outcome for a repository. *resultcache.Cache implements it.
type Restorer interface {
	Restore(ctx context.Context, repo string) (*resultcache.Entry, bool, error)
}

// Deps are the collaborators of the issues view.
type Deps struct {
	Repo         string
	Issues       IssueLister
	Cache        Restorer
	Orchestrator *runner.Orchestrator
	ShowSpinner  bool
	EnableMouse  bool
}

type issuesLoadedMsg struct {
	list *api.IssueList
	err  error
}

type restoredMsg struct {
	entry *resultcache.Entry
	err   error
}

type runSettledMsg struct {
	outcome *runner.Outcome
	err     error
}

// changedMsg means the orchestrator's markers or display slot changed.
type changedMsg struct{}

// Model is the bubbletea model for the issues view.
type Model struct {
	ctx   context.Context
	deps  Deps
	sel   *selection.Set
	watch chan struct{}

	issues   []api.IssueSummary
	cursor   int
	loading  bool
	loadErr  error
	restored bool
	notice   string

	spinner spinner.Model
	zones   *zone.Manager
	prefix  string
	width   int
	height  int
}

// New creates the issues view. It registers a change observer on the
// orchestrator so that runs started from this view redraw as they progress.
func New(ctx context.Context, deps Deps) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	zones := zone.New()

	watch := make(chan struct{}, 1)
	deps.Orchestrator.OnChange(func() {
		select {
		case watch <- struct{}{}:
		default:
		}
	})

	return Model{
		ctx:     ctx,
		deps:    deps,
		sel:     selection.New(nil),
		watch:   watch,
		loading: true,
		spinner: s,
		zones:   zones,
		prefix:  zones.NewPrefix(),
		width:   80,
		height:  24,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadIssues(), m.waitForChange()}
	if m.deps.ShowSpinner {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) loadIssues() tea.Cmd {
	ctx, client, repo := m.ctx, m.deps.Issues, m.deps.Repo
	return func() tea.Msg {
		list, err := client.ListIssues(ctx, repo)
		return issuesLoadedMsg{list: list, err: err}
	}
}

func (m Model) restore() tea.Cmd {
	ctx, cache, repo := m.ctx, m.deps.Cache, m.deps.Repo
	return func() tea.Msg {
		entry, ok, err := cache.Restore(ctx, repo)
		if !ok {
			entry = nil
		}
		return restoredMsg{entry: entry, err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	watch := m.watch
	return func() tea.Msg {
		<-watch
		return changedMsg{}
	}
}

func (m Model) submit(target runner.Target) tea.Cmd {
	ctx, o := m.ctx, m.deps.Orchestrator
	return func() tea.Msg {
		out, err := o.Submit(ctx, target)
		return runSettledMsg{outcome: out, err: err}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case issuesLoadedMsg:
		m.loading = false
		m.loadErr = msg.err
		if msg.err != nil {
			logging.Warn("failed to load issues", "repo", m.deps.Repo, "error", msg.err)
			return m, nil
		}
		m.issues = msg.list.Issues
		m.sel.SetItems(msg.list.Numbers())
		m.cursor = min(m.cursor, max(len(m.issues)-1, 0))
		if !m.restored && m.deps.Cache != nil {
			m.restored = true
			return m, m.restore()
		}
		return m, nil

	case restoredMsg:
		if msg.err != nil {
			logging.Warn("failed to restore cached outcome", "repo", m.deps.Repo, "error", msg.err)
			return m, nil
		}
		if msg.entry != nil {
			m.deps.Orchestrator.RestoreDisplay(msg.entry.Summary, msg.entry.Result)
		}
		return m, nil

	case changedMsg:
		return m, m.waitForChange()

	case runSettledMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

// handleMouse maps left clicks on a row or an action button to the
// equivalent key press.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	for _, key := range []string{"s", "A", "r"} {
		if m.zones.Get(m.prefix + "btn-" + key).InBounds(msg) {
			return m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		}
	}
	for i, issue := range m.issues {
		if m.zones.Get(m.rowZone(issue.Number)).InBounds(msg) {
			m.cursor = i
			return m.handleKey(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		}
	}
	return m, nil
}

func (m Model) rowZone(number int) string {
	return m.prefix + "row-" + strconv.Itoa(number)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.issues)-1 {
			m.cursor++
		}

	case " ":
		if issue, ok := m.cursorIssue(); ok {
			if err := m.sel.Toggle(issue.Number); err != nil {
				m.notice = err.Error()
			}
		}

	case "a":
		m.sel.ToggleAll()

	case "enter":
		issue, ok := m.cursorIssue()
		if !ok || m.deps.Orchestrator.Running(issue.Number) {
			return m, nil
		}
		return m, m.submit(runner.Single(issue.Number))

	case "s":
		if m.deps.Orchestrator.GroupBusy() {
			return m, nil
		}
		if m.sel.Len() == 0 {
			m.notice = runner.ErrEmptyTarget.Error()
			return m, nil
		}
		return m, m.submit(runner.Subset(m.sel.IDs()...))

	case "A":
		if m.deps.Orchestrator.GroupBusy() {
			return m, nil
		}
		return m, m.submit(runner.All())

	case "r":
		m.loading = true
		m.loadErr = nil
		return m, m.loadIssues()
	}
	return m, nil
}

func (m Model) cursorIssue() (api.IssueSummary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.issues) {
		return api.IssueSummary{}, false
	}
	return m.issues[m.cursor], true
}

// Run starts the issues view full screen and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	if deps.Orchestrator == nil {
		return errors.New("tui: orchestrator is required")
	}
	model := New(ctx, deps)
	defer model.zones.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if deps.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, opts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
