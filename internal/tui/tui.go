// Package tui renders planned edits for interactive review before they are
// written.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/textedit/pkg/patch"
)

// Decision is how a review session ended.
type Decision int

const (
	DecisionPending Decision = iota
	DecisionApplied
	DecisionAborted
)

func (d Decision) String() string {
	switch d {
	case DecisionApplied:
		return "applied"
	case DecisionAborted:
		return "aborted"
	default:
		return "pending"
	}
}

// Entry is one file of a review: either a plan that passed every check or the
// outcome explaining why it did not.
type Entry struct {
	Request patch.FileEditRequest
	Plan    *patch.Plan
	Outcome patch.Outcome
}

// Ready reports whether the entry can be applied.
func (e Entry) Ready() bool {
	return e.Plan != nil
}

// Prepare plans every request without writing anything.
func Prepare(ctx context.Context, engine *patch.Engine, requests []patch.FileEditRequest) []Entry {
	entries := make([]Entry, 0, len(requests))
	for _, req := range requests {
		plan, perr := engine.Plan(ctx, req)
		if perr != nil {
			entries = append(entries, Entry{Request: req, Outcome: perr.Outcome()})
			continue
		}
		entries = append(entries, Entry{Request: req, Plan: &plan})
	}
	return entries
}

var (
	fileStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("129"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	border       = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

// RenderPlan renders the operations of plan as removed and added lines, one
// hunk per range.
func RenderPlan(plan patch.Plan) string {
	var b strings.Builder
	b.WriteString(fileStyle.Render(plan.FilePath))
	b.WriteString("\n")
	if !plan.Changed() {
		b.WriteString(mutedStyle.Render("  no changes"))
		b.WriteString("\n")
		return b.String()
	}
	for _, op := range plan.Operations {
		b.WriteString(hunkStyle.Render("@@ " + op.Range.String() + " @@"))
		b.WriteString("\n")
		if !op.Range.Empty() {
			for _, line := range plan.Original[op.Range.Start-1 : op.Range.End] {
				b.WriteString(removedStyle.Render("-" + trimTerminator(line)))
				b.WriteString("\n")
			}
		}
		for _, line := range patch.SplitLines(op.Content) {
			b.WriteString(addedStyle.Render("+" + trimTerminator(line)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func trimTerminator(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// RenderEntries renders every entry of a review.
func RenderEntries(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		if e.Ready() {
			b.WriteString(RenderPlan(*e.Plan))
			continue
		}
		b.WriteString(fileStyle.Render(e.Request.FilePath))
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("[" + string(e.Outcome.Kind) + "] "))
		b.WriteString(patch.FormatOutcome(e.Outcome))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderResults renders the outcome of applying a review.
func RenderResults(results []patch.FileResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Outcome.OK() {
			b.WriteString(okStyle.Render("ok ") + r.FilePath + mutedStyle.Render(" "+r.Outcome.Hash) + "\n")
			continue
		}
		b.WriteString(errorStyle.Render(string(r.Outcome.Kind)+" ") + r.FilePath + "\n")
		for _, line := range strings.Split(patch.FormatOutcome(r.Outcome), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

type applyDoneMsg struct{ results []patch.FileResult }

type model struct {
	ctx     context.Context
	engine  *patch.Engine
	entries []Entry

	vp     viewport.Model
	spin   spinner.Model
	width  int
	height int
	ready  bool

	applying bool
	decision Decision
	results  []patch.FileResult
}

func newModel(ctx context.Context, engine *patch.Engine, entries []Entry) *model {
	sp := spinner.New()
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	return &model{ctx: ctx, engine: engine, entries: entries, spin: sp}
}

func (m *model) readyCount() int {
	n := 0
	for _, e := range m.entries {
		if e.Ready() {
			n++
		}
	}
	return n
}

// applyCmd applies every ready entry. Each file is planned again by the engine
// so changes made on disk since the review started are caught.
func (m *model) applyCmd() tea.Cmd {
	ctx, engine, entries := m.ctx, m.engine, m.entries
	return func() tea.Msg {
		results := make([]patch.FileResult, 0, len(entries))
		for _, e := range entries {
			if !e.Ready() {
				results = append(results, patch.FileResult{FilePath: e.Request.FilePath, Outcome: e.Outcome})
				continue
			}
			results = append(results, patch.FileResult{FilePath: e.Request.FilePath, Outcome: engine.ApplyFile(ctx, e.Request)})
		}
		return applyDoneMsg{results: results}
	}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if m.applying {
			return m, tea.Batch(cmds...)
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q", "n":
			m.decision = DecisionAborted
			return m, tea.Quit
		case "y":
			if m.readyCount() == 0 {
				m.decision = DecisionAborted
				return m, tea.Quit
			}
			m.applying = true
			return m, tea.Batch(append(cmds, m.applyCmd())...)
		}

	case applyDoneMsg:
		m.applying = false
		m.decision = DecisionApplied
		m.results = msg.results
		return m, tea.Quit
	}

	return m, tea.Batch(cmds...)
}

func (m *model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	inner := m.width - 2
	if inner < 1 {
		inner = 1
	}
	vpH := m.height - 4
	if vpH < 3 {
		vpH = 3
	}
	if !m.ready {
		m.vp = viewport.New(inner, vpH)
		m.ready = true
	} else {
		m.vp.Width = inner
		m.vp.Height = vpH
	}
	m.vp.SetContent(RenderEntries(m.entries))
}

func (m model) footer() string {
	if m.applying {
		return m.spin.View() + " applying edits…"
	}
	ready := m.readyCount()
	if ready == 0 {
		return errorStyle.Render("nothing can be applied") + mutedStyle.Render("  [q] quit")
	}
	return fmt.Sprintf("apply %d of %d file(s)? ", ready, len(m.entries)) + mutedStyle.Render("[y] apply  [n/q] abort  [↑/↓] scroll")
}

func (m model) View() string {
	if !m.ready {
		return "Preparing review…"
	}
	return border.Render(m.vp.View()) + "\n" + m.footer()
}

// Options controls the terminal a review runs on.
type Options struct {
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
}

// Review shows entries and waits for the user to accept or reject them. When
// accepted, the ready entries are applied and their results returned along
// with the outcomes of entries that failed planning.
func Review(ctx context.Context, engine *patch.Engine, entries []Entry, opts Options) (Decision, []patch.FileResult, error) {
	// Fixed profile so lipgloss never queries the terminal background.
	lipgloss.SetColorProfile(termenv.ANSI256)
	lipgloss.SetHasDarkBackground(true)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(newModel(ctx, engine, entries), progOpts...).Run()
	if err != nil {
		return DecisionAborted, nil, fmt.Errorf("tui error: %w", err)
	}
	m, ok := final.(*model)
	if !ok {
		return DecisionAborted, nil, fmt.Errorf("tui error: unexpected model %T", final)
	}
	return m.decision, m.results, nil
}
