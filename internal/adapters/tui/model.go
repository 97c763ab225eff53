// Package tui is the terminal front end over a search session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
	"github.com/0xcro3dile/linesearch-go/internal/domain/usecases"
)

// SessionPort is the TUI-facing subset of usecases.Session.
type SessionPort interface {
	LoadFile(ctx context.Context, path string) (*entities.RecordBatch, error)
	LoadURL(ctx context.Context, url string) (*entities.RecordBatch, error)
	LoadGitHub(ctx context.Context, url string) (*entities.RecordBatch, error)
	Search(ctx context.Context, query string) (entities.ResultSet, bool, error)
	Reset(ctx context.Context) error
	Snapshot() usecases.Snapshot
}

var _ SessionPort = (*usecases.Session)(nil)

const helpText = "Enter searches. /load <path>, /url <url>, /github <url>, /reset. Ctrl+C quits."

// actionDoneMsg reports the end of a session action run off the update loop.
type actionDoneMsg struct {
	status string
	query  string
}

// Model is the Bubble Tea model for the terminal UI.
type Model struct {
	ctx       context.Context
	session   SessionPort
	input     textinput.Model
	viewport  viewport.Model
	snap      usecases.Snapshot
	status    string
	lastQuery string
	busy      bool
	ready     bool
}

// New creates a TUI model over session. ctx bounds every action it starts.
func New(ctx context.Context, session SessionPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter search query..."
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		snap:     session.Snapshot(),
		status:   helpText,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and action events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 4 + qh + 1 // header, stats, summary, status + spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case actionDoneMsg:
		m.busy = false
		m.status = msg.status
		if msg.query != "" {
			m.lastQuery = msg.query
		}
		m.snap = m.session.Snapshot()
		m.viewport.SetContent(m.renderResults())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			raw := m.input.Value()
			line := strings.TrimSpace(raw)
			if line == "" {
				return m, nil
			}
			var cmd tea.Cmd
			if strings.HasPrefix(line, "/") {
				cmd = m.dispatch(line)
			} else {
				cmd = m.searchCmd(raw)
			}
			if cmd != nil {
				m.busy = true
				m.status = "Loading..."
				m.input.SetValue("")
			}
			return m, cmd
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// dispatch turns a slash command into a session action. A nil command means
// the line was handled in place.
func (m *Model) dispatch(line string) tea.Cmd {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	ctx, session := m.ctx, m.session

	switch name {
	case "/reset":
		return func() tea.Msg {
			if err := session.Reset(ctx); err != nil {
				return actionDoneMsg{status: "Reset failed: " + err.Error()}
			}
			return actionDoneMsg{status: "Cleared all records"}
		}
	case "/load", "/url", "/github":
		if arg == "" {
			m.status = "Usage: " + name + " <location>"
			return nil
		}
		load := session.LoadFile
		switch name {
		case "/url":
			load = session.LoadURL
		case "/github":
			load = session.LoadGitHub
		}
		return func() tea.Msg {
			batch, err := load(ctx, arg)
			if err != nil {
				return actionDoneMsg{status: "Load failed"}
			}
			return actionDoneMsg{status: fmt.Sprintf("Loaded %d lines from %s", batch.Len(), batch.Source)}
		}
	}
	m.status = "Unknown command: " + name
	return nil
}

func (m *Model) searchCmd(query string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		_, applied, err := session.Search(ctx, query)
		switch {
		case err != nil:
			return actionDoneMsg{status: "Search failed"}
		case !applied:
			return actionDoneMsg{status: "Nothing to search yet. Load a source first."}
		}
		return actionDoneMsg{status: "Search complete", query: query}
	}
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Line Search")
	stats := mutedStyle.Render(fmt.Sprintf("%d lines loaded from %d sources", m.snap.Records, len(m.snap.Batches)))
	var summary string
	if m.snap.Error != "" {
		summary = errorStyle.Render(m.snap.Error)
	} else {
		summary = summaryStyle.Render(m.snap.Summary)
	}
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + stats + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResults() string {
	if len(m.snap.Results) == 0 {
		return "No results yet."
	}
	var b strings.Builder
	for i, r := range m.snap.Results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(highlightMatch(r.Content, m.lastQuery))
		b.WriteString("\n")
		if r.Source != "" {
			b.WriteString(mutedStyle.Render("Source: " + r.Source))
			b.WriteString("\n")
		}
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// highlightMatch marks every case-insensitive occurrence of query in text.
func highlightMatch(text, query string) string {
	q := strings.ToLower(query)
	if q == "" {
		return text
	}
	lower := strings.ToLower(text)
	// lowering can change byte lengths; fall back to plain text then
	if len(lower) != len(text) {
		return text
	}
	var b strings.Builder
	for {
		i := strings.Index(lower, q)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteString(highlightStyle.Render(text[i : i+len(q)]))
		text, lower = text[i+len(q):], lower[i+len(q):]
	}
}
