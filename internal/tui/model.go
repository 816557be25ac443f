package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/projectbrain/internal/history"
	"github.com/diogo/projectbrain/internal/models"
	"github.com/diogo/projectbrain/internal/render"
	"github.com/diogo/projectbrain/internal/session"
)

// Message types for the TUI
type (
	turnResolvedMsg struct {
		reply models.Message
		err   error
	}
	ingestDoneMsg struct {
		err error
	}
	exportDoneMsg struct {
		path string
		err  error
	}
)

// Ingester triggers re-ingestion of the document corpus
type Ingester interface {
	Ingest(ctx context.Context) error
}

// Model represents the chat TUI state
type Model struct {
	ctx      context.Context
	session  *session.Session
	ingester Ingester
	baseURL  string
	opts     render.Options

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	loading bool
	ready   bool
	notice  string
	err     error

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a chat model around an existing session. ingester
// may be nil, in which case /ingest reports an error.
func NewChatModel(ctx context.Context, sess *session.Session, ingester Ingester, baseURL string, opts render.Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about the construction docs (\"list\" or \"schedule\" extracts a table)..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		ctx:      ctx,
		session:  sess,
		ingester: ingester,
		baseURL:  baseURL,
		opts:     opts,
		textarea: ta,
		spinner:  s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 5
		statusHeight := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - 2
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4
		if contentWidth < 20 {
			contentWidth = 20
		}

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()
		m.viewport.GotoBottom()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if !m.loading {
				return m, tea.Quit
			}

		case "enter":
			if m.loading {
				return m, nil
			}
			return m.submit()
		}

	case turnResolvedMsg:
		m.loading = false
		m.textarea.Focus()
		m.updateViewport()
		m.viewport.GotoBottom()

	case ingestDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.notice = "Re-ingestion triggered"
		}

	case exportDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.notice = "Conversation exported to " + msg.path
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Input is disabled while a turn is in flight
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles the enter key: commands first, then a conversation turn.
// Blank input is ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	m.notice = ""
	m.err = nil

	switch {
	case input == "exit" || input == "quit" || input == "/exit" || input == "/quit":
		return m, tea.Quit

	case input == "/ingest":
		m.textarea.Reset()
		m.notice = "Triggering re-ingestion..."
		return m, m.ingest()

	case input == "/export" || strings.HasPrefix(input, "/export "):
		path := strings.TrimSpace(strings.TrimPrefix(input, "/export"))
		if path == "" {
			m.err = fmt.Errorf("usage: /export <file.md|file.json>")
			return m, nil
		}
		m.textarea.Reset()
		return m, m.export(path)
	}

	turn, err := m.session.Start(m.textarea.Value())
	if err != nil {
		m.err = err
		return m, nil
	}

	m.loading = true
	m.textarea.Reset()
	m.textarea.Blur()
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.resolve(turn), m.spinner.Tick)
}

func (m Model) resolve(turn *session.Turn) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		reply, err := turn.Resolve(ctx)
		return turnResolvedMsg{reply: reply, err: err}
	}
}

func (m Model) ingest() tea.Cmd {
	ctx, ingester := m.ctx, m.ingester
	return func() tea.Msg {
		if ingester == nil {
			return ingestDoneMsg{err: fmt.Errorf("ingestion not available")}
		}
		return ingestDoneMsg{err: ingester.Ingest(ctx)}
	}
}

func (m Model) export(path string) tea.Cmd {
	messages := m.session.Snapshot()
	return func() tea.Msg {
		opts := history.DefaultExportOptions()
		opts.Format = history.FormatFromPath(path)
		return exportDoneMsg{path: path, err: history.WriteExport(path, messages, opts)}
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.viewport.Width
	var sections []string

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("◆ Project Brain"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.baseURL),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(header))

	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View()))

	var input string
	if m.loading {
		input = m.spinner.View() + loadingStyle.Render(" Processing...")
	} else {
		input = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(input))

	sections = append(sections, m.renderStatusBar(contentWidth))

	switch {
	case m.err != nil:
		sections = append(sections, FormatError(m.err))
	case m.notice != "":
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"/ingest", "Re-index"},
		{"/export", "Save"},
		{"Esc", "Quit"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport re-renders the conversation into the viewport
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 8
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	opts := m.opts.WithWidth(bubbleWidth - 4)

	for i, msg := range m.session.Snapshot() {
		if i > 0 {
			content.WriteString("\n")
		}
		rendered := render.Message(msg, opts, currentTheme)
		if msg.IsUser() {
			content.WriteString(userLabelStyle.Render("● You") + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(rendered))
		} else {
			content.WriteString(assistantLabelStyle.Render("◆ Project Brain") + "\n")
			content.WriteString(assistantBubble.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// Messages returns the conversation shown by the model
func (m Model) Messages() []models.Message {
	return m.session.Snapshot()
}

// Loading reports whether a turn is in flight
func (m Model) Loading() bool {
	return m.loading
}

// RunChat starts the interactive chat
func RunChat(ctx context.Context, sess *session.Session, ingester Ingester, baseURL string, opts render.Options) error {
	m := NewChatModel(ctx, sess, ingester, baseURL, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
