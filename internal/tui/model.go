package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

// ReadyMessage is shown once a document has been indexed.
const ReadyMessage = "Document processing complete. The system is ready for queries."

// Service is the TUI-facing subset of the pipeline.
type Service interface {
	Ingest(ctx context.Context, path string, progress usecase.ProgressFunc) (*usecase.IngestResult, error)
	AnswerWithSources(ctx context.Context, session *domain.Session, query string) (*domain.Answer, error)
	Reset(session *domain.Session) error
	Status() usecase.Status
}

type answerMsg struct {
	query  string
	answer *domain.Answer
	err    error
}

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryNotice
)

// entry is one line of the on-screen log, in the order it happened.
type entry struct {
	kind entryKind
	text string
}

type ingestMsg struct {
	result *usecase.IngestResult
	err    error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	ctx      context.Context
	service  Service
	session  *domain.Session
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	sources  []domain.ScoredChunk
	log      []entry
	status   string
	busy     bool
	ready    bool
}

// New creates a chat model bound to session.
func New(ctx context.Context, service Service, session *domain.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, /ingest <file.pdf>, /reset or /quit"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		service:  service,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
	m.status = m.describeState()
	return m
}

// Session returns the conversation the model appends to. It is only touched
// from Update, never from a command goroutine.
func (m Model) Session() *domain.Session { return m.session }

func (m *Model) notice(text string) {
	m.log = append(m.log, entry{kind: entryNotice, text: text})
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := historyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.notice("Error: " + msg.err.Error())
			m.status = m.describeState()
		} else {
			m.session.Append(domain.RoleUser, msg.query)
			m.session.Append(domain.RoleAssistant, msg.answer.Text)
			m.log = append(m.log,
				entry{kind: entryUser, text: msg.query},
				entry{kind: entryAssistant, text: msg.answer.Text},
			)
			m.sources = msg.answer.Sources
			m.status = fmt.Sprintf("Answered from %d passages", len(msg.answer.Sources))
		}
		m.refresh()
		return m, nil

	case ingestMsg:
		m.busy = false
		if msg.err != nil {
			m.notice("Ingestion failed: " + msg.err.Error())
		} else {
			m.notice(ReadyMessage)
			m.sources = nil
		}
		m.status = m.describeState()
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.busy {
		return m, nil
	}
	m.input.SetValue("")

	switch {
	case line == "/quit" || line == "/exit":
		return m, tea.Quit

	case line == "/reset":
		if err := m.service.Reset(m.session); err != nil {
			m.notice("Reset failed: " + err.Error())
		} else {
			m.log = nil
			m.sources = nil
		}
		m.status = m.describeState()
		m.refresh()
		return m, nil

	case strings.HasPrefix(line, "/ingest"):
		path := strings.TrimSpace(strings.TrimPrefix(line, "/ingest"))
		if path == "" {
			m.notice("Usage: /ingest <file.pdf>")
			m.refresh()
			return m, nil
		}
		m.busy = true
		m.status = "Indexing " + path
		m.refresh()
		return m, tea.Batch(m.spinner.Tick, m.ingest(path))
	}

	m.busy = true
	m.status = "Thinking"
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.ask(line))
}

// ask runs off the event loop, so it gets no session: the turns are
// recorded when the answerMsg arrives in Update.
func (m Model) ask(query string) tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		answer, err := service.AnswerWithSources(ctx, nil, query)
		return answerMsg{query: query, answer: answer, err: err}
	}
}

func (m Model) ingest(path string) tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		result, err := service.Ingest(ctx, path, nil)
		return ingestMsg{result: result, err: err}
	}
}

func (m Model) describeState() string {
	st := m.service.Status()
	if st.State == domain.StateReady && st.Info != nil {
		return fmt.Sprintf("Ready: %s (%d chunks)", st.Info.Source, st.Info.ChunkCount)
	}
	if st.State == domain.StateIndexing {
		return "Indexing"
	}
	return "No document indexed. Use /ingest <file.pdf>"
}

// refresh re-renders the history into the viewport and scrolls to the end.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	var b strings.Builder
	width := max(20, m.viewport.Width-2)

	for _, e := range m.log {
		switch e.kind {
		case entryUser:
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(lipgloss.NewStyle().Width(width).Render(e.text))
		case entryAssistant:
			b.WriteString(assistantStyle.Render("Assistant: "))
			b.WriteString(lipgloss.NewStyle().Width(width).Render(e.text))
		case entryNotice:
			b.WriteString(noticeStyle.Width(width).Render(e.text))
		}
		b.WriteString("\n\n")
	}

	if len(m.sources) > 0 {
		pages := make([]string, 0, len(m.sources))
		for _, s := range m.sources {
			pages = append(pages, fmt.Sprintf("p.%d (%.2f)", s.Chunk.Page, s.Score))
		}
		b.WriteString(sourceStyle.Render("Sources: " + strings.Join(pages, ", ")))
	}

	if b.Len() == 0 {
		return "No messages yet."
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docqa")
	history := historyBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())

	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + history + "\n" + input + "\n" + statusStyle.Render(status)
}

var (
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
