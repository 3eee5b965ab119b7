package tui

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

type fakeService struct {
	delay     time.Duration
	sessions  atomic.Int32 // calls that were handed a session
	state     domain.State
	answer    string
	answerErr error
	ingested  []string
	resets    int
}

func (f *fakeService) Ingest(_ context.Context, path string, _ usecase.ProgressFunc) (*usecase.IngestResult, error) {
	f.ingested = append(f.ingested, path)
	f.state = domain.StateReady
	return &usecase.IngestResult{Document: path, Chunks: 3}, nil
}

func (f *fakeService) AnswerWithSources(_ context.Context, session *domain.Session, query string) (*domain.Answer, error) {
	time.Sleep(f.delay)
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	if session != nil {
		f.sessions.Add(1)
		session.Append(domain.RoleUser, query)
		session.Append(domain.RoleAssistant, f.answer)
	}
	return &domain.Answer{
		Text:    f.answer,
		Sources: []domain.ScoredChunk{{Chunk: domain.Chunk{Page: 2, Text: "Paris is the capital."}, Score: 0.91}},
	}, nil
}

func (f *fakeService) Reset(session *domain.Session) error {
	f.resets++
	f.state = domain.StateEmpty
	session.Clear()
	return nil
}

func (f *fakeService) Status() usecase.Status {
	st := usecase.Status{State: f.state}
	if f.state == domain.StateReady {
		st.Info = &domain.IndexInfo{Source: "france.pdf", ChunkCount: 3}
	}
	return st
}

func newTestModel(svc *fakeService) Model {
	m := New(context.Background(), svc, domain.NewSession())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

// enter types line and presses Enter, then delivers the async result.
func enter(t *testing.T, m Model, line string) Model {
	t.Helper()
	m.input.SetValue(line)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		return m
	}

	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		return m
	}
	for _, c := range batch {
		switch msg := c().(type) {
		case answerMsg, ingestMsg:
			updated, _ = m.Update(msg)
			m = updated.(Model)
		}
	}
	return m
}

func TestModelAnswersQuestion(t *testing.T) {
	svc := &fakeService{state: domain.StateReady, answer: "The capital of France is Paris."}
	m := newTestModel(svc)

	m = enter(t, m, "What is the capital of France?")

	assert.False(t, m.busy)
	require.Len(t, m.Session().Turns, 2)
	assert.Equal(t, domain.RoleUser, m.Session().Turns[0].Role)
	assert.Equal(t, "The capital of France is Paris.", m.Session().Turns[1].Content)
	assert.Len(t, m.sources, 1)
	assert.Contains(t, m.renderHistory(), "p.2")
	assert.Empty(t, m.input.Value())
}

func TestModelShowsErrors(t *testing.T) {
	svc := &fakeService{state: domain.StateEmpty, answerErr: domain.ErrNotReady}
	m := newTestModel(svc)

	m = enter(t, m, "anything")

	assert.Empty(t, m.Session().Turns)
	require.Len(t, m.log, 1)
	assert.Equal(t, entryNotice, m.log[0].kind)
	assert.Contains(t, m.log[0].text, domain.ErrNotReady.Error())
}

func TestModelIngestCommand(t *testing.T) {
	svc := &fakeService{state: domain.StateEmpty}
	m := newTestModel(svc)
	assert.Contains(t, m.status, "No document indexed")

	m = enter(t, m, "/ingest france.pdf")

	assert.Equal(t, []string{"france.pdf"}, svc.ingested)
	assert.Contains(t, m.log, entry{kind: entryNotice, text: ReadyMessage})
	assert.Contains(t, m.status, "france.pdf")
}

func TestModelIngestWithoutPath(t *testing.T) {
	svc := &fakeService{}
	m := newTestModel(svc)

	m = enter(t, m, "/ingest")

	assert.Empty(t, svc.ingested)
	assert.Contains(t, m.log, entry{kind: entryNotice, text: "Usage: /ingest <file.pdf>"})
}

func TestModelResetCommand(t *testing.T) {
	svc := &fakeService{state: domain.StateReady, answer: "Paris."}
	m := newTestModel(svc)
	m = enter(t, m, "capital?")
	require.NotEmpty(t, m.Session().Turns)

	m = enter(t, m, "/reset")

	assert.Equal(t, 1, svc.resets)
	assert.Empty(t, m.Session().Turns)
	assert.Empty(t, m.log)
	assert.Nil(t, m.sources)
	assert.Contains(t, m.status, "No document indexed")
}

func TestModelIgnoresInputWhileBusy(t *testing.T) {
	svc := &fakeService{state: domain.StateReady, answer: "x"}
	m := newTestModel(svc)
	m.busy = true

	m.input.SetValue("second question")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, "second question", updated.(Model).input.Value())
}

func TestModelViewBeforeResize(t *testing.T) {
	m := New(context.Background(), &fakeService{}, domain.NewSession())
	assert.Equal(t, "Loading...", m.View())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}


func TestModelAnswerDoesNotShareSession(t *testing.T) {
	svc := &fakeService{state: domain.StateReady, answer: "Paris.", delay: 20 * time.Millisecond}
	m := newTestModel(svc)

	m.input.SetValue("capital?")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.NotNil(t, cmd)

	// The answer is computed on another goroutine while the event loop keeps
	// rendering; run with -race to catch shared writes.
	done := make(chan tea.Msg)
	go func() { done <- cmd() }()
	for i := 0; i < 20; i++ {
		updated, _ = m.Update(tea.WindowSizeMsg{Width: 80 + i, Height: 24})
		m = updated.(Model)
	}

	for _, c := range (<-done).(tea.BatchMsg) {
		if msg, ok := c().(answerMsg); ok {
			updated, _ = m.Update(msg)
			m = updated.(Model)
		}
	}

	assert.Equal(t, int32(0), svc.sessions.Load())
	require.Len(t, m.Session().Turns, 2)
	assert.Equal(t, "capital?", m.Session().Turns[0].Content)
	assert.Equal(t, "Paris.", m.Session().Turns[1].Content)
}

func TestModelLogKeepsOrder(t *testing.T) {
	svc := &fakeService{state: domain.StateEmpty, answer: "The capital of France is Paris."}
	m := newTestModel(svc)

	m = enter(t, m, "/ingest france.pdf")
	m = enter(t, m, "What is the capital of France?")

	history := m.renderHistory()
	ready := strings.Index(history, ReadyMessage)
	question := strings.Index(history, "What is the capital of France?")
	require.True(t, ready >= 0 && question >= 0)
	assert.Less(t, ready, question)

	kinds := make([]entryKind, 0, len(m.log))
	for _, e := range m.log {
		kinds = append(kinds, e.kind)
	}
	assert.Equal(t, []entryKind{entryNotice, entryUser, entryAssistant}, kinds)
}
