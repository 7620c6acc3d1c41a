// Package tui provides the interactive chat interface.
package tui

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driving"
)

// Styles for the chat transcript.
var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// Messages produced by the chat commands.
type (
	// answerMsg carries a completed routing+dispatch result.
	answerMsg struct{ answer *domain.Answer }

	// tokenMsg carries one streamed fragment.
	tokenMsg struct{ token string }

	// streamDoneMsg ends a streamed answer.
	streamDoneMsg struct{}

	// errMsg carries a failure from any command.
	errMsg struct{ err error }
)

// Model is the bubbletea model for the chat session.
type Model struct {
	answers driving.AnswerService

	viewport   viewport.Model
	input      textinput.Model
	transcript []string

	// current accumulates the in-flight streamed answer.
	current strings.Builder
	stream  domain.TokenStream
	agent   domain.AgentType

	waiting bool
	ready   bool
	err     error
}

// NewModel creates the chat model.
func NewModel(answers driving.AnswerService) Model {
	input := textinput.New()
	input.Placeholder = "Ask anything..."
	input.PromptStyle = promptStyle
	input.Focus()

	return Model{
		answers: answers,
		input:   input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.stream != nil {
				m.stream.Close()
			}
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()
			m.err = nil
			m.waiting = true
			m.transcript = append(m.transcript, userStyle.Render("you: ")+question)
			m.refresh()
			return m, m.ask(question)
		}

	case answerMsg:
		m.agent = msg.answer.Decision.SelectedAgent
		if !msg.answer.Streamed() {
			m.waiting = false
			m.appendAnswer(msg.answer.Text)
			m.refresh()
			return m, nil
		}
		m.stream = msg.answer.Stream
		m.current.Reset()
		return m, m.readToken()

	case tokenMsg:
		m.current.WriteString(msg.token)
		m.refresh()
		return m, m.readToken()

	case streamDoneMsg:
		m.waiting = false
		m.appendAnswer(m.current.String())
		m.current.Reset()
		m.stream = nil
		m.refresh()
		return m, nil

	case errMsg:
		m.waiting = false
		m.stream = nil
		m.err = msg.err
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}
	return m.viewport.View() + "\n\n" + m.input.View()
}

// ask starts routing+dispatch for one question.
func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.answers.Answer(context.Background(), question)
		if err != nil {
			return errMsg{err: err}
		}
		return answerMsg{answer: answer}
	}
}

// readToken pulls the next fragment from the live stream.
func (m Model) readToken() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			stream.Close()
			return streamDoneMsg{}
		}
		if err != nil {
			stream.Close()
			return errMsg{err: err}
		}
		return tokenMsg{token: fragment}
	}
}

func (m *Model) appendAnswer(text string) {
	label := labelStyle.Render("[" + string(m.agent) + "] ")
	m.transcript = append(m.transcript, label+agentStyle.Render(text))
}

// refresh rebuilds the viewport content from the transcript and any
// in-flight stream.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	lines := make([]string, len(m.transcript))
	copy(lines, m.transcript)
	if m.current.Len() > 0 {
		label := labelStyle.Render("[" + string(m.agent) + "] ")
		lines = append(lines, label+agentStyle.Render(m.current.String()))
	}
	if m.err != nil {
		lines = append(lines, errorStyle.Render("error: "+m.err.Error()))
	}
	m.viewport.SetContent(strings.Join(lines, "\n\n"))
	m.viewport.GotoBottom()
}

// Run starts the chat session and blocks until the user quits.
func Run(answers driving.AnswerService) error {
	program := tea.NewProgram(NewModel(answers), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
