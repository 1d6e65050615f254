package chatlog

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lulu-health/lulu/internal/models"
)

var (
	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			PaddingLeft(1)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			PaddingLeft(1)
)

// SubmitMsg is emitted when the patient presses enter on a non-empty input.
type SubmitMsg struct {
	Text string
}

// Model shows the day's question and answer log above a text input.
type Model struct {
	viewport  viewport.Model
	input     textinput.Model
	messages  []models.ChatMessage
	errText   string
	exhausted bool
	busy      bool
	width     int
	height    int
}

func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your answer..."
	ti.CharLimit = 500
	ti.Focus()

	return Model{
		viewport: viewport.New(width, height),
		input:    ti,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.busy || m.exhausted {
			return m, nil
		}
		m.busy = true
		return m, func() tea.Msg { return SubmitMsg{Text: text} }
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	parts := []string{m.viewport.View()}
	if m.errText != "" {
		parts = append(parts, errorStyle.Render(m.errText))
	}
	if m.exhausted {
		parts = append(parts, doneStyle.Render("All questions answered for today. See you tomorrow!"))
	} else {
		parts = append(parts, m.input.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.input.Width = width - 4
	m.render()
}

// SetMessages replaces the log wholesale and scrolls to the newest entry.
func (m *Model) SetMessages(msgs []models.ChatMessage) {
	m.messages = msgs
	m.render()
	m.viewport.GotoBottom()
}

// SetError shows an inline failure line under the log. The typed input is
// left untouched so the patient can retry.
func (m *Model) SetError(text string) {
	m.errText = text
	m.busy = false
}

// SetExhausted hides the input once the day has no questions left.
func (m *Model) SetExhausted(exhausted bool) {
	m.exhausted = exhausted
}

// AnswerAccepted clears the input after a successful submit.
func (m *Model) AnswerAccepted() {
	m.input.Reset()
	m.errText = ""
	m.busy = false
}

func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

func (m *Model) Blur() {
	m.input.Blur()
}

func (m *Model) render() {
	var b strings.Builder
	for _, msg := range m.messages {
		if msg.IsUser() {
			b.WriteString(userStyle.Render("You: " + msg.Content))
		} else {
			b.WriteString(assistantStyle.Render("Lulu: " + msg.Content))
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}
