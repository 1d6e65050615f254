package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/lulu-health/lulu/internal/chat"
	"github.com/lulu-health/lulu/internal/tui/components/chatlog"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.chatLog.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case snapshotMsg:
		m.applySnapshot(msg.snap, msg.submitted)
		return m, nil

	case seedDoneMsg:
		m.seedErr = msg.err
		// Seeded questions may add answered days to the calendar.
		return m, m.loadHomeCmd()

	case homeDataMsg:
		if msg.err == nil {
			m.stats = msg.stats
			m.calendar.SetMarkedDays(msg.days)
		}
		return m, nil

	case reportMsg:
		if msg.err != nil {
			m.reportErr = msg.err.Error()
			m.reportView = ""
		} else {
			m.reportErr = ""
			m.reportView = msg.text
			if m.reportView == "" {
				m.reportView = "No answers recorded in this range."
			}
		}
		m.state = StateReports
		return m, nil

	case chatlog.SubmitMsg:
		snap := m.controller.Snapshot()
		if snap.ActiveQuestionID == nil {
			m.chatLog.SetError("No active question")
			return m, nil
		}
		return m, m.submitCmd(*snap.ActiveQuestionID, msg.Text)
	}

	if m.state == StateReportForm {
		return m.updateReportForm(msg)
	}
	return m.updateChildren(msg)
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.state == StateReportForm {
		return m.updateReportForm(msg)
	}

	// The chat input owns most keys while that tab is active.
	if m.state == StateChat {
		switch {
		case key.Matches(msg, m.keys.Tab):
			m.state = StateReports
			m.chatLog.Blur()
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = StateHome
			m.chatLog.Blur()
			return m, nil
		}
		return m.updateChildren(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		m.state = (m.state + 1) % tabCount
		return m.enterState()
	case key.Matches(msg, m.keys.ShiftTab):
		m.state = (m.state - 1 + tabCount) % tabCount
		return m.enterState()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.state {
	case StateHome:
		switch {
		case key.Matches(msg, m.keys.Left):
			m.calendar.Prev()
		case key.Matches(msg, m.keys.Right):
			m.calendar.Next()
		case key.Matches(msg, m.keys.Retry):
			return m, m.loadHomeCmd()
		}
	case StateReports:
		if key.Matches(msg, m.keys.Report) {
			m.previousState = m.state
			m.state = StateReportForm
			m.newReportForm()
			return m, m.form.Init()
		}
	}
	return m, nil
}

func (m Model) updateReportForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.state = m.previousState
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.buildReportCmd(m.reportForm.StartDate, m.reportForm.EndDate)
	}
	return m, cmd
}

func (m Model) enterState() (tea.Model, tea.Cmd) {
	if m.state == StateChat {
		return m, tea.Batch(m.chatLog.Focus(), m.reloadCmd())
	}
	if m.state == StateHome {
		return m, m.loadHomeCmd()
	}
	return m, nil
}

func (m Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.chatLog, cmd = m.chatLog.Update(msg)
	return m, cmd
}

func (m *Model) applySnapshot(snap chat.Snapshot, submitted bool) {
	m.chatLog.SetMessages(snap.Messages)
	m.chatLog.SetExhausted(snap.Exhausted)
	if snap.LastError == nil {
		if submitted {
			m.chatLog.AnswerAccepted()
		}
		return
	}
	// The answer was accepted whenever the failure happened after the
	// submit itself, so the input must not keep the sent text.
	if submitted && snap.LastError.Kind != chat.KindSubmitAnswer && snap.LastError.Kind != chat.KindValidation {
		m.chatLog.AnswerAccepted()
	}
	m.chatLog.SetError(snap.LastError.Display)
}
