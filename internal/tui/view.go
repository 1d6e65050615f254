package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateHome:
		content = m.viewHome()
	case StateChat:
		content = docStyle.Render(m.chatLog.View())
	case StateReports:
		content = m.viewReports()
	case StateReportForm:
		content = docStyle.Render(m.form.View())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.help.View(m.keys),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Home", "Chat", "Reports"} {
		if m.state == SessionState(i) || (m.state == StateReportForm && i == int(StateReports)) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHome() string {
	stats := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Check-ins"),
		statStyle.Render(fmt.Sprintf("This week:  %d days", m.stats.WeekCount)),
		statStyle.Render(fmt.Sprintf("This month: %d days", m.stats.MonthCount)),
		statStyle.Render(fmt.Sprintf("All time:   %d days", m.stats.TotalDays)),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.calendar.View(), "   ", stats)
	if m.seedErr != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", dangerStyle.Render("Failed to prepare today's questions: "+m.seedErr.Error()))
	}
	return docStyle.Render(body)
}

func (m Model) viewReports() string {
	if m.reportErr != "" {
		return docStyle.Render(dangerStyle.Render(m.reportErr) + "\n\nPress 'g' to try another date range.")
	}
	if m.reportView == "" {
		return docStyle.Render("Press 'g' to generate a symptom report.")
	}
	return docStyle.Render(titleStyle.Render("Symptom report") + "\n\n" + m.reportView)
}
