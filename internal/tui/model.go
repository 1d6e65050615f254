package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/lulu-health/lulu/internal/chat"
	"github.com/lulu-health/lulu/internal/report"
	"github.com/lulu-health/lulu/internal/storage"
	"github.com/lulu-health/lulu/internal/tui/components/calendar"
	"github.com/lulu-health/lulu/internal/tui/components/chatlog"
)

type SessionState int

const (
	StateHome SessionState = iota
	StateChat
	StateReports
	StateReportForm
)

const tabCount = 3

type snapshotMsg struct {
	snap chat.Snapshot
	// submitted marks snapshots produced by an answer submission, which are
	// the only ones allowed to clear the input box.
	submitted bool
}

type seedDoneMsg struct {
	err error
}

type homeDataMsg struct {
	stats report.Stats
	days  []string
	err   error
}

type reportMsg struct {
	text string
	err  error
}

type ReportFormModel struct {
	StartDate string
	EndDate   string
}

type Model struct {
	store      storage.Provider
	controller *chat.Controller
	sessionID  string
	today      string

	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model

	chatLog    chatlog.Model
	calendar   calendar.Model
	stats      report.Stats
	reportView string
	reportErr  string

	form       *huh.Form
	reportForm *ReportFormModel

	seedDone <-chan error
	seedErr  error
	quitting bool
	width    int
	height   int
}

// NewModel wires the TUI. seedDone may be nil when seeding already finished.
func NewModel(store storage.Provider, controller *chat.Controller, sessionID string, seedDone <-chan error) Model {
	now := time.Now()
	today := now.Format("2006-01-02")

	return Model{
		store:      store,
		controller: controller,
		sessionID:  sessionID,
		seedDone:   seedDone,
		today:      today,
		state:      StateHome,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		chatLog:    chatlog.New(0, 0),
		calendar:   calendar.New(now.Year(), now.Month(), today),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.chatLog.Init(), m.initFlowCmd(), m.loadHomeCmd()}
	if m.seedDone != nil {
		cmds = append(cmds, WaitForSeed(m.seedDone))
	}
	return tea.Batch(cmds...)
}

func (m Model) initFlowCmd() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: m.controller.Initialize(context.Background())}
	}
}

func (m Model) submitCmd(questionID int, text string) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: m.controller.Submit(context.Background(), questionID, text), submitted: true}
	}
}

func (m Model) advanceCmd() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: m.controller.Advance(context.Background())}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: m.controller.ReloadMessages(context.Background())}
	}
}

func (m Model) loadHomeCmd() tea.Cmd {
	return func() tea.Msg {
		stats, err := report.BuildStats(m.store, m.sessionID, time.Now())
		if err != nil {
			return homeDataMsg{err: err}
		}
		days, err := report.SymptomDates(m.store, m.sessionID)
		if err != nil {
			return homeDataMsg{err: err}
		}
		return homeDataMsg{stats: stats, days: days}
	}
}

func (m Model) buildReportCmd(startDate, endDate string) tea.Cmd {
	return func() tea.Msg {
		timelines, err := report.Build(m.store, m.sessionID, startDate, endDate)
		if err != nil {
			return reportMsg{err: err}
		}
		return reportMsg{text: report.FormatTimeline(timelines)}
	}
}

// WaitForSeed surfaces the background seeding result once it arrives.
func WaitForSeed(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return seedDoneMsg{err: <-done}
	}
}

func (m *Model) newReportForm() {
	m.reportForm = &ReportFormModel{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Start date").
				Description("YYYY-MM-DD, empty for the whole session").
				Value(&m.reportForm.StartDate),
			huh.NewInput().
				Title("End date").
				Description("YYYY-MM-DD, empty for today").
				Value(&m.reportForm.EndDate),
		),
	)
}
