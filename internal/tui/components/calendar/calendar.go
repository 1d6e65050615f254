package calendar

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	weekdayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(4)

	dayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(4)

	markedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true).
			Width(4)

	todayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Width(4)

	blankStyle = lipgloss.NewStyle().Width(4)
)

// Model renders one month as a Sunday-first grid and marks the days the
// patient checked in.
type Model struct {
	Year   int
	Month  time.Month
	Today  string
	marked map[string]bool
}

func New(year int, month time.Month, today string) Model {
	return Model{
		Year:   year,
		Month:  month,
		Today:  today,
		marked: make(map[string]bool),
	}
}

// SetMarkedDays replaces the set of highlighted days. Days outside the shown
// month are ignored at render time.
func (m *Model) SetMarkedDays(days []string) {
	m.marked = make(map[string]bool, len(days))
	for _, d := range days {
		m.marked[d] = true
	}
}

// Prev moves the view one month back.
func (m *Model) Prev() {
	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	m.Year, m.Month = first.Year(), first.Month()
}

// Next moves the view one month forward.
func (m *Model) Next() {
	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	m.Year, m.Month = first.Year(), first.Month()
}

// Cells lays the month out as Sunday-first rows. Leading and trailing blanks
// are empty strings; the grid is always a whole number of weeks.
func (m Model) Cells() [][]string {
	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	lead := int(first.Weekday())

	total := lead + daysInMonth
	weeks := (total + 6) / 7

	grid := make([][]string, weeks)
	day := 1
	for w := 0; w < weeks; w++ {
		row := make([]string, 7)
		for col := 0; col < 7; col++ {
			cell := w*7 + col
			if cell >= lead && day <= daysInMonth {
				row[col] = first.AddDate(0, 0, day-1).Format("2006-01-02")
				day++
			}
		}
		grid[w] = row
	}
	return grid
}

func (m Model) View() string {
	var b strings.Builder

	title := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")

	for _, wd := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		b.WriteString(weekdayStyle.Render(wd))
	}
	b.WriteString("\n")

	for _, week := range m.Cells() {
		for _, date := range week {
			if date == "" {
				b.WriteString(blankStyle.Render(""))
				continue
			}
			label := strings.TrimPrefix(date[8:], "0")
			switch {
			case m.marked[date]:
				b.WriteString(markedStyle.Render("●" + label))
			case date == m.Today:
				b.WriteString(todayStyle.Render(label))
			default:
				b.WriteString(dayStyle.Render(label))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
