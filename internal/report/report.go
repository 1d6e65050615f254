package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/lulu-health/lulu/internal/storage"
	"github.com/lulu-health/lulu/internal/validation"
)

// Entry is one recorded answer within a question's timeline.
type Entry struct {
	Timestamp time.Time
	Answer    string
}

// QuestionTimeline groups every answer to one question over the report range,
// oldest first.
type QuestionTimeline struct {
	Question string
	Day      string
	Entries  []Entry
}

// Stats summarizes recent check-in activity for the home screen.
type Stats struct {
	WeekCount  int
	MonthCount int
	TotalDays  int
}

// Build assembles the per-question answer timeline for a session over a date
// range from local storage. Empty bounds widen the range to the whole
// session.
func Build(store storage.Provider, sessionID, startDay, endDay string) ([]QuestionTimeline, error) {
	if err := validation.DateRange(startDay, endDay); err != nil {
		return nil, err
	}
	if startDay == "" {
		startDay = "0000-01-01"
	}
	if endDay == "" {
		endDay = "9999-12-31"
	}

	questions, err := store.GetQuestionsInRange(sessionID, startDay, endDay)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	timelines := make([]QuestionTimeline, 0, len(questions))
	for _, q := range questions {
		answers, err := store.GetAnswersForQuestion(q.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load answers: %w", err)
		}
		if len(answers) == 0 {
			continue
		}
		tl := QuestionTimeline{Question: q.Text, Day: q.Day, Entries: make([]Entry, 0, len(answers))}
		for _, a := range answers {
			tl.Entries = append(tl.Entries, Entry{Timestamp: a.CreatedAt, Answer: a.Text})
		}
		timelines = append(timelines, tl)
	}
	return timelines, nil
}

// SymptomDates returns the days on which the patient answered at least one
// question, sorted ascending. The calendar marks these.
func SymptomDates(store storage.Provider, sessionID string) ([]string, error) {
	days, err := store.GetAnsweredDays(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answered days: %w", err)
	}
	return days, nil
}

// BuildStats counts answered days in the trailing week and month relative to
// today.
func BuildStats(store storage.Provider, sessionID string, today time.Time) (Stats, error) {
	days, err := store.GetAnsweredDays(sessionID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load answered days: %w", err)
	}

	weekStart := today.AddDate(0, 0, -6).Format(validation.DayFormat)
	monthStart := today.AddDate(0, -1, 0).Format(validation.DayFormat)
	todayStr := today.Format(validation.DayFormat)

	stats := Stats{TotalDays: len(days)}
	for _, day := range days {
		if day > todayStr {
			continue
		}
		if day >= weekStart {
			stats.WeekCount++
		}
		if day >= monthStart {
			stats.MonthCount++
		}
	}
	return stats, nil
}

// FormatRemote renders the backend's question -> {"A1": entry} report map in
// a stable order: questions alphabetically, answer keys by length then value
// so A10 follows A9.
func FormatRemote(data map[string]map[string]string) string {
	questions := make([]string, 0, len(data))
	for q := range data {
		questions = append(questions, q)
	}
	sort.Strings(questions)

	var out string
	for _, question := range questions {
		out += question + "\n"
		answers := data[question]
		keys := make([]string, 0, len(answers))
		for k := range answers {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) < len(keys[j])
			}
			return keys[i] < keys[j]
		})
		for _, key := range keys {
			out += fmt.Sprintf("  %s: %s\n", key, answers[key])
		}
	}
	return out
}

// FormatTimeline renders a timeline the way the downloadable report lays it
// out: the question, then each answer with its timestamp.
func FormatTimeline(timelines []QuestionTimeline) string {
	var out string
	for _, tl := range timelines {
		out += fmt.Sprintf("%s (%s)\n", tl.Question, tl.Day)
		for i, e := range tl.Entries {
			out += fmt.Sprintf("  A%d: %s, %s\n", i+1, e.Timestamp.Format("2006-01-02 15:04"), e.Answer)
		}
	}
	return out
}
