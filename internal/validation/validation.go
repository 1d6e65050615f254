package validation

import (
	"fmt"
	"strings"
	"time"
)

// DayFormat is the canonical calendar-day layout used across the app.
const DayFormat = "2006-01-02"

// AnswerText rejects answers that are empty or whitespace only.
func AnswerText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("answer cannot be empty")
	}
	return nil
}

// Day checks that s is a real date in YYYY-MM-DD form.
func Day(s string) error {
	if _, err := time.Parse(DayFormat, s); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return nil
}

// DateRange checks both bounds and that start does not come after end. Either
// bound may be empty for an open range.
func DateRange(start, end string) error {
	if start != "" {
		if err := Day(start); err != nil {
			return err
		}
	}
	if end != "" {
		if err := Day(end); err != nil {
			return err
		}
	}
	if start != "" && end != "" && start > end {
		return fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return nil
}
