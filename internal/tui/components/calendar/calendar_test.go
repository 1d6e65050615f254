package calendar

import (
	"strings"
	"testing"
	"time"
)

func TestCellsAugust2026(t *testing.T) {
	// August 2026 starts on a Saturday and has 31 days.
	m := New(2026, time.August, "2026-08-30")
	grid := m.Cells()

	if len(grid) != 6 {
		t.Fatalf("expected 6 weeks, got %d", len(grid))
	}
	for i := 0; i < 6; i++ {
		if grid[0][i] != "" {
			t.Errorf("expected leading blank at column %d, got %q", i, grid[0][i])
		}
	}
	if grid[0][6] != "2026-08-01" {
		t.Errorf("expected Aug 1 in the Saturday column, got %q", grid[0][6])
	}
	if grid[5][0] != "2026-08-30" {
		t.Errorf("expected Aug 30 to start the last week, got %q", grid[5][0])
	}
	if grid[5][1] != "2026-08-31" {
		t.Errorf("expected Aug 31 after Aug 30, got %q", grid[5][1])
	}
	for i := 2; i < 7; i++ {
		if grid[5][i] != "" {
			t.Errorf("expected trailing blank at column %d, got %q", i, grid[5][i])
		}
	}
}

func TestCellsFebruaryFitsExactWeeks(t *testing.T) {
	// February 2026 starts on a Sunday and has 28 days: exactly 4 weeks.
	m := New(2026, time.February, "2026-02-01")
	grid := m.Cells()

	if len(grid) != 4 {
		t.Fatalf("expected 4 weeks, got %d", len(grid))
	}
	if grid[0][0] != "2026-02-01" {
		t.Errorf("expected Feb 1 in the Sunday column, got %q", grid[0][0])
	}
	if grid[3][6] != "2026-02-28" {
		t.Errorf("expected Feb 28 to end the grid, got %q", grid[3][6])
	}
}

func TestPrevNextWrapYear(t *testing.T) {
	m := New(2026, time.January, "2026-01-15")

	m.Prev()
	if m.Year != 2025 || m.Month != time.December {
		t.Errorf("expected December 2025, got %s %d", m.Month, m.Year)
	}

	m.Next()
	if m.Year != 2026 || m.Month != time.January {
		t.Errorf("expected January 2026, got %s %d", m.Month, m.Year)
	}
}

func TestViewMarksAnsweredDays(t *testing.T) {
	m := New(2026, time.August, "2026-08-30")
	m.SetMarkedDays([]string{"2026-08-10"})

	out := m.View()
	if !strings.Contains(out, "August 2026") {
		t.Errorf("missing month title: %q", out)
	}
	if !strings.Contains(out, "●10") {
		t.Errorf("missing mark for answered day: %q", out)
	}
}
