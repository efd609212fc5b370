package energy

import (
	"testing"
	"time"
)

func paris(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	return loc
}

func TestTodayIsPartial(t *testing.T) {
	loc := paris(t)
	now := time.Date(2024, 6, 12, 14, 30, 0, 0, loc)
	cal := NewCalendarAt(loc, now)

	w := cal.Today()
	if !w.Start.Equal(time.Date(2024, 6, 12, 0, 0, 0, 0, loc)) {
		t.Errorf("today start = %v, want midnight", w.Start)
	}
	if !w.End.Equal(now) {
		t.Errorf("today end = %v, want now", w.End)
	}
}

func TestDayOffsetIsFullDay(t *testing.T) {
	loc := paris(t)
	cal := NewCalendarAt(loc, time.Date(2024, 6, 12, 14, 30, 0, 0, loc))

	w := cal.Day(1)
	if !w.Start.Equal(time.Date(2024, 6, 11, 0, 0, 0, 0, loc)) {
		t.Errorf("day(1) start = %v", w.Start)
	}
	if !w.End.Equal(time.Date(2024, 6, 12, 0, 0, 0, 0, loc)) {
		t.Errorf("day(1) end = %v", w.End)
	}
	if w.Duration() != 24*time.Hour {
		t.Errorf("day(1) duration = %v, want 24h", w.Duration())
	}
}

func TestISOWeekWindows(t *testing.T) {
	loc := paris(t)
	// Wednesday
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, loc)
	cal := NewCalendarAt(loc, now)

	current := cal.ISOWeek(Current)
	if !current.Start.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, loc)) {
		t.Errorf("current week start = %v, want Monday 10 June", current.Start)
	}
	if !current.End.Equal(now) {
		t.Errorf("current week end = %v, want now", current.End)
	}

	previous := cal.ISOWeek(Previous)
	if !previous.Start.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, loc)) {
		t.Errorf("previous week start = %v", previous.Start)
	}
	if !previous.End.Equal(current.Start) {
		t.Errorf("previous week end = %v, want current week start", previous.End)
	}
}

func TestISOWeekOnSunday(t *testing.T) {
	loc := paris(t)
	now := time.Date(2024, 6, 16, 9, 0, 0, 0, loc) // Sunday
	cal := NewCalendarAt(loc, now)

	current := cal.ISOWeek(Current)
	if !current.Start.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, loc)) {
		t.Errorf("week start on Sunday = %v, want previous Monday", current.Start)
	}
}

func TestPreviousMonthRollsYearBoundary(t *testing.T) {
	loc := paris(t)
	cal := NewCalendarAt(loc, time.Date(2024, 1, 15, 10, 0, 0, 0, loc))

	w := cal.Month(Previous)
	if !w.Start.Equal(time.Date(2023, 12, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("previous month start = %v, want 1 Dec 2023", w.Start)
	}
	if !w.End.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("previous month end = %v, want 1 Jan 2024", w.End)
	}
}

func TestPreviousMonthLengthMatchesCalendar(t *testing.T) {
	loc := paris(t)

	// February 2024 is a leap February
	w := NewCalendarAt(loc, time.Date(2024, 3, 10, 8, 0, 0, 0, loc)).Month(Previous)
	if days := int(w.Duration().Hours() / 24); days != 29 {
		t.Errorf("Feb 2024 length = %d days, want 29", days)
	}

	w = NewCalendarAt(loc, time.Date(2023, 3, 10, 8, 0, 0, 0, loc)).Month(Previous)
	if days := int(w.Duration().Hours() / 24); days != 28 {
		t.Errorf("Feb 2023 length = %d days, want 28", days)
	}

	// After a 31-day month
	w = NewCalendarAt(loc, time.Date(2024, 8, 10, 8, 0, 0, 0, loc)).Month(Previous)
	if days := int(w.Duration().Hours() / 24); days != 31 {
		t.Errorf("July 2024 length = %d days, want 31", days)
	}
}

func TestYearToDate(t *testing.T) {
	loc := paris(t)
	now := time.Date(2024, 5, 20, 18, 45, 0, 0, loc)
	cal := NewCalendarAt(loc, now)

	w := cal.Year(0)
	if !w.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("year start = %v", w.Start)
	}
	if !w.End.Equal(now) {
		t.Errorf("year end = %v, want now", w.End)
	}

	back := cal.Year(1)
	if !back.Start.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("last year start = %v", back.Start)
	}
	if !back.End.Equal(time.Date(2023, 5, 20, 18, 45, 0, 0, loc)) {
		t.Errorf("last year end = %v, want same point in 2023", back.End)
	}
}

func TestYearOverYearClampsLeapDay(t *testing.T) {
	loc := paris(t)
	now := time.Date(2024, 2, 29, 12, 34, 0, 0, loc)
	cal := NewCalendarAt(loc, now)

	w := cal.Year(1)
	want := time.Date(2023, 2, 28, 12, 34, 0, 0, loc)
	if !w.End.Equal(want) {
		t.Errorf("leap day year-over-year end = %v, want %v", w.End, want)
	}
}

func TestYearsBackClampsLeapDay(t *testing.T) {
	loc := paris(t)
	cal := NewCalendarAt(loc, time.Date(2024, 2, 29, 12, 0, 0, 0, loc))

	w := Window{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, loc),
		End:   time.Date(2024, 2, 29, 12, 0, 0, 0, loc),
	}
	back := cal.YearsBack(w, 1)
	if !back.Start.Equal(time.Date(2023, 2, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("shifted start = %v", back.Start)
	}
	if !back.End.Equal(time.Date(2023, 2, 28, 12, 0, 0, 0, loc)) {
		t.Errorf("shifted end = %v, want 28 Feb 2023", back.End)
	}
}
