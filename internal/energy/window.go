package energy

import "time"

// Window is a half-open time interval [Start, End) in the meter's local
// civil timezone.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Period selects the current or the previous instance of a calendar period.
type Period int

const (
	Current Period = iota
	Previous
)

// Calendar builds query windows for the named calendar periods, all in one
// fixed local timezone. The now func is injectable for tests.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{loc: loc, now: time.Now}
}

// NewCalendarAt pins the calendar to a fixed instant. Test hook.
func NewCalendarAt(loc *time.Location, at time.Time) *Calendar {
	c := NewCalendar(loc)
	c.now = func() time.Time { return at }
	return c
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *Calendar) midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// Today is [midnight today, now): always an in-progress window.
func (c *Calendar) Today() Window {
	now := c.Now()
	return Window{Start: c.midnight(now), End: now}
}

// Day returns the window of the calendar day offset days back. Offset 0 is
// the partial "today so far" window; offset >= 1 is the full day.
func (c *Calendar) Day(offset int) Window {
	if offset <= 0 {
		return c.Today()
	}
	start := c.midnight(c.Now()).AddDate(0, 0, -offset)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// ISOWeek returns the current week [Monday, now) or the previous full week
// [Monday, Monday).
func (c *Calendar) ISOWeek(which Period) Window {
	now := c.Now()
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := c.midnight(now).AddDate(0, 0, -daysSinceMonday)

	if which == Previous {
		return Window{Start: monday.AddDate(0, 0, -7), End: monday}
	}
	return Window{Start: monday, End: now}
}

// Month returns the current month [1st, now) or the previous full calendar
// month. January's previous month is December of the prior year.
func (c *Calendar) Month(which Period) Window {
	now := c.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)

	if which == Previous {
		return Window{Start: first.AddDate(0, -1, 0), End: first}
	}
	return Window{Start: first, End: now}
}

// Year returns [Jan 1 of (current year - yearOffset), same point in that
// year). For yearOffset 0 the end is now; otherwise the same month, day and
// time of day shifted back, with 29 Feb clamped to 28 Feb on non-leap years.
func (c *Calendar) Year(yearOffset int) Window {
	now := c.Now()
	year := now.Year() - yearOffset
	start := time.Date(year, 1, 1, 0, 0, 0, 0, c.loc)

	end := now
	if yearOffset != 0 {
		end = c.samePoint(now, year)
	}
	return Window{Start: start, End: end}
}

// YearsBack shifts a whole window n years into the past, clamping leap days.
func (c *Calendar) YearsBack(w Window, n int) Window {
	return Window{
		Start: c.samePoint(w.Start, w.Start.Year()-n),
		End:   c.samePoint(w.End, w.End.Year()-n),
	}
}

func (c *Calendar) samePoint(t time.Time, year int) time.Time {
	day := t.Day()
	if t.Month() == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), c.loc)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
