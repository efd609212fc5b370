package tempo

import (
	"context"

	"linky-monitor/internal/energy"
)

// TiePolicy decides the winning color when several colors show consumption
// in the same day.
type TiePolicy string

const (
	// TieMax picks the color whose counters increased the most; equal
	// increases fall back to enumeration order (blue, white, red).
	TieMax TiePolicy = "max"
	// TieFirst picks the first enumerated color with any increase.
	TieFirst TiePolicy = "first"
)

// Detector assigns one tariff color per calendar day, based on which
// color's counters moved during that day.
type Detector struct {
	calc     *energy.DeltaCalculator
	calendar *energy.Calendar
	table    SeriesTable
	policy   TiePolicy
}

func NewDetector(calc *energy.DeltaCalculator, calendar *energy.Calendar, table SeriesTable, policy TiePolicy) *Detector {
	if policy != TieFirst {
		policy = TieMax
	}
	return &Detector{
		calc:     calc,
		calendar: calendar,
		table:    table,
		policy:   policy,
	}
}

// ColorsForLastDays returns one color per day, index 0 = today (partial).
// Exactly one of BLUE, WHITE, RED or UNKNOWN per day; a day where no
// color's counters moved is UNKNOWN.
func (d *Detector) ColorsForLastDays(ctx context.Context, n int) []Color {
	colors := make([]Color, 0, n)
	for i := 0; i < n; i++ {
		colors = append(colors, d.ColorForDay(ctx, i))
	}
	return colors
}

// ColorForDay detects the color of a single day, offset days back from today.
func (d *Detector) ColorForDay(ctx context.Context, offset int) Color {
	return d.colorOf(ctx, d.calendar.Day(offset))
}

func (d *Detector) colorOf(ctx context.Context, w energy.Window) Color {
	winner := Unknown
	best := 0.0

	for _, c := range Palette {
		pair := d.table.Pair(c)
		inc := d.calc.Delta(ctx, []string{pair.Peak, pair.OffPeak}, w)
		if inc <= 0 {
			continue
		}
		if d.policy == TieFirst {
			return c
		}
		// Strictly greater keeps the earlier enumerated color on ties.
		if inc > best {
			best = inc
			winner = c
		}
	}

	return winner
}
