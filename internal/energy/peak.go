package energy

import (
	"context"
	"log"
	"time"
)

// PowerPeak is the maximum instantaneous power seen during one calendar
// day, in kVA, with the timestamp of its first occurrence.
type PowerPeak struct {
	Value float64
	At    time.Time
}

// PeakTracker finds the per-day maximum of the instantaneous power series.
type PeakTracker struct {
	querier  Querier
	calendar *Calendar
	series   string
	divisor  float64
	step     int
}

func NewPeakTracker(querier Querier, calendar *Calendar, series string, divisor float64, step int) *PeakTracker {
	if divisor <= 0 {
		divisor = 1000
	}
	if step <= 0 {
		step = 60
	}
	return &PeakTracker{
		querier:  querier,
		calendar: calendar,
		series:   series,
		divisor:  divisor,
		step:     step,
	}
}

// DailyPeaks returns the power peak of each of the last n calendar days,
// index 0 being today (partial). Days without samples report a zero peak at
// the window start.
func (t *PeakTracker) DailyPeaks(ctx context.Context, n int) []PowerPeak {
	peaks := make([]PowerPeak, 0, n)
	for i := 0; i < n; i++ {
		peaks = append(peaks, t.PeakForDay(ctx, i))
	}
	return peaks
}

// PeakForDay returns the peak of a single day, offset days back from today.
func (t *PeakTracker) PeakForDay(ctx context.Context, offset int) PowerPeak {
	return t.peak(ctx, t.calendar.Day(offset))
}

func (t *PeakTracker) peak(ctx context.Context, w Window) PowerPeak {
	samples, err := t.querier.QueryRange(ctx, t.series, w.Start, w.End, t.step)
	if err != nil {
		log.Printf("Peak query failed for %s: %v", t.series, err)
		return PowerPeak{Value: 0, At: w.Start}
	}
	if len(samples) == 0 {
		return PowerPeak{Value: 0, At: w.Start}
	}

	best := samples[0]
	for _, s := range samples[1:] {
		// Strictly greater keeps the earliest occurrence on ties.
		if s.Value > best.Value {
			best = s
		}
	}

	value := best.Value
	if value < 0 {
		value = 0
	}
	return PowerPeak{
		Value: Round2(value / t.divisor),
		At:    best.Time.In(t.calendar.Location()),
	}
}
