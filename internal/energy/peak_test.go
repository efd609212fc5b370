package energy

import (
	"context"
	"testing"
	"time"

	"linky-monitor/internal/vm"
)

func TestDailyPeakFindsMaxAndFirstOccurrence(t *testing.T) {
	loc := paris(t)
	now := time.Date(2024, 6, 11, 22, 0, 0, 0, loc)
	cal := NewCalendarAt(loc, now)

	at := func(hour int) time.Time {
		return time.Date(2024, 6, 11, hour, 0, 0, 0, loc)
	}
	q := &fakeQuerier{samples: map[string][]vm.Sample{
		"power": {
			{Time: at(8), Value: 3200},
			{Time: at(12), Value: 7300},
			{Time: at(18), Value: 7300}, // same max later in the day
			{Time: at(20), Value: 1500},
		},
	}}

	tracker := NewPeakTracker(q, cal, "power", 1000, 60)
	peak := tracker.PeakForDay(context.Background(), 0)

	if peak.Value != 7.3 {
		t.Errorf("peak = %v kVA, want 7.3", peak.Value)
	}
	if !peak.At.Equal(at(12)) {
		t.Errorf("peak time = %v, want first occurrence at 12:00", peak.At)
	}
}

func TestDailyPeakWithoutSamples(t *testing.T) {
	loc := paris(t)
	cal := NewCalendarAt(loc, time.Date(2024, 6, 11, 22, 0, 0, 0, loc))

	q := &fakeQuerier{samples: map[string][]vm.Sample{}}
	tracker := NewPeakTracker(q, cal, "power", 1000, 60)

	peak := tracker.PeakForDay(context.Background(), 1)
	if peak.Value != 0 {
		t.Errorf("peak = %v, want 0 for an empty day", peak.Value)
	}
	want := time.Date(2024, 6, 10, 0, 0, 0, 0, loc)
	if !peak.At.Equal(want) {
		t.Errorf("peak time = %v, want window start %v", peak.At, want)
	}
}

func TestDailyPeaksOrderedTodayFirst(t *testing.T) {
	loc := paris(t)
	cal := NewCalendarAt(loc, time.Date(2024, 6, 11, 22, 0, 0, 0, loc))

	q := &fakeQuerier{samples: map[string][]vm.Sample{
		"power": {
			{Time: time.Date(2024, 6, 10, 12, 0, 0, 0, loc), Value: 4000},
			{Time: time.Date(2024, 6, 11, 12, 0, 0, 0, loc), Value: 6000},
		},
	}}
	tracker := NewPeakTracker(q, cal, "power", 1000, 60)

	peaks := tracker.DailyPeaks(context.Background(), 3)
	if len(peaks) != 3 {
		t.Fatalf("got %d peaks, want 3", len(peaks))
	}
	if peaks[0].Value != 6.0 {
		t.Errorf("today peak = %v, want 6.0", peaks[0].Value)
	}
	if peaks[1].Value != 4.0 {
		t.Errorf("yesterday peak = %v, want 4.0", peaks[1].Value)
	}
	if peaks[2].Value != 0 {
		t.Errorf("day-2 peak = %v, want 0", peaks[2].Value)
	}
}
