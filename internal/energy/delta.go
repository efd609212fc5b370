package energy

import (
	"context"
	"log"
	"math"
	"time"

	"linky-monitor/internal/vm"
)

// Querier is the slice of the backend client the engine needs.
type Querier interface {
	QueryRange(ctx context.Context, series string, start, end time.Time, step int) ([]vm.Sample, error)
	Query(ctx context.Context, expr string) (float64, bool, error)
}

// DeltaCalculator derives consumption over a window from cumulative
// counters: last sample minus first sample per series, clamped at zero,
// summed across the series set. A failed or empty query contributes zero;
// a single missing series must never sink the whole snapshot.
type DeltaCalculator struct {
	querier Querier
	step    int
}

func NewDeltaCalculator(querier Querier, step int) *DeltaCalculator {
	if step <= 0 {
		step = 60
	}
	return &DeltaCalculator{querier: querier, step: step}
}

// Delta returns the summed consumption of the series set over the window,
// rounded to 2 decimals. Always >= 0, including on counter resets.
func (d *DeltaCalculator) Delta(ctx context.Context, series []string, w Window) float64 {
	var total float64
	for _, id := range series {
		total += d.seriesDelta(ctx, id, w)
	}
	return Round2(total)
}

func (d *DeltaCalculator) seriesDelta(ctx context.Context, series string, w Window) float64 {
	samples, err := d.querier.QueryRange(ctx, series, w.Start, w.End, d.step)
	if err != nil {
		log.Printf("Delta query failed for %s over %s..%s: %v",
			series, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), err)
		return 0
	}

	// Fewer than two samples cannot yield a difference.
	if len(samples) < 2 {
		return 0
	}

	diff := samples[len(samples)-1].Value - samples[0].Value
	if diff < 0 {
		// Counter reset inside the window; clamp rather than compensate.
		return 0
	}
	return diff
}

// Round2 rounds to 2 decimals, the resolution of all published energy and
// cost figures.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
