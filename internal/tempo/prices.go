package tempo

import (
	"log"
	"math"
)

// Prices is the peak/off-peak unit price pair of one color, in EUR/kWh.
type Prices struct {
	Peak    float64
	OffPeak float64
}

// PriceTable maps each color to its unit prices.
type PriceTable map[Color]Prices

// DailyCosts is the per-day cost breakdown over a trailing window,
// index 0 = today.
type DailyCosts struct {
	Total   []float64
	Peak    []float64
	OffPeak []float64
}

// For returns the prices of a color. Unknown or unconfigured colors fall
// back to blue (the most common day), with a warning; a missing blue entry
// resolves to zero prices.
func (t PriceTable) For(c Color) Prices {
	if p, ok := t[c]; ok {
		return p
	}
	if c != Blue {
		log.Printf("Warning: no price for tariff color %s, using BLUE prices", c)
		if p, ok := t[Blue]; ok {
			return p
		}
	}
	return Prices{}
}

// Costs prices the per-day peak and off-peak consumption under each day's
// detected color. All three slices have the length of the shortest input.
func (t PriceTable) Costs(peakKWh, offPeakKWh []float64, colors []Color) DailyCosts {
	n := len(peakKWh)
	if len(offPeakKWh) < n {
		n = len(offPeakKWh)
	}
	if len(colors) < n {
		n = len(colors)
	}

	costs := DailyCosts{
		Total:   make([]float64, n),
		Peak:    make([]float64, n),
		OffPeak: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		prices := t.For(colors[i])
		costs.Peak[i] = round2(peakKWh[i] * prices.Peak)
		costs.OffPeak[i] = round2(offPeakKWh[i] * prices.OffPeak)
		costs.Total[i] = round2(costs.Peak[i] + costs.OffPeak[i])
	}
	return costs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
