// Package tempo models the EDF Tempo tariff: every calendar day carries one
// of three colors, each with its own peak/off-peak price pair and its own
// pair of cumulative meter counters.
package tempo

import "strings"

// Color is a daily tariff category.
type Color int

const (
	Unknown Color = iota
	Blue
	White
	Red
)

// Palette is the closed set of real colors in fixed enumeration order. The
// order doubles as the tie-break order in the detector.
var Palette = []Color{Blue, White, Red}

func (c Color) String() string {
	switch c {
	case Blue:
		return "BLUE"
	case White:
		return "WHITE"
	case Red:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// ParseColor maps a config or wire name to a Color. Unrecognized names are
// Unknown.
func ParseColor(name string) Color {
	switch strings.ToUpper(name) {
	case "BLUE":
		return Blue
	case "WHITE":
		return White
	case "RED":
		return Red
	default:
		return Unknown
	}
}

// SeriesPair names the two cumulative counters of one color.
type SeriesPair struct {
	Peak    string
	OffPeak string
}

// SeriesTable maps each color to its counters. Unknown has no counters;
// lookups for it return the zero pair.
type SeriesTable map[Color]SeriesPair

// Pair returns the counters of a color, or an empty pair for Unknown or an
// unconfigured color.
func (t SeriesTable) Pair(c Color) SeriesPair {
	return t[c]
}

// PeakSeries lists the peak counter of every real color.
func (t SeriesTable) PeakSeries() []string {
	ids := make([]string, 0, len(Palette))
	for _, c := range Palette {
		if pair, ok := t[c]; ok && pair.Peak != "" {
			ids = append(ids, pair.Peak)
		}
	}
	return ids
}

// OffPeakSeries lists the off-peak counter of every real color.
func (t SeriesTable) OffPeakSeries() []string {
	ids := make([]string, 0, len(Palette))
	for _, c := range Palette {
		if pair, ok := t[c]; ok && pair.OffPeak != "" {
			ids = append(ids, pair.OffPeak)
		}
	}
	return ids
}

// AllSeries lists every counter of every real color, peak first.
func (t SeriesTable) AllSeries() []string {
	return append(t.PeakSeries(), t.OffPeakSeries()...)
}
