package snapshot

import (
	"math"
	"testing"
)

func TestEvolutionFloorsAtZeroPrevious(t *testing.T) {
	for _, current := range []float64{0, 1, -5, 12345.6} {
		got := Evolution(current, 0)
		if got != 0 {
			t.Errorf("Evolution(%v, 0) = %v, want 0", current, got)
		}
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("Evolution(%v, 0) = %v, want a finite number", current, got)
		}
	}
}

func TestEvolutionPercent(t *testing.T) {
	cases := []struct {
		current, previous, want float64
	}{
		{110, 100, 10},
		{90, 100, -10},
		{100, 100, 0},
		{1, 3, -66.67},
	}
	for _, c := range cases {
		if got := Evolution(c.current, c.previous); got != c.want {
			t.Errorf("Evolution(%v, %v) = %v, want %v", c.current, c.previous, got, c.want)
		}
	}
}
