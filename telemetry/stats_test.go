package telemetry

import (
	"math"
	"testing"
)

func TestPolarization(t *testing.T) {
	tests := []struct {
		name     string
		headings []float64
		want     float64
	}{
		{"empty", nil, 0},
		{"single", []float64{1.3}, 1},
		{"aligned", []float64{0.5, 0.5, 0.5}, 1},
		{"opposed", []float64{0, math.Pi}, 0},
		{"four corners", []float64{0, math.Pi / 2, math.Pi, -math.Pi / 2}, 0},
		{"right angle", []float64{0, math.Pi / 2}, math.Sqrt2 / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Polarization(tt.headings)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Polarization(%v) = %v, want %v", tt.headings, got, tt.want)
			}
		})
	}
}

func TestPolarizationBounds(t *testing.T) {
	headings := make([]float64, 0, 50)
	for i := 0; i < 50; i++ {
		headings = append(headings, float64(i)*0.37-4)
		p := Polarization(headings)
		if p < 0 || p > 1 {
			t.Fatalf("Polarization of %d headings = %v, outside [0, 1]", len(headings), p)
		}
	}
}

func TestComputeSpacingStats(t *testing.T) {
	mean, std, p50 := ComputeSpacingStats([]float64{10, 20, 30, 40, 50})

	if math.Abs(mean-30) > 1e-9 {
		t.Errorf("mean = %v, want 30", mean)
	}
	// Sample standard deviation.
	if math.Abs(std-math.Sqrt(250)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(250))
	}
	if p50 != 30 {
		t.Errorf("p50 = %v, want 30", p50)
	}
}

func TestComputeSpacingStatsDegenerate(t *testing.T) {
	if mean, std, p50 := ComputeSpacingStats(nil); mean != 0 || std != 0 || p50 != 0 {
		t.Errorf("empty: got (%v, %v, %v), want zeros", mean, std, p50)
	}
	if mean, std, p50 := ComputeSpacingStats([]float64{7}); mean != 7 || std != 0 || p50 != 7 {
		t.Errorf("single: got (%v, %v, %v), want (7, 0, 7)", mean, std, p50)
	}
}
