package steering

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

const tol = 1e-9

func TestNewWeightedForceRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		weight    float64
		angle     float64
		wantAngle float64
	}{
		{"ahead", 1, 0, 0},
		{"quarter", 2, math.Pi / 4, math.Pi / 4},
		{"right angle negative", 3, -math.Pi / 2, -math.Pi / 2},
		{"behind maps to +pi", 1, -math.Pi, math.Pi},
		{"full turn wraps", 5, 2*math.Pi + 0.5, 0.5},
		{"large negative wraps", 0.5, -3*math.Pi - 0.25, math.Pi - 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewWeightedForce(tt.weight, tt.angle)
			if got := f.Weight(); !scalar.EqualWithinAbs(got, tt.weight, tol) {
				t.Errorf("Weight() = %v, want %v", got, tt.weight)
			}
			if got := f.Angle(); !scalar.EqualWithinAbs(got, tt.wantAngle, 1e-9) {
				t.Errorf("Angle() = %v, want %v", got, tt.wantAngle)
			}
		})
	}
}

func TestZeroForce(t *testing.T) {
	var zero WeightedForce
	if zero.Weight() != 0 {
		t.Errorf("zero force weight = %v, want 0", zero.Weight())
	}
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}

	f := NewWeightedForce(3, 1.2)
	before := f
	f.AddIn(zero)
	fx, fy := f.Components()
	bx, by := before.Components()
	if fx != bx || fy != by {
		t.Errorf("adding zero changed force: got (%v, %v), want (%v, %v)", fx, fy, bx, by)
	}
}

func TestAddInIsOrderIndependent(t *testing.T) {
	parts := []WeightedForce{
		NewWeightedForce(1, 0),
		NewWeightedForce(2.5, 2.1),
		NewWeightedForce(0.3, -1.7),
		NewWeightedForce(4, math.Pi),
	}

	var forward WeightedForce
	for _, p := range parts {
		forward.AddIn(p)
	}
	var backward WeightedForce
	for i := len(parts) - 1; i >= 0; i-- {
		backward.AddIn(parts[i])
	}
	// (a+b)+(c+d)
	left, right := parts[0], parts[2]
	left.AddIn(parts[1])
	right.AddIn(parts[3])
	left.AddIn(right)

	fx, fy := forward.Components()
	for name, other := range map[string]WeightedForce{"reversed": backward, "grouped": left} {
		ox, oy := other.Components()
		if !scalar.EqualWithinAbs(fx, ox, tol) || !scalar.EqualWithinAbs(fy, oy, tol) {
			t.Errorf("%s sum = (%v, %v), want (%v, %v)", name, ox, oy, fx, fy)
		}
	}
}

func TestAddInIsVectorSum(t *testing.T) {
	// Opposite forces cancel rather than averaging their angles.
	f := NewWeightedForce(1, math.Pi/2)
	f.AddIn(NewWeightedForce(1, -math.Pi/2))
	if !scalar.EqualWithinAbs(f.Weight(), 0, tol) {
		t.Errorf("opposite forces weight = %v, want 0", f.Weight())
	}
}

func TestReweight(t *testing.T) {
	f := NewWeightedForce(4, 0.7)
	f.Reweight(0.25)
	if !scalar.EqualWithinAbs(f.Weight(), 1, tol) {
		t.Errorf("Weight() after Reweight(0.25) = %v, want 1", f.Weight())
	}
	if !scalar.EqualWithinAbs(f.Angle(), 0.7, tol) {
		t.Errorf("Angle() after Reweight = %v, want 0.7", f.Angle())
	}

	f.Reweight(-1)
	if !scalar.EqualWithinAbs(f.Angle(), 0.7-math.Pi, tol) {
		t.Errorf("Angle() after Reweight(-1) = %v, want %v", f.Angle(), 0.7-math.Pi)
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		input, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{4 * math.Pi, 0},
	}
	for _, tt := range tests {
		got := NormalizeAngle(tt.input)
		if !scalar.EqualWithinAbs(got, tt.want, 1e-12) {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.input, got, tt.want)
		}
		if got <= -math.Pi || got > math.Pi {
			t.Errorf("NormalizeAngle(%v) = %v, out of (-pi, pi]", tt.input, got)
		}
	}
}

func TestWeightedForceString(t *testing.T) {
	if got := (WeightedForce{}).String(); got != "0" {
		t.Errorf("zero String() = %q, want %q", got, "0")
	}
	if got := NewWeightedForce(2, math.Pi/2).String(); got != "2.000@90.0°" {
		t.Errorf("String() = %q, want %q", got, "2.000@90.0°")
	}
}
