package geometry

import (
	"math"
	"testing"
)

func TestVecArithmetic(t *testing.T) {
	a := Vec{X: 3, Y: 4}
	b := Vec{X: 1, Y: 1}

	if got := a.Add(b); got != (Vec{X: 4, Y: 5}) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Sub(b); got != (Vec{X: 2, Y: 3}) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Scale(2); got != (Vec{X: 6, Y: 8}) {
		t.Errorf("Scale = %v", got)
	}
	if got := a.Len(); got != 5 {
		t.Errorf("Len = %v, want 5", got)
	}
	if got := Distance(Vec{}, a); math.Abs(got-5) > 1e-9 {
		t.Errorf("Distance = %v, want 5", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		x, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.x, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.x, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestRoundAndAbs(t *testing.T) {
	if Round(2.5) != 3 || Round(-2.4) != -2 {
		t.Error("Round is wrong")
	}
	if Abs(-3) != 3 || Abs(3) != 3 {
		t.Error("Abs is wrong")
	}
}
