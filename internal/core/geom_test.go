package core

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected Vec3
	}{
		{"x cross y", V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)},
		{"y cross z", V3(0, 1, 0), V3(0, 0, 1), V3(1, 0, 0)},
		{"z cross x", V3(0, 0, 1), V3(1, 0, 0), V3(0, 1, 0)},
		{"parallel", V3(2, 0, 0), V3(5, 0, 0), V3(0, 0, 0)},
		{"velocity in field", V3(500, 0, 0), V3(0, 0, 2), V3(0, -1000, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := tc.a.Cross(tc.b)
			if result != tc.expected {
				t.Errorf("Cross() = %v, expected %v", result, tc.expected)
			}
			// Anti-commutativity
			reverse := tc.b.Cross(tc.a)
			if reverse != tc.expected.Scale(-1) {
				t.Errorf("Cross() (reversed) = %v, expected %v", reverse, tc.expected.Scale(-1))
			}
		})
	}
}

func TestVec3Arithmetic(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, 5, 6)

	if got := a.Add(b); got != V3(5, 7, 9) {
		t.Errorf("Add() = %v, expected (5,7,9)", got)
	}
	if got := b.Sub(a); got != V3(3, 3, 3) {
		t.Errorf("Sub() = %v, expected (3,3,3)", got)
	}
	if got := a.Scale(2); got != V3(2, 4, 6) {
		t.Errorf("Scale() = %v, expected (2,4,6)", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot() = %v, expected 32", got)
	}
	if got := V3(3, 4, 0).Len(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Len() = %v, expected 5", got)
	}
}

func TestVec3XY(t *testing.T) {
	p := V3(1.5, -2.5, 99).XY()
	if p.X != 1.5 || p.Y != -2.5 {
		t.Errorf("XY() = %v, expected (1.5,-2.5)", p)
	}
	if !V3(0, 0, 0).IsZero() {
		t.Error("zero vector should report IsZero")
	}
	if V3(0, 0, 1e-9).IsZero() {
		t.Error("non-zero vector should not report IsZero")
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 15)

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"inside", 15, 15, true},
		{"top-left corner", 10, 10, true},
		{"bottom-right edge (exclusive)", 30, 25, false},
		{"outside left", 5, 15, false},
		{"outside bottom", 15, 30, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := r.Contains(tc.x, tc.y)
			if result != tc.expected {
				t.Errorf("Contains(%d, %d) = %v, expected %v", tc.x, tc.y, result, tc.expected)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, expected int
	}{
		{5, 0, 10, 5},   // within range
		{-5, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tc := range tests {
		result := Clamp(tc.val, tc.min, tc.max)
		if result != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.min, tc.max, result, tc.expected)
		}
	}
}

func TestClampF(t *testing.T) {
	tests := []struct {
		val, min, max, expected float64
	}{
		{5.5, 0.0, 10.0, 5.5},
		{-5.5, 0.0, 10.0, 0.0},
		{15.5, 0.0, 10.0, 10.0},
	}

	for _, tc := range tests {
		result := ClampF(tc.val, tc.min, tc.max)
		if result != tc.expected {
			t.Errorf("ClampF(%f, %f, %f) = %f, expected %f", tc.val, tc.min, tc.max, result, tc.expected)
		}
	}
}

func TestAbsSign(t *testing.T) {
	tests := []struct {
		val, abs, sign int
	}{
		{5, 5, 1},
		{-5, 5, -1},
		{0, 0, 0},
	}

	for _, tc := range tests {
		if got := Abs(tc.val); got != tc.abs {
			t.Errorf("Abs(%d) = %d, expected %d", tc.val, got, tc.abs)
		}
		if got := Sign(tc.val); got != tc.sign {
			t.Errorf("Sign(%d) = %d, expected %d", tc.val, got, tc.sign)
		}
	}
}
