package chamber

import (
	"math"
	"testing"
)

func TestRandSamplerReproducible(t *testing.T) {
	a, b := NewRandSampler(7), NewRandSampler(7)
	for i := 0; i < 100; i++ {
		if x, y := a.Exp(2), b.Exp(2); x != y {
			t.Fatalf("draw %d: Exp differs for equal seeds: %v vs %v", i, x, y)
		}
		if x, y := a.UniformInt(5), b.UniformInt(5); x != y {
			t.Fatalf("draw %d: UniformInt differs for equal seeds: %d vs %d", i, x, y)
		}
	}
}

func TestRandSamplerExpMean(t *testing.T) {
	s := NewRandSampler(42)
	const (
		rate = 4.0
		n    = 20000
	)
	var sum float64
	for i := 0; i < n; i++ {
		v := s.Exp(rate)
		if v < 0 || math.IsNaN(v) {
			t.Fatalf("Exp(%v) = %v, expected a non-negative value", rate, v)
		}
		sum += v
	}
	if mean := sum / n; math.Abs(mean-1/rate) > 0.02 {
		t.Errorf("mean of Exp(%v) = %v, expected about %v", rate, mean, 1/rate)
	}
}

func TestRandSamplerUniformIntRange(t *testing.T) {
	s := NewRandSampler(3)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := s.UniformInt(3)
		if v < 0 || v > 3 {
			t.Fatalf("UniformInt(3) = %d, expected [0,3]", v)
		}
		seen[v] = true
	}
	if len(seen) != 4 {
		t.Errorf("UniformInt(3) drew %v, expected every value in [0,3]", seen)
	}
	if got := s.UniformInt(0); got != 0 {
		t.Errorf("UniformInt(0) = %d, expected 0", got)
	}
}
