package backoff

import (
	"testing"
	"time"
)

func TestExponentialJitterGrowsAndCaps(t *testing.T) {
	s := ExponentialJitterStrategy{}
	initial := 100 * time.Millisecond
	max := time.Second

	prev := time.Duration(0)
	for attempt := 0; attempt < 5; attempt++ {
		d := s.Calculate(attempt, initial, max, 2.0, 0)
		if d < prev {
			t.Errorf("attempt %d: delay %v shrank below previous %v", attempt, d, prev)
		}
		if d > max {
			t.Errorf("attempt %d: delay %v exceeds cap %v", attempt, d, max)
		}
		prev = d
	}

	if d := s.Calculate(0, initial, max, 2.0, 0); d != initial {
		t.Errorf("attempt 0 without jitter = %v, want %v", d, initial)
	}
	if d := s.Calculate(1, initial, max, 2.0, 0); d != 2*initial {
		t.Errorf("attempt 1 without jitter = %v, want %v", d, 2*initial)
	}
}

func TestExponentialJitterBounds(t *testing.T) {
	s := ExponentialJitterStrategy{}
	initial := 100 * time.Millisecond
	max := 10 * time.Second

	for i := 0; i < 200; i++ {
		d := s.Calculate(2, initial, max, 2.0, 0.5)
		base := 4 * initial
		if d < base || d > base+base/2 {
			t.Fatalf("jittered delay %v outside [%v, %v]", d, base, base+base/2)
		}
	}
}

func TestExponentialJitterExtremeAttempts(t *testing.T) {
	s := ExponentialJitterStrategy{}
	max := 10 * time.Second

	if d := s.Calculate(1000, time.Second, max, 2.0, 1); d > max {
		t.Errorf("huge attempt count delay = %v, want capped at %v", d, max)
	}
	if d := s.Calculate(-5, time.Second, max, 2.0, 0); d != time.Second {
		t.Errorf("negative attempt delay = %v, want %v", d, time.Second)
	}
}

func TestDecorrelatedJitterBounds(t *testing.T) {
	s := DecorrelatedJitterStrategy{}
	initial := 100 * time.Millisecond
	max := 5 * time.Second

	if d := s.Calculate(0, initial, max, 0, 0); d != initial {
		t.Errorf("attempt 0 = %v, want %v", d, initial)
	}
	for attempt := 1; attempt < 6; attempt++ {
		for i := 0; i < 100; i++ {
			d := s.Calculate(attempt, initial, max, 0, 0)
			if d < initial || d > max {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", attempt, d, initial, max)
			}
		}
	}
}

func TestCalculatorDelegates(t *testing.T) {
	c := NewCalculator(ExponentialJitterStrategy{})
	if d := c.Calculate(1, time.Second, 10*time.Second, 2.0, 0); d != 2*time.Second {
		t.Errorf("Calculate() = %v, want 2s", d)
	}
}

func TestClampJitter(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{2.5, 1},
	}
	for _, tt := range tests {
		if got := clampJitter(tt.in); got != tt.want {
			t.Errorf("clampJitter(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}
