package exporter

import "testing"

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", p.MaxRetries)
	}
	if p.InitialDelay.Milliseconds() != 100 {
		t.Errorf("InitialDelay = %v, want 100ms", p.InitialDelay)
	}
	if p.MaxDelay.Milliseconds() != 1600 {
		t.Errorf("MaxDelay = %v, want 1600ms", p.MaxDelay)
	}
	if p.Jitter.Milliseconds() != 100 {
		t.Errorf("Jitter = %v, want 100ms", p.Jitter)
	}
}

func TestRetryPolicy_NextDelayDoublesAndCaps(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, InitialDelay: 0, MaxDelay: 0, Jitter: 0}
	// With zero initial delay and zero jitter, every attempt is 0.
	for attempt := 1; attempt <= 3; attempt++ {
		if got := p.NextDelay(attempt); got != 0 {
			t.Errorf("attempt %d: got %v, want 0", attempt, got)
		}
	}

	p2 := RetryPolicy{InitialDelay: 100_000_000, MaxDelay: 160_000_000, Jitter: 0} // ns: 100ms/160ms
	if d := p2.NextDelay(1); d != 100_000_000 {
		t.Errorf("attempt 1: got %v, want 100ms", d)
	}
	if d := p2.NextDelay(2); d != 160_000_000 {
		t.Errorf("attempt 2: got %v, want capped at 160ms (200ms would exceed cap)", d)
	}
	if d := p2.NextDelay(3); d != 160_000_000 {
		t.Errorf("attempt 3: got %v, want still capped at 160ms", d)
	}
}

func TestRetryPolicy_JitterIsBounded(t *testing.T) {
	p := RetryPolicy{InitialDelay: 100_000_000, MaxDelay: 1_600_000_000, Jitter: 50_000_000}
	for i := 0; i < 50; i++ {
		d := p.NextDelay(1)
		if d < 100_000_000 || d > 150_000_000 {
			t.Fatalf("NextDelay(1) = %v, want in [100ms,150ms]", d)
		}
	}
}
