package circuitbreaker

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	cb := New(Config{})
	if cb.threshold != 5 {
		t.Errorf("Expected default threshold 5, got %d", cb.threshold)
	}
	if cb.cooldown != time.Minute {
		t.Errorf("Expected default cooldown 1m, got %v", cb.cooldown)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected initial state CLOSED, got %v", cb.State())
	}
}

func TestOpensAfterThreshold(t *testing.T) {
	cb := New(Config{Name: "openai", Threshold: 3, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected CLOSED below threshold, got %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("Expected OPEN at threshold, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("Expected open circuit to reject requests during cooldown")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{Threshold: 3})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	if cb.Failures() != 0 {
		t.Errorf("Expected failure count reset on success, got %d", cb.Failures())
	}
}

func TestHalfOpenProbeRecovery(t *testing.T) {
	cb := New(Config{Threshold: 1, Cooldown: 20 * time.Millisecond})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("Expected OPEN, got %v", cb.State())
	}

	time.Sleep(30 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("Expected one probe to be admitted after cooldown")
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("Expected HALF-OPEN, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("Expected only one probe at a time in HALF-OPEN")
	}

	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("Expected CLOSED after successful probe, got %v", cb.State())
	}
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	cb := New(Config{Threshold: 1, Cooldown: 20 * time.Millisecond})

	cb.RecordFailure()
	time.Sleep(30 * time.Millisecond)
	cb.Allow()
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Errorf("Expected OPEN after failed probe, got %v", cb.State())
	}
}

func TestReset(t *testing.T) {
	cb := New(Config{Threshold: 1})
	cb.RecordFailure()
	cb.Reset()

	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Errorf("Expected clean state after reset, got %v with %d failures", cb.State(), cb.Failures())
	}
}
