package gemini

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker(threshold, 10*time.Second)
	b.now = clock.now
	return b, clock
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3)

	for i := 0; i < 2; i++ {
		b.RecordFailure()
		if !b.Allow() {
			t.Fatalf("breaker opened early after %d failures", i+1)
		}
	}
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
	if b.Allow() {
		t.Error("open breaker must not allow calls")
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := newTestBreaker(2)
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_HalfOpenSingleTrial(t *testing.T) {
	b, clock := newTestBreaker(1)
	b.RecordFailure()
	if b.Allow() {
		t.Fatal("expected open breaker to refuse")
	}

	clock.advance(10 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half_open, got %s", b.State())
	}
	if !b.Allow() {
		t.Fatal("expected one trial to be allowed")
	}
	if b.Allow() {
		t.Error("expected second concurrent trial to be refused")
	}

	b.RecordSuccess()
	if b.State() != StateClosed || !b.Allow() {
		t.Errorf("expected closed after successful trial, got %s", b.State())
	}
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	b, clock := newTestBreaker(1)
	b.RecordFailure()
	clock.advance(10 * time.Second)
	b.Allow()
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Errorf("expected open after failed trial, got %s", b.State())
	}
}

func TestBreaker_ReleaseTrial(t *testing.T) {
	b, clock := newTestBreaker(1)
	b.RecordFailure()
	clock.advance(10 * time.Second)
	if !b.Allow() {
		t.Fatal("expected trial to be allowed")
	}
	b.ReleaseTrial()
	if !b.Allow() {
		t.Error("expected a new trial after release")
	}
}

func TestBreaker_Disabled(t *testing.T) {
	b := NewBreaker(0, time.Second)
	for i := 0; i < 10; i++ {
		b.RecordFailure()
	}
	if !b.Allow() {
		t.Error("disabled breaker must always allow")
	}
}

func TestBreakerState_String(t *testing.T) {
	tests := map[BreakerState]string{
		StateClosed:     "closed",
		StateOpen:       "open",
		StateHalfOpen:   "half_open",
		BreakerState(9): "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
