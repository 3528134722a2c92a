package gemini

import (
	"sync"
	"time"
)

// BreakerState is the state of the upstream circuit breaker.
type BreakerState int

const (
	StateClosed   BreakerState = iota // requests flow
	StateOpen                         // requests fail fast
	StateHalfOpen                     // one trial allowed
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker stops calls to the generation API after consecutive upstream
// failures and lets a single trial request through once the recovery
// interval passes.
type Breaker struct {
	mu sync.Mutex

	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool

	failureThreshold int
	recoveryInterval time.Duration
	now              func() time.Time
}

// NewBreaker creates a breaker. A threshold below 1 disables it.
func NewBreaker(failureThreshold int, recoveryInterval time.Duration) *Breaker {
	return &Breaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		recoveryInterval: recoveryInterval,
		now:              time.Now,
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState moves OPEN to HALF_OPEN once the recovery interval has elapsed.
// Must be called with mu held.
func (b *Breaker) currentState() BreakerState {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.recoveryInterval {
		b.state = StateHalfOpen
		b.probing = false
	}
	return b.state
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	if b.failureThreshold < 1 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return false
	}
}

// RecordSuccess closes the breaker and clears the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probing = false
}

// RecordFailure counts an upstream failure, opening the breaker at the
// threshold or when a half-open trial fails.
func (b *Breaker) RecordFailure() {
	if b.failureThreshold < 1 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	switch b.state {
	case StateClosed:
		if b.failures >= b.failureThreshold {
			b.open()
		}
	case StateHalfOpen:
		b.open()
	}
}

// ReleaseTrial frees the half-open trial slot without recording an outcome,
// for calls abandoned by their caller.
func (b *Breaker) ReleaseTrial() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.probing = false
}
