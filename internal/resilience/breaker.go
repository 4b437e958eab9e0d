// Package resilience guards outbound calls to ecosystem services with
// per-service circuit breakers.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed   State = 0
	StateOpen     State = 1
	StateHalfOpen State = 2
)

// String returns the string representation of the breaker state.
func (s State) String() string {
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

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting the downstream service.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings configures one breaker.
type Settings struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker from CLOSED.
	FailureThreshold int
	// RecoveryTimeout is how long an OPEN breaker waits before allowing a
	// half-open probe.
	RecoveryTimeout time.Duration
	// SuccessThreshold is the number of HALF_OPEN successes required to
	// close the breaker again.
	SuccessThreshold int
}

// Breaker is a 3-state circuit breaker: CLOSED (normal) -> OPEN (failing) ->
// HALF_OPEN (probing) -> CLOSED. Safe for concurrent use; one mutex per
// breaker so unrelated services never contend.
type Breaker struct {
	mu          sync.Mutex
	name        string
	settings    Settings
	state       State
	failures    int
	successes   int
	probing     bool
	lastFailure time.Time
	nowFunc     func() time.Time // for testing
}

// NewBreaker creates a breaker for the named service.
func NewBreaker(name string, settings Settings) *Breaker {
	if settings.FailureThreshold < 1 {
		settings.FailureThreshold = 1
	}
	if settings.SuccessThreshold < 1 {
		settings.SuccessThreshold = 1
	}
	return &Breaker{name: name, settings: settings, nowFunc: time.Now}
}

// Name returns the service name the breaker guards.
func (b *Breaker) Name() string { return b.name }

// Allow decides whether a call may proceed. In OPEN state it transitions to
// HALF_OPEN once the recovery timeout has elapsed; otherwise it returns
// ErrCircuitOpen. In HALF_OPEN only one probe is in flight at a time.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.nowFunc().Sub(b.lastFailure) >= b.settings.RecoveryTimeout {
			b.state = StateHalfOpen
			b.successes = 0
			b.probing = true
			return nil
		}
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
		return nil
	default:
		return ErrCircuitOpen
	}
}

// RecordSuccess feeds a successful call outcome back into the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.probing = false
		b.successes++
		if b.successes >= b.settings.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
	}
}

// RecordFailure feeds a failed call outcome back into the breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.state = StateOpen
			b.lastFailure = b.nowFunc()
		}
	case StateHalfOpen:
		// A failed probe re-opens immediately.
		b.state = StateOpen
		b.probing = false
		b.successes = 0
		b.lastFailure = b.nowFunc()
	}
}

// Execute runs fn through the breaker, feeding the outcome back.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Status is a point-in-time snapshot of one breaker.
type Status struct {
	Service      string    `json:"service"`
	State        string    `json:"state"`
	FailureCount int       `json:"failure_count"`
	SuccessCount int       `json:"success_count"`
	LastFailure  time.Time `json:"last_failure_time,omitzero"`
}

// Status returns a snapshot of the breaker's counters and state.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Service:      b.name,
		State:        b.state.String(),
		FailureCount: b.failures,
		SuccessCount: b.successes,
		LastFailure:  b.lastFailure,
	}
}

// reset returns the breaker to CLOSED with cleared counters.
func (b *Breaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.probing = false
	b.lastFailure = time.Time{}
}
