package captcha

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by Breaker.Call when the circuit is open and
// the recovery timeout has not yet elapsed. The wrapped function is not
// invoked in that case. Callers distinguish it with errors.Is.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerState is the circuit state of a Breaker.
type BreakerState int

const (
	// StateClosed is normal operation: calls pass through.
	StateClosed BreakerState = iota

	// StateOpen blocks calls until the recovery timeout elapses.
	StateOpen

	// StateHalfOpen admits trial calls to probe recovery.
	StateHalfOpen
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
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// BreakerConfig holds the tuning parameters for a Breaker. It is provided at
// construction and never mutated.
type BreakerConfig struct {
	// FailureThreshold is the cumulative failure count that opens the
	// circuit. The count resets only when the breaker fully closes, so a
	// breaker oscillating through half-open trials keeps accumulating.
	FailureThreshold int

	// MaxConsecutiveFailures opens the circuit on an unbroken failure
	// streak, independently of FailureThreshold. Any success resets the
	// streak.
	MaxConsecutiveFailures int

	// RecoveryTimeout is how long the circuit stays open before the next
	// call is admitted as a trial, measured from the last failure.
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the circuit.
	SuccessThreshold int
}

// DefaultBreakerConfig returns the tuning used when a solver is added to the
// chain without an explicit config.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold:       5,
		MaxConsecutiveFailures: 3,
		RecoveryTimeout:        60 * time.Second,
		SuccessThreshold:       3,
	}
}

// BreakerStatus is a point-in-time snapshot of a breaker, taken under its
// lock so the fields are mutually consistent.
type BreakerStatus struct {
	Name                string    `json:"name"`
	State               string    `json:"state"`
	FailureCount        int       `json:"failure_count"`
	SuccessCount        int       `json:"success_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastFailure         time.Time `json:"last_failure,omitzero"`
	LastTransition      time.Time `json:"last_transition"`
}

// Breaker protects a single backend from repeated calls while it is failing,
// with automatic time-gated recovery probing. The zero value is not usable;
// construct with NewBreaker.
//
// All state transitions happen under the breaker's mutex. The wrapped call
// itself runs outside the lock, so one slow in-flight attempt never blocks
// unrelated callers; two concurrent callers can both observe a closed
// circuit, both attempt, and both record failures. The lock guarantees the
// counters don't race, not that concurrent attempts are prevented.
type Breaker struct {
	name   string
	config BreakerConfig
	logger Logger

	mu                  sync.Mutex
	state               BreakerState
	failureCount        int
	successCount        int
	consecutiveFailures int
	lastFailure         time.Time
	lastTransition      time.Time

	now func() time.Time
}

// NewBreaker creates a closed breaker for the named backend. A nil logger
// disables transition logging.
func NewBreaker(name string, config BreakerConfig, logger Logger) *Breaker {
	return &Breaker{
		name:           name,
		config:         config,
		logger:         orNop(logger),
		state:          StateClosed,
		lastTransition: time.Now(),
		now:            time.Now,
	}
}

// Name returns the backend name this breaker protects.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current circuit state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call executes fn under circuit breaker protection. If the circuit is open
// and the recovery timeout has not elapsed, it fails fast with
// ErrBreakerOpen without invoking fn. If the timeout has elapsed, the
// circuit moves to half-open and fn runs as a trial. Errors from fn are
// surfaced unchanged; the breaker only decides whether the attempt is
// allowed.
func (b *Breaker) Call(fn func() (string, error)) (string, error) {
	if err := b.admit(); err != nil {
		return "", err
	}

	result, err := fn()
	if err != nil {
		b.recordFailure()
		return "", err
	}

	b.recordSuccess()
	return result, nil
}

// admit checks the circuit state before an attempt, transitioning
// OPEN -> HALF_OPEN when the recovery timeout has elapsed.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	if !b.lastFailure.IsZero() && b.now().Sub(b.lastFailure) >= b.config.RecoveryTimeout {
		b.transitionTo(StateHalfOpen)
		return nil
	}

	return fmt.Errorf("%q: %w", b.name, ErrBreakerOpen)
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0

	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.consecutiveFailures++
	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.config.FailureThreshold ||
			b.consecutiveFailures >= b.config.MaxConsecutiveFailures {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		// No partial credit: a single half-open failure reopens.
		b.transitionTo(StateOpen)
	}
}

// transitionTo moves the breaker to a new state. Caller must hold b.mu.
func (b *Breaker) transitionTo(state BreakerState) {
	old := b.state
	b.state = state
	b.lastTransition = b.now()

	switch state {
	case StateClosed:
		b.failureCount = 0
		b.consecutiveFailures = 0
	case StateHalfOpen:
		b.successCount = 0
	}

	b.logger.Infof("circuit breaker %q: %s -> %s", b.name, old, state)
}

// Status returns a consistent snapshot of the breaker for monitoring.
func (b *Breaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStatus{
		Name:                b.name,
		State:               b.state.String(),
		FailureCount:        b.failureCount,
		SuccessCount:        b.successCount,
		ConsecutiveFailures: b.consecutiveFailures,
		LastFailure:         b.lastFailure,
		LastTransition:      b.lastTransition,
	}
}
