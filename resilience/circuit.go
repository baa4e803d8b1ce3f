package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls pass through normally.
	StateClosed State = iota
	// StateOpen means calls are rejected without being attempted.
	StateOpen
	// StateHalfOpen means a single probe call is allowed through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the consecutive-failure count that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a probe call
	// is allowed. Default: 30s
	ResetTimeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)
}

// Breaker is a circuit breaker for a single downstream dependency.
//
// After MaxFailures consecutive failures the circuit opens and calls fail
// fast with ErrCircuitOpen until ResetTimeout elapses; the next call then
// probes the dependency, closing the circuit on success.
type Breaker struct {
	config BreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	probing     bool
}

// NewBreaker creates a circuit breaker, applying defaults for zero fields.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	return &Breaker{config: config, state: StateClosed}
}

// Do runs op through the circuit breaker.
func (b *Breaker) Do(ctx context.Context, op func(context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := op(ctx)
	b.after(err)
	return err
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Reset closes the circuit and clears the failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.state
	b.state = StateClosed
	b.failures = 0
	b.probing = false
	b.notify(old, StateClosed)
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.state

	switch b.state {
	case StateClosed:
		if err != nil {
			b.failures++
			b.lastFailure = time.Now()
			if b.failures >= b.config.MaxFailures {
				b.state = StateOpen
			}
		} else {
			b.failures = 0
		}

	case StateHalfOpen:
		b.probing = false
		if err != nil {
			b.lastFailure = time.Now()
			b.state = StateOpen
		} else {
			b.state = StateClosed
			b.failures = 0
		}
	}

	b.notify(old, b.state)
}

// stateLocked transitions open -> half-open once the reset timeout elapses.
func (b *Breaker) stateLocked() State {
	if b.state == StateOpen && time.Since(b.lastFailure) >= b.config.ResetTimeout {
		b.state = StateHalfOpen
		b.probing = false
		b.notify(StateOpen, StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}
