// Package resilience provides a circuit breaker for the node proxy.
// When the proxy is down the wallet keeps serving local operations; the
// breaker turns repeated upstream failures into immediate errors instead
// of piles of blocked requests.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is failing fast.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the breaker.
type Settings struct {
	// Trip is the consecutive-failure count that opens the circuit.
	Trip int
	// Cooldown is how long the circuit stays open before a probe is
	// allowed through.
	Cooldown time.Duration
	// OnStateChange is called on every transition; may be nil.
	OnStateChange func(name string, from, to State)
}

// Breaker fails fast after Trip consecutive failures. One probe request
// is let through per cooldown; its outcome closes or reopens the circuit.
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// New creates a closed breaker.
func New(name string, settings Settings) *Breaker {
	if settings.Trip <= 0 {
		settings.Trip = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{
		name:     name,
		settings: settings,
		now:      time.Now,
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// Do runs fn unless the circuit is open. fn's error feeds the failure
// count; ErrCircuitOpen is returned without running fn at all.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
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

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.currentState()
	b.probing = false

	if success {
		b.failures = 0
		if state == StateHalfOpen {
			b.transition(state, StateClosed)
		}
		return
	}

	switch state {
	case StateClosed:
		b.failures++
		if b.failures >= b.settings.Trip {
			b.openedAt = b.now()
			b.transition(state, StateOpen)
		}
	case StateHalfOpen:
		// Probe failed; back to failing fast for another cooldown.
		b.openedAt = b.now()
		b.transition(state, StateOpen)
	}
}

// currentState folds cooldown expiry into the stored state. Caller holds mu.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.transition(StateOpen, StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transition(from, to State) {
	if from == to {
		return
	}
	b.state = to
	if to == StateClosed || to == StateHalfOpen {
		b.failures = 0
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
