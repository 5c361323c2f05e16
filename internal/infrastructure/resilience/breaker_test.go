package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func failing() error { return errUpstream }
func healthy() error { return nil }

func newTestBreaker(trip int, cooldown time.Duration) (*Breaker, *time.Time) {
	b := New("test", Settings{Trip: trip, Cooldown: cooldown})
	now := time.Now()
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Do(healthy))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(failing), errUpstream)
	}
	assert.Equal(t, StateOpen, b.State())

	// While open, calls fail fast without reaching the upstream.
	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.Do(failing)
	b.Do(failing)
	require.NoError(t, b.Do(healthy))
	b.Do(failing)
	b.Do(failing)

	assert.Equal(t, StateClosed, b.State(), "non-consecutive failures must not trip")
}

func TestProbeAfterCooldown(t *testing.T) {
	b, now := newTestBreaker(2, 30*time.Second)

	b.Do(failing)
	b.Do(failing)
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(31 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	// Successful probe closes the circuit.
	require.NoError(t, b.Do(healthy))
	assert.Equal(t, StateClosed, b.State())
}

func TestFailedProbeReopens(t *testing.T) {
	b, now := newTestBreaker(2, 30*time.Second)

	b.Do(failing)
	b.Do(failing)
	*now = now.Add(31 * time.Second)

	assert.ErrorIs(t, b.Do(failing), errUpstream)
	assert.Equal(t, StateOpen, b.State())

	// Another full cooldown before the next probe.
	*now = now.Add(29 * time.Second)
	assert.Equal(t, StateOpen, b.State())
	*now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New("node-proxy", Settings{
		Trip:     1,
		Cooldown: time.Second,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	now := time.Now()
	b.now = func() time.Time { return now }

	b.Do(failing)
	now = now.Add(2 * time.Second)
	b.Do(healthy)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
