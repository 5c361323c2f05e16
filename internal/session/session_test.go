package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
)

type fakeEngine struct {
	mu        sync.Mutex
	lockCalls int
	address   string
}

func (f *fakeEngine) Lock() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockCalls++
}

func (f *fakeEngine) CurrentAddress() string { return f.address }

func (f *fakeEngine) locks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockCalls
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeNotifier) NotifyLocked() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeNotifier) notified() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestSession(timeout, grace time.Duration) (*Session, *fakeEngine, *fakeNotifier) {
	eng := &fakeEngine{address: "hoosat:qtest"}
	notifier := &fakeNotifier{}
	return New(eng, notifier, timeout, grace, logging.NewNop()), eng, notifier
}

func TestSessionStartsLocked(t *testing.T) {
	s, _, _ := newTestSession(time.Minute, time.Second)

	assert.False(t, s.IsUnlocked())
	assert.False(t, s.Status().IsUnlocked)
}

func TestUnlockThenLock(t *testing.T) {
	s, eng, notifier := newTestSession(time.Minute, time.Second)

	s.Unlock()
	assert.True(t, s.IsUnlocked())

	s.Lock(ReasonExplicit)
	assert.False(t, s.IsUnlocked())
	assert.Equal(t, 1, eng.locks(), "engine secret must be purged")
	assert.Equal(t, 1, notifier.notified())
}

func TestLockWhenAlreadyLocked(t *testing.T) {
	s, eng, notifier := newTestSession(time.Minute, time.Second)

	s.Lock(ReasonReset)

	// Purge still happens, but no notification for a no-op transition.
	assert.Equal(t, 1, eng.locks())
	assert.Equal(t, 0, notifier.notified())
}

func TestLockSwallowsNotifierFailure(t *testing.T) {
	s, _, notifier := newTestSession(time.Minute, time.Second)
	notifier.err = assert.AnError

	s.Unlock()
	s.Lock(ReasonExplicit)

	assert.False(t, s.IsUnlocked())
	assert.Equal(t, 1, notifier.notified())
}

func TestAutoLockFiresAfterTimeout(t *testing.T) {
	s, _, notifier := newTestSession(30*time.Millisecond, time.Millisecond)

	var hookFired bool
	done := make(chan struct{})
	s.OnAutoLock(func() {
		hookFired = true
		close(done)
	})

	s.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("auto-lock did not fire")
	}
	assert.False(t, s.IsUnlocked())
	assert.True(t, hookFired)
	assert.Equal(t, 1, notifier.notified())
}

func TestTouchDefersAutoLock(t *testing.T) {
	s, _, _ := newTestSession(60*time.Millisecond, time.Millisecond)
	s.Unlock()

	// Keep touching past the original deadline.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		s.Touch()
	}
	assert.True(t, s.IsUnlocked())

	time.Sleep(150 * time.Millisecond)
	assert.False(t, s.IsUnlocked())
}

func TestTouchWhileLockedIsNoop(t *testing.T) {
	s, _, _ := newTestSession(time.Minute, time.Second)

	s.Touch()
	assert.False(t, s.IsUnlocked())
}

func TestStatusInsideGraceWindow(t *testing.T) {
	s, _, _ := newTestSession(30*time.Minute, 2*time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Unlock()

	// One minute later: inside grace.
	s.now = func() time.Time { return base.Add(time.Minute) }
	status := s.Status()
	assert.True(t, status.IsUnlocked)
	assert.True(t, status.InGracePeriod)
	assert.Equal(t, "hoosat:qtest", status.Address)
}

func TestStatusOutsideGraceWindow(t *testing.T) {
	s, _, _ := newTestSession(30*time.Minute, 2*time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Unlock()

	// Five minutes later: unlocked but past the grace window, and the
	// query must not have extended the session.
	s.now = func() time.Time { return base.Add(5 * time.Minute) }
	status := s.Status()
	assert.True(t, status.IsUnlocked)
	assert.False(t, status.InGracePeriod)

	s.mu.Lock()
	lastActivity := s.lastActivity
	s.mu.Unlock()
	assert.Equal(t, base, lastActivity, "status check must not count as activity")
}

func TestStatusInGraceRearmsTimer(t *testing.T) {
	s, _, _ := newTestSession(30*time.Minute, 2*time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Unlock()

	s.now = func() time.Time { return base.Add(time.Minute) }
	s.Status()

	s.mu.Lock()
	lastActivity := s.lastActivity
	s.mu.Unlock()
	assert.Equal(t, base.Add(time.Minute), lastActivity, "grace-window check silently extends the session")
}

func TestSetTimeoutAppliesImmediately(t *testing.T) {
	s, _, _ := newTestSession(time.Hour, time.Second)
	s.Unlock()

	s.SetTimeout(25 * time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.False(t, s.IsUnlocked())
}
