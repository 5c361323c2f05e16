// Package session tracks the locked/unlocked state of the wallet and
// enforces the inactivity auto-lock with a grace window.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Engine is the narrow slice of the wallet engine the session owns: the
// secret-material lifecycle. No other component may retain the secret.
type Engine interface {
	Lock()
	CurrentAddress() string
}

// Notifier delivers the best-effort lock notification to the UI surface.
// Delivery failure is swallowed, never fatal.
type Notifier interface {
	NotifyLocked() error
}

// Reason explains a lock transition.
type Reason string

const (
	ReasonExplicit   Reason = "explicit"
	ReasonInactivity Reason = "inactivity"
	ReasonReset      Reason = "reset"
)

// Session is the process-wide lock state machine. Created once per process
// start, always starting locked; never persisted.
type Session struct {
	engine   Engine
	notifier Notifier
	logger   *logging.Logger

	mu           sync.Mutex
	unlocked     bool
	lastActivity time.Time
	timeout      time.Duration
	grace        time.Duration
	timer        *time.Timer

	now func() time.Time

	// onAutoLock is an optional hook for metrics.
	onAutoLock func()
}

// New creates a session in the locked state.
func New(engine Engine, notifier Notifier, timeout, grace time.Duration, logger *logging.Logger) *Session {
	return &Session{
		engine:   engine,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		grace:    grace,
		now:      time.Now,
	}
}

// OnAutoLock registers a callback fired on each inactivity lock.
func (s *Session) OnAutoLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAutoLock = fn
}

// Unlock marks the session unlocked and arms the inactivity timer. The
// caller has already verified credentials through the engine.
func (s *Session) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = true
	s.rearmLocked()
}

// Lock transitions to locked: cancels the timer, purges engine secret
// material, and best-effort notifies the UI.
func (s *Session) Lock(reason Reason) {
	s.mu.Lock()
	wasUnlocked := s.unlocked
	s.unlocked = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	// Purge even when already locked; wallet reset calls Lock
	// unconditionally.
	s.engine.Lock()

	if !wasUnlocked {
		return
	}

	if err := s.notifier.NotifyLocked(); err != nil {
		// Popup may simply not be open.
		s.logger.Debug("lock notification not delivered", zap.Error(err))
	}
	s.logger.Info("wallet locked", zap.String("reason", string(reason)))
}

// Touch registers qualifying activity, rearming the inactivity timer.
// Pure status checks must not call this.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return
	}
	s.rearmLocked()
}

// IsUnlocked reports lock state without extending the session.
func (s *Session) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// Status answers a pure status query. Queries inside the grace window
// report inGracePeriod and silently extend the timer so a reopened popup
// resumes without a passphrase; queries after the window extend nothing.
func (s *Session) Status() types.UnlockStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unlocked {
		return types.UnlockStatus{}
	}

	inGrace := s.now().Sub(s.lastActivity) < s.grace
	if inGrace {
		s.rearmLocked()
	}
	return types.UnlockStatus{
		IsUnlocked:    true,
		InGracePeriod: inGrace,
		Address:       s.engine.CurrentAddress(),
	}
}

// SetTimeout updates the inactivity duration; if currently unlocked the
// timer is rearmed with the new value.
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
	if s.unlocked {
		s.rearmLocked()
	}
}

// rearmLocked resets lastActivity and the auto-lock timer. Caller holds mu.
func (s *Session) rearmLocked() {
	s.lastActivity = s.now()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.timeout, s.autoLock)
}

func (s *Session) autoLock() {
	s.mu.Lock()
	hook := s.onAutoLock
	unlocked := s.unlocked
	s.mu.Unlock()
	if !unlocked {
		return
	}
	s.Lock(ReasonInactivity)
	if hook != nil {
		hook()
	}
}
