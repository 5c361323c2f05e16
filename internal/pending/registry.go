// Package pending brokers privileged requests awaiting a human decision.
// It decouples "a privileged action was requested" from "a person decided
// it" across context boundaries: each request owns a correlation id and at
// most one suspended waiter, and a decision (or timeout) settles it exactly
// once.
package pending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Status of a pending request. A request is Waiting until exactly one of
// the terminal transitions fires, after which its id is invalid.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusResolved Status = "resolved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Request is one privileged action awaiting a decision.
type Request struct {
	ID        string                 `json:"id"`
	Origin    string                 `json:"origin"`
	Method    string                 `json:"method"`
	Params    map[string]interface{} `json:"params"`
	CreatedAt int64                  `json:"timestamp"`
	Status    Status                 `json:"status"`
}

// Surface summons the UI to present a pending request. Best effort: a
// failure must not prevent the waiter from timing out.
type Surface interface {
	Summon(requestID string) error
}

type decision struct {
	value interface{}
	err   error
}

type entry struct {
	req *Request
	// Buffered so a decision never blocks the decider, even if the
	// waiter has already given up.
	decided chan decision
	claimed bool
}

// Registry is the process-wide id -> waiter map. Mutated only by router
// handlers and the expiry path.
type Registry struct {
	surface Surface
	logger  *logging.Logger

	mu      sync.Mutex
	entries map[string]*entry

	// Hooks for metrics; may be nil.
	onCreate func()
	onSettle func(expired bool)
}

// NewRegistry creates an empty registry.
func NewRegistry(surface Surface, logger *logging.Logger) *Registry {
	return &Registry{
		surface: surface,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// OnEvent registers metric hooks fired on create and on settle.
func (r *Registry) OnEvent(onCreate func(), onSettle func(expired bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCreate = onCreate
	r.onSettle = onSettle
}

// Create allocates a fresh request in the Waiting state. No UI side
// effect; callers summon separately.
func (r *Registry) Create(prefix, origin, method string, params map[string]interface{}) *Request {
	req := &Request{
		ID:        fmt.Sprintf("%s_%s", prefix, uuid.NewString()),
		Origin:    origin,
		Method:    method,
		Params:    params,
		CreatedAt: types.Timestamp(time.Now()),
		Status:    StatusWaiting,
	}

	r.mu.Lock()
	r.entries[req.ID] = &entry{req: req, decided: make(chan decision, 1)}
	hook := r.onCreate
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	r.logger.Info("pending request created",
		zap.String("id", req.ID),
		zap.String("origin", origin),
		zap.String("method", method),
	)
	return req
}

// Get returns a live (still waiting) request by id.
func (r *Registry) Get(id string) (*Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.req, true
}

// Summon asks the UI surface to present the request. Failure is logged
// and swallowed; the waiter still times out on its own.
func (r *Registry) Summon(id string) {
	if err := r.surface.Summon(id); err != nil {
		r.logger.Warn("failed to summon approval surface",
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

// AwaitDecision suspends the calling flow until the request is resolved,
// rejected, or timeout elapses. Only one waiter per id: a second call for
// the same id fails immediately. On timeout the entry is expired, removed,
// and any late decision becomes a silent no-op.
func (r *Registry) AwaitDecision(ctx context.Context, id string, timeout time.Duration) (interface{}, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return nil, types.NewError(types.FaultNotFound, "unknown pending request %s", id)
	}
	if e.claimed {
		r.mu.Unlock()
		return nil, types.NewError(types.FaultInternal, "pending request %s already has a waiter", id)
	}
	e.claimed = true
	r.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case d := <-e.decided:
		return d.value, d.err
	case <-timer.C:
		// A decision racing the timer wins: its side effects have
		// already committed.
		select {
		case d := <-e.decided:
			return d.value, d.err
		default:
		}
		r.expire(id)
		return nil, types.NewError(types.FaultUserRejected, "request expired: no decision within %s", timeout)
	case <-ctx.Done():
		select {
		case d := <-e.decided:
			return d.value, d.err
		default:
		}
		r.expire(id)
		return nil, ctx.Err()
	}
}

// Resolve settles the request successfully. Unknown or already settled ids
// are a no-op, tolerating duplicate or late decisions.
func (r *Registry) Resolve(id string, value interface{}) {
	r.settle(id, StatusResolved, decision{value: value})
}

// Reject settles the request with a failure. Unknown or already settled
// ids are a no-op.
func (r *Registry) Reject(id string, err error) {
	r.settle(id, StatusRejected, decision{err: err})
}

func (r *Registry) settle(id string, status Status, d decision) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.entries, id)
	e.req.Status = status
	hook := r.onSettle
	r.mu.Unlock()

	e.decided <- d
	if hook != nil {
		hook(false)
	}
}

func (r *Registry) expire(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		e.req.Status = StatusExpired
	}
	hook := r.onSettle
	r.mu.Unlock()

	if ok {
		if hook != nil {
			hook(true)
		}
		r.logger.Info("pending request expired", zap.String("id", id))
	}
}

// Active returns the number of requests still waiting.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
