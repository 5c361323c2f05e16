package pending

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

type fakeSurface struct {
	mu      sync.Mutex
	summons []string
	err     error
}

func (f *fakeSurface) Summon(requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summons = append(f.summons, requestID)
	return f.err
}

func newTestRegistry() (*Registry, *fakeSurface) {
	surface := &fakeSurface{}
	return NewRegistry(surface, logging.NewNop()), surface
}

func TestCreateAndGet(t *testing.T) {
	reg, _ := newTestRegistry()

	req := reg.Create("connect", "https://dapp.example", "hoosat_requestAccounts", nil)
	assert.True(t, strings.HasPrefix(req.ID, "connect_"))
	assert.Equal(t, StatusWaiting, req.Status)
	assert.Equal(t, "https://dapp.example", req.Origin)

	got, ok := reg.Get(req.ID)
	require.True(t, ok)
	assert.Equal(t, req, got)

	_, ok = reg.Get("connect_nope")
	assert.False(t, ok)
}

func TestDistinctIDs(t *testing.T) {
	reg, _ := newTestRegistry()

	a := reg.Create("tx", "https://a.example", "hoosat_sendTransaction", nil)
	b := reg.Create("tx", "https://a.example", "hoosat_sendTransaction", nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, reg.Active())
}

func TestResolveWakesWaiter(t *testing.T) {
	reg, _ := newTestRegistry()
	req := reg.Create("connect", "https://dapp.example", "hoosat_requestAccounts", nil)

	type outcome struct {
		value interface{}
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := reg.AwaitDecision(context.Background(), req.ID, time.Second)
		done <- outcome{v, err}
	}()

	// Give the waiter time to park.
	time.Sleep(10 * time.Millisecond)
	reg.Resolve(req.ID, "hoosat:qaddr")

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, "hoosat:qaddr", out.value)
	assert.Equal(t, 0, reg.Active())
}

func TestRejectWakesWaiterWithError(t *testing.T) {
	reg, _ := newTestRegistry()
	req := reg.Create("tx", "https://dapp.example", "hoosat_sendTransaction", nil)

	done := make(chan error, 1)
	go func() {
		_, err := reg.AwaitDecision(context.Background(), req.ID, time.Second)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	rejection := types.NewRPCError(types.CodeUserRejected, "user rejected the request")
	reg.Reject(req.ID, rejection)

	err := <-done
	var rpcErr *types.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, types.CodeUserRejected, rpcErr.Code)
}

func TestDecisionBeforeAwait(t *testing.T) {
	reg, _ := newTestRegistry()
	req := reg.Create("sign", "https://dapp.example", "hoosat_signMessage", nil)

	// Decision lands before anyone waits; the buffered channel holds it.
	reg.Resolve(req.ID, "sig")

	v, err := reg.AwaitDecision(context.Background(), req.ID, time.Second)
	require.Error(t, err)
	assert.Nil(t, v)
	// The entry was removed by the resolve, so the await sees an unknown id.
	assert.Equal(t, types.FaultNotFound, types.FaultOf(err))
}

func TestTimeoutExpiresRequest(t *testing.T) {
	reg, _ := newTestRegistry()
	req := reg.Create("tx", "https://dapp.example", "hoosat_sendTransaction", nil)

	_, err := reg.AwaitDecision(context.Background(), req.ID, 20*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, types.FaultUserRejected, types.FaultOf(err), "timeout maps to the rejection class")
	assert.Equal(t, StatusExpired, req.Status)
	assert.Equal(t, 0, reg.Active())

	// Late decision is a silent no-op.
	reg.Resolve(req.ID, "too late")
	reg.Reject(req.ID, errors.New("also too late"))
}

func TestDecisionRacingTimeoutWins(t *testing.T) {
	reg, _ := newTestRegistry()
	req := reg.Create("tx", "https://dapp.example", "hoosat_sendTransaction", nil)

	// Stage a decision that lands in the same instant the timer fires.
	// Its side effects (grant persisted, transaction broadcast) already
	// committed, so the waiter must report it, never an expiry.
	reg.mu.Lock()
	e := reg.entries[req.ID]
	reg.mu.Unlock()
	e.decided <- decision{value: "txid-123"}

	value, err := reg.AwaitDecision(context.Background(), req.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "txid-123", value)
}

func TestUnknownDecisionIsNoop(t *testing.T) {
	reg, _ := newTestRegistry()

	reg.Resolve("tx_unknown", "value")
	reg.Reject("tx_unknown", errors.New("nope"))
	assert.Equal(t, 0, reg.Active())
}

func TestSecondWaiterRefused(t *testing.T) {
	reg, _ := newTestRegistry()
	req := reg.Create("connect", "https://dapp.example", "hoosat_requestAccounts", nil)

	go reg.AwaitDecision(context.Background(), req.ID, time.Second) //nolint:errcheck
	time.Sleep(10 * time.Millisecond)

	_, err := reg.AwaitDecision(context.Background(), req.ID, time.Second)
	require.Error(t, err)
	assert.Equal(t, types.FaultInternal, types.FaultOf(err))

	reg.Resolve(req.ID, "done")
}

func TestContextCancelExpires(t *testing.T) {
	reg, _ := newTestRegistry()
	req := reg.Create("sign", "https://dapp.example", "hoosat_signMessage", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := reg.AwaitDecision(ctx, req.ID, time.Minute)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, reg.Active())
}

func TestSummonBestEffort(t *testing.T) {
	reg, surface := newTestRegistry()
	req := reg.Create("connect", "https://dapp.example", "hoosat_requestAccounts", nil)

	reg.Summon(req.ID)
	assert.Equal(t, []string{req.ID}, surface.summons)

	// A summon failure is swallowed.
	surface.err = errors.New("no popup")
	reg.Summon(req.ID)
}

func TestEventHooks(t *testing.T) {
	reg, _ := newTestRegistry()

	var created, settled, expired int
	reg.OnEvent(
		func() { created++ },
		func(exp bool) {
			settled++
			if exp {
				expired++
			}
		},
	)

	a := reg.Create("tx", "https://dapp.example", "hoosat_sendTransaction", nil)
	reg.Resolve(a.ID, "txid")

	b := reg.Create("tx", "https://dapp.example", "hoosat_sendTransaction", nil)
	_, _ = reg.AwaitDecision(context.Background(), b.ID, 10*time.Millisecond)

	assert.Equal(t, 2, created)
	assert.Equal(t, 2, settled)
	assert.Equal(t, 1, expired)
}
