package rpc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/pending"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/session"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/store"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

const testAddress = "hoosat:qtestaddr"

type fakeEngine struct {
	mu          sync.Mutex
	unlocked    bool
	balance     string
	balanceAddr string
}

func (f *fakeEngine) Lock() {
	f.mu.Lock()
	f.unlocked = false
	f.mu.Unlock()
}

func (f *fakeEngine) CurrentAddress() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.unlocked {
		return ""
	}
	return testAddress
}

func (f *fakeEngine) GetBalance(ctx context.Context, address string) (string, error) {
	f.mu.Lock()
	f.balanceAddr = address
	f.mu.Unlock()
	return f.balance, nil
}

func (f *fakeEngine) GetNetwork() string { return "mainnet" }

type nopSurface struct{}

func (nopSurface) Summon(string) error { return nil }

type nopNotifier struct{}

func (nopNotifier) NotifyLocked() error { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeEngine, *store.WalletStore, *pending.Registry, *session.Session) {
	t.Helper()
	logger := logging.NewNop()
	eng := &fakeEngine{balance: "123"}
	wallets := store.NewWalletStore(store.NewMemoryStore())
	reg := pending.NewRegistry(nopSurface{}, logger)
	sess := session.New(eng, nopNotifier{}, 30*time.Minute, 2*time.Minute, logger)
	d := NewDispatcher(eng, sess, wallets, reg, time.Second, logger)
	return d, eng, wallets, reg, sess
}

func unlock(eng *fakeEngine, sess *session.Session) {
	eng.mu.Lock()
	eng.unlocked = true
	eng.mu.Unlock()
	sess.Unlock()
}

func TestDispatchMissingOrigin(t *testing.T) {
	d, _, _, _, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "", MethodGetNetwork, nil)
	require.Error(t, err)
	assert.Equal(t, types.CodeUnauthorized, types.ToRPCError(err).Code)
}

func TestDispatchUnsupportedMethod(t *testing.T) {
	d, _, _, _, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "https://dapp.example", "hoosat_burnItAll", nil)
	require.Error(t, err)
	assert.Equal(t, types.CodeUnsupportedMethod, types.ToRPCError(err).Code)
}

func TestGetNetworkNeedsNoGrant(t *testing.T) {
	d, _, _, _, _ := newTestDispatcher(t)

	result, err := d.Dispatch(context.Background(), "https://dapp.example", MethodGetNetwork, nil)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", result)
}

func TestAccountsSilent(t *testing.T) {
	d, eng, wallets, _, sess := newTestDispatcher(t)
	ctx := context.Background()

	// Not connected: empty, no error, no prompt.
	result, err := d.Dispatch(ctx, "https://dapp.example", MethodAccounts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, result)

	// Connected but locked: still empty.
	require.NoError(t, wallets.AddConnectedSite(ctx, "https://dapp.example"))
	result, err = d.Dispatch(ctx, "https://dapp.example", MethodAccounts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, result)

	// Connected and unlocked.
	unlock(eng, sess)
	result, err = d.Dispatch(ctx, "https://dapp.example", MethodAccounts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{testAddress}, result)
}

func TestGetBalanceByAddress(t *testing.T) {
	d, eng, _, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	// Balances are public chain data: no grant, no stored wallet needed.
	result, err := d.Dispatch(ctx, "https://dapp.example", MethodGetBalance,
		map[string]interface{}{"address": "hoosat:qsomeoneelse"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"balance": "123"}, result)

	eng.mu.Lock()
	assert.Equal(t, "hoosat:qsomeoneelse", eng.balanceAddr)
	eng.mu.Unlock()
}

func TestGetBalanceRequiresAddress(t *testing.T) {
	d, _, _, _, _ := newTestDispatcher(t)

	for _, params := range []map[string]interface{}{
		nil,
		{"address": ""},
		{"address": 42},
	} {
		_, err := d.Dispatch(context.Background(), "https://dapp.example", MethodGetBalance, params)
		require.Error(t, err)
		assert.Equal(t, types.CodeInvalidParams, types.ToRPCError(err).Code)
	}
}

func TestRequestAccountsConnectedWhileLocked(t *testing.T) {
	logger := logging.NewNop()
	eng := &fakeEngine{}
	wallets := store.NewWalletStore(store.NewMemoryStore())
	surface := &recordingSurface{ids: make(chan string, 1)}
	reg := pending.NewRegistry(surface, logger)
	sess := session.New(eng, nopNotifier{}, 30*time.Minute, 2*time.Minute, logger)
	d := NewDispatcher(eng, sess, wallets, reg, 50*time.Millisecond, logger)
	ctx := context.Background()

	require.NoError(t, wallets.AddWallet(ctx, types.WalletData{Address: testAddress}))
	require.NoError(t, wallets.AddConnectedSite(ctx, "https://dapp.example"))

	// Wallet stays locked: the stored grant answers the call from storage,
	// without waking the approval surface.
	result, err := d.Dispatch(ctx, "https://dapp.example", MethodRequestAccounts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{testAddress}, result)
	assert.Empty(t, surface.ids)
	assert.Equal(t, 0, reg.Active())
}

func TestSendTransactionParamValidation(t *testing.T) {
	d, _, wallets, _, _ := newTestDispatcher(t)
	ctx := context.Background()
	require.NoError(t, wallets.AddConnectedSite(ctx, "https://dapp.example"))

	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"nil params", nil},
		{"missing to", map[string]interface{}{"amount": "100"}},
		{"missing amount", map[string]interface{}{"to": "hoosat:qdest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Dispatch(ctx, "https://dapp.example", MethodSendTransaction, tt.params)
			require.Error(t, err)
			assert.Equal(t, types.CodeInvalidParams, types.ToRPCError(err).Code)
		})
	}
}

func TestSignMessageRequiresMessage(t *testing.T) {
	d, _, wallets, _, _ := newTestDispatcher(t)
	ctx := context.Background()
	require.NoError(t, wallets.AddConnectedSite(ctx, "https://dapp.example"))

	_, err := d.Dispatch(ctx, "https://dapp.example", MethodSignMessage, nil)
	require.Error(t, err)
	assert.Equal(t, types.CodeInvalidParams, types.ToRPCError(err).Code)
}

func TestRequestAccountsApproval(t *testing.T) {
	logger := logging.NewNop()
	eng := &fakeEngine{}
	wallets := store.NewWalletStore(store.NewMemoryStore())
	surface := &recordingSurface{ids: make(chan string, 1)}
	reg := pending.NewRegistry(surface, logger)
	sess := session.New(eng, nopNotifier{}, 30*time.Minute, 2*time.Minute, logger)
	d := NewDispatcher(eng, sess, wallets, reg, time.Second, logger)
	unlock(eng, sess)

	type outcome struct {
		result interface{}
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := d.Dispatch(context.Background(), "https://dapp.example", MethodRequestAccounts, nil)
		done <- outcome{result, err}
	}()

	// The summon carries the pending id; approve it the way the popup
	// handler does.
	var id string
	select {
	case id = <-surface.ids:
	case <-time.After(time.Second):
		t.Fatal("no approval prompt appeared")
	}
	assert.Contains(t, id, PrefixConnect+"_")
	reg.Resolve(id, testAddress)

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, []string{testAddress}, out.result)
}

type recordingSurface struct {
	ids chan string
}

func (r *recordingSurface) Summon(requestID string) error {
	r.ids <- requestID
	return nil
}

func TestDisconnectRemovesGrant(t *testing.T) {
	d, _, wallets, _, _ := newTestDispatcher(t)
	ctx := context.Background()
	require.NoError(t, wallets.AddConnectedSite(ctx, "https://dapp.example"))

	result, err := d.Dispatch(ctx, "https://dapp.example", MethodDisconnect, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"disconnected": true}, result)

	connected, err := wallets.IsOriginConnected(ctx, "https://dapp.example")
	require.NoError(t, err)
	assert.False(t, connected)

	// Disconnecting again is still a success.
	_, err = d.Dispatch(ctx, "https://dapp.example", MethodDisconnect, nil)
	require.NoError(t, err)
}
