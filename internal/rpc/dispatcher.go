// Package rpc dispatches provider calls arriving from third-party pages.
// Every failure leaving this package is an *types.RPCError: internal error
// shapes never cross the DApp boundary.
package rpc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/pending"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/session"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/store"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Provider method names.
const (
	MethodRequestAccounts = "hoosat_requestAccounts"
	MethodAccounts        = "hoosat_accounts"
	MethodGetBalance      = "hoosat_getBalance"
	MethodSendTransaction = "hoosat_sendTransaction"
	MethodSignMessage     = "hoosat_signMessage"
	MethodGetNetwork      = "hoosat_getNetwork"
	MethodDisconnect      = "hoosat_disconnect"
)

// Pending-request id prefixes, one per approval flow.
const (
	PrefixConnect = "connect"
	PrefixTx      = "tx"
	PrefixSign    = "sign"
)

// Engine is the slice of the wallet engine the dispatcher reads.
type Engine interface {
	CurrentAddress() string
	GetBalance(ctx context.Context, address string) (string, error)
	GetNetwork() string
}

// Dispatcher routes a provider method to its handler. Privileged methods
// suspend on the pending registry until the popup decides.
type Dispatcher struct {
	engine          Engine
	session         *session.Session
	wallets         *store.WalletStore
	pending         *pending.Registry
	approvalTimeout time.Duration
	logger          *logging.Logger

	// onCall is an optional metrics hook, fired once per dispatch.
	onCall func(method string, err error)
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(engine Engine, sess *session.Session, wallets *store.WalletStore, reg *pending.Registry, approvalTimeout time.Duration, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		engine:          engine,
		session:         sess,
		wallets:         wallets,
		pending:         reg,
		approvalTimeout: approvalTimeout,
		logger:          logger,
	}
}

// OnCall registers a metrics hook.
func (d *Dispatcher) OnCall(fn func(method string, err error)) { d.onCall = fn }

// Dispatch executes method for origin. The returned error, when non-nil,
// is always an *types.RPCError.
func (d *Dispatcher) Dispatch(ctx context.Context, origin, method string, params map[string]interface{}) (interface{}, error) {
	if origin == "" {
		return nil, types.NewRPCError(types.CodeUnauthorized, "missing origin")
	}

	var (
		result interface{}
		err    error
	)
	switch method {
	case MethodRequestAccounts:
		result, err = d.requestAccounts(ctx, origin)
	case MethodAccounts:
		result, err = d.accounts(ctx, origin)
	case MethodGetBalance:
		result, err = d.getBalance(ctx, params)
	case MethodSendTransaction:
		result, err = d.sendTransaction(ctx, origin, params)
	case MethodSignMessage:
		result, err = d.signMessage(ctx, origin, params)
	case MethodGetNetwork:
		result, err = d.engine.GetNetwork(), nil
	case MethodDisconnect:
		result, err = d.disconnect(ctx, origin)
	default:
		err = types.NewRPCError(types.CodeUnsupportedMethod, "unsupported method: %s", method)
	}

	if err != nil {
		err = types.ToRPCError(err)
		d.logger.Warn("rpc call failed",
			zap.String("origin", origin),
			zap.String("method", method),
			zap.Error(err),
		)
	}
	if d.onCall != nil {
		d.onCall(method, err)
	}
	return result, err
}

// requestAccounts returns the account list, asking the user for a
// connection grant first when origin has none. An already-connected origin
// short-circuits without any prompt: the grant outlives the lock state, so
// the address comes from storage rather than the unlocked engine.
func (d *Dispatcher) requestAccounts(ctx context.Context, origin string) (interface{}, error) {
	connected, err := d.wallets.IsOriginConnected(ctx, origin)
	if err != nil {
		return nil, err
	}
	if connected {
		wallet, err := d.wallets.CurrentWallet(ctx)
		if err != nil {
			return nil, err
		}
		if wallet != nil {
			return []string{wallet.Address}, nil
		}
	}

	req := d.pending.Create(PrefixConnect, origin, MethodRequestAccounts, nil)
	d.pending.Summon(req.ID)
	address, err := d.pending.AwaitDecision(ctx, req.ID, d.approvalTimeout)
	if err != nil {
		return nil, err
	}
	return []string{address.(string)}, nil
}

// accounts is the silent variant: no prompt, empty list unless origin is
// connected and the wallet is unlocked.
func (d *Dispatcher) accounts(ctx context.Context, origin string) (interface{}, error) {
	connected, err := d.wallets.IsOriginConnected(ctx, origin)
	if err != nil {
		return nil, err
	}
	if !connected || !d.session.IsUnlocked() {
		return []string{}, nil
	}
	return []string{d.engine.CurrentAddress()}, nil
}

// getBalance reads the balance for the address named in params. Balances
// are public chain data, so no connection grant is required.
func (d *Dispatcher) getBalance(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	address, _ := params["address"].(string)
	if address == "" {
		return nil, types.NewRPCError(types.CodeInvalidParams, "address is required")
	}
	balance, err := d.engine.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	return map[string]string{"balance": balance}, nil
}

func (d *Dispatcher) sendTransaction(ctx context.Context, origin string, params map[string]interface{}) (interface{}, error) {
	if err := d.requireConnected(ctx, origin); err != nil {
		return nil, err
	}
	to, _ := params["to"].(string)
	amount, _ := params["amount"].(string)
	if to == "" || amount == "" {
		return nil, types.NewRPCError(types.CodeInvalidParams, "to and amount are required")
	}

	req := d.pending.Create(PrefixTx, origin, MethodSendTransaction, params)
	d.pending.Summon(req.ID)
	txID, err := d.pending.AwaitDecision(ctx, req.ID, d.approvalTimeout)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"txId": txID}, nil
}

func (d *Dispatcher) signMessage(ctx context.Context, origin string, params map[string]interface{}) (interface{}, error) {
	if err := d.requireConnected(ctx, origin); err != nil {
		return nil, err
	}
	message, _ := params["message"].(string)
	if message == "" {
		return nil, types.NewRPCError(types.CodeInvalidParams, "message is required")
	}

	req := d.pending.Create(PrefixSign, origin, MethodSignMessage, params)
	d.pending.Summon(req.ID)
	signature, err := d.pending.AwaitDecision(ctx, req.ID, d.approvalTimeout)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"signature": signature}, nil
}

// disconnect revokes origin's own grant. Always succeeds, even when no
// grant exists.
func (d *Dispatcher) disconnect(ctx context.Context, origin string) (interface{}, error) {
	if err := d.wallets.RemoveConnectedSite(ctx, origin); err != nil {
		return nil, err
	}
	d.logger.Info("site disconnected", zap.String("origin", origin))
	return map[string]bool{"disconnected": true}, nil
}

func (d *Dispatcher) requireConnected(ctx context.Context, origin string) error {
	connected, err := d.wallets.IsOriginConnected(ctx, origin)
	if err != nil {
		return err
	}
	if !connected {
		return types.NewRPCError(types.CodeUnauthorized, "site not connected, call hoosat_requestAccounts first")
	}
	return nil
}
