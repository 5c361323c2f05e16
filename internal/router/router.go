// Package router is the single ingress for extension messages. Every
// inbound frame gets exactly one terminal Result, panics included.
package router

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/engine"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/pending"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/rpc"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/session"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/store"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Router routes inbound messages to their handlers.
type Router struct {
	engine     engine.Engine
	keyring    engine.Keyring
	session    *session.Session
	wallets    *store.WalletStore
	pending    *pending.Registry
	dispatcher *rpc.Dispatcher
	logger     *logging.Logger

	// Hooks for metrics; may be nil.
	onMessage func(kind, status string, duration time.Duration)
	onUnlock  func()
}

// New creates a router.
func New(
	eng engine.Engine,
	keyring engine.Keyring,
	sess *session.Session,
	wallets *store.WalletStore,
	reg *pending.Registry,
	dispatcher *rpc.Dispatcher,
	logger *logging.Logger,
) *Router {
	return &Router{
		engine:     eng,
		keyring:    keyring,
		session:    sess,
		wallets:    wallets,
		pending:    reg,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// OnMessage registers a per-message metrics hook.
func (r *Router) OnMessage(fn func(kind, status string, duration time.Duration)) {
	r.onMessage = fn
}

// OnUnlock registers a hook fired on each successful unlock.
func (r *Router) OnUnlock(fn func()) { r.onUnlock = fn }

// Handle routes one message and always returns a terminal Result carrying
// the message's correlation id. A handler panic becomes a failure Result,
// never a dropped reply.
func (r *Router) Handle(ctx context.Context, msg types.Message) (result types.Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic",
				zap.String("kind", string(msg.Kind)),
				zap.Any("panic", rec),
			)
			result = r.failure(msg, types.NewError(types.FaultInternal, "internal error"))
		}
		status := "ok"
		if !result.Success {
			status = "error"
		}
		if r.onMessage != nil {
			r.onMessage(string(msg.Kind), status, time.Since(start))
		}
	}()

	// Status checks are observation, not activity; everything else keeps
	// the session alive.
	if !msg.Kind.IsStatusCheck() {
		r.session.Touch()
	}

	data, err := r.route(ctx, msg)
	if err != nil {
		return r.failure(msg, err)
	}
	return types.Result{ID: msg.ID, Success: true, Data: data}
}

func (r *Router) route(ctx context.Context, msg types.Message) (interface{}, error) {
	switch msg.Kind {
	case types.KindRPCRequest:
		return r.handleRPCRequest(ctx, msg)

	case types.KindConnectionApproved:
		return r.handleConnectionApproved(ctx, msg)
	case types.KindConnectionRejected:
		return r.handleDecisionRejected(msg)
	case types.KindTransactionApproved:
		return r.handleTransactionApproved(ctx, msg)
	case types.KindTransactionRejected:
		return r.handleDecisionRejected(msg)
	case types.KindMessageSignApproved:
		return r.handleMessageSignApproved(ctx, msg)
	case types.KindMessageSignRejected:
		return r.handleDecisionRejected(msg)

	case types.KindGenerateWallet:
		return r.handleGenerateWallet(ctx, msg)
	case types.KindImportWallet:
		return r.handleImportWallet(ctx, msg)
	case types.KindUnlockWallet:
		return r.handleUnlockWallet(ctx, msg)
	case types.KindWalletUnlocked:
		return r.handleWalletUnlocked()
	case types.KindLockWallet:
		return r.handleLockWallet()
	case types.KindResetWallet:
		return r.handleResetWallet(ctx)
	case types.KindChangePassword:
		return r.handleChangePassword(ctx, msg)
	case types.KindExportPrivateKey:
		return r.handleExportPrivateKey(ctx, msg)
	case types.KindCheckWallet:
		return r.handleCheckWallet(ctx)
	case types.KindCheckUnlockStatus:
		return r.session.Status(), nil

	case types.KindGetBalance:
		return r.handleGetBalance(ctx)
	case types.KindEstimateFee:
		return r.handleEstimateFee(ctx, msg)
	case types.KindSendTransaction:
		return r.handleSendTransaction(ctx, msg)
	case types.KindGetHistory:
		return r.wallets.History(ctx)

	case types.KindGetPendingRequest:
		return r.handleGetPendingRequest(msg)
	case types.KindListConnectedSites:
		return r.wallets.ConnectedSites(ctx)
	case types.KindDisconnectSite:
		return r.handleDisconnectSite(ctx, msg)

	case types.KindGetAutoLock:
		return r.wallets.AutoLockSettings(ctx)
	case types.KindUpdateAutoLock:
		return r.handleUpdateAutoLock(ctx, msg)

	case types.KindContentScriptReady:
		return map[string]bool{"ready": true}, nil

	default:
		return nil, types.NewError(types.FaultUnsupportedMethod, "unknown message type: %s", msg.Kind)
	}
}

// handleRPCRequest forwards a DApp provider call to the dispatcher. May
// block for minutes while an approval is pending.
func (r *Router) handleRPCRequest(ctx context.Context, msg types.Message) (interface{}, error) {
	method, _ := msg.Data["method"].(string)
	params, _ := msg.Data["params"].(map[string]interface{})
	if method == "" {
		return nil, types.NewRPCError(types.CodeInvalidParams, "method is required")
	}
	return r.dispatcher.Dispatch(ctx, msg.Origin, method, params)
}

// failure builds the terminal error Result. DApp-bound errors carry their
// numeric code; first-party errors carry the message only.
func (r *Router) failure(msg types.Message, err error) types.Result {
	detail := &types.ErrorDetail{Message: err.Error()}
	if msg.Kind == types.KindRPCRequest {
		rpcErr := types.ToRPCError(err)
		detail = &types.ErrorDetail{Code: rpcErr.Code, Message: rpcErr.Message}
	}
	return types.Result{ID: msg.ID, Success: false, Error: detail}
}

func requestIDOf(msg types.Message) (string, error) {
	id, _ := msg.Data["requestId"].(string)
	if id == "" {
		return "", types.NewError(types.FaultValidation, "requestId is required")
	}
	return id, nil
}
