package router

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// handleGetBalance serves the popup balance view. Works from the stored
// address even while locked; balances are public chain data.
func (r *Router) handleGetBalance(ctx context.Context) (interface{}, error) {
	wallet, err := r.wallets.CurrentWallet(ctx)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, types.NewError(types.FaultNotFound, "no wallet found")
	}
	balance, err := r.engine.GetBalance(ctx, wallet.Address)
	if err != nil {
		return nil, err
	}
	return map[string]string{"balance": balance, "address": wallet.Address}, nil
}

// handleEstimateFee quotes a fee. Fails fast when locked instead of
// burning a node round trip.
func (r *Router) handleEstimateFee(ctx context.Context, msg types.Message) (interface{}, error) {
	if !r.session.IsUnlocked() {
		return nil, types.NewError(types.FaultWalletLocked, "wallet is locked")
	}
	to, _ := msg.Data["to"].(string)
	amount, _ := msg.Data["amount"].(string)
	return r.engine.EstimateFee(ctx, to, amount)
}

// handleSendTransaction is the first-party send: the popup already
// confirmed with the user, so no pending request is created.
func (r *Router) handleSendTransaction(ctx context.Context, msg types.Message) (interface{}, error) {
	if !r.session.IsUnlocked() {
		return nil, types.NewError(types.FaultWalletLocked, "wallet is locked")
	}
	req := types.TransactionRequest{}
	req.To, _ = msg.Data["to"].(string)
	req.Amount, _ = msg.Data["amount"].(string)
	req.Fee, _ = msg.Data["fee"].(string)

	txID, err := r.engine.SendTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	r.recordSent(ctx, txID, req)
	return map[string]string{"txId": txID}, nil
}

// handleConnectionApproved grants the requesting origin access and wakes
// the suspended provider call with the account list. A decision for an
// already-settled request acknowledges without side effects.
func (r *Router) handleConnectionApproved(ctx context.Context, msg types.Message) (interface{}, error) {
	id, err := requestIDOf(msg)
	if err != nil {
		return nil, err
	}
	req, ok := r.pending.Get(id)
	if !ok {
		return map[string]bool{"settled": true}, nil
	}

	address := r.engine.CurrentAddress()
	if address == "" {
		return nil, types.NewError(types.FaultWalletLocked, "unlock the wallet before approving")
	}
	if err := r.wallets.AddConnectedSite(ctx, req.Origin); err != nil {
		return nil, err
	}
	r.pending.Resolve(id, address)

	r.logger.Info("connection approved", zap.String("origin", req.Origin))
	return map[string]bool{"approved": true}, nil
}

// handleTransactionApproved executes the DApp-requested send and wakes the
// suspended provider call with the transaction id. An engine failure
// rejects the provider call with the same error.
func (r *Router) handleTransactionApproved(ctx context.Context, msg types.Message) (interface{}, error) {
	id, err := requestIDOf(msg)
	if err != nil {
		return nil, err
	}
	pendingReq, ok := r.pending.Get(id)
	if !ok {
		return map[string]bool{"settled": true}, nil
	}

	req := types.TransactionRequest{}
	req.To, _ = pendingReq.Params["to"].(string)
	req.Amount, _ = pendingReq.Params["amount"].(string)
	req.Fee, _ = pendingReq.Params["fee"].(string)

	txID, err := r.engine.SendTransaction(ctx, req)
	if err != nil {
		r.pending.Reject(id, err)
		return nil, err
	}
	r.recordSent(ctx, txID, req)
	r.pending.Resolve(id, txID)

	r.logger.Info("transaction approved",
		zap.String("origin", pendingReq.Origin),
		zap.String("tx_id", txID),
	)
	return map[string]string{"txId": txID}, nil
}

// handleMessageSignApproved signs the requested message and wakes the
// suspended provider call with the signature.
func (r *Router) handleMessageSignApproved(ctx context.Context, msg types.Message) (interface{}, error) {
	id, err := requestIDOf(msg)
	if err != nil {
		return nil, err
	}
	pendingReq, ok := r.pending.Get(id)
	if !ok {
		return map[string]bool{"settled": true}, nil
	}

	message, _ := pendingReq.Params["message"].(string)
	signature, err := r.engine.SignMessage(ctx, message)
	if err != nil {
		r.pending.Reject(id, err)
		return nil, err
	}
	r.pending.Resolve(id, signature)
	return map[string]string{"signature": signature}, nil
}

// handleDecisionRejected settles any pending request as user-rejected.
// Shared by all three rejection kinds; unknown ids are a no-op.
func (r *Router) handleDecisionRejected(msg types.Message) (interface{}, error) {
	id, err := requestIDOf(msg)
	if err != nil {
		return nil, err
	}
	r.pending.Reject(id, types.NewRPCError(types.CodeUserRejected, "user rejected the request"))
	return map[string]bool{"rejected": true}, nil
}

func (r *Router) handleGetPendingRequest(msg types.Message) (interface{}, error) {
	id, err := requestIDOf(msg)
	if err != nil {
		return nil, err
	}
	req, ok := r.pending.Get(id)
	if !ok {
		return nil, types.NewError(types.FaultNotFound, "pending request not found")
	}
	return req, nil
}

func (r *Router) handleDisconnectSite(ctx context.Context, msg types.Message) (interface{}, error) {
	origin, _ := msg.Data["origin"].(string)
	if origin == "" {
		return nil, types.NewError(types.FaultValidation, "origin is required")
	}
	if err := r.wallets.RemoveConnectedSite(ctx, origin); err != nil {
		return nil, err
	}
	return map[string]bool{"disconnected": true}, nil
}

// handleUpdateAutoLock persists the new inactivity policy and applies it
// to the live session immediately.
func (r *Router) handleUpdateAutoLock(ctx context.Context, msg types.Message) (interface{}, error) {
	minutes, ok := msg.Data["timeoutMinutes"].(float64)
	if !ok || minutes < 1 || minutes > 1440 {
		return nil, types.NewError(types.FaultValidation, "timeoutMinutes must be between 1 and 1440")
	}

	settings := types.AutoLockSettings{TimeoutMinutes: int(minutes)}
	if err := r.wallets.SaveAutoLockSettings(ctx, settings); err != nil {
		return nil, err
	}
	r.session.SetTimeout(time.Duration(settings.TimeoutMinutes) * time.Minute)
	return settings, nil
}

// recordSent appends a history entry for an outgoing transaction. History
// is advisory; a store failure never fails the send that already
// broadcast.
func (r *Router) recordSent(ctx context.Context, txID string, req types.TransactionRequest) {
	record := types.TransactionRecord{
		TxID:      txID,
		Direction: "sent",
		Amount:    req.Amount,
		To:        req.To,
		Fee:       req.Fee,
		Timestamp: types.Timestamp(time.Now()),
	}
	if err := r.wallets.AppendHistory(ctx, record); err != nil {
		r.logger.Warn("failed to record transaction history",
			zap.String("tx_id", txID),
			zap.Error(err),
		)
	}
}
