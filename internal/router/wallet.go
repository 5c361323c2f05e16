package router

import (
	"context"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/session"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// handleGenerateWallet creates a fresh wallet sealed under password, makes
// it current, and leaves the session unlocked.
func (r *Router) handleGenerateWallet(ctx context.Context, msg types.Message) (interface{}, error) {
	password, _ := msg.Data["password"].(string)
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	address, privateKeyHex, err := r.keyring.GenerateKey()
	if err != nil {
		return nil, err
	}
	encrypted, err := r.keyring.EncryptKey(privateKeyHex, password)
	if err != nil {
		return nil, err
	}
	if err := r.wallets.AddWallet(ctx, types.WalletData{
		Address:      address,
		EncryptedKey: encrypted,
		CreatedAt:    types.Timestamp(time.Now()),
	}); err != nil {
		return nil, err
	}

	if _, err := r.engine.Unlock(ctx, password); err != nil {
		return nil, err
	}
	r.session.Unlock()
	if r.onUnlock != nil {
		r.onUnlock()
	}

	r.logger.Info("wallet generated", zap.String("address", address))
	return map[string]string{"address": address}, nil
}

// handleImportWallet imports an existing private key sealed under password.
func (r *Router) handleImportWallet(ctx context.Context, msg types.Message) (interface{}, error) {
	privateKeyHex, _ := msg.Data["privateKey"].(string)
	password, _ := msg.Data["password"].(string)
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	address, err := r.keyring.DeriveAddress(privateKeyHex)
	if err != nil {
		return nil, err
	}
	encrypted, err := r.keyring.EncryptKey(privateKeyHex, password)
	if err != nil {
		return nil, err
	}
	if err := r.wallets.AddWallet(ctx, types.WalletData{
		Address:      address,
		EncryptedKey: encrypted,
		CreatedAt:    types.Timestamp(time.Now()),
	}); err != nil {
		return nil, err
	}

	if _, err := r.engine.Unlock(ctx, password); err != nil {
		return nil, err
	}
	r.session.Unlock()
	if r.onUnlock != nil {
		r.onUnlock()
	}

	r.logger.Info("wallet imported", zap.String("address", address))
	return map[string]string{"address": address}, nil
}

// handleUnlockWallet verifies the passphrase and opens a session.
func (r *Router) handleUnlockWallet(ctx context.Context, msg types.Message) (interface{}, error) {
	password, _ := msg.Data["password"].(string)
	if password == "" {
		return nil, types.NewError(types.FaultValidation, "password is required")
	}

	address, err := r.engine.Unlock(ctx, password)
	if err != nil {
		return nil, err
	}
	r.session.Unlock()
	if r.onUnlock != nil {
		r.onUnlock()
	}
	return map[string]string{"address": address}, nil
}

// handleWalletUnlocked acknowledges the popup's unlock notification. The
// session only starts if the engine actually holds key material.
func (r *Router) handleWalletUnlocked() (interface{}, error) {
	if !r.engine.IsUnlocked() {
		return nil, types.NewError(types.FaultWalletLocked, "wallet is locked")
	}
	r.session.Unlock()
	return map[string]bool{"acknowledged": true}, nil
}

func (r *Router) handleLockWallet() (interface{}, error) {
	r.session.Lock(session.ReasonExplicit)
	return map[string]bool{"locked": true}, nil
}

// handleResetWallet locks, then wipes every stored record. Irreversible.
func (r *Router) handleResetWallet(ctx context.Context) (interface{}, error) {
	r.session.Lock(session.ReasonReset)
	if err := r.wallets.ClearAll(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("wallet reset")
	return map[string]bool{"reset": true}, nil
}

// handleChangePassword re-seals the current wallet's key under a new
// passphrase. The old passphrase must verify first.
func (r *Router) handleChangePassword(ctx context.Context, msg types.Message) (interface{}, error) {
	oldPassword, _ := msg.Data["oldPassword"].(string)
	newPassword, _ := msg.Data["newPassword"].(string)
	if oldPassword == "" {
		return nil, types.NewError(types.FaultValidation, "current password is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	stored, err := r.wallets.LoadWallet(ctx)
	if err != nil {
		return nil, err
	}
	wallet := stored.Current()
	if wallet == nil {
		return nil, types.NewError(types.FaultNotFound, "no wallet found")
	}

	privateKeyHex, err := r.keyring.DecryptKey(wallet.EncryptedKey, oldPassword)
	if err != nil {
		return nil, err
	}
	encrypted, err := r.keyring.EncryptKey(privateKeyHex, newPassword)
	if err != nil {
		return nil, err
	}
	wallet.EncryptedKey = encrypted
	if err := r.wallets.SaveWallet(ctx, stored); err != nil {
		return nil, err
	}

	r.logger.Info("wallet password changed", zap.String("address", wallet.Address))
	return map[string]bool{"changed": true}, nil
}

// handleExportPrivateKey reveals the raw key after a passphrase re-check.
// Unlocked state alone is not enough to export.
func (r *Router) handleExportPrivateKey(ctx context.Context, msg types.Message) (interface{}, error) {
	password, _ := msg.Data["password"].(string)
	if password == "" {
		return nil, types.NewError(types.FaultValidation, "password is required")
	}

	wallet, err := r.wallets.CurrentWallet(ctx)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, types.NewError(types.FaultNotFound, "no wallet found")
	}

	privateKeyHex, err := r.keyring.DecryptKey(wallet.EncryptedKey, password)
	if err != nil {
		return nil, err
	}
	return map[string]string{"privateKey": privateKeyHex}, nil
}

func (r *Router) handleCheckWallet(ctx context.Context) (interface{}, error) {
	exists, err := r.wallets.HasWallet(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"exists": exists}, nil
}

// validatePassword enforces the minimum passphrase policy: 8+ characters
// with at least one uppercase, one lowercase, and one digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return types.NewError(types.FaultValidation, "password must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return types.NewError(types.FaultValidation, "password must contain uppercase, lowercase and a digit")
	}
	return nil
}
