// Package engine defines the wallet engine capability consumed by the
// coordination layer. Key derivation, signing, and node access live behind
// these interfaces; the coordinator never touches secret material itself.
package engine

import (
	"context"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Engine is the opaque wallet capability. Unlock is the only call that may
// load secret material into memory; Lock must discard it.
type Engine interface {
	// Unlock decrypts the stored key with passphrase and returns the
	// wallet address. Fails with an invalid-credentials error on a wrong
	// passphrase.
	Unlock(ctx context.Context, passphrase string) (string, error)
	// Lock purges secret material from memory.
	Lock()
	IsUnlocked() bool
	// CurrentAddress returns the unlocked wallet's address, or "" when
	// locked.
	CurrentAddress() string

	GetBalance(ctx context.Context, address string) (string, error)
	EstimateFee(ctx context.Context, to, amount string) (*types.FeeEstimate, error)
	// SendTransaction signs and broadcasts. Requires an unlocked engine.
	SendTransaction(ctx context.Context, req types.TransactionRequest) (string, error)
	SignMessage(ctx context.Context, message string) (string, error)
	// GetNetwork returns the process-wide network name.
	GetNetwork() string
}

// Keyring covers key-material lifecycle delegated to the wallet SDK:
// generation, import validation, and passphrase encryption.
type Keyring interface {
	// GenerateKey creates a fresh key pair, returning address and the
	// private key as hex.
	GenerateKey() (address, privateKeyHex string, err error)
	// DeriveAddress recomputes the address for an imported private key.
	DeriveAddress(privateKeyHex string) (string, error)
	// EncryptKey seals a private key under a passphrase.
	EncryptKey(privateKeyHex, passphrase string) (string, error)
	// DecryptKey opens a sealed key; wrong passphrases fail with an
	// invalid-credentials error.
	DecryptKey(encrypted, passphrase string) (string, error)
}
