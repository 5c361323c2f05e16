// Package hoosat implements the wallet engine against the Hoosat REST
// proxy, with an encrypted on-disk keystore.
package hoosat

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/store"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Fee model constants, in sompi.
const (
	feePerInput  = 1100
	feePerOutput = 500
	minFee       = 100
)

type unlockedWallet struct {
	address    string
	privateKey []byte
}

// Engine is the concrete wallet engine. The in-memory secret handle is
// owned here exclusively and zeroed on Lock.
type Engine struct {
	client   *Client
	keystore *Keystore
	wallets  *store.WalletStore
	network  string
	logger   *logging.Logger

	mu       sync.Mutex
	unlocked *unlockedWallet
}

// New creates an engine bound to a node client, keystore, and wallet store.
func New(client *Client, keystore *Keystore, wallets *store.WalletStore, network string, logger *logging.Logger) *Engine {
	return &Engine{
		client:   client,
		keystore: keystore,
		wallets:  wallets,
		network:  network,
		logger:   logger,
	}
}

// Keystore exposes the key-material capability for wallet lifecycle
// handlers (generate, import, export, change password).
func (e *Engine) Keystore() *Keystore { return e.keystore }

// Unlock decrypts the current wallet's key with passphrase and loads it
// into memory.
func (e *Engine) Unlock(ctx context.Context, passphrase string) (string, error) {
	wallet, err := e.wallets.CurrentWallet(ctx)
	if err != nil {
		return "", err
	}
	if wallet == nil {
		return "", types.NewError(types.FaultNotFound, "no wallet found")
	}

	privateKeyHex, err := e.keystore.DecryptKey(wallet.EncryptedKey, passphrase)
	if err != nil {
		return "", err
	}
	privateKey, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return "", types.NewError(types.FaultEngine, "corrupt key material")
	}

	e.mu.Lock()
	e.unlocked = &unlockedWallet{address: wallet.Address, privateKey: privateKey}
	e.mu.Unlock()

	e.logger.Info("wallet unlocked", zap.String("address", wallet.Address))
	return wallet.Address, nil
}

// Lock zeroes and discards the in-memory key.
func (e *Engine) Lock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unlocked != nil {
		for i := range e.unlocked.privateKey {
			e.unlocked.privateKey[i] = 0
		}
		e.unlocked = nil
	}
}

// IsUnlocked reports whether secret material is loaded.
func (e *Engine) IsUnlocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unlocked != nil
}

// CurrentAddress returns the unlocked address, or "" when locked.
func (e *Engine) CurrentAddress() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unlocked == nil {
		return ""
	}
	return e.unlocked.address
}

// GetBalance delegates to the node proxy.
func (e *Engine) GetBalance(ctx context.Context, address string) (string, error) {
	return e.client.GetBalance(ctx, address)
}

// EstimateFee quotes a fee by selecting inputs to cover amount plus two
// outputs (recipient and change).
func (e *Engine) EstimateFee(ctx context.Context, to, amount string) (*types.FeeEstimate, error) {
	e.mu.Lock()
	wallet := e.unlocked
	e.mu.Unlock()
	if wallet == nil {
		return nil, types.NewError(types.FaultWalletLocked, "wallet is locked")
	}

	target, err := parseSompi(amount)
	if err != nil {
		return nil, err
	}

	utxos, err := e.client.GetUtxos(ctx, wallet.address)
	if err != nil {
		return nil, err
	}
	inputs, _, err := selectUtxos(utxos, target)
	if err != nil {
		return nil, err
	}

	const outputs = 2
	fee := uint64(len(inputs)*feePerInput + outputs*feePerOutput)
	if fee < minFee {
		fee = minFee
	}
	return &types.FeeEstimate{
		Fee:     strconv.FormatUint(fee, 10),
		Inputs:  len(inputs),
		Outputs: outputs,
	}, nil
}

// signedTransaction is the wire shape submitted to the proxy.
type signedTransaction struct {
	Version uint16     `json:"version"`
	Inputs  []txInput  `json:"inputs"`
	Outputs []txOutput `json:"outputs"`
	Network string     `json:"network"`
}

type txInput struct {
	TransactionID string `json:"previousOutpoint.transactionId"`
	Index         uint32 `json:"previousOutpoint.index"`
	Signature     string `json:"signatureScript"`
}

type txOutput struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// SendTransaction builds, signs, and broadcasts. Requires unlock; change
// returns to the wallet's own address.
func (e *Engine) SendTransaction(ctx context.Context, req types.TransactionRequest) (string, error) {
	e.mu.Lock()
	wallet := e.unlocked
	e.mu.Unlock()
	if wallet == nil {
		return "", types.NewError(types.FaultWalletLocked, "wallet is locked")
	}

	amount, err := parseSompi(req.Amount)
	if err != nil {
		return "", err
	}
	if req.To == "" {
		return "", types.NewError(types.FaultValidation, "recipient address is required")
	}

	utxos, err := e.client.GetUtxos(ctx, wallet.address)
	if err != nil {
		return "", err
	}

	var fee uint64
	if req.Fee != "" {
		if fee, err = parseSompi(req.Fee); err != nil {
			return "", err
		}
	}

	selected, total, err := selectUtxos(utxos, amount+fee)
	if err != nil {
		return "", err
	}
	if fee == 0 {
		fee = uint64(len(selected)*feePerInput + 2*feePerOutput)
		if fee < minFee {
			fee = minFee
		}
		// Reselect in case the computed fee pushed us past the first
		// selection's total.
		if total < amount+fee {
			if selected, total, err = selectUtxos(utxos, amount+fee); err != nil {
				return "", err
			}
		}
	}
	if total < amount+fee {
		return "", types.NewError(types.FaultValidation, "insufficient funds")
	}

	tx := signedTransaction{
		Version: 0,
		Network: e.network,
		Outputs: []txOutput{{Address: req.To, Amount: strconv.FormatUint(amount, 10)}},
	}
	if change := total - amount - fee; change > 0 {
		tx.Outputs = append(tx.Outputs, txOutput{Address: wallet.address, Amount: strconv.FormatUint(change, 10)})
	}
	for _, u := range selected {
		tx.Inputs = append(tx.Inputs, txInput{
			TransactionID: u.Outpoint.TransactionID,
			Index:         u.Outpoint.Index,
		})
	}

	digest, err := transactionDigest(tx)
	if err != nil {
		return "", err
	}
	sig := hex.EncodeToString(ed25519.Sign(ed25519.NewKeyFromSeed(wallet.privateKey), digest))
	for i := range tx.Inputs {
		tx.Inputs[i].Signature = sig
	}

	txID, err := e.client.SubmitTransaction(ctx, tx)
	if err != nil {
		return "", err
	}
	e.logger.Info("transaction broadcast", zap.String("tx_id", txID))
	return txID, nil
}

// SignMessage signs an arbitrary message with the unlocked key.
func (e *Engine) SignMessage(ctx context.Context, message string) (string, error) {
	e.mu.Lock()
	wallet := e.unlocked
	e.mu.Unlock()
	if wallet == nil {
		return "", types.NewError(types.FaultWalletLocked, "wallet is locked")
	}
	digest := sha256.Sum256([]byte(message))
	return hex.EncodeToString(ed25519.Sign(ed25519.NewKeyFromSeed(wallet.privateKey), digest[:])), nil
}

// GetNetwork returns the configured network name.
func (e *Engine) GetNetwork() string { return e.network }

func parseSompi(amount string) (uint64, error) {
	if amount == "" {
		return 0, types.NewError(types.FaultValidation, "amount is required")
	}
	v, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return 0, types.NewError(types.FaultValidation, "invalid amount %q", amount)
	}
	return v, nil
}

// selectUtxos accumulates outputs until target is covered.
func selectUtxos(utxos []Utxo, target uint64) ([]Utxo, uint64, error) {
	var selected []Utxo
	var total uint64
	for _, u := range utxos {
		v, err := strconv.ParseUint(u.UtxoEntry.Amount, 10, 64)
		if err != nil {
			continue
		}
		selected = append(selected, u)
		total += v
		if total >= target {
			return selected, total, nil
		}
	}
	if len(selected) == 0 {
		return nil, 0, types.NewError(types.FaultValidation, "no utxos available")
	}
	return selected, total, nil
}

func transactionDigest(tx signedTransaction) ([]byte, error) {
	skeleton := tx
	for i := range skeleton.Inputs {
		skeleton.Inputs[i].Signature = ""
	}
	data, err := json.Marshal(skeleton)
	if err != nil {
		return nil, types.NewError(types.FaultEngine, "failed to serialize transaction: %v", err)
	}
	digest := sha256.Sum256(data)
	return digest[:], nil
}
