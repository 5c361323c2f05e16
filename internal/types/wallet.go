package types

import "time"

// WalletData is one stored wallet record. The private key is only ever
// persisted encrypted.
type WalletData struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"encrypted_private_key"`
	CreatedAt    int64  `json:"created_at"`
}

// StoredWallet is the persisted multi-wallet document.
type StoredWallet struct {
	Wallets      []WalletData `json:"wallets"`
	CurrentIndex int          `json:"current_wallet_index"`
}

// Current returns the active wallet record, or nil when none exists.
func (s *StoredWallet) Current() *WalletData {
	if s == nil || len(s.Wallets) == 0 || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Wallets) {
		return nil
	}
	return &s.Wallets[s.CurrentIndex]
}

// ConnectedSite records a DApp origin the user granted access to.
// At most one record per origin.
type ConnectedSite struct {
	Origin      string   `json:"origin"`
	ConnectedAt int64    `json:"connected_at"`
	Permissions []string `json:"permissions"`
}

// TransactionRecord is one history entry, amounts in sompi.
type TransactionRecord struct {
	TxID      string `json:"tx_id"`
	Direction string `json:"type"` // "sent" or "received"
	Amount    string `json:"amount"`
	To        string `json:"to,omitempty"`
	From      string `json:"from,omitempty"`
	Fee       string `json:"fee,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// TransactionRequest carries the parameters of an outgoing transaction.
// Fee is an optional custom fee in sompi.
type TransactionRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
	Fee    string `json:"fee,omitempty"`
}

// FeeEstimate is the engine's fee quote for a prospective transaction.
type FeeEstimate struct {
	Fee     string `json:"fee"`
	Inputs  int    `json:"inputs"`
	Outputs int    `json:"outputs"`
}

// AutoLockSettings is the user-tunable inactivity policy.
type AutoLockSettings struct {
	TimeoutMinutes int `json:"timeout_minutes"`
}

// UnlockStatus is the reply to a CHECK_UNLOCK_STATUS query.
type UnlockStatus struct {
	IsUnlocked    bool   `json:"isUnlocked"`
	InGracePeriod bool   `json:"inGracePeriod"`
	Address       string `json:"address,omitempty"`
}

// Timestamp converts a time to the millisecond epoch used on the wire.
func Timestamp(t time.Time) int64 { return t.UnixMilli() }
