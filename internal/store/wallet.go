package store

import (
	"context"
	"time"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Storage keys. One JSON document per key, mirroring the extension's
// chrome.storage layout.
const (
	keyWallet         = "hoosat_wallet"
	keyConnectedSites = "hoosat_connected_sites"
	keyHistory        = "hoosat_history"
	keySettings       = "hoosat_settings"
)

// History is capped; oldest entries fall off.
const historyLimit = 100

// WalletStore layers typed wallet accessors over a raw Store.
type WalletStore struct {
	kv Store
}

// NewWalletStore wraps a raw key/value store.
func NewWalletStore(kv Store) *WalletStore {
	return &WalletStore{kv: kv}
}

// LoadWallet returns the stored wallet document, or nil when none exists.
func (w *WalletStore) LoadWallet(ctx context.Context) (*types.StoredWallet, error) {
	var stored types.StoredWallet
	ok, err := w.kv.Get(ctx, keyWallet, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &stored, nil
}

// SaveWallet persists the wallet document.
func (w *WalletStore) SaveWallet(ctx context.Context, stored *types.StoredWallet) error {
	return w.kv.Set(ctx, keyWallet, stored)
}

// HasWallet reports whether at least one wallet record exists.
func (w *WalletStore) HasWallet(ctx context.Context) (bool, error) {
	stored, err := w.LoadWallet(ctx)
	if err != nil {
		return false, err
	}
	return stored != nil && len(stored.Wallets) > 0, nil
}

// CurrentWallet returns the active wallet record, or nil when none exists.
func (w *WalletStore) CurrentWallet(ctx context.Context) (*types.WalletData, error) {
	stored, err := w.LoadWallet(ctx)
	if err != nil {
		return nil, err
	}
	return stored.Current(), nil
}

// AddWallet appends a wallet record and makes it current.
func (w *WalletStore) AddWallet(ctx context.Context, data types.WalletData) error {
	stored, err := w.LoadWallet(ctx)
	if err != nil {
		return err
	}
	if stored == nil {
		stored = &types.StoredWallet{}
	}
	stored.Wallets = append(stored.Wallets, data)
	stored.CurrentIndex = len(stored.Wallets) - 1
	return w.SaveWallet(ctx, stored)
}

// ConnectedSites returns all connected-site records.
func (w *WalletStore) ConnectedSites(ctx context.Context) ([]types.ConnectedSite, error) {
	var sites []types.ConnectedSite
	if _, err := w.kv.Get(ctx, keyConnectedSites, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// IsOriginConnected reports whether origin holds a connection grant.
func (w *WalletStore) IsOriginConnected(ctx context.Context, origin string) (bool, error) {
	sites, err := w.ConnectedSites(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range sites {
		if s.Origin == origin {
			return true, nil
		}
	}
	return false, nil
}

// AddConnectedSite grants origin read access. Idempotent: a second add for
// the same origin is a no-op.
func (w *WalletStore) AddConnectedSite(ctx context.Context, origin string) error {
	sites, err := w.ConnectedSites(ctx)
	if err != nil {
		return err
	}
	for _, s := range sites {
		if s.Origin == origin {
			return nil
		}
	}
	sites = append(sites, types.ConnectedSite{
		Origin:      origin,
		ConnectedAt: types.Timestamp(time.Now()),
		Permissions: []string{"read"},
	})
	return w.kv.Set(ctx, keyConnectedSites, sites)
}

// RemoveConnectedSite revokes origin's grant. Unknown origins are a no-op.
func (w *WalletStore) RemoveConnectedSite(ctx context.Context, origin string) error {
	sites, err := w.ConnectedSites(ctx)
	if err != nil {
		return err
	}
	filtered := sites[:0]
	for _, s := range sites {
		if s.Origin != origin {
			filtered = append(filtered, s)
		}
	}
	return w.kv.Set(ctx, keyConnectedSites, filtered)
}

// History returns transaction records, newest first.
func (w *WalletStore) History(ctx context.Context) ([]types.TransactionRecord, error) {
	var records []types.TransactionRecord
	if _, err := w.kv.Get(ctx, keyHistory, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// AppendHistory prepends a transaction record, trimming to the cap.
func (w *WalletStore) AppendHistory(ctx context.Context, record types.TransactionRecord) error {
	records, err := w.History(ctx)
	if err != nil {
		return err
	}
	records = append([]types.TransactionRecord{record}, records...)
	if len(records) > historyLimit {
		records = records[:historyLimit]
	}
	return w.kv.Set(ctx, keyHistory, records)
}

// AutoLockSettings returns the persisted auto-lock policy, defaulting to
// 30 minutes.
func (w *WalletStore) AutoLockSettings(ctx context.Context) (types.AutoLockSettings, error) {
	settings := types.AutoLockSettings{TimeoutMinutes: 30}
	if _, err := w.kv.Get(ctx, keySettings, &settings); err != nil {
		return settings, err
	}
	if settings.TimeoutMinutes <= 0 {
		settings.TimeoutMinutes = 30
	}
	return settings, nil
}

// SaveAutoLockSettings persists the auto-lock policy.
func (w *WalletStore) SaveAutoLockSettings(ctx context.Context, settings types.AutoLockSettings) error {
	return w.kv.Set(ctx, keySettings, settings)
}

// ClearAll removes every record. Used by wallet reset.
func (w *WalletStore) ClearAll(ctx context.Context) error {
	return w.kv.Clear(ctx)
}
